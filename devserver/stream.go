package devserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"boardsync/domain"
)

const keepaliveInterval = 15 * time.Second

// streamEvents holds the SSE subscription open and relays broadcast frames.
func (s *Server) streamEvents(c echo.Context, _ string) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return c.String(http.StatusInternalServerError, "stream unsupported")
	}
	c.Response().WriteHeader(http.StatusOK)
	flusher.Flush()

	frames := make(chan []byte, 16)
	s.mu.Lock()
	s.subs[frames] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.subs, frames)
		s.mu.Unlock()
	}()

	ctx := c.Request().Context()
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-frames:
			if _, err := c.Response().Write(frame); err != nil {
				return nil
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := c.Response().Write([]byte(": keepalive\n\n")); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}

// postMessage accepts an outbound message, appends it to the conversation,
// broadcasts the echo to every subscriber (the sender included), and returns
// the canonical record as the acknowledgement.
func (s *Server) postMessage(c echo.Context, uid string) error {
	var post domain.MessagePost
	if err := c.Bind(&post); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	if post.ConversationID == "" || (post.Body == "" && len(post.Attachments) == 0) {
		return c.String(http.StatusBadRequest, "empty message")
	}

	s.mu.Lock()
	conv, ok := s.conversations[post.ConversationID]
	if !ok {
		s.mu.Unlock()
		return c.String(http.StatusNotFound, "no such conversation")
	}
	contentType := post.ContentType
	if contentType == "" {
		contentType = "text"
	}
	msg := domain.Message{
		ID:          s.newID("m"),
		Body:        post.Body,
		ContentType: contentType,
		Attachments: post.Attachments,
		CreatedAt:   time.Now().UTC(),
		SenderID:    uid,
	}
	conv.Messages = append(conv.Messages, msg)
	s.broadcastLocked(post.ConversationID, msg)
	s.mu.Unlock()

	return c.JSON(http.StatusCreated, msg)
}

func (s *Server) broadcastLocked(conversationID string, msg domain.Message) {
	payload := struct {
		ConversationID string `json:"conversationId"`
		domain.Message
	}{ConversationID: conversationID, Message: msg}
	data, err := sonic.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).Error("devserver: broadcast encode failed")
		return
	}
	frame := []byte(fmt.Sprintf("event: message:new\ndata: %s\n\n", data))
	for sub := range s.subs {
		select {
		case sub <- frame:
		default:
			// Slow subscriber; it will reconverge on its next fetch.
		}
	}
}
