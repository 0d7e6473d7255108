// Package stream maintains the persistent push channel: one SSE connection
// per session carrying server-pushed events, plus the acked outbound message
// post that rides on the same endpoint.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"boardsync/domain"
	"boardsync/session"
)

const (
	// Server-pushed event names on the channel.
	EventMessageNew = "message:new"

	initialBackoff = time.Second
	maxBackoff     = 5 * time.Second
)

// Kind classifies events handed to the reconciler.
type Kind int

const (
	Connected Kind = iota
	Disconnected
	MessageNew
)

// Event is one occurrence on the push channel.
type Event struct {
	Kind           Kind
	ConversationID string         // set for MessageNew
	Message        domain.Message // set for MessageNew
}

// Client owns the session's single channel connection. Run keeps the
// subscription alive; PostMessage sends outbound messages and returns the
// acknowledged canonical record.
type Client struct {
	url       string
	bearer    string
	http      *http.Client
	logger    *log.Logger
	events    chan Event
	connected atomic.Bool
}

// New creates a channel client for the session. The endpoint is derived
// from the session's API origin.
func New(sess *session.Session, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Client{
		url:    sess.StreamURL(),
		bearer: sess.Token,
		http:   &http.Client{},
		logger: logger,
		events: make(chan Event, 64),
	}
}

// Events returns the channel the reconciler consumes. It is closed when Run
// returns.
func (c *Client) Events() <-chan Event { return c.events }

// IsConnected reports the current channel state. Tracked for observability
// only; nothing queues or retries across a disconnect.
func (c *Client) IsConnected() bool { return c.connected.Load() }

// Run subscribes and pumps events until ctx is cancelled, reconnecting with
// capped exponential backoff. Messages sent while disconnected fail at the
// transport layer; they are never replayed.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.events)
	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := c.subscribe(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			c.logger.WithError(err).Warn("stream connection lost")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (c *Client) subscribe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream: connect returned %d", resp.StatusCode)
	}

	c.setConnected(ctx, true)
	defer c.setConnected(ctx, false)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventName string
	var data bytes.Buffer
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			c.dispatch(ctx, eventName, data.Bytes())
			eventName = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		case strings.HasPrefix(line, ":"):
			// keepalive comment
		}
	}
	return scanner.Err()
}

func (c *Client) dispatch(ctx context.Context, eventName string, data []byte) {
	if eventName != EventMessageNew || len(data) == 0 {
		return
	}
	var payload struct {
		ConversationID string `json:"conversationId"`
		domain.Message
	}
	if err := sonic.Unmarshal(data, &payload); err != nil {
		c.logger.WithError(err).Warn("stream: unparseable message event")
		return
	}
	c.emit(ctx, Event{Kind: MessageNew, ConversationID: payload.ConversationID, Message: payload.Message})
}

func (c *Client) setConnected(ctx context.Context, up bool) {
	if c.connected.Swap(up) == up {
		return
	}
	kind := Disconnected
	if up {
		kind = Connected
	}
	c.emit(ctx, Event{Kind: kind})
}

func (c *Client) emit(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

// PostMessage sends an outbound message on the channel endpoint and decodes
// the acknowledgement into the canonical created message.
func (c *Client) PostMessage(ctx context.Context, post domain.MessagePost) (domain.Message, error) {
	data, err := sonic.Marshal(post)
	if err != nil {
		return domain.Message{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/message", bytes.NewReader(data))
	if err != nil {
		return domain.Message{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Message{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Message{}, fmt.Errorf("stream: message post returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var ack domain.Message
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return domain.Message{}, fmt.Errorf("stream: bad acknowledgement: %w", err)
	}
	return ack, nil
}
