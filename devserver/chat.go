package devserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"boardsync/domain"
)

type contactsResponse struct {
	Contacts []domain.Contact `json:"contacts"`
}

func (s *Server) getContacts(c echo.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, contactsResponse{Contacts: s.contacts})
}

func (s *Server) getConversations(c echo.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.conversationList())
}

func (s *Server) conversationList() []domain.Conversation {
	out := make([]domain.Conversation, 0, len(s.convOrder))
	for _, id := range s.convOrder {
		out = append(out, *s.conversations[id])
	}
	return out
}

func (s *Server) getConversation(c echo.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[c.Param("id")]
	if !ok {
		return c.String(http.StatusNotFound, "no such conversation")
	}
	return c.JSON(http.StatusOK, conv)
}

func (s *Server) getParticipants(c echo.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[c.Param("id")]
	if !ok {
		return c.String(http.StatusNotFound, "no such conversation")
	}
	return c.JSON(http.StatusOK, conv.Participants)
}

func (s *Server) markConversationSeen(c echo.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[c.Param("id")]
	if !ok {
		return c.String(http.StatusNotFound, "no such conversation")
	}
	conv.UnreadCount = 0
	return c.NoContent(http.StatusOK)
}

// searchConversations matches the query against participant names.
func (s *Server) searchConversations(c echo.Context, _ string) error {
	query := strings.ToLower(strings.TrimSpace(c.QueryParam("query")))
	s.mu.Lock()
	defer s.mu.Unlock()
	if query == "" {
		return c.JSON(http.StatusOK, s.conversationList())
	}
	var out []domain.Conversation
	for _, id := range s.convOrder {
		conv := s.conversations[id]
		for _, p := range conv.Participants {
			if strings.Contains(strings.ToLower(p.Name), query) {
				out = append(out, *conv)
				break
			}
		}
	}
	if out == nil {
		out = []domain.Conversation{}
	}
	return c.JSON(http.StatusOK, out)
}
