package devserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"boardsync/domain"
)

func (s *Server) getBoard(c echo.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Param("id") != s.board.id {
		return c.String(http.StatusNotFound, "no such board")
	}
	return c.JSON(http.StatusOK, s.assembleBoard())
}

func (s *Server) assembleBoard() domain.Board {
	b := domain.Board{ID: s.board.id, ColumnOrder: append([]string(nil), s.board.columnOrder...)}
	for _, id := range s.board.columnOrder {
		b.Columns = append(b.Columns, *s.board.columns[id])
	}
	for _, col := range b.Columns {
		for _, cardID := range col.CardIDs {
			if card, ok := s.board.cards[cardID]; ok {
				b.Cards = append(b.Cards, *card)
			}
		}
	}
	return b
}

func (s *Server) patchBoardOrder(c echo.Context, _ string) error {
	var body struct {
		ColumnOrder []string `json:"columnOrder"`
	}
	if err := c.Bind(&body); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Param("id") != s.board.id {
		return c.String(http.StatusNotFound, "no such board")
	}
	for _, id := range body.ColumnOrder {
		if _, ok := s.board.columns[id]; !ok {
			return c.String(http.StatusBadRequest, "unknown column in order")
		}
	}
	if len(body.ColumnOrder) != len(s.board.columnOrder) {
		return c.String(http.StatusBadRequest, "order length mismatch")
	}
	s.board.columnOrder = body.ColumnOrder
	return c.NoContent(http.StatusOK)
}

func (s *Server) createColumn(c echo.Context, _ string) error {
	var body struct {
		Name    string `json:"name"`
		BoardID string `json:"boardId"`
	}
	if err := c.Bind(&body); err != nil || body.Name == "" {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	col := &domain.Column{ID: s.newID("col"), Name: body.Name, CardIDs: []string{}}
	s.board.columns[col.ID] = col
	s.board.columnOrder = append(s.board.columnOrder, col.ID)
	return c.JSON(http.StatusCreated, col)
}

func (s *Server) patchColumn(c echo.Context, _ string) error {
	var body domain.Column
	if err := c.Bind(&body); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.board.columns[c.Param("id")]
	if !ok {
		return c.String(http.StatusNotFound, "no such column")
	}
	if body.Name != "" {
		col.Name = body.Name
	}
	if body.CardIDs != nil {
		for _, cardID := range body.CardIDs {
			if _, ok := s.board.cards[cardID]; !ok {
				return c.String(http.StatusBadRequest, "unknown card in column")
			}
		}
		col.CardIDs = body.CardIDs
		// The replaced column owns its cards now; evict them from every
		// other column so a card drag settles on one home.
		owned := make(map[string]struct{}, len(body.CardIDs))
		for _, id := range body.CardIDs {
			owned[id] = struct{}{}
		}
		for _, other := range s.board.columns {
			if other.ID == col.ID {
				continue
			}
			kept := other.CardIDs[:0]
			for _, id := range other.CardIDs {
				if _, taken := owned[id]; !taken {
					kept = append(kept, id)
				}
			}
			other.CardIDs = kept
		}
	}
	return c.JSON(http.StatusOK, col)
}

func (s *Server) deleteColumn(c echo.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.board.columns[c.Param("id")]
	if !ok {
		return c.String(http.StatusNotFound, "no such column")
	}
	for _, cardID := range col.CardIDs {
		delete(s.board.cards, cardID)
	}
	delete(s.board.columns, col.ID)
	kept := s.board.columnOrder[:0]
	for _, id := range s.board.columnOrder {
		if id != col.ID {
			kept = append(kept, id)
		}
	}
	s.board.columnOrder = kept
	return c.NoContent(http.StatusOK)
}

func (s *Server) createCard(c echo.Context, _ string) error {
	var card domain.Card
	if err := c.Bind(&card); err != nil || card.Name == "" {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.board.columns[c.Param("columnId")]
	if !ok {
		return c.String(http.StatusNotFound, "no such column")
	}
	if card.ID == "" {
		card.ID = s.newID("card")
	}
	if _, dup := s.board.cards[card.ID]; dup {
		return c.String(http.StatusConflict, "card id taken")
	}
	card.Comments = nil
	s.board.cards[card.ID] = &card
	col.CardIDs = append(col.CardIDs, card.ID)
	return c.NoContent(http.StatusCreated)
}

// patchCard applies a multipart field-edit payload.
func (s *Server) patchCard(c echo.Context, _ string) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.String(http.StatusBadRequest, "expected multipart body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.board.cards[c.Param("id")]
	if !ok {
		return c.String(http.StatusNotFound, "no such card")
	}
	for key, values := range form.Value {
		if len(values) == 0 {
			continue
		}
		switch key {
		case "name":
			if values[0] != "" {
				card.Name = values[0]
			}
		case "description":
			card.Description = values[0]
		case "completed":
			if b, err := strconv.ParseBool(values[0]); err == nil {
				card.Completed = b
			}
		case "dueStart":
			if t, err := time.Parse(time.RFC3339, values[0]); err == nil {
				card.DueStart = &t
			}
		case "dueEnd":
			if t, err := time.Parse(time.RFC3339, values[0]); err == nil {
				card.DueEnd = &t
			}
		case "assignee[]":
			var assignees []domain.Participant
			for _, id := range values {
				assignees = append(assignees, domain.Participant{ID: id})
			}
			card.Assignees = assignees
		}
	}
	for _, fh := range form.File["attachments"] {
		card.Attachments = append(card.Attachments, fh.Filename)
	}
	return c.JSON(http.StatusOK, card)
}

func (s *Server) deleteCard(c echo.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cardID := c.Param("id")
	if _, ok := s.board.cards[cardID]; !ok {
		return c.String(http.StatusNotFound, "no such card")
	}
	delete(s.board.cards, cardID)
	for _, col := range s.board.columns {
		kept := col.CardIDs[:0]
		for _, id := range col.CardIDs {
			if id != cardID {
				kept = append(kept, id)
			}
		}
		col.CardIDs = kept
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) createComment(c echo.Context, _ string) error {
	var body struct {
		domain.Comment
		CardID string `json:"cardId"`
	}
	if err := c.Bind(&body); err != nil || body.CardID == "" || body.Message == "" {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.board.cards[body.CardID]
	if !ok {
		return c.String(http.StatusNotFound, "no such card")
	}
	comment := body.Comment
	if comment.ID == "" {
		comment.ID = s.newID("comment")
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	card.Comments = append(card.Comments, comment)
	return c.NoContent(http.StatusCreated)
}
