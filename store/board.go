package store

import "boardsync/domain"

// SetBoard rebuilds board state from a full fetch: cards and columns are
// keyed by id, column order comes straight from the payload.
func (s *Store) SetBoard(b domain.Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board.id = b.ID
	s.board.cards.ReplaceAll(b.Cards)
	s.board.columns.ReplaceAll(b.Columns)
	s.board.columnOrder = append(s.board.columnOrder[:0], b.ColumnOrder...)
	s.board.status.Loading = false
}

// BoardID returns the id of the loaded board.
func (s *Store) BoardID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.id
}

// BoardSnapshot returns the board in its wire form, columns and cards in
// presentation order.
func (s *Store) BoardSnapshot() domain.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Board{
		ID:          s.board.id,
		Cards:       s.board.cards.All(),
		Columns:     s.board.columns.All(),
		ColumnOrder: append([]string(nil), s.board.columnOrder...),
	}
}

// Column returns a copy of one column.
func (s *Store) Column(id string) (domain.Column, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.columnLocked(id)
}

func (s *Store) columnLocked(id string) (domain.Column, bool) {
	col, ok := s.board.columns.Get(id)
	if !ok {
		return domain.Column{}, false
	}
	col.CardIDs = append([]string(nil), col.CardIDs...)
	return col, true
}

// Card returns a copy of one card.
func (s *Store) Card(id string) (domain.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.cards.Get(id)
}

// ColumnOrder returns the top-level column order.
func (s *Store) ColumnOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.board.columnOrder...)
}

// AddColumn registers a new column at the end of the column order.
func (s *Store) AddColumn(col domain.Column) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board.columns.Upsert(col)
	s.board.columnOrder = append(s.board.columnOrder, col.ID)
	s.board.status.Loading = false
}

// UpdateColumn overwrites the keyed column entry without touching order.
func (s *Store) UpdateColumn(col domain.Column) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.board.columns.Has(col.ID) {
		return
	}
	s.board.columns.Upsert(col)
	s.board.status.Loading = false
}

// RemoveColumn deletes a column, every card it holds, and its order entry.
func (s *Store) RemoveColumn(colID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.board.columns.Get(colID)
	if !ok {
		return
	}
	for _, cardID := range col.CardIDs {
		s.board.cards.Remove(cardID)
	}
	s.board.columns.Remove(colID)
	s.board.columnOrder = removeID(s.board.columnOrder, colID)
	s.board.status.Loading = false
}

// AddCard registers a card and appends its id to the column's sequence.
func (s *Store) AddCard(card domain.Card, colID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.board.columns.Get(colID)
	if !ok {
		return false
	}
	s.board.cards.Upsert(card)
	col.CardIDs = append(col.CardIDs, card.ID)
	s.board.columns.Upsert(col)
	return true
}

// SetCard overwrites a card's keyed entry. Column membership is unchanged.
func (s *Store) SetCard(card domain.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board.cards.Upsert(card)
}

// RemoveCard deletes the card and its reference in the owning column.
func (s *Store) RemoveCard(cardID, colID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.board.columns.Get(colID); ok {
		col.CardIDs = removeID(col.CardIDs, cardID)
		s.board.columns.Upsert(col)
	}
	s.board.cards.Remove(cardID)
}

// AddComment appends a comment to the card's comment list.
func (s *Store) AddComment(cardID string, comment domain.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.board.cards.Get(cardID)
	if !ok {
		return
	}
	card.Comments = append(card.Comments, comment)
	s.board.cards.Upsert(card)
}

// RemoveComment drops a comment from a card, used to undo a failed
// optimistic comment post.
func (s *Store) RemoveComment(cardID, commentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.board.cards.Get(cardID)
	if !ok {
		return
	}
	for i, c := range card.Comments {
		if c.ID == commentID {
			rest := append([]domain.Comment(nil), card.Comments[:i]...)
			card.Comments = append(rest, card.Comments[i+1:]...)
			s.board.cards.Upsert(card)
			return
		}
	}
}

// InsertCard registers a card and splices its id into the column's sequence
// at index, clamped to [0, len]. Used to undo an optimistic delete.
func (s *Store) InsertCard(card domain.Card, colID string, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.board.columns.Get(colID)
	if !ok {
		return false
	}
	s.board.cards.Upsert(card)
	col.CardIDs = spliceInsert(append([]string(nil), col.CardIDs...), index, card.ID)
	s.board.columns.Upsert(col)
	return true
}

// MoveCard removes cardID from the source column's sequence and inserts it
// at destIndex in the destination column's sequence, clamped to [0, len].
// Same source and destination degenerates to an in-column reorder. The move
// is a silent no-op when cardID is not present in the source column.
func (s *Store) MoveCard(cardID, fromColID, toColID string, destIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveCardLocked(cardID, fromColID, toColID, destIndex)
}

func (s *Store) moveCardLocked(cardID, fromColID, toColID string, destIndex int) bool {
	from, ok := s.board.columns.Get(fromColID)
	if !ok {
		return false
	}
	present := false
	for _, id := range from.CardIDs {
		if id == cardID {
			present = true
			break
		}
	}
	if !present {
		return false
	}

	if fromColID == toColID {
		ids := removeID(append([]string(nil), from.CardIDs...), cardID)
		from.CardIDs = spliceInsert(ids, destIndex, cardID)
		s.board.columns.Upsert(from)
		return true
	}

	to, ok := s.board.columns.Get(toColID)
	if !ok {
		return false
	}
	from.CardIDs = removeID(append([]string(nil), from.CardIDs...), cardID)
	to.CardIDs = spliceInsert(append([]string(nil), to.CardIDs...), destIndex, cardID)
	s.board.columns.Upsert(from)
	s.board.columns.Upsert(to)
	return true
}

// SetColumnOrder replaces the top-level column order wholesale.
func (s *Store) SetColumnOrder(order []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board.columnOrder = append([]string(nil), order...)
}
