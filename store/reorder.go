package store

import "boardsync/domain"

// DragOutcome reports what a drag gesture changed. Columns carries the full
// post-move column objects for coarse persistence: the remote is always sent
// complete column state, never single-card deltas, trading request size for
// freedom from partial-state races between draggers.
type DragOutcome struct {
	Changed     bool
	Columns     []domain.Column
	ColumnOrder []string
}

// ApplyDrag folds a finished drag-and-drop gesture into board state.
//
// Column drags splice the dragged id out of the column order at the source
// index and reinsert it at the destination index. Card drags resolve through
// MoveCard. A gesture that lands where it started is a no-op.
func (s *Store) ApplyDrag(res domain.DragResult) DragOutcome {
	if res.Kind == domain.DragColumn {
		return s.applyColumnDrag(res)
	}
	return s.applyCardDrag(res)
}

func (s *Store) applyColumnDrag(res domain.DragResult) DragOutcome {
	if res.SourceID == res.DestID && res.SourceIndex == res.DestIndex {
		return DragOutcome{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	order := append([]string(nil), s.board.columnOrder...)
	if res.SourceIndex < 0 || res.SourceIndex >= len(order) || order[res.SourceIndex] != res.DraggedID {
		// Stale gesture against an order that has since changed.
		return DragOutcome{}
	}
	order = append(order[:res.SourceIndex], order[res.SourceIndex+1:]...)
	order = spliceInsert(order, res.DestIndex, res.DraggedID)
	s.board.columnOrder = order

	return DragOutcome{Changed: true, ColumnOrder: append([]string(nil), order...)}
}

func (s *Store) applyCardDrag(res domain.DragResult) DragOutcome {
	if res.SourceID == res.DestID && res.SourceIndex == res.DestIndex {
		return DragOutcome{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.moveCardLocked(res.DraggedID, res.SourceID, res.DestID, res.DestIndex) {
		return DragOutcome{}
	}

	out := DragOutcome{Changed: true}
	if from, ok := s.columnLocked(res.SourceID); ok {
		out.Columns = append(out.Columns, from)
	}
	if res.DestID != res.SourceID {
		if to, ok := s.columnLocked(res.DestID); ok {
			out.Columns = append(out.Columns, to)
		}
	}
	return out
}
