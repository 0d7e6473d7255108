package domain

import "time"

// Comment is a note left on a kanban card.
type Comment struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Avatar      string    `json:"avatar,omitempty"`
	MessageType string    `json:"messageType"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Card is a kanban card. A card belongs to exactly one column, tracked by
// the column's CardIDs sequence rather than a back-reference on the card.
type Card struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Assignees   []Participant `json:"assignee,omitempty"`
	DueStart    *time.Time    `json:"dueStart,omitempty"`
	DueEnd      *time.Time    `json:"dueEnd,omitempty"`
	Attachments []string      `json:"attachments,omitempty"`
	Comments    []Comment     `json:"comments,omitempty"`
	Completed   bool          `json:"completed,omitempty"`
}

// EntityID implements store.Entity.
func (c Card) EntityID() string { return c.ID }

// Column holds its presentation-ordered card id sequence.
type Column struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	CardIDs []string `json:"cardIds"`
}

// EntityID implements store.Entity.
func (c Column) EntityID() string { return c.ID }

// Board is the wire form of a full kanban board fetch.
type Board struct {
	ID          string   `json:"id"`
	Cards       []Card   `json:"cards"`
	Columns     []Column `json:"columns"`
	ColumnOrder []string `json:"columnOrder"`
}

// DragKind distinguishes whole-column drags from card drags.
type DragKind string

const (
	DragColumn DragKind = "column"
	DragCard   DragKind = "card"
)

// DragResult describes a finished drag-and-drop gesture.
type DragResult struct {
	Kind        DragKind `json:"kind"`
	DraggedID   string   `json:"draggedId"`
	SourceID    string   `json:"sourceColumnId"`
	SourceIndex int      `json:"sourceIndex"`
	DestID      string   `json:"destColumnId"`
	DestIndex   int      `json:"destIndex"`
}
