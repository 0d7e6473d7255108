package dispatch

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"boardsync/domain"
	"boardsync/remote"
	"boardsync/store"
)

// CardIntent is a user request to create a kanban card.
type CardIntent struct {
	ColumnID    string
	Name        string
	Description string
	Assignees   []domain.Participant
	DueStart    *time.Time
	DueEnd      *time.Time
}

func (i CardIntent) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ColumnID, validation.Required),
		validation.Field(&i.Name, validation.Required, validation.Length(1, 256)),
	)
}

// CommentIntent is a user request to comment on a card.
type CommentIntent struct {
	CardID  string
	Name    string
	Avatar  string
	Message string
}

func (i CommentIntent) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.CardID, validation.Required),
		validation.Field(&i.Message, validation.Required),
	)
}

// LoadBoard fetches the full board into the store.
func (d *Dispatcher) LoadBoard(ctx context.Context, boardID string) {
	if boardID == "" {
		d.dropInvalid("board.load", errEmptyID)
		return
	}
	d.store.StartLoading(store.BoardDomain)
	board, err := d.remote.Board(ctx, boardID)
	if err != nil {
		d.fail(store.BoardDomain, "board.load", err)
		return
	}
	d.store.SetBoard(board)
}

// AddColumn creates a column on the server and appends it to the board once
// the server assigned its id. Columns are not created optimistically: the
// server owns column ids and an empty column costs nothing to wait for.
func (d *Dispatcher) AddColumn(ctx context.Context, name string) {
	if name == "" {
		d.dropInvalid("board.addColumn", errEmptyID)
		return
	}
	boardID := d.store.BoardID()
	if boardID == "" {
		d.dropInvalid("board.addColumn", errNoBoard)
		return
	}
	col, err := d.remote.CreateColumn(ctx, boardID, name)
	if err != nil {
		d.fail(store.BoardDomain, "board.addColumn", err)
		return
	}
	d.store.AddColumn(col)
}

// RenameColumn persists a column rename, then applies the server's copy.
func (d *Dispatcher) RenameColumn(ctx context.Context, columnID, name string) {
	if columnID == "" || name == "" {
		d.dropInvalid("board.renameColumn", errEmptyID)
		return
	}
	col, ok := d.store.Column(columnID)
	if !ok {
		d.dropInvalid("board.renameColumn", errUnknownColumn)
		return
	}
	col.Name = name
	updated, err := d.remote.UpdateColumn(ctx, col)
	if err != nil {
		d.fail(store.BoardDomain, "board.renameColumn", err)
		return
	}
	d.store.UpdateColumn(updated)
}

// DeleteColumn removes a column server first, then cascades locally so the
// column's cards disappear with it.
func (d *Dispatcher) DeleteColumn(ctx context.Context, columnID string) {
	if columnID == "" {
		d.dropInvalid("board.deleteColumn", errEmptyID)
		return
	}
	if err := d.remote.DeleteColumn(ctx, columnID); err != nil {
		d.fail(store.BoardDomain, "board.deleteColumn", err)
		return
	}
	d.store.RemoveColumn(columnID)
}

// AddCard appends a card with a client-generated id to the column
// immediately and persists it in the background of the gesture. A rejected
// create removes the card again.
func (d *Dispatcher) AddCard(ctx context.Context, intent CardIntent) {
	if err := intent.Validate(); err != nil {
		d.dropInvalid("board.addCard", err)
		return
	}
	card := domain.Card{
		ID:          uuid.NewString(),
		Name:        intent.Name,
		Description: intent.Description,
		Assignees:   intent.Assignees,
		DueStart:    intent.DueStart,
		DueEnd:      intent.DueEnd,
	}
	if !d.store.AddCard(card, intent.ColumnID) {
		d.dropInvalid("board.addCard", errUnknownColumn)
		return
	}
	tx := d.journal.open(func() {
		d.store.RemoveCard(card.ID, intent.ColumnID)
	})
	if err := d.remote.CreateCard(ctx, intent.ColumnID, card); err != nil {
		d.journal.rollback(tx)
		d.fail(store.BoardDomain, "board.addCard", err)
		return
	}
	d.journal.commit(tx)
}

// DeleteCard removes a card immediately and settles the removal remotely. A
// rejected delete splices the card back at its previous position.
func (d *Dispatcher) DeleteCard(ctx context.Context, cardID, columnID string) {
	if cardID == "" || columnID == "" {
		d.dropInvalid("board.deleteCard", errEmptyID)
		return
	}
	card, ok := d.store.Card(cardID)
	if !ok {
		d.dropInvalid("board.deleteCard", errUnknownCard)
		return
	}
	col, ok := d.store.Column(columnID)
	if !ok {
		d.dropInvalid("board.deleteCard", errUnknownColumn)
		return
	}
	index := len(col.CardIDs)
	for i, id := range col.CardIDs {
		if id == cardID {
			index = i
			break
		}
	}
	d.store.RemoveCard(cardID, columnID)
	tx := d.journal.open(func() {
		d.store.InsertCard(card, columnID, index)
	})
	if err := d.remote.DeleteCard(ctx, cardID); err != nil {
		d.journal.rollback(tx)
		d.fail(store.BoardDomain, "board.deleteCard", err)
		return
	}
	d.journal.commit(tx)
}

// AddComment appends a comment to a card immediately and persists it. A
// rejected create removes the comment again.
func (d *Dispatcher) AddComment(ctx context.Context, intent CommentIntent) {
	if err := intent.Validate(); err != nil {
		d.dropInvalid("board.addComment", err)
		return
	}
	comment := domain.Comment{
		ID:          uuid.NewString(),
		Name:        intent.Name,
		Avatar:      intent.Avatar,
		MessageType: "text",
		Message:     intent.Message,
		CreatedAt:   time.Now().UTC(),
	}
	d.store.AddComment(intent.CardID, comment)
	tx := d.journal.open(func() {
		d.store.RemoveComment(intent.CardID, comment.ID)
	})
	if err := d.remote.CreateComment(ctx, intent.CardID, comment); err != nil {
		d.journal.rollback(tx)
		d.fail(store.BoardDomain, "board.addComment", err)
		return
	}
	d.journal.commit(tx)
}

// Drag applies a finished drag gesture to the board and persists the
// resulting order coarsely: full column objects for a card drag, the full
// top-level order for a column drag. The optimistic arrangement stands even
// when persistence fails; the next board fetch reconverges with the server.
func (d *Dispatcher) Drag(ctx context.Context, res domain.DragResult) {
	outcome := d.store.ApplyDrag(res)
	if !outcome.Changed {
		return
	}
	switch res.Kind {
	case domain.DragColumn:
		boardID := d.store.BoardID()
		if err := d.remote.UpdateBoardOrder(ctx, boardID, outcome.ColumnOrder); err != nil {
			d.fail(store.BoardDomain, "board.dragColumn", err)
		}
	case domain.DragCard:
		for _, col := range outcome.Columns {
			if _, err := d.remote.UpdateColumn(ctx, col); err != nil {
				d.fail(store.BoardDomain, "board.dragCard", err)
				return
			}
		}
	}
}

// EditCardField updates one editable card field locally at once and flushes
// the change to the server after the quiet period, so a burst of keystrokes
// costs a single PATCH carrying the final value. A write that completes
// after a newer edit superseded it is discarded.
func (d *Dispatcher) EditCardField(ctx context.Context, cardID, field string, value any) {
	card, ok := d.store.Card(cardID)
	if !ok {
		d.dropInvalid("board.editCard", errUnknownCard)
		return
	}
	if !applyCardField(&card, field, value) {
		d.dropInvalid("board.editCard", errUnknownField(field))
		return
	}
	d.store.SetCard(card)

	key := cardID + "/" + field
	d.debounce.Do(key, func(token uint64) {
		current, ok := d.store.Card(cardID)
		if !ok {
			return
		}
		form := cardFieldForm(current, field)
		err := d.remote.UpdateCard(ctx, cardID, form)
		if !d.debounce.Current(key, token) {
			// A newer edit owns the field now; this outcome is stale
			// either way.
			return
		}
		if err != nil {
			d.fail(store.BoardDomain, "board.editCard", err)
		}
	})
}

func applyCardField(card *domain.Card, field string, value any) bool {
	switch field {
	case "name":
		s, ok := value.(string)
		if !ok || s == "" {
			return false
		}
		card.Name = s
	case "description":
		s, ok := value.(string)
		if !ok {
			return false
		}
		card.Description = s
	case "completed":
		b, ok := value.(bool)
		if !ok {
			return false
		}
		card.Completed = b
	case "dueStart":
		t, ok := value.(*time.Time)
		if !ok {
			return false
		}
		card.DueStart = t
	case "dueEnd":
		t, ok := value.(*time.Time)
		if !ok {
			return false
		}
		card.DueEnd = t
	case "assignee":
		ps, ok := value.([]domain.Participant)
		if !ok {
			return false
		}
		card.Assignees = ps
	default:
		return false
	}
	return true
}

// cardFieldForm builds the single-field multipart payload for a card patch.
func cardFieldForm(card domain.Card, field string) *remote.Form {
	form := remote.NewForm()
	switch field {
	case "name":
		form.Set("name", card.Name)
	case "description":
		form.Set("description", card.Description)
	case "completed":
		form.Set("completed", card.Completed)
	case "dueStart":
		form.Set("dueStart", card.DueStart)
	case "dueEnd":
		form.Set("dueEnd", card.DueEnd)
	case "assignee":
		ids := make([]string, 0, len(card.Assignees))
		for _, p := range card.Assignees {
			ids = append(ids, p.ID)
		}
		form.Set("assignee", ids)
	}
	return form
}
