package dispatch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"boardsync/domain"
	"boardsync/remote"
	"boardsync/session"
	"boardsync/store"
)

type fakeChannel struct {
	mu    sync.Mutex
	posts []domain.MessagePost
	ack   domain.Message
	err   error
}

func (f *fakeChannel) PostMessage(_ context.Context, post domain.MessagePost) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, post)
	if f.err != nil {
		return domain.Message{}, f.err
	}
	return f.ack, nil
}

type fakeViews struct {
	mu    sync.Mutex
	saved []domain.ProjectView
	err   error
}

func (f *fakeViews) SaveProjectView(_ context.Context, _ string, view domain.ProjectView) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, view)
	return f.err
}

func quietLogger() *log.Logger {
	l := log.New()
	l.SetLevel(log.PanicLevel)
	return l
}

func testSession() *session.Session {
	return &session.Session{UserID: "user-1", Token: "tok", Origin: "http://api.test"}
}

func newTestDispatcher(t *testing.T, handler http.Handler, ch Channel, opts ...Option) (*Dispatcher, *store.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	st := store.New()
	rc := remote.New(srv.URL, "tok", quietLogger())
	return New(st, rc, ch, testSession(), quietLogger(), opts...), st
}

func seedConversation(st *store.Store, id string) {
	st.ReplaceConversations([]domain.Conversation{{
		ID:           id,
		Participants: []domain.Participant{{ID: "user-1"}, {ID: "user-2", Name: "Ben"}},
		Messages:     []domain.Message{},
	}})
}

func seedBoard(st *store.Store) {
	st.SetBoard(domain.Board{
		ID: "board-1",
		Cards: []domain.Card{
			{ID: "c1", Name: "first"},
			{ID: "c2", Name: "second"},
			{ID: "c3", Name: "third"},
		},
		Columns: []domain.Column{
			{ID: "x", Name: "Todo", CardIDs: []string{"c1", "c2"}},
			{ID: "y", Name: "Done", CardIDs: []string{"c3"}},
		},
		ColumnOrder: []string{"x", "y"},
	})
}

func TestSendMessageReplacesPlaceholderWithAck(t *testing.T) {
	ch := &fakeChannel{ack: domain.Message{
		ID:          "101",
		Body:        "hi",
		ContentType: "text",
		SenderID:    "user-1",
		CreatedAt:   time.Now().UTC(),
	}}
	d, st := newTestDispatcher(t, http.NotFoundHandler(), ch)
	seedConversation(st, "7")

	d.SendMessage(context.Background(), SendIntent{ConversationID: "7", Body: "hi"})

	conv, _ := st.Conversation("7")
	if len(conv.Messages) != 1 {
		t.Fatalf("messages = %d, want exactly 1", len(conv.Messages))
	}
	if conv.Messages[0].ID != "101" {
		t.Fatalf("message id = %q, want canonical 101", conv.Messages[0].ID)
	}
	if len(ch.posts) != 1 || ch.posts[0].ConversationID != "7" || ch.posts[0].Body != "hi" {
		t.Fatalf("unexpected post: %+v", ch.posts)
	}
	if _, ok := d.ClaimSend("7"); ok {
		t.Fatal("settled send still registered for correlation")
	}
}

func TestSendMessageRollsBackOnRejectedPost(t *testing.T) {
	ch := &fakeChannel{err: errors.New("boom")}
	d, st := newTestDispatcher(t, http.NotFoundHandler(), ch)
	seedConversation(st, "7")

	d.SendMessage(context.Background(), SendIntent{ConversationID: "7", Body: "hi"})

	conv, _ := st.Conversation("7")
	if len(conv.Messages) != 0 {
		t.Fatalf("placeholder survived rollback: %+v", conv.Messages)
	}
	if st.DomainStatus(store.ChatDomain).Err == nil {
		t.Fatal("rejected post not recorded on chat domain")
	}
	if _, ok := d.ClaimSend("7"); ok {
		t.Fatal("rolled-back send still registered")
	}
}

func TestSendMessageInvalidIntentIsSilentNoop(t *testing.T) {
	ch := &fakeChannel{}
	d, st := newTestDispatcher(t, http.NotFoundHandler(), ch)
	seedConversation(st, "7")

	d.SendMessage(context.Background(), SendIntent{ConversationID: "7"})

	if len(ch.posts) != 0 {
		t.Fatalf("invalid intent reached the channel: %+v", ch.posts)
	}
	if st.DomainStatus(store.ChatDomain).Err != nil {
		t.Fatal("invalid intent recorded as domain failure")
	}
}

func TestMarkConversationReadSettlesServerFirst(t *testing.T) {
	var method, path string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	})
	d, st := newTestDispatcher(t, handler, &fakeChannel{})
	seedConversation(st, "7")
	conv, _ := st.Conversation("7")
	conv.UnreadCount = 3
	st.SetConversation(conv)

	d.MarkConversationRead(context.Background(), "7")

	if method != http.MethodDelete || path != "/api/chat/conversation/mark-as-seen/7" {
		t.Fatalf("got %s %s", method, path)
	}
	got, _ := st.Conversation("7")
	if got.UnreadCount != 0 {
		t.Fatalf("unread = %d after server accepted reset", got.UnreadCount)
	}
}

func TestMarkConversationReadKeepsBadgeOnFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	d, st := newTestDispatcher(t, handler, &fakeChannel{})
	seedConversation(st, "7")
	conv, _ := st.Conversation("7")
	conv.UnreadCount = 3
	st.SetConversation(conv)

	d.MarkConversationRead(context.Background(), "7")

	got, _ := st.Conversation("7")
	if got.UnreadCount != 3 {
		t.Fatalf("unread = %d, want untouched 3", got.UnreadCount)
	}
	if st.DomainStatus(store.ChatDomain).Err == nil {
		t.Fatal("failure not recorded")
	}
}

func TestAddCardOptimisticThenCommit(t *testing.T) {
	var posted struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = sonic.ConfigStd.NewDecoder(r.Body).Decode(&posted)
		}
		w.WriteHeader(http.StatusCreated)
	})
	d, st := newTestDispatcher(t, handler, &fakeChannel{})
	seedBoard(st)

	d.AddCard(context.Background(), CardIntent{ColumnID: "x", Name: "new card"})

	col, _ := st.Column("x")
	if len(col.CardIDs) != 3 {
		t.Fatalf("column x has %d cards, want 3", len(col.CardIDs))
	}
	if posted.Name != "new card" || posted.ID == "" {
		t.Fatalf("server saw %+v", posted)
	}
	if _, ok := st.Card(posted.ID); !ok {
		t.Fatal("created card not keyed under its client id")
	}
}

func TestAddCardRollsBackOnRejectedCreate(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	d, st := newTestDispatcher(t, handler, &fakeChannel{})
	seedBoard(st)

	d.AddCard(context.Background(), CardIntent{ColumnID: "x", Name: "doomed"})

	col, _ := st.Column("x")
	if len(col.CardIDs) != 2 {
		t.Fatalf("column x has %d cards after rollback, want 2", len(col.CardIDs))
	}
	if st.DomainStatus(store.BoardDomain).Err == nil {
		t.Fatal("failure not recorded")
	}
}

func TestDeleteCardRestoresPositionOnFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	d, st := newTestDispatcher(t, handler, &fakeChannel{})
	seedBoard(st)

	d.DeleteCard(context.Background(), "c1", "x")

	col, _ := st.Column("x")
	if len(col.CardIDs) != 2 || col.CardIDs[0] != "c1" {
		t.Fatalf("card not restored at original position: %v", col.CardIDs)
	}
}

func TestDragCardPersistsAffectedColumnsInFull(t *testing.T) {
	var mu sync.Mutex
	patched := map[string][]string{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			w.WriteHeader(http.StatusOK)
			return
		}
		var col domain.Column
		_ = sonic.ConfigStd.NewDecoder(r.Body).Decode(&col)
		mu.Lock()
		patched[col.ID] = col.CardIDs
		mu.Unlock()
		_ = sonic.ConfigStd.NewEncoder(w).Encode(col)
	})
	d, st := newTestDispatcher(t, handler, &fakeChannel{})
	seedBoard(st)

	d.Drag(context.Background(), domain.DragResult{
		Kind:        domain.DragCard,
		DraggedID:   "c2",
		SourceID:    "x",
		SourceIndex: 1,
		DestID:      "y",
		DestIndex:   0,
	})

	mu.Lock()
	defer mu.Unlock()
	if len(patched) != 2 {
		t.Fatalf("patched %d columns, want both affected columns", len(patched))
	}
	if got := patched["x"]; len(got) != 1 || got[0] != "c1" {
		t.Fatalf("source column payload = %v", got)
	}
	if got := patched["y"]; len(got) != 2 || got[0] != "c2" || got[1] != "c3" {
		t.Fatalf("destination column payload = %v", got)
	}
}

func TestDragColumnPersistsFullOrder(t *testing.T) {
	var body struct {
		ColumnOrder []string `json:"columnOrder"`
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = sonic.ConfigStd.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	})
	d, st := newTestDispatcher(t, handler, &fakeChannel{})
	seedBoard(st)

	d.Drag(context.Background(), domain.DragResult{
		Kind:        domain.DragColumn,
		DraggedID:   "y",
		SourceIndex: 1,
		DestIndex:   0,
	})

	if len(body.ColumnOrder) != 2 || body.ColumnOrder[0] != "y" {
		t.Fatalf("persisted order = %v, want [y x]", body.ColumnOrder)
	}
}

func TestDragFailureKeepsOptimisticArrangement(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	d, st := newTestDispatcher(t, handler, &fakeChannel{})
	seedBoard(st)

	d.Drag(context.Background(), domain.DragResult{
		Kind:        domain.DragColumn,
		DraggedID:   "y",
		SourceIndex: 1,
		DestIndex:   0,
	})

	order := st.ColumnOrder()
	if order[0] != "y" {
		t.Fatalf("optimistic order rolled back: %v", order)
	}
	if st.DomainStatus(store.BoardDomain).Err == nil {
		t.Fatal("persistence failure not recorded")
	}
}

func TestEditCardFieldDebouncesToSinglePatch(t *testing.T) {
	var mu sync.Mutex
	var patches []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			w.WriteHeader(http.StatusOK)
			return
		}
		_ = r.ParseMultipartForm(1 << 20)
		mu.Lock()
		patches = append(patches, r.FormValue("name"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	d, st := newTestDispatcher(t, handler, &fakeChannel{}, WithDebounce(30*time.Millisecond))
	seedBoard(st)

	ctx := context.Background()
	d.EditCardField(ctx, "c1", "name", "a")
	d.EditCardField(ctx, "c1", "name", "ab")
	d.EditCardField(ctx, "c1", "name", "abc")

	if card, _ := st.Card("c1"); card.Name != "abc" {
		t.Fatalf("local value = %q before flush", card.Name)
	}

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(patches) != 1 {
		t.Fatalf("server saw %d patches, want exactly 1", len(patches))
	}
	if patches[0] != "abc" {
		t.Fatalf("flushed value = %q, want final keystroke", patches[0])
	}
}

func TestEditCardFieldSupersededFlushOutcomeDiscarded(t *testing.T) {
	// The first flush is slow and ultimately rejected; while it is in
	// flight a newer edit takes over the field. The late failure belongs
	// to a superseded write and must not surface on the board domain.
	var mu sync.Mutex
	var patchCount int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			w.WriteHeader(http.StatusOK)
			return
		}
		mu.Lock()
		patchCount++
		first := patchCount == 1
		mu.Unlock()
		if first {
			time.Sleep(80 * time.Millisecond)
			http.Error(w, "conflict", http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	d, st := newTestDispatcher(t, handler, &fakeChannel{}, WithDebounce(25*time.Millisecond))
	seedBoard(st)

	ctx := context.Background()
	d.EditCardField(ctx, "c1", "name", "a")
	time.Sleep(50 * time.Millisecond) // first flush is now in flight
	d.EditCardField(ctx, "c1", "name", "ab")

	time.Sleep(250 * time.Millisecond)

	if status := st.DomainStatus(store.BoardDomain); status.Err != nil {
		t.Fatalf("stale flush recorded an error: %v", status.Err)
	}
	if card, _ := st.Card("c1"); card.Name != "ab" {
		t.Fatalf("card name = %q, want latest edit", card.Name)
	}
	mu.Lock()
	defer mu.Unlock()
	if patchCount != 2 {
		t.Fatalf("server saw %d patches, want 2", patchCount)
	}
}

func TestEditCardFieldUnknownFieldIsNoop(t *testing.T) {
	var hit bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hit = true
		w.WriteHeader(http.StatusOK)
	})
	d, st := newTestDispatcher(t, handler, &fakeChannel{})
	seedBoard(st)

	d.EditCardField(context.Background(), "c1", "priority", "high")

	time.Sleep(50 * time.Millisecond)
	if hit {
		t.Fatal("unknown field reached the server")
	}
	if card, _ := st.Card("c1"); card.Name != "first" {
		t.Fatal("unknown field mutated the card")
	}
}

func TestDeleteColumnCascadesAfterServerAccept(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	d, st := newTestDispatcher(t, handler, &fakeChannel{})
	seedBoard(st)

	d.DeleteColumn(context.Background(), "x")

	if _, ok := st.Column("x"); ok {
		t.Fatal("column survived delete")
	}
	if _, ok := st.Card("c1"); ok {
		t.Fatal("orphan card survived column cascade")
	}
	if order := st.ColumnOrder(); len(order) != 1 || order[0] != "y" {
		t.Fatalf("column order = %v", order)
	}
}

func TestAddCommentRollsBackOnFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	d, st := newTestDispatcher(t, handler, &fakeChannel{})
	seedBoard(st)

	d.AddComment(context.Background(), CommentIntent{CardID: "c1", Name: "Ann", Message: "nope"})

	card, _ := st.Card("c1")
	if len(card.Comments) != 0 {
		t.Fatalf("comment survived rollback: %+v", card.Comments)
	}
}

func TestSetProjectViewWritesThrough(t *testing.T) {
	views := &fakeViews{}
	d, st := newTestDispatcher(t, http.NotFoundHandler(), &fakeChannel{}, WithViewSaver(views))

	d.SetProjectView(context.Background(), domain.ProjectView{SortBy: "name", Checkout: "list"})

	if got := st.ProjectView(); got.SortBy != "name" || got.Checkout != "list" {
		t.Fatalf("store view = %+v", got)
	}
	if len(views.saved) != 1 || views.saved[0].SortBy != "name" {
		t.Fatalf("saver got %+v", views.saved)
	}
}

func TestInviteInvalidEmailDropped(t *testing.T) {
	var hit bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hit = true
		w.WriteHeader(http.StatusOK)
	})
	d, _ := newTestDispatcher(t, handler, &fakeChannel{})

	d.Invite(context.Background(), InviteIntent{ProjectID: "p1", Email: "not-an-email"})

	if hit {
		t.Fatal("invalid invitation reached the server")
	}
}
