package reconcile

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"boardsync/domain"
	"boardsync/store"
	"boardsync/stream"
)

type fakeCorrelator struct {
	temp    map[string][]string
	claimed int
}

func (f *fakeCorrelator) ClaimSend(convID string) (string, bool) {
	q := f.temp[convID]
	if len(q) == 0 {
		return "", false
	}
	f.claimed++
	f.temp[convID] = q[1:]
	return q[0], true
}

func quietLogger() *log.Logger {
	l := log.New()
	l.SetLevel(log.PanicLevel)
	return l
}

func seeded() *store.Store {
	st := store.New()
	st.ReplaceConversations([]domain.Conversation{{
		ID: "7",
		Participants: []domain.Participant{
			{ID: "me", Name: "Me"},
			{ID: "ben", Name: "Ben", Avatar: "ben.png"},
		},
	}})
	return st
}

func messageEvent(convID string, msg domain.Message) stream.Event {
	return stream.Event{Kind: stream.MessageNew, ConversationID: convID, Message: msg}
}

func TestOwnEchoSettlesPendingPlaceholder(t *testing.T) {
	st := seeded()
	st.AppendMessage("7", domain.Message{ID: "tmp-1", Body: "hi", SenderID: "me"})
	sends := &fakeCorrelator{temp: map[string][]string{"7": {"tmp-1"}}}
	r := New(st, sends, "me", quietLogger())

	r.Apply(messageEvent("7", domain.Message{ID: "101", Body: "hi", SenderID: "me"}))

	conv, _ := st.Conversation("7")
	if len(conv.Messages) != 1 {
		t.Fatalf("messages = %d, want placeholder settled in place", len(conv.Messages))
	}
	if conv.Messages[0].ID != "101" {
		t.Fatalf("message id = %q, want canonical", conv.Messages[0].ID)
	}
	if sends.claimed != 1 {
		t.Fatalf("claimed = %d sends", sends.claimed)
	}
}

func TestEchoAfterAckIsDroppedById(t *testing.T) {
	st := seeded()
	// Ack settled first: the canonical message is already in place and no
	// send is pending anymore.
	st.AppendMessage("7", domain.Message{ID: "101", Body: "hi", SenderID: "me"})
	sends := &fakeCorrelator{temp: map[string][]string{}}
	r := New(st, sends, "me", quietLogger())

	r.Apply(messageEvent("7", domain.Message{ID: "101", Body: "hi", SenderID: "me"}))

	conv, _ := st.Conversation("7")
	if len(conv.Messages) != 1 {
		t.Fatalf("echo duplicated the message: %d copies", len(conv.Messages))
	}
	if sends.claimed != 0 {
		t.Fatal("dedup by id should settle before correlation")
	}
}

func TestForeignMessageAppendsAndNotifies(t *testing.T) {
	st := seeded()
	r := New(st, &fakeCorrelator{}, "me", quietLogger())

	sent := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	before := time.Now()
	r.Apply(messageEvent("7", domain.Message{ID: "55", Body: "ping", SenderID: "ben", CreatedAt: sent}))

	conv, _ := st.Conversation("7")
	if len(conv.Messages) != 1 || conv.Messages[0].ID != "55" {
		t.Fatalf("foreign message not merged: %+v", conv.Messages)
	}
	if conv.UnreadCount != 1 {
		t.Fatalf("unread = %d, want bump for inactive conversation", conv.UnreadCount)
	}
	feed := st.Notifications()
	if len(feed) != 1 {
		t.Fatalf("notifications = %d", len(feed))
	}
	n := feed[0]
	if n.Title != "New message" || n.Description != "ping" || n.Avatar != "ben" || !n.Unread {
		t.Fatalf("notification = %+v", n)
	}
	// The feed entry is stamped with arrival time, not the message's own.
	if n.CreatedAt.Before(before) || n.CreatedAt.After(time.Now().Add(time.Second)) {
		t.Fatalf("notification timestamp = %v, want arrival time", n.CreatedAt)
	}
	if n.CreatedAt.Equal(sent) {
		t.Fatalf("notification carried the message timestamp %v", sent)
	}
}

func TestForeignMessageOnActiveConversationStaysRead(t *testing.T) {
	st := seeded()
	conv, _ := st.Conversation("7")
	st.SetConversation(conv) // activates it
	r := New(st, &fakeCorrelator{}, "me", quietLogger())

	r.Apply(messageEvent("7", domain.Message{ID: "55", Body: "ping", SenderID: "ben"}))

	got, _ := st.Conversation("7")
	if got.UnreadCount != 0 {
		t.Fatalf("unread = %d on active conversation", got.UnreadCount)
	}
}

func TestOwnMessageFromOtherSessionMergesWithoutNotification(t *testing.T) {
	st := seeded()
	r := New(st, &fakeCorrelator{}, "me", quietLogger())

	r.Apply(messageEvent("7", domain.Message{ID: "88", Body: "from my phone", SenderID: "me"}))

	conv, _ := st.Conversation("7")
	if len(conv.Messages) != 1 || conv.Messages[0].ID != "88" {
		t.Fatalf("own cross-session message not merged: %+v", conv.Messages)
	}
	if len(st.Notifications()) != 0 {
		t.Fatal("own message synthesized a notification")
	}
}

func TestUnknownConversationDropped(t *testing.T) {
	st := seeded()
	r := New(st, &fakeCorrelator{}, "me", quietLogger())

	r.Apply(messageEvent("404", domain.Message{ID: "9", Body: "lost", SenderID: "ben"}))

	if len(st.Notifications()) != 0 {
		t.Fatal("unmergeable message still notified")
	}
}

func TestConnectionEventsTrackChannelState(t *testing.T) {
	st := seeded()
	r := New(st, &fakeCorrelator{}, "me", quietLogger())

	r.Apply(stream.Event{Kind: stream.Connected})
	if !st.ChannelUp() {
		t.Fatal("connected event not recorded")
	}
	r.Apply(stream.Event{Kind: stream.Disconnected})
	if st.ChannelUp() {
		t.Fatal("disconnected event not recorded")
	}
}
