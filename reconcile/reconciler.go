// Package reconcile merges push channel events into the store. Its core job
// is making the optimistic send path and the push echo converge on exactly
// one copy of every message, whichever of the two settles first.
package reconcile

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"boardsync/domain"
	"boardsync/store"
	"boardsync/stream"
)

// Correlator hands out the temp ids of in-flight optimistic sends, oldest
// first, so the sender's own echo can settle its placeholder.
type Correlator interface {
	ClaimSend(conversationID string) (tempID string, ok bool)
}

// Reconciler applies channel events to the store.
type Reconciler struct {
	store  *store.Store
	sends  Correlator
	selfID string
	logger *log.Logger
}

func New(st *store.Store, sends Correlator, selfID string, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Reconciler{store: st, sends: sends, selfID: selfID, logger: logger}
}

// Run consumes events until the channel closes or the context is cancelled.
func (r *Reconciler) Run(ctx context.Context, events <-chan stream.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.Apply(ev)
		}
	}
}

// Apply merges a single channel event into the store.
func (r *Reconciler) Apply(ev stream.Event) {
	switch ev.Kind {
	case stream.Connected:
		r.store.SetChannelUp(true)
		r.logger.Info("push channel connected")
	case stream.Disconnected:
		r.store.SetChannelUp(false)
		r.logger.Warn("push channel disconnected")
	case stream.MessageNew:
		r.messageNew(ev.ConversationID, ev.Message)
	}
}

// messageNew settles an incoming message. The canonical id is the primary
// dedup key: an id the conversation already holds is a replay or the echo of
// an ack that settled first, and is dropped. The sender identity check is a
// secondary guard for echoes of our own sends whose placeholder is still
// pending.
func (r *Reconciler) messageNew(convID string, msg domain.Message) {
	if convID == "" || msg.ID == "" {
		r.logger.WithFields(log.Fields{"conversation": convID, "message": msg.ID}).
			Debug("incomplete message event dropped")
		return
	}
	if r.store.HasMessage(convID, msg.ID) {
		return
	}
	if msg.SenderID == r.selfID {
		if tempID, ok := r.sends.ClaimSend(convID); ok {
			r.store.ReplaceMessage(convID, tempID, msg)
			return
		}
		// Our own message without a pending placeholder: sent from
		// another session. Merge it, but it is not news to us.
		r.store.AppendMessage(convID, msg)
		return
	}
	if !r.store.AppendMessage(convID, msg) {
		r.logger.WithField("conversation", convID).Debug("message for unknown conversation dropped")
		return
	}
	if r.store.ActiveConversationID() != convID {
		r.store.BumpUnread(convID)
	}
	r.notify(msg)
}

// notify synthesizes a feed entry for a foreign message. The avatar field
// carries the sender's id and the timestamp is the arrival time, not the
// message's own; resolving the sender against a roster is the renderer's job.
func (r *Reconciler) notify(msg domain.Message) {
	r.store.AddNotification(domain.Notification{
		Title:       "New message",
		Description: msg.Body,
		Avatar:      msg.SenderID,
		Type:        "chat_message",
		CreatedAt:   time.Now().UTC(),
		Unread:      true,
	})
}
