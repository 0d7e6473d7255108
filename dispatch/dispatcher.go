package dispatch

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"boardsync/domain"
	"boardsync/remote"
	"boardsync/session"
	"boardsync/store"
)

// Channel posts outbound messages over the push channel and returns the
// server acknowledgement carrying the canonical message.
type Channel interface {
	PostMessage(ctx context.Context, post domain.MessagePost) (domain.Message, error)
}

// ViewSaver writes project view preferences through to durable storage.
type ViewSaver interface {
	SaveProjectView(ctx context.Context, userID string, view domain.ProjectView) error
}

// Dispatcher is the single entry point for user intents. Mutations apply
// optimistically to the store, then settle against the remote; a remote
// failure rolls the optimistic change back and records the error on the
// owning domain. Invalid intents are dropped without touching the store.
type Dispatcher struct {
	store   *store.Store
	remote  *remote.Client
	channel Channel
	views   ViewSaver
	sess    *session.Session
	logger  *log.Logger

	journal  *journal
	debounce *debouncer
	sends    *sendRegistry
}

// Option configures optional dispatcher collaborators.
type Option func(*Dispatcher)

// WithDebounce overrides the field-edit quiet period.
func WithDebounce(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.debounce = newDebouncer(d) }
}

// WithViewSaver wires preference write-through.
func WithViewSaver(v ViewSaver) Option {
	return func(dp *Dispatcher) { dp.views = v }
}

func New(st *store.Store, rc *remote.Client, ch Channel, sess *session.Session, logger *log.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = log.StandardLogger()
	}
	d := &Dispatcher{
		store:    st,
		remote:   rc,
		channel:  ch,
		sess:     sess,
		logger:   logger,
		journal:  newJournal(),
		debounce: newDebouncer(DefaultDebounce),
		sends:    newSendRegistry(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ClaimSend hands the oldest in-flight temp message id for a conversation to
// the push reconciler, which uses it to settle the sender's own echo.
func (d *Dispatcher) ClaimSend(conversationID string) (string, bool) {
	return d.sends.Claim(conversationID)
}

// Close cancels pending debounced writes.
func (d *Dispatcher) Close() {
	d.debounce.Stop()
}

// dropInvalid logs a rejected intent. Invalid input is a caller bug, not a
// domain failure, so the store stays untouched.
func (d *Dispatcher) dropInvalid(op string, err error) {
	d.logger.WithFields(log.Fields{"op": op, "reason": err}).Debug("intent dropped")
}

func (d *Dispatcher) fail(dom store.Domain, op string, err error) {
	d.logger.WithFields(log.Fields{"op": op}).WithError(err).Warn("remote rejected mutation")
	d.store.Fail(dom, err)
}
