// Package store holds the client-side mirror of workspace state: normalized
// keyed collections for chat, kanban and project domains. The store is the
// single owner of entity state; the dispatcher and the push reconciler are
// its only writers, views are read-only consumers.
//
// All mutations are synchronous and complete under one mutex acquisition, so
// no mutation is ever observed half-applied. No ordering is guaranteed
// between an optimistic mutation and a concurrently arriving push event for
// the same entity; the reconciler's id-based dedup absorbs that race.
package store

import (
	"sync"

	"boardsync/domain"
)

// Status carries the per-domain loading flag and last mutation error.
type Status struct {
	Loading bool
	Err     error
}

type chatState struct {
	status               Status
	contacts             Collection[domain.Contact]
	conversations        Collection[domain.Conversation]
	activeConversationID string
	participants         []domain.Participant
	recipients           []domain.Participant
	notifications        []domain.Notification
}

type boardState struct {
	status      Status
	id          string
	cards       Collection[domain.Card]
	columns     Collection[domain.Column]
	columnOrder []string
}

type projectState struct {
	status   Status
	projects Collection[domain.Project]
	selected *domain.Project
	view     domain.ProjectView
}

// Store is the normalized in-memory mirror of remote workspace state.
type Store struct {
	mu        sync.Mutex
	chat      chatState
	board     boardState
	project   projectState
	channelUp bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		chat: chatState{
			contacts:      NewCollection[domain.Contact](),
			conversations: NewCollection[domain.Conversation](),
		},
		board: boardState{
			cards:   NewCollection[domain.Card](),
			columns: NewCollection[domain.Column](),
		},
		project: projectState{
			projects: NewCollection[domain.Project](),
		},
	}
}

// Domain selects which per-domain status a call refers to.
type Domain int

const (
	ChatDomain Domain = iota
	BoardDomain
	ProjectDomain
)

func (s *Store) statusFor(d Domain) *Status {
	switch d {
	case ChatDomain:
		return &s.chat.status
	case BoardDomain:
		return &s.board.status
	default:
		return &s.project.status
	}
}

// StartLoading raises the domain loading flag.
func (s *Store) StartLoading(d Domain) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusFor(d).Loading = true
}

// Fail records a mutation error and clears the loading flag. Errors stay
// until overwritten; views that never read them simply never show them.
func (s *Store) Fail(d Domain, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.statusFor(d)
	st.Loading = false
	st.Err = err
}

// ClearError drops the recorded error for a domain.
func (s *Store) ClearError(d Domain) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusFor(d).Err = nil
}

// SetChannelUp records the push channel connection state.
func (s *Store) SetChannelUp(up bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelUp = up
}

// ChannelUp reports whether the push channel is currently connected.
func (s *Store) ChannelUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelUp
}

// DomainStatus returns the loading flag and last error for a domain.
func (s *Store) DomainStatus(d Domain) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.statusFor(d)
}
