// Package prefs persists per-user presentation preferences in Redis so they
// survive across sessions. Preferences are advisory: a missing or unreadable
// record falls back to defaults instead of failing.
package prefs

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"boardsync/domain"
)

// DefaultProjectView is what a user sees before ever touching the controls.
var DefaultProjectView = domain.ProjectView{SortBy: "createdAt", Checkout: "board"}

// Store reads and writes preference records keyed by user id.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

// New creates a preference store. A zero ttl keeps records forever.
func New(client *redis.Client, ttl time.Duration) *Store {
	if ttl < 0 {
		ttl = 0
	}
	return &Store{redis: client, ttl: ttl}
}

// ProjectView loads the user's project list preferences, falling back to
// defaults when nothing usable is stored.
func (s *Store) ProjectView(ctx context.Context, userID string) domain.ProjectView {
	if s.redis == nil {
		return DefaultProjectView
	}
	data, err := s.redis.Get(ctx, projectViewKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			_ = s.redis.Del(ctx, projectViewKey(userID)).Err()
		}
		return DefaultProjectView
	}
	var view domain.ProjectView
	if err := sonic.Unmarshal(data, &view); err != nil {
		_ = s.redis.Del(ctx, projectViewKey(userID)).Err()
		return DefaultProjectView
	}
	return view
}

// SaveProjectView writes the user's project list preferences through.
func (s *Store) SaveProjectView(ctx context.Context, userID string, view domain.ProjectView) error {
	if s.redis == nil {
		return nil
	}
	data, err := sonic.Marshal(view)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, projectViewKey(userID), data, s.ttl).Err()
}

func projectViewKey(userID string) string {
	return "prefs:projectview:" + userID
}
