// Package override hands a text filter from one action (acknowledging an
// alert, applying a saved search) to the next browse render of the same
// session. Each session holds at most one value and reading it clears it.
package override

import (
	"context"
	"sync"
	"time"
)

const DefaultTTL = 30 * time.Minute

type entry struct {
	text  string
	setAt time.Time
}

// Store holds one pending override per session.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Set replaces the pending override for session. Empty text or an empty
// session is ignored.
func (s *Store) Set(session, text string) {
	if session == "" || text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.pruneLocked(now)
	s.entries[session] = entry{text: text, setAt: now}
}

// TakeAndClear returns the pending override for session, if any, and removes it.
func (s *Store) TakeAndClear(session string) (string, bool) {
	if session == "" {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[session]
	if !ok {
		return "", false
	}
	delete(s.entries, session)
	if s.now().Sub(e.setAt) > s.ttl {
		return "", false
	}
	return e.text, true
}

// Len reports the number of pending overrides.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) pruneLocked(now time.Time) {
	for k, e := range s.entries {
		if now.Sub(e.setAt) > s.ttl {
			delete(s.entries, k)
		}
	}
}

type sessionKey struct{}

// WithSession attaches the session identity to a request context.
func WithSession(ctx context.Context, session string) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFrom returns the session identity attached by WithSession.
func SessionFrom(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey{}).(string)
	return s
}
