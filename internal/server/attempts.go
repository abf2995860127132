package server

import (
	"sync"
	"time"

	"github.com/abhisek/memoir/internal/recall"
)

// attemptStore keeps in-flight memory checks between requests so clients
// only ever hold the attempt ID.
type attemptStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]attemptEntry
	now     func() time.Time
}

type attemptEntry struct {
	attempt recall.Attempt
	expires time.Time
}

func newAttemptStore(ttl time.Duration) *attemptStore {
	return &attemptStore{ttl: ttl, entries: make(map[string]attemptEntry), now: time.Now}
}

func (s *attemptStore) put(a recall.Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	if a.State.Terminal() {
		delete(s.entries, a.ID)
		return
	}
	s.entries[a.ID] = attemptEntry{attempt: a, expires: s.now().Add(s.ttl)}
}

func (s *attemptStore) get(id string) (recall.Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	e, ok := s.entries[id]
	return e.attempt, ok
}

func (s *attemptStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// sweep drops expired attempts. Callers hold mu.
func (s *attemptStore) sweep() {
	now := s.now()
	for id, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, id)
		}
	}
}
