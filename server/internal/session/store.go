package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session ID is unknown or has expired.
var ErrNotFound = errors.New("session not found")

// Store is a thread-safe in-memory session store keyed by session ID.
// A background goroutine (Run) periodically evicts sessions that have not
// been updated within the configured TTL.
type Store struct {
	mu   sync.RWMutex
	data map[string]State
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// NewStore creates a Store with the given TTL.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]State),
		ttl:  ttl,
		now:  time.Now,
	}
}

// TTL returns the configured idle lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create starts a new session with a random ID and returns its state.
func (s *Store) Create() State {
	st := New(uuid.NewString(), s.now())
	s.mu.Lock()
	s.data[st.ID] = st
	s.mu.Unlock()
	slog.Debug("session: created", "id", st.ID)
	return st
}

// Get returns the state for id. Expired sessions are reported as ErrNotFound
// even if the eviction loop has not removed them yet.
func (s *Store) Get(id string) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data[id]
	if !ok || s.expired(st, s.now()) {
		return State{}, ErrNotFound
	}
	return st, nil
}

// Update applies fn to the stored state under the write lock and stores the
// result. If fn returns an error the stored state is left untouched and the
// error is returned alongside the unchanged state.
func (s *Store) Update(id string, fn func(State, time.Time) (State, error)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	st, ok := s.data[id]
	if !ok || s.expired(st, now) {
		return State{}, ErrNotFound
	}
	next, err := fn(st, now)
	if err != nil {
		return st, err
	}
	s.data[id] = next
	return next, nil
}

// Delete removes the session. It reports ErrNotFound if id is unknown.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return ErrNotFound
	}
	delete(s.data, id)
	return nil
}

// List returns all live sessions, oldest first.
func (s *Store) List() []State {
	s.mu.RLock()
	now := s.now()
	out := make([]State, 0, len(s.data))
	for _, st := range s.data {
		if !s.expired(st, now) {
			out = append(out, st)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Count returns the total number of sessions held, including expired ones
// not yet evicted.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes sessions whose UpdatedAt is older than now minus TTL.
// It returns the number of sessions removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, st := range s.data {
		if s.expired(st, now) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run starts the background eviction loop. It ticks at half the TTL
// (minimum 1 second) and blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("session: evicted expired sessions", "count", n)
			}
		}
	}
}

func (s *Store) expired(st State, now time.Time) bool {
	return !st.UpdatedAt.After(now.Add(-s.ttl))
}
