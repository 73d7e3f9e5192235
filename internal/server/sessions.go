// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/research-assistant/internal/session"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = time.Hour

// entry guards one session. Pipeline calls hold mu for their whole
// duration, so concurrent requests against the same session run in turn.
type entry struct {
	mu      sync.Mutex
	session *session.Session
	touched time.Time
}

// sessionStore keeps sessions in memory keyed by a random UUID.
type sessionStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

func newSessionStore(ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &sessionStore{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (st *sessionStore) create() (string, int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	id := uuid.NewString()
	st.entries[id] = &entry{session: session.New(), touched: st.now()}
	return id, len(st.entries)
}

// get returns the session and refreshes its idle timer. Expired sessions
// are evicted and reported as missing even if the sweeper has not run yet.
// The second result is the number of sessions left in the store.
func (st *sessionStore) get(id string) (*entry, int, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.entries[id]
	if !ok {
		return nil, len(st.entries), false
	}
	now := st.now()
	if now.Sub(e.touched) > st.ttl {
		delete(st.entries, id)
		return nil, len(st.entries), false
	}
	e.touched = now
	return e, len(st.entries), true
}

func (st *sessionStore) remove(id string) (bool, int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.entries[id]
	delete(st.entries, id)
	return ok, len(st.entries)
}

// sweep evicts idle sessions and returns how many were removed and how
// many remain.
func (st *sessionStore) sweep() (int, int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	removed := 0
	for id, e := range st.entries {
		if now.Sub(e.touched) > st.ttl {
			delete(st.entries, id)
			removed++
		}
	}
	return removed, len(st.entries)
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.entries)
}
