package session

import (
	"time"

	"github.com/google/uuid"

	"kakeibo/internal/cache"
)

// Store keeps live sessions in a bounded sliding-TTL cache: each
// request renews its session, idle ones expire, and the LRU cap keeps
// memory flat under cookie churn.
type Store struct {
	sessions *cache.LRUCache[*Session]
}

// NewStore creates a session store holding at most maxSessions entries,
// each expiring after ttl of inactivity.
func NewStore(maxSessions int, ttl time.Duration) *Store {
	return &Store{
		sessions: cache.NewSlidingLRUCache[*Session](maxSessions, ttl),
	}
}

// Get returns the live session for id, renewing its expiry.
func (st *Store) Get(id string) (*Session, bool) {
	return st.sessions.Get(id)
}

// Create mints a session under a fresh uuid.
func (st *Store) Create(now time.Time) *Session {
	s := New(uuid.NewString(), now)
	st.sessions.Set(s.ID(), s)
	return s
}

// GetOrCreate resolves id to a live session, creating one when the id
// is unknown or expired. The second return reports whether a new
// session (and so a new cookie) was issued.
func (st *Store) GetOrCreate(id string, now time.Time) (*Session, bool) {
	if id != "" {
		if s, ok := st.sessions.Get(id); ok {
			return s, false
		}
	}
	return st.Create(now), true
}

// Delete drops a session immediately.
func (st *Store) Delete(id string) {
	st.sessions.Delete(id)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	return st.sessions.Size()
}

// CleanExpired removes expired sessions; the cache manager calls this
// on its sweep interval.
func (st *Store) CleanExpired() int {
	return st.sessions.CleanExpired()
}
