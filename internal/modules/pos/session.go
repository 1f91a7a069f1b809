package pos

import (
	"sync"
	"time"
)

type sessionCart struct {
	mu       sync.Mutex
	cart     *Cart
	lastUsed time.Time
}

// SessionStore keeps one cart per authenticated session. Calls for the same
// session are serialized; different sessions never share state.
type SessionStore struct {
	mu    sync.Mutex
	carts map[string]*sessionCart
	now   func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{carts: make(map[string]*sessionCart), now: time.Now}
}

// With runs fn against the session's cart, creating an empty one on first use.
func (s *SessionStore) With(sessionID string, fn func(*Cart) error) error {
	sc := s.get(sessionID)
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.lastUsed = s.now()
	return fn(sc.cart)
}

func (s *SessionStore) get(sessionID string) *sessionCart {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.carts[sessionID]
	if !ok {
		sc = &sessionCart{cart: NewCart(), lastUsed: s.now()}
		s.carts[sessionID] = sc
	}
	return sc
}

// Sweep forgets carts untouched for longer than idle and reports how many
// were dropped.
func (s *SessionStore) Sweep(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for id, sc := range s.carts {
		// a cart in use is not idle
		if !sc.mu.TryLock() {
			continue
		}
		stale := sc.lastUsed.Before(cutoff)
		sc.mu.Unlock()
		if stale {
			delete(s.carts, id)
			dropped++
		}
	}
	return dropped
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}
