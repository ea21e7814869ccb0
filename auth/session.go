// file: gate/auth/session.go
package auth

import (
	"sync"
	"sync/atomic"

	"github.com/nats-io/nuid"
)

// Session is the authenticated state of one connection: the immutable
// claims plus the table of live subscriptions keyed by client-chosen id.
// Each connection owns exactly one Session; it is created only after a
// successful Auth and dropped once on close.
type Session struct {
	// ID is globally unique with overwhelming probability (nuid:
	// 22 characters of crypto-seeded entropy plus a sequential block).
	ID     string
	UserID string
	Claims *Claims

	mu   sync.RWMutex
	subs map[uint64]string

	nextID atomic.Uint64
}

func NewSession(claims *Claims) *Session {
	return &Session{
		ID:     nuid.Next(),
		UserID: claims.UserID(),
		Claims: claims,
		subs:   make(map[uint64]string),
	}
}

// AddSubscription records id -> subject. Client ids are the client's
// namespace: re-adding an existing id overwrites it (last wins).
func (s *Session) AddSubscription(id uint64, subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[id] = subject
}

// RemoveSubscription deletes the entry and returns the subject it held.
func (s *Session) RemoveSubscription(id uint64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subject, ok := s.subs[id]
	if ok {
		delete(s.subs, id)
	}
	return subject, ok
}

// SubscriptionSubject returns the subject pattern stored under id.
func (s *Session) SubscriptionSubject(id uint64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subject, ok := s.subs[id]
	return subject, ok
}

// SubscriptionCount returns the number of live table entries.
func (s *Session) SubscriptionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// EachSubscription calls fn for every entry until fn returns false.
// Used by the delivery fan-out to match subjects against stored patterns.
func (s *Session) EachSubscription(fn func(id uint64, subject string) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, subject := range s.subs {
		if !fn(id, subject) {
			return
		}
	}
}

// NextServerID allocates a server-side id: strictly increasing, never zero.
func (s *Session) NextServerID() uint64 {
	return s.nextID.Add(1)
}
