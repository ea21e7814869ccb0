// file: gate/auth/session_test.go
package auth

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	claims := validClaims("test_user")
	s := NewSession(claims)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "test_user", s.UserID)
	assert.Equal(t, 0, s.SubscriptionCount())
}

func TestSessionIDsDistinct(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		s := NewSession(validClaims("u"))
		_, dup := seen[s.ID]
		require.False(t, dup, "duplicate session id %s", s.ID)
		seen[s.ID] = struct{}{}
	}
}

func TestAddRemoveSubscription(t *testing.T) {
	s := NewSession(validClaims("u"))

	s.AddSubscription(1, "messages.user1")
	s.AddSubscription(2, "messages.user2")
	assert.Equal(t, 2, s.SubscriptionCount())

	subject, ok := s.SubscriptionSubject(1)
	assert.True(t, ok)
	assert.Equal(t, "messages.user1", subject)

	removed, ok := s.RemoveSubscription(1)
	assert.True(t, ok)
	assert.Equal(t, "messages.user1", removed)
	assert.Equal(t, 1, s.SubscriptionCount())

	_, ok = s.RemoveSubscription(999)
	assert.False(t, ok)
}

func TestAddSubscriptionLastWins(t *testing.T) {
	s := NewSession(validClaims("u"))

	s.AddSubscription(1, "first.subject")
	s.AddSubscription(1, "second.subject")

	assert.Equal(t, 1, s.SubscriptionCount())
	subject, _ := s.SubscriptionSubject(1)
	assert.Equal(t, "second.subject", subject)
}

func TestEachSubscription(t *testing.T) {
	s := NewSession(validClaims("u"))
	s.AddSubscription(1, "a.b")
	s.AddSubscription(2, "c.d")

	seen := make(map[uint64]string)
	s.EachSubscription(func(id uint64, subject string) bool {
		seen[id] = subject
		return true
	})
	assert.Equal(t, map[uint64]string{1: "a.b", 2: "c.d"}, seen)
}

func TestNextServerIDNeverZero(t *testing.T) {
	s := NewSession(validClaims("u"))
	assert.Equal(t, uint64(1), s.NextServerID())
	assert.Equal(t, uint64(2), s.NextServerID())
}

func TestNextServerIDConcurrent(t *testing.T) {
	const workers = 10
	const perWorker = 100

	s := NewSession(validClaims("u"))
	ids := make(chan uint64, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				ids <- s.NextServerID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]struct{})
	for id := range ids {
		require.NotZero(t, id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate server id %d", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, workers*perWorker)
}
