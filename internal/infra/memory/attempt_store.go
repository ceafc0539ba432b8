package memory

import (
	"context"
	"sync"

	"spurs-trivia-service/internal/domain"
)

// AttemptStore keeps finished attempts per user; used when Postgres is not configured.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string][]domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[string][]domain.Attempt)}
}

// SaveAttempt stores an attempt; saving the same attempt ID again replaces it.
func (s *AttemptStore) SaveAttempt(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.attempts[attempt.UserID]
	for i := range list {
		if list[i].ID == attempt.ID {
			list[i] = attempt
			return nil
		}
	}
	s.attempts[attempt.UserID] = append(list, attempt)
	return nil
}

func (s *AttemptStore) ListAttempts(_ context.Context, userID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Attempt(nil), s.attempts[userID]...), nil
}
