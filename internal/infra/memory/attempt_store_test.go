package memory

import (
	"context"
	"testing"

	"spurs-trivia-service/internal/domain"
)

func TestAttemptStoreSavesPerUser(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()

	_ = store.SaveAttempt(ctx, domain.Attempt{ID: "a1", UserID: "u1", Percentage: 50})
	_ = store.SaveAttempt(ctx, domain.Attempt{ID: "a2", UserID: "u1", Percentage: 75})
	_ = store.SaveAttempt(ctx, domain.Attempt{ID: "a3", UserID: "u2", Percentage: 100})
	_ = store.SaveAttempt(ctx, domain.Attempt{ID: "a1", UserID: "u1", Percentage: 60})

	attempts, err := store.ListAttempts(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts for u1, got %d", len(attempts))
	}
	if attempts[0].Percentage != 60 {
		t.Fatalf("expected redelivered attempt to replace the first, got %+v", attempts[0])
	}

	none, _ := store.ListAttempts(ctx, "nobody")
	if len(none) != 0 {
		t.Fatalf("expected no attempts, got %d", len(none))
	}
}
