package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"spurs-trivia-service/internal/domain"
	"spurs-trivia-service/internal/infra/memory"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuizLoader: memory.NewStaticQuizLoader(map[string]domain.Quiz{
			"legends": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(client, loader, time.Minute)

	_, err = repo.GetQuiz(context.Background(), "legends")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:legends") {
		t.Fatalf("expected quiz hash in redis")
	}
	if ttl := mr.TTL("quiz:legends"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected jittered ttl, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	quiz, err := repo.GetQuiz(context.Background(), "legends")
	if err != nil {
		t.Fatalf("get cached quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if quiz.Title != "Spurs Legends" || len(quiz.Questions) != 2 {
		t.Fatalf("unexpected cached quiz %+v", quiz)
	}
	if quiz.Questions[1].Kind != domain.KindFreeText || quiz.Questions[0].Options[2] != "Ledley King" {
		t.Fatalf("expected questions to round-trip, got %+v", quiz.Questions)
	}
}

func TestQuizRepositoryInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{QuizLoader: memory.NewStaticQuizLoader(map[string]domain.Quiz{"legends": sampleQuiz()})}
	repo := NewQuizRepository(newClient(mr), loader, time.Minute)

	ctx := context.Background()
	_, _ = repo.GetQuiz(ctx, "legends")
	if err := repo.Invalidate(ctx, "legends"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.GetQuiz(ctx, "legends")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestQuizRepositoryIgnoresCorruptEntries(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	mr.HSet("quiz:legends", "info", "{not json", "questions", "[]")
	loader := &countingLoader{QuizLoader: memory.NewStaticQuizLoader(map[string]domain.Quiz{"legends": sampleQuiz()})}
	repo := NewQuizRepository(newClient(mr), loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "legends")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 || quiz.ID != "legends" {
		t.Fatalf("expected loader fallback, calls=%d quiz=%+v", loader.calls, quiz)
	}
}

func TestQuizRepositoryMissingQuiz(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewQuizRepository(newClient(mr), memory.NewStaticQuizLoader(nil), time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if mr.Exists("quiz:missing") {
		t.Fatalf("missing quiz must not be cached")
	}
}

type countingLoader struct {
	memory.QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		QuizInfo: domain.QuizInfo{ID: "legends", Title: "Spurs Legends", Difficulty: "Medium"},
		Questions: []domain.Question{
			{
				ID:            "q1",
				Text:          "Which player holds the record for most appearances for Tottenham Hotspur?",
				Kind:          domain.KindSingleChoice,
				Options:       []string{"Steve Perryman", "Gary Mabbutt", "Ledley King", "Glenn Hoddle"},
				CorrectAnswer: "Steve Perryman",
			},
			{
				ID:            "q2",
				Text:          "Which Spurs legend scored the famous solo goal against Manchester City in the 1981 FA Cup Final replay?",
				Kind:          domain.KindFreeText,
				CorrectAnswer: "Ricky Villa",
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
