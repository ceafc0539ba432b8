package app

import (
	"context"
	"sort"

	"spurs-trivia-service/internal/domain"
	"spurs-trivia-service/internal/scoring"
)

// AttemptRepository reads stored attempts.
type AttemptRepository interface {
	ListAttempts(ctx context.Context, userID string) ([]domain.Attempt, error)
}

// QuizCatalog lists published quizzes.
type QuizCatalog interface {
	ListQuizzes(ctx context.Context) ([]domain.QuizInfo, error)
}

// HistoryService serves a user's past attempts and stats.
type HistoryService struct {
	attempts AttemptRepository
}

func NewHistoryService(attempts AttemptRepository) *HistoryService {
	return &HistoryService{attempts: attempts}
}

// History returns the user's attempts, newest first, with overall stats.
func (h *HistoryService) History(ctx context.Context, userID string) (domain.AttemptHistory, error) {
	attempts, err := h.attempts.ListAttempts(ctx, userID)
	if err != nil {
		return domain.AttemptHistory{}, err
	}
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].CompletedAt.After(attempts[j].CompletedAt)
	})
	if attempts == nil {
		attempts = []domain.Attempt{}
	}
	return domain.AttemptHistory{
		Attempts: attempts,
		Stats:    scoring.OverallStats(attempts),
	}, nil
}

// CatalogService exposes quiz descriptors without answer keys.
type CatalogService struct {
	catalog QuizCatalog
	quizzes QuizRepository
}

func NewCatalogService(catalog QuizCatalog, quizzes QuizRepository) *CatalogService {
	return &CatalogService{catalog: catalog, quizzes: quizzes}
}

// List returns every published quiz.
func (c *CatalogService) List(ctx context.Context) ([]domain.QuizInfo, error) {
	return c.catalog.ListQuizzes(ctx)
}

// Get returns one quiz's descriptor, including its question count.
func (c *CatalogService) Get(ctx context.Context, quizID string) (domain.QuizInfo, error) {
	quiz, err := c.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizInfo{}, err
	}
	return quiz.Info(), nil
}
