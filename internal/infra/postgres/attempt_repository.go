package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"spurs-trivia-service/internal/domain"
)

// AttemptRepository stores finished attempts in quiz_attempts.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// SaveAttempt is idempotent on the attempt ID so redelivered events are harmless.
func (r *AttemptRepository) SaveAttempt(ctx context.Context, attempt domain.Attempt) error {
	answers, err := json.Marshal(attempt.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO quiz_attempts
			(id, user_id, quiz_id, quiz_name, score, total_questions, percentage, time_taken, answers, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10)
		ON CONFLICT (id) DO NOTHING`,
		attempt.ID, attempt.UserID, attempt.QuizID, attempt.QuizName, attempt.Score,
		attempt.TotalQuestions, attempt.Percentage, attempt.TimeTakenSeconds, string(answers), attempt.CompletedAt)
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

// ListAttempts returns the user's attempts, newest first.
func (r *AttemptRepository) ListAttempts(ctx context.Context, userID string) ([]domain.Attempt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, user_id, quiz_id, quiz_name, score, total_questions, percentage, time_taken, answers, completed_at
		FROM quiz_attempts
		WHERE user_id=$1
		ORDER BY completed_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		var (
			a          domain.Attempt
			rawAnswers []byte
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuizID, &a.QuizName, &a.Score, &a.TotalQuestions,
			&a.Percentage, &a.TimeTakenSeconds, &rawAnswers, &a.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if err := json.Unmarshal(rawAnswers, &a.Answers); err != nil {
			return nil, fmt.Errorf("attempt %s answers: %w", a.ID, err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
