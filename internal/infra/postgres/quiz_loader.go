package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"spurs-trivia-service/internal/domain"
)

// QuizLoader reads quizzes and their ordered questions from Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

const quizColumns = `id, title, description, categories, difficulty, is_speed_quiz, time_limit_seconds, created_at`

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	row := l.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id=$1 AND is_published`, quizID)
	info, err := scanQuizInfo(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	questions, err := l.loadQuestions(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	return domain.Quiz{QuizInfo: info, Questions: questions}, nil
}

func (l *QuizLoader) loadQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, text, type, options, correct_answer, explanation
		FROM questions
		WHERE quiz_id=$1
		ORDER BY order_index, id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q          domain.Question
			kind       string
			rawOptions []byte
		)
		if err := rows.Scan(&q.ID, &q.Text, &kind, &rawOptions, &q.CorrectAnswer, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if q.Kind, err = domain.ParseQuestionKind(kind); err != nil {
			return nil, fmt.Errorf("question %s: %w", q.ID, err)
		}
		if len(rawOptions) > 0 {
			if err := json.Unmarshal(rawOptions, &q.Options); err != nil {
				return nil, fmt.Errorf("question %s options: %w", q.ID, err)
			}
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}

// ListQuizzes returns published quizzes, newest first, with their question counts.
func (l *QuizLoader) ListQuizzes(ctx context.Context) ([]domain.QuizInfo, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT `+quizColumns+`,
			(SELECT count(*) FROM questions q WHERE q.quiz_id = quizzes.id)
		FROM quizzes
		WHERE is_published
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	infos := []domain.QuizInfo{}
	for rows.Next() {
		var info domain.QuizInfo
		if err := rows.Scan(&info.ID, &info.Title, &info.Description, &info.Categories, &info.Difficulty,
			&info.IsSpeedQuiz, &info.TimeLimitSeconds, &info.CreatedAt, &info.QuestionCount); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func scanQuizInfo(row pgx.Row) (domain.QuizInfo, error) {
	var info domain.QuizInfo
	err := row.Scan(&info.ID, &info.Title, &info.Description, &info.Categories, &info.Difficulty,
		&info.IsSpeedQuiz, &info.TimeLimitSeconds, &info.CreatedAt)
	return info, err
}
