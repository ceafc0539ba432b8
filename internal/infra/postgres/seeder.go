package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"spurs-trivia-service/internal/domain"
)

type quizModel struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID               string    `bun:"id,pk"`
	Title            string    `bun:"title,notnull"`
	Description      string    `bun:"description"`
	Categories       []string  `bun:"categories,array"`
	Difficulty       string    `bun:"difficulty"`
	IsSpeedQuiz      bool      `bun:"is_speed_quiz"`
	TimeLimitSeconds int       `bun:"time_limit_seconds"`
	IsPublished      bool      `bun:"is_published"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type questionModel struct {
	bun.BaseModel `bun:"table:questions"`

	QuizID        string   `bun:"quiz_id,pk"`
	ID            string   `bun:"id,pk"`
	OrderIndex    int      `bun:"order_index"`
	Text          string   `bun:"text"`
	Type          string   `bun:"type"`
	Options       []string `bun:"options,type:jsonb"`
	CorrectAnswer string   `bun:"correct_answer"`
	Explanation   string   `bun:"explanation"`
}

// Seeder writes quiz content through bun; used by the seed command.
type Seeder struct {
	db *bun.DB
}

func NewSeeder(db *bun.DB) *Seeder {
	return &Seeder{db: db}
}

// UpsertQuiz replaces a quiz and its questions in one transaction.
func (s *Seeder) UpsertQuiz(ctx context.Context, quiz domain.Quiz) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if quiz.Categories == nil {
			quiz.Categories = []string{}
		}
		row := &quizModel{
			ID:               quiz.ID,
			Title:            quiz.Title,
			Description:      quiz.Description,
			Categories:       quiz.Categories,
			Difficulty:       quiz.Difficulty,
			IsSpeedQuiz:      quiz.IsSpeedQuiz,
			TimeLimitSeconds: quiz.TimeLimitSeconds,
			IsPublished:      true,
			CreatedAt:        quiz.CreatedAt,
		}
		_, err := tx.NewInsert().Model(row).
			On("CONFLICT (id) DO UPDATE").
			Set("title = EXCLUDED.title").
			Set("description = EXCLUDED.description").
			Set("categories = EXCLUDED.categories").
			Set("difficulty = EXCLUDED.difficulty").
			Set("is_speed_quiz = EXCLUDED.is_speed_quiz").
			Set("time_limit_seconds = EXCLUDED.time_limit_seconds").
			Set("is_published = EXCLUDED.is_published").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert quiz %s: %w", quiz.ID, err)
		}

		if _, err := tx.NewDelete().Model((*questionModel)(nil)).Where("quiz_id = ?", quiz.ID).Exec(ctx); err != nil {
			return fmt.Errorf("clear questions of %s: %w", quiz.ID, err)
		}
		if len(quiz.Questions) == 0 {
			return nil
		}

		questions := make([]questionModel, 0, len(quiz.Questions))
		for i, q := range quiz.Questions {
			questions = append(questions, questionModel{
				QuizID:        quiz.ID,
				ID:            q.ID,
				OrderIndex:    i,
				Text:          q.Text,
				Type:          string(q.Kind),
				Options:       q.Options,
				CorrectAnswer: q.CorrectAnswer,
				Explanation:   q.Explanation,
			})
		}
		if _, err := tx.NewInsert().Model(&questions).Exec(ctx); err != nil {
			return fmt.Errorf("insert questions of %s: %w", quiz.ID, err)
		}
		return nil
	})
}
