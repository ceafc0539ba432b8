package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"spurs-trivia-service/internal/config"
	"spurs-trivia-service/internal/domain"
	"spurs-trivia-service/internal/infra/memory"
	"spurs-trivia-service/internal/infra/postgres"
	rediscache "spurs-trivia-service/internal/infra/redis"
	"spurs-trivia-service/internal/logging"
	"spurs-trivia-service/internal/validation"
	"spurs-trivia-service/quizzes"
)

// NewSeedCmd loads quizzes from a YAML file (or the bundled set) into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Validate and upsert quiz content into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.OutOrStdout())

			content, err := readQuizzes(file)
			if err != nil {
				return err
			}
			if err := RunMigrations(cmd.Context(), cfg.Postgres.URL, logger); err != nil {
				return err
			}
			return Seed(cmd.Context(), cfg, content, logger)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "quiz YAML file (defaults to the bundled quizzes)")
	return cmd
}

func readQuizzes(path string) ([]domain.Quiz, error) {
	if path == "" {
		bundled, err := quizzes.Bundled()
		if err != nil {
			return nil, err
		}
		list := make([]domain.Quiz, 0, len(bundled))
		for _, q := range bundled {
			list = append(list, q)
		}
		return list, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return quizzes.Decode(data)
}

// Seed validates every quiz before writing any of them, then drops stale cache entries.
func Seed(ctx context.Context, cfg config.Config, content []domain.Quiz, logger *slog.Logger) error {
	v := validation.New()
	for _, quiz := range content {
		if err := v.Quiz(quiz); err != nil {
			return fmt.Errorf("quiz %q: %w", quiz.ID, err)
		}
	}

	db, err := openBunDB(cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	var cache *rediscache.QuizRepository
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer client.Close()
		cache = rediscache.NewQuizRepository(client, memory.NewStaticQuizLoader(nil), 0)
	}

	seeder := postgres.NewSeeder(db)
	for _, quiz := range content {
		if err := seeder.UpsertQuiz(ctx, quiz); err != nil {
			return err
		}
		if cache != nil {
			if err := cache.Invalidate(ctx, quiz.ID); err != nil {
				logger.WarnContext(ctx, "failed to invalidate cached quiz", "quiz_id", quiz.ID, "error", err)
			}
		}
		logger.InfoContext(ctx, "quiz seeded", "quiz_id", quiz.ID, "questions", len(quiz.Questions))
	}
	return nil
}
