package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"spurs-trivia-service/internal/app"
	"spurs-trivia-service/internal/auth"
	"spurs-trivia-service/internal/config"
	"spurs-trivia-service/internal/events"
	"spurs-trivia-service/internal/infra/memory"
	pgstore "spurs-trivia-service/internal/infra/postgres"
	rediscache "spurs-trivia-service/internal/infra/redis"
	"spurs-trivia-service/internal/logging"
	transport "spurs-trivia-service/internal/transport/http"
	"spurs-trivia-service/quizzes"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type quizSource interface {
	memory.QuizLoader
	app.QuizCatalog
}

type attemptStore interface {
	events.AttemptSaver
	app.AttemptRepository
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	if cfg.Postgres.URL != "" {
		if err := RunMigrations(ctx, cfg.Postgres.URL, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var source quizSource
	var attempts attemptStore
	if pool != nil {
		source = pgstore.NewQuizLoader(pool)
		attempts = pgstore.NewAttemptRepository(pool)
	} else {
		bundled, err := quizzes.Bundled()
		if err != nil {
			return err
		}
		logger.Warn("postgres not configured; serving bundled quizzes and keeping attempts in memory")
		source = memory.NewStaticQuizLoader(bundled)
		attempts = memory.NewAttemptStore()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = rediscache.NewQuizRepository(redisClient, source, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(source, quizTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = rediscache.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	pubsub, err := events.NewPubSub(events.KafkaConfig{
		Brokers:       cfg.Events.KafkaBrokers,
		ConsumerGroup: cfg.Events.ConsumerGroup,
	}, logger)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	recorder := events.NewRecorder(pubsub.Subscriber, cfg.Events.Topic, attempts, logger)
	if err := recorder.Start(ctx); err != nil {
		return err
	}
	publisher := events.NewAttemptPublisher(pubsub.Publisher, cfg.Events.Topic, logger)

	service := app.NewQuizService(store, quizRepo, publisher, logger)
	api := transport.NewAPIHandler(app.NewCatalogService(source, quizRepo), app.NewHistoryService(attempts), logger)
	wsHandler := transport.NewWSHandler(service, logger)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(api, wsHandler, authenticator(cfg, logger), logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
			cancelRun()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func authenticator(cfg config.Config, logger *slog.Logger) auth.Authenticator {
	if cfg.Auth.JWTSecret != "" {
		return auth.NewJWTVerifier(cfg.Auth.JWTSecret)
	}
	logger.Warn("auth.jwtSecret not set; trusting X-User-ID / userId from clients")
	return auth.HeaderAuthenticator{}
}
