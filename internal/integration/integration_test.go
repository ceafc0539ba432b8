package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"spurs-trivia-service/internal/app"
	"spurs-trivia-service/internal/cli"
	"spurs-trivia-service/internal/config"
	"spurs-trivia-service/internal/domain"
	"spurs-trivia-service/internal/events"
	pgstore "spurs-trivia-service/internal/infra/postgres"
	infraredis "spurs-trivia-service/internal/infra/redis"
	"spurs-trivia-service/quizzes"
)

func TestQuizAttemptEndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	requireDocker(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisAddr, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	var cfg config.Config
	cfg.Postgres.URL = pgURL
	cfg.Redis.Addr = redisAddr
	if err := cli.RunMigrations(ctx, pgURL, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	bundled, err := quizzes.Bundled()
	if err != nil {
		t.Fatalf("bundled quizzes: %v", err)
	}
	content := make([]domain.Quiz, 0, len(bundled))
	for _, q := range bundled {
		content = append(content, q)
	}
	if err := cli.Seed(ctx, cfg, content, logger); err != nil {
		t.Fatalf("seed: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgstore.NewQuizLoader(pool)
	attempts := pgstore.NewAttemptRepository(pool)

	infos, err := loader.ListQuizzes(ctx)
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if len(infos) != len(bundled) || infos[0].ID != "premier-league-era" {
		t.Fatalf("expected newest quiz first, got %+v", infos)
	}

	redisClient := goredis.NewClient(&goredis.Options{Addr: redisAddr})
	defer redisClient.Close()
	quizRepo := infraredis.NewQuizRepository(redisClient, loader, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)

	pubsub, err := events.NewPubSub(events.KafkaConfig{}, logger)
	if err != nil {
		t.Fatalf("pubsub: %v", err)
	}
	defer pubsub.Close()
	if err := events.NewRecorder(pubsub.Subscriber, "", attempts, logger).Start(ctx); err != nil {
		t.Fatalf("recorder: %v", err)
	}
	service := app.NewQuizService(sessionStore, quizRepo, events.NewAttemptPublisher(pubsub.Publisher, "", logger), logger)

	view, err := service.Start(ctx, "u1", "spurs-legends")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	answers := []string{"Steve Perryman", "double team", "1961", "Harry Kane"}
	for i, answer := range answers {
		if _, err := service.Answer(ctx, "u1", view.SessionID, answer); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if _, err := service.Next(ctx, "u1", view.SessionID); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}
	summary, err := service.Finish(ctx, "u1", view.SessionID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	// "double team" misses "the" under the all-words rule; the final pick is wrong.
	if summary.Evaluation.CorrectCount != 2 || summary.Evaluation.Percentage != 50 {
		t.Fatalf("expected 2/4, got %+v", summary.Evaluation)
	}

	var stored []domain.Attempt
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		stored, err = attempts.ListAttempts(ctx, "u1")
		if err != nil {
			t.Fatalf("list attempts: %v", err)
		}
		if len(stored) > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if len(stored) != 1 || stored[0].ID != summary.AttemptID || stored[0].Percentage != 50 {
		t.Fatalf("expected recorded attempt, got %+v", stored)
	}
	if len(stored[0].Answers) != 4 || stored[0].Answers[1].UserAnswer.Value() != "double team" {
		t.Fatalf("expected stored answers, got %+v", stored[0].Answers)
	}

	// Redelivery must not duplicate.
	if err := attempts.SaveAttempt(ctx, stored[0]); err != nil {
		t.Fatalf("resave: %v", err)
	}
	history, err := app.NewHistoryService(attempts).History(ctx, "u1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if history.Stats.TotalQuizzes != 1 || history.Stats.BestScore != 50 {
		t.Fatalf("unexpected history %+v", history.Stats)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(context.Background())
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port()), func() {
		_ = container.Terminate(context.Background())
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
