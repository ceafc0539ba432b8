package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"spurs-trivia-service/internal/domain"
	"spurs-trivia-service/internal/session"
	"spurs-trivia-service/internal/validation"
)

// SessionRepository abstracts where live quiz sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// AttemptPublisher hands finished attempts to persistence.
type AttemptPublisher interface {
	PublishAttempt(ctx context.Context, attempt domain.Attempt) error
}

// QuizService contains the quiz-taking use cases.
type QuizService struct {
	sessions  SessionRepository
	quizzes   QuizRepository
	publisher AttemptPublisher
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// ServiceOption customizes a QuizService.
type ServiceOption func(*QuizService)

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *QuizService) { s.now = now }
}

// WithIDGenerator replaces the UUID generator for session and attempt IDs.
func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *QuizService) { s.newID = newID }
}

func NewQuizService(store SessionRepository, quizzes QuizRepository, publisher AttemptPublisher, logger *slog.Logger, opts ...ServiceOption) *QuizService {
	s := &QuizService{
		sessions:  store,
		quizzes:   quizzes,
		publisher: publisher,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads a quiz and opens a new session for the user.
func (s *QuizService) Start(ctx context.Context, userID, quizID string) (domain.SessionView, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SessionView{}, err
	}
	if err := s.validator.Quiz(quiz); err != nil {
		s.logger.WarnContext(ctx, "rejected malformed quiz", "quiz_id", quizID, "error", err)
		return domain.SessionView{}, err
	}

	opts := []session.Option{session.WithClock(s.now)}
	if limit := quiz.TimeLimit(); limit > 0 {
		opts = append(opts, session.WithTimeLimit(limit))
	}
	sess, err := NewSession(s.newID(), userID, quiz, opts...)
	if err != nil {
		return domain.SessionView{}, err
	}
	s.sessions.Save(sess)

	s.logger.InfoContext(ctx, "quiz session started",
		"session_id", sess.ID(),
		"quiz_id", quizID,
		"user_id", userID,
		"questions", len(quiz.Questions))
	return sess.View(), nil
}

// View returns the current state of a session.
func (s *QuizService) View(_ context.Context, userID, sessionID string) (domain.SessionView, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return domain.SessionView{}, err
	}
	return sess.View(), nil
}

// Answer records the user's answer for the current question.
func (s *QuizService) Answer(_ context.Context, userID, sessionID, value string) (domain.SessionView, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return domain.SessionView{}, err
	}
	return sess.apply(func(c *session.Controller) error { return c.SetAnswer(value) })
}

// Previous moves to the previous question.
func (s *QuizService) Previous(_ context.Context, userID, sessionID string) (domain.SessionView, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return domain.SessionView{}, err
	}
	return sess.apply((*session.Controller).Previous)
}

// Next moves to the next question.
func (s *QuizService) Next(_ context.Context, userID, sessionID string) (domain.SessionView, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return domain.SessionView{}, err
	}
	return sess.apply((*session.Controller).Next)
}

// Finish completes the session, scores it and publishes the attempt. Publishing
// is fire-and-forget: a failure is logged and the summary is still returned.
func (s *QuizService) Finish(ctx context.Context, userID, sessionID string) (domain.Summary, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return domain.Summary{}, err
	}
	summary, attempt, err := sess.finish(s.newID())
	if err != nil {
		return domain.Summary{}, err
	}

	s.logger.InfoContext(ctx, "quiz session finished",
		"session_id", sessionID,
		"quiz_id", attempt.QuizID,
		"user_id", userID,
		"score", attempt.Score,
		"total", attempt.TotalQuestions,
		"percentage", attempt.Percentage,
		"time_taken", attempt.TimeTakenSeconds)

	if s.publisher != nil {
		if err := s.publisher.PublishAttempt(ctx, attempt); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish quiz attempt",
				"attempt_id", attempt.ID,
				"session_id", sessionID,
				"error", err)
		}
	}
	return summary, nil
}

// Summary re-fetches the result of a finished session.
func (s *QuizService) Summary(_ context.Context, userID, sessionID string) (domain.Summary, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return domain.Summary{}, err
	}
	summary, ok := sess.result()
	if !ok {
		return domain.Summary{}, domain.ErrNotCompleted
	}
	return summary, nil
}

// Restart resets the session to a fresh attempt over the same questions.
func (s *QuizService) Restart(_ context.Context, userID, sessionID string) (domain.SessionView, error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return domain.SessionView{}, err
	}
	return sess.restart(), nil
}

// Subscribe returns a channel that receives view updates for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, userID, sessionID string) (<-chan domain.SessionView, func(), error) {
	sess, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := sess.subscribe()
	return ch, cancel, nil
}

// Leave discards the session; an unfinished attempt is simply dropped.
func (s *QuizService) Leave(ctx context.Context, userID, sessionID string) {
	if _, err := s.lookup(userID, sessionID); err != nil {
		return
	}
	s.sessions.Delete(sessionID)
	s.logger.DebugContext(ctx, "quiz session discarded", "session_id", sessionID, "user_id", userID)
}

// lookup hides sessions owned by other users behind ErrSessionNotFound.
func (s *QuizService) lookup(userID, sessionID string) (*Session, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok || sess.UserID() != userID {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}
