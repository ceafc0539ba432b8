package app

import (
	"sync"
	"time"

	"spurs-trivia-service/internal/domain"
	"spurs-trivia-service/internal/scoring"
	"spurs-trivia-service/internal/session"
)

// Session is a live quiz attempt owned by one user. It guards the controller
// so the transport's reader and subscriber goroutines can share it.
type Session struct {
	id     string
	userID string
	quiz   domain.QuizInfo

	mu          sync.Mutex
	ctrl        *session.Controller
	summary     *domain.Summary
	subscribers map[chan domain.SessionView]struct{}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id, userID string, quiz domain.Quiz, opts ...session.Option) (*Session, error) {
	ctrl, err := session.New(quiz.Questions, opts...)
	if err != nil {
		return nil, err
	}
	return &Session{
		id:          id,
		userID:      userID,
		quiz:        quiz.Info(),
		ctrl:        ctrl,
		subscribers: make(map[chan domain.SessionView]struct{}),
	}, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) UserID() string { return s.userID }

func (s *Session) QuizID() string { return s.quiz.ID }

// View returns the current client-facing state.
func (s *Session) View() domain.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// apply runs a controller operation and broadcasts the result when it succeeds.
func (s *Session) apply(op func(*session.Controller) error) (domain.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := op(s.ctrl); err != nil {
		return s.viewLocked(), err
	}
	return s.broadcastLocked(), nil
}

func (s *Session) finish(attemptID string) (domain.Summary, domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := s.ctrl.Finish()
	if err != nil {
		return domain.Summary{}, domain.Attempt{}, err
	}
	evaluation := scoring.Evaluate(payload.Questions, payload.Answers)
	summary := domain.Summary{
		SessionID:   s.id,
		AttemptID:   attemptID,
		Quiz:        s.quiz,
		Evaluation:  evaluation,
		Performance: scoring.Performance(evaluation.Percentage),
		TimeSpent:   scoring.FormatDuration(payload.TimeSpentSeconds),
		TimedOut:    payload.TimedOut,
		CompletedAt: payload.CompletedAt,
	}
	s.summary = &summary
	s.broadcastLocked()
	return summary, s.attempt(attemptID, payload, evaluation), nil
}

func (s *Session) attempt(id string, payload domain.FinishPayload, evaluation domain.Evaluation) domain.Attempt {
	answers := make([]domain.AttemptAnswer, 0, len(evaluation.Results))
	for _, r := range evaluation.Results {
		answers = append(answers, domain.AttemptAnswer{
			QuestionID:    r.Question.ID,
			Question:      r.Question.Text,
			UserAnswer:    r.UserAnswer,
			CorrectAnswer: r.CorrectAnswer,
			IsCorrect:     r.IsCorrect,
		})
	}
	return domain.Attempt{
		ID:               id,
		UserID:           s.userID,
		QuizID:           s.quiz.ID,
		QuizName:         s.quiz.Title,
		Score:            evaluation.CorrectCount,
		TotalQuestions:   evaluation.TotalCount,
		Percentage:       evaluation.Percentage,
		TimeTakenSeconds: payload.TimeSpentSeconds,
		Answers:          answers,
		CompletedAt:      payload.CompletedAt,
	}
}

func (s *Session) restart() domain.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.Restart()
	s.summary = nil
	return s.broadcastLocked()
}

func (s *Session) result() (domain.Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return domain.Summary{}, false
	}
	return *s.summary, true
}

func (s *Session) subscribe() (<-chan domain.SessionView, func()) {
	ch := make(chan domain.SessionView, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.viewLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() domain.SessionView {
	view := s.viewLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// Slow subscriber: drop its oldest pending view so the latest always lands.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}

func (s *Session) viewLocked() domain.SessionView {
	q, answer := s.ctrl.Current()
	view := domain.SessionView{
		SessionID: s.id,
		Quiz:      s.quiz,
		Question: domain.QuestionView{
			ID:      q.ID,
			Text:    q.Text,
			Kind:    q.Kind,
			Options: append([]string(nil), q.Options...),
		},
		Answer:    answer,
		Progress:  s.ctrl.Progress(),
		IsFirst:   s.ctrl.IsFirst(),
		IsLast:    s.ctrl.IsLast(),
		Completed: s.ctrl.Completed(),
		StartedAt: s.ctrl.StartedAt(),
	}
	if left, ok := s.ctrl.Remaining(); ok {
		secs := int(left / time.Second)
		view.RemainingSeconds = &secs
	}
	return view
}
