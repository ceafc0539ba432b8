// Package session drives a single quiz attempt from the first question to a
// finished payload. A Controller is owned by one quiz-taking flow and is not
// safe for concurrent use.
package session

import (
	"math"
	"time"

	"spurs-trivia-service/internal/domain"
)

// State is the lifecycle position of a session.
type State int

const (
	InProgress State = iota
	Completed
)

func (s State) String() string {
	if s == Completed {
		return "completed"
	}
	return "in_progress"
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock replaces time.Now, mostly for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithTimeLimit turns the session into a timed (speed) quiz.
func WithTimeLimit(limit time.Duration) Option {
	return func(c *Controller) { c.timeLimit = limit }
}

// Controller tracks position, answers and timing of one attempt.
type Controller struct {
	questions []domain.Question
	answers   []domain.Answer
	current   int
	startedAt time.Time
	state     State
	result    *domain.FinishPayload

	now       func() time.Time
	timeLimit time.Duration
}

// New starts a session over a fixed, non-empty question list.
func New(questions []domain.Question, opts ...Option) (*Controller, error) {
	if len(questions) == 0 {
		return nil, domain.ErrInvalidSession
	}
	c := &Controller{
		questions: append([]domain.Question(nil), questions...),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reset()
	return c, nil
}

func (c *Controller) reset() {
	c.answers = make([]domain.Answer, len(c.questions))
	c.current = 0
	c.state = InProgress
	c.result = nil
	c.startedAt = c.now()
}

// SetAnswer records value for the current question, replacing any earlier value.
func (c *Controller) SetAnswer(value string) error {
	if c.state == Completed {
		return domain.ErrSessionCompleted
	}
	c.answers[c.current] = domain.AnswerOf(value)
	return nil
}

// Previous moves back one question; it does nothing on the first question.
func (c *Controller) Previous() error {
	if c.state == Completed {
		return domain.ErrSessionCompleted
	}
	if c.current > 0 {
		c.current--
	}
	return nil
}

// Next moves forward one question; it does nothing on the last question.
func (c *Controller) Next() error {
	if c.state == Completed {
		return domain.ErrSessionCompleted
	}
	if c.Expired() {
		return domain.ErrTimeUp
	}
	if c.current < len(c.questions)-1 {
		c.current++
	}
	return nil
}

// Finish freezes the session and returns the payload for persistence. Only
// the first call succeeds; later calls return ErrAlreadyCompleted and the
// original payload stays available through Result.
func (c *Controller) Finish() (domain.FinishPayload, error) {
	if c.state == Completed {
		return domain.FinishPayload{}, domain.ErrAlreadyCompleted
	}
	completedAt := c.now()
	payload := domain.FinishPayload{
		Questions:        c.Questions(),
		Answers:          c.Answers(),
		TimeSpentSeconds: elapsedSeconds(c.startedAt, completedAt),
		CompletedAt:      completedAt,
		TimedOut:         c.timeLimit > 0 && completedAt.Sub(c.startedAt) >= c.timeLimit,
	}
	c.state = Completed
	c.result = &payload
	return payload, nil
}

// Restart returns to a fresh attempt over the same questions.
func (c *Controller) Restart() {
	c.reset()
}

// Result returns the payload captured by Finish.
func (c *Controller) Result() (domain.FinishPayload, bool) {
	if c.result == nil {
		return domain.FinishPayload{}, false
	}
	return *c.result, true
}

func (c *Controller) State() State { return c.state }

func (c *Controller) Completed() bool { return c.state == Completed }

func (c *Controller) Index() int { return c.current }

func (c *Controller) Len() int { return len(c.questions) }

func (c *Controller) IsFirst() bool { return c.current == 0 }

func (c *Controller) IsLast() bool { return c.current == len(c.questions)-1 }

func (c *Controller) StartedAt() time.Time { return c.startedAt }

// Current returns the question at the current position and its answer.
func (c *Controller) Current() (domain.Question, domain.Answer) {
	return c.questions[c.current], c.answers[c.current]
}

// Questions returns a copy of the session's questions.
func (c *Controller) Questions() []domain.Question {
	return append([]domain.Question(nil), c.questions...)
}

// Answers returns a copy of the answer slots, one per question.
func (c *Controller) Answers() []domain.Answer {
	return append([]domain.Answer(nil), c.answers...)
}

// Progress reports position and which questions have an answer.
func (c *Controller) Progress() domain.Progress {
	answered := make([]bool, len(c.answers))
	for i, a := range c.answers {
		answered[i] = a.Answered()
	}
	total := len(c.questions)
	return domain.Progress{
		Index:           c.current,
		Total:           total,
		PercentComplete: int(math.Round(float64(c.current+1) * 100 / float64(total))),
		Answered:        answered,
	}
}

// Remaining is the time left on a timed session; ok is false when untimed.
func (c *Controller) Remaining() (remaining time.Duration, ok bool) {
	if c.timeLimit <= 0 {
		return 0, false
	}
	left := c.timeLimit - c.now().Sub(c.startedAt)
	if left < 0 {
		left = 0
	}
	return left, true
}

// Expired reports whether a timed session ran out of time.
func (c *Controller) Expired() bool {
	left, ok := c.Remaining()
	return ok && left == 0
}

func elapsedSeconds(from, to time.Time) int {
	elapsed := to.Sub(from)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed.Round(time.Second) / time.Second)
}
