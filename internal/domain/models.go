package domain

import (
	"fmt"
	"strings"
	"time"
)

// QuestionKind tells the evaluator how an answer is compared.
type QuestionKind string

const (
	KindSingleChoice QuestionKind = "SingleChoice"
	KindFreeText     QuestionKind = "FreeText"
)

// ParseQuestionKind accepts the canonical names plus the stored aliases "MC" and "Typing".
func ParseQuestionKind(raw string) (QuestionKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "singlechoice", "mc":
		return KindSingleChoice, nil
	case "freetext", "typing":
		return KindFreeText, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownQuestionKind, raw)
}

func (k QuestionKind) Valid() bool {
	return k == KindSingleChoice || k == KindFreeText
}

func (k QuestionKind) MarshalText() ([]byte, error) {
	return []byte(k), nil
}

func (k *QuestionKind) UnmarshalText(text []byte) error {
	parsed, err := ParseQuestionKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Question is an externally supplied quiz item. It is never mutated once a session holds it.
type Question struct {
	ID            string       `json:"id" yaml:"id" validate:"required"`
	Text          string       `json:"text" yaml:"text" validate:"required"`
	Kind          QuestionKind `json:"kind" yaml:"kind" validate:"question_kind"`
	Options       []string     `json:"options,omitempty" yaml:"options,omitempty" validate:"omitempty,dive,required"`
	CorrectAnswer string       `json:"correctAnswer" yaml:"correctAnswer" validate:"required"`
	Explanation   string       `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// QuizInfo is the display metadata of a quiz.
type QuizInfo struct {
	ID               string    `json:"id" yaml:"id" validate:"required"`
	Title            string    `json:"title" yaml:"title" validate:"required"`
	Description      string    `json:"description,omitempty" yaml:"description,omitempty"`
	Categories       []string  `json:"categories,omitempty" yaml:"categories,omitempty"`
	Difficulty       string    `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	IsSpeedQuiz      bool      `json:"isSpeedQuiz" yaml:"isSpeedQuiz"`
	TimeLimitSeconds int       `json:"timeLimitSeconds,omitempty" yaml:"timeLimitSeconds,omitempty" validate:"gte=0"`
	QuestionCount    int       `json:"questionCount" yaml:"-"`
	CreatedAt        time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// Quiz is a descriptor together with its ordered questions.
type Quiz struct {
	QuizInfo  `yaml:",inline"`
	Questions []Question `json:"questions" yaml:"questions" validate:"required,min=1,dive"`
}

// Info returns the descriptor without questions.
func (q Quiz) Info() QuizInfo {
	info := q.QuizInfo
	info.QuestionCount = len(q.Questions)
	return info
}

// TimeLimit is the speed-quiz limit, zero when the quiz is untimed.
func (q Quiz) TimeLimit() time.Duration {
	if !q.IsSpeedQuiz || q.TimeLimitSeconds <= 0 {
		return 0
	}
	return time.Duration(q.TimeLimitSeconds) * time.Second
}

// FinishPayload is what a session hands to persistence when it completes.
type FinishPayload struct {
	Questions        []Question `json:"questions"`
	Answers          []Answer   `json:"answers"`
	TimeSpentSeconds int        `json:"timeSpentSeconds"`
	CompletedAt      time.Time  `json:"completedAt"`
	TimedOut         bool       `json:"timedOut,omitempty"`
}

// QuestionResult is the per-question outcome shown on review.
type QuestionResult struct {
	Question      Question `json:"question"`
	UserAnswer    Answer   `json:"userAnswer"`
	CorrectAnswer string   `json:"correctAnswer"`
	IsCorrect     bool     `json:"isCorrect"`
}

// Evaluation is derived from (questions, answers) and never stored by the core.
type Evaluation struct {
	CorrectCount int              `json:"correctCount"`
	TotalCount   int              `json:"totalCount"`
	Percentage   int              `json:"percentage"`
	Results      []QuestionResult `json:"perQuestion"`
}

// Performance is the feedback tier shown next to a score.
type Performance struct {
	Tier    string `json:"tier"`
	Message string `json:"message"`
}

// Progress mirrors the in-quiz progress indicator.
type Progress struct {
	Index           int    `json:"index"`
	Total           int    `json:"total"`
	PercentComplete int    `json:"percentComplete"`
	Answered        []bool `json:"answered"`
}

// QuestionView is a question as shown while the quiz is running (no answer key).
type QuestionView struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Kind    QuestionKind `json:"kind"`
	Options []string     `json:"options,omitempty"`
}

// SessionView is the state a client renders for a running or finished session.
type SessionView struct {
	SessionID        string       `json:"sessionId"`
	Quiz             QuizInfo     `json:"quiz"`
	Question         QuestionView `json:"question"`
	Answer           Answer       `json:"answer"`
	Progress         Progress     `json:"progress"`
	IsFirst          bool         `json:"isFirst"`
	IsLast           bool         `json:"isLast"`
	Completed        bool         `json:"completed"`
	StartedAt        time.Time    `json:"startedAt"`
	RemainingSeconds *int         `json:"remainingSeconds,omitempty"`
}

// Summary is returned when a session is finished.
type Summary struct {
	SessionID   string      `json:"sessionId"`
	AttemptID   string      `json:"attemptId"`
	Quiz        QuizInfo    `json:"quiz"`
	Evaluation  Evaluation  `json:"evaluation"`
	Performance Performance `json:"performance"`
	TimeSpent   string      `json:"timeSpent"`
	TimedOut    bool        `json:"timedOut,omitempty"`
	CompletedAt time.Time   `json:"completedAt"`
}

// AttemptAnswer is the stored per-question record of an attempt.
type AttemptAnswer struct {
	QuestionID    string `json:"questionId"`
	Question      string `json:"question"`
	UserAnswer    Answer `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
}

// Attempt is one finished quiz attempt as handed to persistence.
type Attempt struct {
	ID               string          `json:"id"`
	UserID           string          `json:"userId"`
	QuizID           string          `json:"quizId"`
	QuizName         string          `json:"quizName"`
	Score            int             `json:"score"`
	TotalQuestions   int             `json:"totalQuestions"`
	Percentage       int             `json:"percentage"`
	TimeTakenSeconds int             `json:"timeTaken"`
	Answers          []AttemptAnswer `json:"answers"`
	CompletedAt      time.Time       `json:"completedAt"`
}

// AttemptStats aggregates a user's history.
type AttemptStats struct {
	AverageScore int `json:"averageScore"`
	BestScore    int `json:"bestScore"`
	TotalQuizzes int `json:"totalQuizzes"`
}

// AttemptHistory is a user's past attempts, newest first.
type AttemptHistory struct {
	Attempts []Attempt    `json:"attempts"`
	Stats    AttemptStats `json:"stats"`
}
