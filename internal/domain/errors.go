package domain

import "errors"

var (
	// ErrInvalidSession is returned when a session is created without questions.
	ErrInvalidSession = errors.New("quiz session requires at least one question")
	// ErrAlreadyCompleted is returned when finishing a session twice.
	ErrAlreadyCompleted = errors.New("quiz session already completed")
	// ErrSessionCompleted rejects answer/navigation calls on a finished session.
	ErrSessionCompleted = errors.New("quiz session is completed")
	// ErrNotCompleted is returned when asking for the result of a running session.
	ErrNotCompleted = errors.New("quiz session not completed yet")
	// ErrTimeUp is returned when a timed session's limit has elapsed.
	ErrTimeUp = errors.New("quiz time limit reached")
	// ErrSessionNotFound is returned when a quiz session does not exist for the caller.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrMalformedQuiz indicates quiz content failed ingestion checks.
	ErrMalformedQuiz = errors.New("malformed quiz data")
	// ErrUnknownQuestionKind is returned when decoding an unsupported question type.
	ErrUnknownQuestionKind = errors.New("unknown question kind")
)
