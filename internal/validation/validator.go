// Package validation checks quiz content at ingestion so sessions and the
// evaluator only ever see well-formed questions.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"spurs-trivia-service/internal/domain"
)

// FieldError describes one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Errors is the list of problems found in one quiz.
type Errors []FieldError

func (e Errors) Error() string {
	switch len(e) {
	case 0:
		return domain.ErrMalformedQuiz.Error()
	case 1:
		return fmt.Sprintf("%s: %s %s", domain.ErrMalformedQuiz, e[0].Field, e[0].Message)
	}
	return fmt.Sprintf("%s: %d field errors", domain.ErrMalformedQuiz, len(e))
}

// Is lets callers match any validation failure with domain.ErrMalformedQuiz.
func (e Errors) Is(target error) bool {
	return target == domain.ErrMalformedQuiz
}

// Validator wraps a configured go-playground validator.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("question_kind", func(fl validator.FieldLevel) bool {
		return domain.QuestionKind(fl.Field().String()).Valid()
	})
	v.RegisterStructValidation(questionRules, domain.Question{})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// questionRules enforces the per-kind invariants tags cannot express.
func questionRules(sl validator.StructLevel) {
	q := sl.Current().Interface().(domain.Question)
	if q.Kind != domain.KindSingleChoice {
		return
	}
	if len(q.Options) == 0 {
		sl.ReportError(q.Options, "options", "Options", "required_for_choice", "")
		return
	}
	if !slices.Contains(q.Options, q.CorrectAnswer) {
		sl.ReportError(q.CorrectAnswer, "correctAnswer", "CorrectAnswer", "in_options", "")
	}
}

// Quiz validates a quiz and its questions.
func (v *Validator) Quiz(quiz domain.Quiz) error {
	if err := v.validate.Struct(quiz); err != nil {
		return convert(err)
	}
	seen := make(map[string]struct{}, len(quiz.Questions))
	for i, q := range quiz.Questions {
		if _, dup := seen[q.ID]; dup {
			return Errors{{Field: fmt.Sprintf("questions[%d].id", i), Rule: "unique", Message: "duplicates an earlier question id"}}
		}
		seen[q.ID] = struct{}{}
	}
	return nil
}

// Question validates a single question.
func (v *Validator) Question(q domain.Question) error {
	if err := v.validate.Struct(q); err != nil {
		return convert(err)
	}
	return nil
}

func convert(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrMalformedQuiz, err)
	}
	out := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{
			Field:   trimRoot(fe.Namespace()),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

// trimRoot drops the struct name and the embedded descriptor from a namespace,
// so "Quiz.QuizInfo.title" reads as "title".
func trimRoot(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	return strings.TrimPrefix(namespace, "QuizInfo.")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s item(s)", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "question_kind":
		return "must be SingleChoice or FreeText"
	case "required_for_choice":
		return "must list options for a single-choice question"
	case "in_options":
		return "must be one of the options"
	}
	return fmt.Sprintf("failed %s", fe.Tag())
}
