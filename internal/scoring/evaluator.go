// Package scoring judges quiz answers and aggregates scores. Every function
// here is pure: the same questions and answers always produce the same result.
package scoring

import (
	"math"
	"strings"
	"unicode"

	"spurs-trivia-service/internal/domain"
)

// shortAnswerWords is the word count at or below which free-text answers must match exactly.
const shortAnswerWords = 2

// Normalize lowercases, trims, drops anything that is not a letter, digit or
// whitespace and collapses whitespace runs to a single space.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// EvaluateChoice is an exact comparison; Unanswered is never correct.
func EvaluateChoice(answer domain.Answer, correct string) bool {
	return answer.Answered() && answer.Value() == correct
}

// EvaluateFreeText compares a typed answer against the expected one.
//
// Answers of up to two words (names, years) must match after normalization.
// Longer answers pass when every expected word is contained in, or contains,
// some word of the user's answer, in any order.
func EvaluateFreeText(user, correct string) bool {
	normalizedUser := Normalize(user)
	normalizedCorrect := Normalize(correct)
	if normalizedUser == "" {
		return false
	}
	if normalizedUser == normalizedCorrect {
		return true
	}

	correctWords := strings.Fields(normalizedCorrect)
	if len(correctWords) <= shortAnswerWords {
		return false
	}

	userWords := strings.Fields(normalizedUser)
	for _, want := range correctWords {
		if !containsEitherWay(userWords, want) {
			return false
		}
	}
	return true
}

func containsEitherWay(userWords []string, want string) bool {
	for _, got := range userWords {
		if strings.Contains(got, want) || strings.Contains(want, got) {
			return true
		}
	}
	return false
}

// EvaluateQuestion applies the comparator for the question's kind.
func EvaluateQuestion(q domain.Question, answer domain.Answer) bool {
	switch q.Kind {
	case domain.KindSingleChoice:
		return EvaluateChoice(answer, q.CorrectAnswer)
	case domain.KindFreeText:
		return answer.Answered() && EvaluateFreeText(answer.Value(), q.CorrectAnswer)
	}
	return false
}

// Evaluate scores a whole attempt. Answer slots past the end of answers count
// as unanswered.
func Evaluate(questions []domain.Question, answers []domain.Answer) domain.Evaluation {
	result := domain.Evaluation{
		TotalCount: len(questions),
		Results:    make([]domain.QuestionResult, 0, len(questions)),
	}
	for i, q := range questions {
		answer := domain.Unanswered
		if i < len(answers) {
			answer = answers[i]
		}
		correct := EvaluateQuestion(q, answer)
		if correct {
			result.CorrectCount++
		}
		result.Results = append(result.Results, domain.QuestionResult{
			Question:      q,
			UserAnswer:    answer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     correct,
		})
	}
	result.Percentage = Percentage(result.CorrectCount, result.TotalCount)
	return result
}

// Percentage rounds 100*correct/total to the nearest integer, ties away from zero.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) * 100 / float64(total)))
}
