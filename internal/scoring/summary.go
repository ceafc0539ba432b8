package scoring

import (
	"fmt"
	"math"

	"spurs-trivia-service/internal/domain"
)

var performanceTiers = []struct {
	min  int
	tier domain.Performance
}{
	{90, domain.Performance{Tier: "outstanding", Message: "Outstanding! You're a true Spurs expert!"}},
	{80, domain.Performance{Tier: "excellent", Message: "Excellent! Your Spurs knowledge is impressive!"}},
	{70, domain.Performance{Tier: "well-done", Message: "Well done! You know your Spurs history!"}},
	{60, domain.Performance{Tier: "good-effort", Message: "Good effort! Keep learning about Spurs!"}},
	{50, domain.Performance{Tier: "not-bad", Message: "Not bad! There's room to improve your Spurs knowledge."}},
}

var keepStudying = domain.Performance{Tier: "keep-studying", Message: "Keep studying! Every Spurs fan can improve their knowledge."}

// Performance picks the feedback tier for a percentage score.
func Performance(percentage int) domain.Performance {
	for _, t := range performanceTiers {
		if percentage >= t.min {
			return t.tier
		}
	}
	return keepStudying
}

// OverallStats aggregates past attempts: rounded average, best and count.
func OverallStats(attempts []domain.Attempt) domain.AttemptStats {
	if len(attempts) == 0 {
		return domain.AttemptStats{}
	}
	total := 0
	best := attempts[0].Percentage
	for _, a := range attempts {
		total += a.Percentage
		if a.Percentage > best {
			best = a.Percentage
		}
	}
	return domain.AttemptStats{
		AverageScore: int(math.Round(float64(total) / float64(len(attempts)))),
		BestScore:    best,
		TotalQuizzes: len(attempts),
	}
}

// FormatDuration renders seconds as M:SS.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
