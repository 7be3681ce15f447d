// Package history merges stored result lists and shapes them for progress views.
package history

import (
	"fmt"
	"time"

	"quizwise-service/internal/domain"
	"quizwise-service/internal/scoring"
)

const labelTopicRunes = 15

// Merge concatenates partitions and keeps the first record seen for each quiz id.
func Merge(partitions ...[]domain.QuizResult) []domain.QuizResult {
	seen := make(map[string]struct{})
	merged := make([]domain.QuizResult, 0)
	for _, results := range partitions {
		for _, r := range results {
			if _, dup := seen[r.QuizID]; dup {
				continue
			}
			seen[r.QuizID] = struct{}{}
			merged = append(merged, r)
		}
	}
	return merged
}

// Points turns results into chart bars in the same order.
func Points(results []domain.QuizResult) []domain.ProgressPoint {
	points := make([]domain.ProgressPoint, 0, len(results))
	for _, r := range results {
		points = append(points, domain.ProgressPoint{
			QuizID:       r.QuizID,
			Label:        Label(r.Topic, r.Date),
			ScorePercent: scoring.Percent(r.Score, r.TotalQuestions),
			UserName:     r.UserName,
			Date:         r.Date,
		})
	}
	return points
}

// Label is the truncated topic followed by the calendar date of the attempt.
func Label(topic, date string) string {
	runes := []rune(topic)
	short := topic
	if len(runes) > labelTopicRunes {
		short = string(runes[:labelTopicRunes]) + "..."
	}
	if day, ok := formatDay(date); ok {
		return fmt.Sprintf("%s (%s)", short, day)
	}
	return short
}

func formatDay(date string) (string, bool) {
	ts, err := time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return "", false
	}
	return ts.Format(time.DateOnly), true
}
