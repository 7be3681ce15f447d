// Package scoring grades submitted answers against a quiz's answer key.
package scoring

import (
	"math"
	"strings"

	"quizwise-service/internal/domain"
)

// NotAnswered stands in for a question with no submitted answer.
const NotAnswered = "Not answered"

// QuestionOutcome is the grading of one question.
type QuestionOutcome struct {
	Index         int    `json:"index"`
	Question      string `json:"question"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	Correct       bool   `json:"correct"`
}

// Outcome is the grading of a whole attempt.
type Outcome struct {
	Score          int
	Total          int
	CorrectAnswers map[int]string
	Correct        map[int]bool
	Breakdown      []QuestionOutcome
}

// Score grades answers against quiz. Each question scores one point when the
// trimmed answer equals the trimmed correct answer ignoring case.
func Score(quiz domain.Quiz, answers domain.UserAnswers) Outcome {
	out := Outcome{
		Total:          len(quiz.Questions),
		CorrectAnswers: make(map[int]string, len(quiz.Questions)),
		Correct:        make(map[int]bool, len(quiz.Questions)),
		Breakdown:      make([]QuestionOutcome, 0, len(quiz.Questions)),
	}
	for i, q := range quiz.Questions {
		given := Display(answers, i)
		// an absent answer never matches, even a key that reads "Not answered"
		a, answered := answers[i]
		ok := answered && Match(a, q.CorrectAnswer)
		if ok {
			out.Score++
		}
		out.CorrectAnswers[i] = q.CorrectAnswer
		out.Correct[i] = ok
		out.Breakdown = append(out.Breakdown, QuestionOutcome{
			Index:         i,
			Question:      q.Question,
			UserAnswer:    given,
			CorrectAnswer: q.CorrectAnswer,
			Correct:       ok,
		})
	}
	return out
}

// Match compares two answers ignoring case and surrounding whitespace.
func Match(given, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(correct))
}

// Display returns the answer at index i, or NotAnswered when the slot is absent.
func Display(answers domain.UserAnswers, i int) string {
	if a, ok := answers[i]; ok {
		return a
	}
	return NotAnswered
}

// Percent is score/total as a rounded percentage; 0 for an empty quiz.
func Percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}
