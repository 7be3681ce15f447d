package domain

import (
	"errors"
	"strings"
)

var (
	// ErrQuizNotFound is returned when no quiz is stored for the requested id.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAnswersNotFound is returned when no answers were submitted for a quiz.
	ErrAnswersNotFound = errors.New("answers not found")
	// ErrGenerationFailed indicates the generation service failed or returned no questions.
	ErrGenerationFailed = errors.New("quiz generation failed")
	// ErrFeedbackFailed indicates the feedback service could not produce feedback.
	ErrFeedbackFailed = errors.New("feedback generation failed")
	// ErrMalformedData indicates stored bytes could not be decoded.
	ErrMalformedData = errors.New("malformed stored data")
	// ErrQuestionOutOfRange indicates an answer index outside the quiz.
	ErrQuestionOutOfRange = errors.New("question index out of range")
)

// Messages shown to users in place of the underlying error.
const (
	GenerationFailedMessage = "Failed to generate a quiz. The topic might be too specific or invalid. Please try another topic."
	FeedbackFailedMessage   = "Failed to generate feedback."
)

// ValidationError lists every input problem found in a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

// Add records a problem.
func (e *ValidationError) Add(problem string) {
	e.Problems = append(e.Problems, problem)
}

// OrNil returns e when it holds problems, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Problems) == 0 {
		return nil
	}
	return e
}
