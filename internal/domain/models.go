package domain

// QuestionType identifies how a question is presented and answered.
type QuestionType string

const (
	MultipleChoice  QuestionType = "multiple-choice"
	TrueFalse       QuestionType = "true-false"
	FillInTheBlanks QuestionType = "fill-in-the-blanks"
)

// Valid reports whether t is one of the supported question types.
func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, TrueFalse, FillInTheBlanks:
		return true
	}
	return false
}

// TrueFalseAnswers are the only choice labels of a true-false question.
var TrueFalseAnswers = []string{"True", "False"}

// Question is a single generated question. Answers is empty for fill-in-the-blanks.
type Question struct {
	Question      string       `json:"question"`
	Type          QuestionType `json:"type"`
	Answers       []string     `json:"answers"`
	CorrectAnswer string       `json:"correctAnswer"`
}

// Quiz is a generated question set. It is never mutated once stored.
type Quiz struct {
	QuizID    string     `json:"quizId"`
	Topic     string     `json:"topic"`
	Questions []Question `json:"questions"`
	UserName  string     `json:"userName,omitempty"`
}

// UserAnswers maps a 0-based question index to the submitted answer.
// A missing index means the question was not answered.
type UserAnswers map[int]string

// Clone returns an independent copy of the answers.
func (a UserAnswers) Clone() UserAnswers {
	out := make(UserAnswers, len(a))
	for i, v := range a {
		out[i] = v
	}
	return out
}

// Equal reports whether both answer sets contain the same slots and values.
func (a UserAnswers) Equal(b UserAnswers) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if w, ok := b[i]; !ok || w != v {
			return false
		}
	}
	return true
}

// QuizResult is the scored record of one completed attempt, keyed by QuizID.
type QuizResult struct {
	QuizID         string         `json:"quizId"`
	Topic          string         `json:"topic"`
	Score          int            `json:"score"`
	TotalQuestions int            `json:"totalQuestions"`
	Date           string         `json:"date"`
	CorrectAnswers map[int]string `json:"correctAnswers"`
	UserAnswers    UserAnswers    `json:"userAnswers"`
	UserName       string         `json:"userName,omitempty"`
	UserID         string         `json:"userId,omitempty"`
}

// Feedback is the personalized commentary returned by the feedback service.
type Feedback struct {
	Feedback                     string `json:"feedback"`
	SuggestedAreasForImprovement string `json:"suggestedAreasForImprovement"`
	ExternalSources              string `json:"externalSources"`
}

// GenerationRequest asks the generation service for a quiz on a topic.
type GenerationRequest struct {
	Topic        string `json:"topic"`
	NumQuestions int    `json:"numQuestions"`
}

// GeneratedQuiz is the raw generation output, before a quiz id is assigned.
type GeneratedQuiz struct {
	Topic     string     `json:"topic"`
	Questions []Question `json:"questions"`
}

// FeedbackRequest carries answers keyed by question text, not index.
type FeedbackRequest struct {
	QuizTopic      string            `json:"quizTopic"`
	UserAnswers    map[string]string `json:"userAnswers"`
	CorrectAnswers map[string]string `json:"correctAnswers"`
}

// Identity is the caller as reported by the identity provider.
// The zero value is the anonymous caller.
type Identity struct {
	UserID      string `json:"userId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Anonymous reports whether no user id is known.
func (i Identity) Anonymous() bool {
	return i.UserID == ""
}

// ProgressPoint is one bar of the score history chart.
type ProgressPoint struct {
	QuizID       string `json:"quizId"`
	Label        string `json:"label"`
	ScorePercent int    `json:"scorePercent"`
	UserName     string `json:"userName,omitempty"`
	Date         string `json:"date"`
}
