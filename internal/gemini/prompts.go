package gemini

import (
	"encoding/json"
	"fmt"

	"quizwise-service/internal/domain"
	"github.com/google/generative-ai-go/genai"
)

func quizPrompt(req domain.GenerationRequest) string {
	return fmt.Sprintf(`You are an expert quiz creator. Generate a %d-question quiz about %s.
The quiz should contain a mix of multiple-choice, true/false, and fill-in-the-blank questions.
For multiple-choice questions, provide 4 options.
For true/false, the answers should be 'True' or 'False'.
For fill-in-the-blanks, do not provide any answer options in the 'answers' array.
Ensure every question has a correct answer.`, req.NumQuestions, req.Topic)
}

func feedbackPrompt(req domain.FeedbackRequest) (string, error) {
	userAnswers, err := json.Marshal(req.UserAnswers)
	if err != nil {
		return "", fmt.Errorf("encode user answers: %w", err)
	}
	correctAnswers, err := json.Marshal(req.CorrectAnswers)
	if err != nil {
		return "", fmt.Errorf("encode correct answers: %w", err)
	}
	return fmt.Sprintf(`You are an AI-driven personalized feedback provider for quizzes.

You will receive the quiz topic, the user's answers, and the correct answers.
Based on this information, provide personalized feedback to the user, suggest areas for improvement, and recommend external sources for them to consult.

Quiz Topic: %s
User Answers: %s
Correct Answers: %s
`, req.QuizTopic, userAnswers, correctAnswers), nil
}

func quizSchema() *genai.Schema {
	question := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question": {Type: genai.TypeString, Description: "The text of the question."},
			"type": {
				Type:        genai.TypeString,
				Enum:        []string{string(domain.MultipleChoice), string(domain.TrueFalse), string(domain.FillInTheBlanks)},
				Description: "The type of question.",
			},
			"answers": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "The possible answers. ['True','False'] for true-false, empty for fill-in-the-blanks.",
			},
			"correctAnswer": {Type: genai.TypeString, Description: "The correct answer to the question."},
		},
		Required: []string{"question", "type", "answers", "correctAnswer"},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"topic":     {Type: genai.TypeString, Description: "The topic of the quiz."},
			"questions": {Type: genai.TypeArray, Items: question},
		},
		Required: []string{"topic", "questions"},
	}
}

func feedbackSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"feedback":                     {Type: genai.TypeString, Description: "Personalized feedback on the user's quiz performance."},
			"suggestedAreasForImprovement": {Type: genai.TypeString, Description: "Areas the user should study further."},
			"externalSources":              {Type: genai.TypeString, Description: "External sources for the user to consult."},
		},
		Required: []string{"feedback", "suggestedAreasForImprovement", "externalSources"},
	}
}
