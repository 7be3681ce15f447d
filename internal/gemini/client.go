// Package gemini implements quiz generation and answer feedback on top of the
// Gemini API. Both calls ask for JSON constrained by a response schema.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizwise-service/internal/domain"
	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// ErrNotConfigured is returned by every call when no API key was provided.
var ErrNotConfigured = errors.New("gemini: api key not configured")

// Config selects credentials, model and per-call deadline.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type contentModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client serves both the generation and the feedback role.
type Client struct {
	client   *genai.Client
	quiz     contentModel
	feedback contentModel
	timeout  time.Duration
}

// New builds a client. Without an API key it returns a client whose calls fail
// with ErrNotConfigured, so the service can still start.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Quiz generation and feedback will be unavailable.")
		return &Client{timeout: cfg.Timeout}, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}

	quiz := client.GenerativeModel(name)
	quiz.ResponseMIMEType = "application/json"
	quiz.ResponseSchema = quizSchema()

	feedback := client.GenerativeModel(name)
	feedback.ResponseMIMEType = "application/json"
	feedback.ResponseSchema = feedbackSchema()

	return &Client{client: client, quiz: quiz, feedback: feedback, timeout: cfg.Timeout}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Generate asks for req.NumQuestions questions about req.Topic.
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GeneratedQuiz, error) {
	if c.quiz == nil {
		return domain.GeneratedQuiz{}, ErrNotConfigured
	}
	text, err := c.call(ctx, c.quiz, quizPrompt(req))
	if err != nil {
		return domain.GeneratedQuiz{}, err
	}
	return parseQuiz(text)
}

// Feedback asks for personalized commentary on a finished attempt.
func (c *Client) Feedback(ctx context.Context, req domain.FeedbackRequest) (domain.Feedback, error) {
	if c.feedback == nil {
		return domain.Feedback{}, ErrNotConfigured
	}
	prompt, err := feedbackPrompt(req)
	if err != nil {
		return domain.Feedback{}, err
	}
	text, err := c.call(ctx, c.feedback, prompt)
	if err != nil {
		return domain.Feedback{}, err
	}
	return parseFeedback(text)
}

func (c *Client) call(ctx context.Context, model contentModel, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini returned empty content")
	}
	return b.String(), nil
}

func parseQuiz(text string) (domain.GeneratedQuiz, error) {
	var out domain.GeneratedQuiz
	if err := json.Unmarshal([]byte(stripFence(text)), &out); err != nil {
		return domain.GeneratedQuiz{}, fmt.Errorf("decode generated quiz: %w", err)
	}
	return out, nil
}

func parseFeedback(text string) (domain.Feedback, error) {
	var out domain.Feedback
	if err := json.Unmarshal([]byte(stripFence(text)), &out); err != nil {
		return domain.Feedback{}, fmt.Errorf("decode feedback: %w", err)
	}
	if out.Feedback == "" {
		return domain.Feedback{}, errors.New("gemini feedback is empty")
	}
	return out, nil
}

// stripFence removes a ```json fence some models wrap around JSON output.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
