package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"quizwise-service/internal/domain"
	"quizwise-service/internal/history"
	"quizwise-service/internal/scoring"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultQuestionCount = 10
	MaxQuestionCount     = 20
	minTopicLength       = 3
	minNameLength        = 2
)

// ArtifactStore abstracts where quizzes, answers and results live.
type ArtifactStore interface {
	SaveQuiz(ctx context.Context, quiz domain.Quiz, userID string) error
	LoadQuiz(ctx context.Context, quizID, userID string) (domain.Quiz, bool, error)
	SaveAnswers(ctx context.Context, quizID string, answers domain.UserAnswers, userID string) error
	LoadAnswers(ctx context.Context, quizID, userID string) (domain.UserAnswers, bool, error)
	SaveResult(ctx context.Context, result domain.QuizResult) error
	FindResult(ctx context.Context, quizID, userID string) (domain.QuizResult, bool, error)
	LoadResults(ctx context.Context, userID string) ([]domain.QuizResult, error)
}

// Generator produces quiz content for a topic.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.GeneratedQuiz, error)
}

// FeedbackProvider comments on a finished attempt.
type FeedbackProvider interface {
	Feedback(ctx context.Context, req domain.FeedbackRequest) (domain.Feedback, error)
}

// CreateQuizInput is the quiz creation form.
type CreateQuizInput struct {
	Topic        string `json:"topic"`
	UserName     string `json:"userName"`
	NumQuestions int    `json:"numQuestions,omitempty"`
}

// ResultsView is everything the results page shows.
type ResultsView struct {
	Result        domain.QuizResult         `json:"result"`
	ScorePercent  int                       `json:"scorePercent"`
	Breakdown     []scoring.QuestionOutcome `json:"breakdown"`
	Feedback      *domain.Feedback          `json:"feedback,omitempty"`
	FeedbackError string                    `json:"feedbackError,omitempty"`
}

// Progress is the score history of a partition (or of everyone when anonymous).
type Progress struct {
	Results []domain.QuizResult    `json:"results"`
	Points  []domain.ProgressPoint `json:"points"`
}

// QuizService sequences quiz creation, answering, scoring and feedback.
type QuizService struct {
	store     ArtifactStore
	generator Generator
	feedback  FeedbackProvider
	newID     func() string
	now       func() time.Time
	sf        singleflight.Group
}

func NewQuizService(store ArtifactStore, generator Generator, feedback FeedbackProvider) *QuizService {
	return NewQuizServiceWithClock(store, generator, feedback, uuid.NewString, time.Now)
}

// NewQuizServiceWithClock is test-only for deterministic ids and timestamps.
func NewQuizServiceWithClock(store ArtifactStore, generator Generator, feedback FeedbackProvider, newID func() string, now func() time.Time) *QuizService {
	return &QuizService{
		store:     store,
		generator: generator,
		feedback:  feedback,
		newID:     newID,
		now:       now,
	}
}

// CreateQuiz validates the form, generates questions and stores the new quiz.
// Nothing is written when validation or generation fails.
func (s *QuizService) CreateQuiz(ctx context.Context, in CreateQuizInput, who domain.Identity) (domain.Quiz, error) {
	topic := strings.TrimSpace(in.Topic)
	name := strings.TrimSpace(in.UserName)
	count := in.NumQuestions
	if count == 0 {
		count = DefaultQuestionCount
	}

	verr := &domain.ValidationError{}
	if utf8.RuneCountInString(topic) < minTopicLength {
		verr.Add("Topic must be at least 3 characters long.")
	}
	if utf8.RuneCountInString(name) < minNameLength {
		verr.Add("Name must be at least 2 characters long.")
	}
	if count < 1 || count > MaxQuestionCount {
		verr.Add(fmt.Sprintf("Number of questions must be between 1 and %d.", MaxQuestionCount))
	}
	if err := verr.OrNil(); err != nil {
		return domain.Quiz{}, err
	}

	generated, err := s.generator.Generate(ctx, domain.GenerationRequest{Topic: topic, NumQuestions: count})
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("quiz generation failed")
		return domain.Quiz{}, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	questions := normalizeQuestions(generated.Questions, count)
	if len(questions) == 0 {
		log.Warn().Str("topic", topic).Int("returned", len(generated.Questions)).Msg("generation returned no usable questions")
		return domain.Quiz{}, domain.ErrGenerationFailed
	}

	quizTopic := strings.TrimSpace(generated.Topic)
	if quizTopic == "" {
		quizTopic = topic
	}
	quiz := domain.Quiz{
		QuizID:    s.newID(),
		Topic:     quizTopic,
		Questions: questions,
		UserName:  name,
	}
	if err := s.store.SaveQuiz(ctx, quiz, who.UserID); err != nil {
		return domain.Quiz{}, fmt.Errorf("save quiz: %w", err)
	}
	return quiz, nil
}

// GetQuiz loads a quiz for the taking view.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string, who domain.Identity) (domain.Quiz, bool, error) {
	return s.store.LoadQuiz(ctx, quizID, who.UserID)
}

// RecordAnswer updates one answer slot while the quiz is being taken.
// A blank answer clears the slot.
func (s *QuizService) RecordAnswer(ctx context.Context, quizID string, who domain.Identity, index int, answer string) (domain.UserAnswers, error) {
	quiz, ok, err := s.store.LoadQuiz(ctx, quizID, who.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrQuizNotFound
	}
	if index < 0 || index >= len(quiz.Questions) {
		return nil, domain.ErrQuestionOutOfRange
	}

	answers, ok, err := s.store.LoadAnswers(ctx, quizID, who.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		answers = domain.UserAnswers{}
	}
	answers = answers.Clone()
	if strings.TrimSpace(answer) == "" {
		delete(answers, index)
	} else {
		answers[index] = answer
	}

	if err := s.store.SaveAnswers(ctx, quizID, answers, who.UserID); err != nil {
		return nil, fmt.Errorf("save answers: %w", err)
	}
	return answers, nil
}

// SubmitAnswers replaces the whole answer set of a quiz.
func (s *QuizService) SubmitAnswers(ctx context.Context, quizID string, who domain.Identity, answers domain.UserAnswers) error {
	quiz, ok, err := s.store.LoadQuiz(ctx, quizID, who.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrQuizNotFound
	}

	final := make(domain.UserAnswers, len(answers))
	for i, a := range answers {
		if i < 0 || i >= len(quiz.Questions) {
			return domain.ErrQuestionOutOfRange
		}
		if strings.TrimSpace(a) != "" {
			final[i] = a
		}
	}
	if err := s.store.SaveAnswers(ctx, quizID, final, who.UserID); err != nil {
		return fmt.Errorf("save answers: %w", err)
	}
	return nil
}

// ViewResults scores the stored answers, stores the result and asks for feedback.
// found is false when the quiz or its answers are missing.
func (s *QuizService) ViewResults(ctx context.Context, quizID string, who domain.Identity) (ResultsView, bool, error) {
	view, quiz, answers, found, err := s.score(ctx, quizID, who)
	if err != nil || !found {
		return ResultsView{}, found, err
	}

	fb, err := s.requestFeedback(ctx, who, quiz, answers)
	if err != nil {
		view.FeedbackError = domain.FeedbackFailedMessage
	} else {
		view.Feedback = &fb
	}
	return view, true, nil
}

// ScoreResults is ViewResults without the feedback call; the WebSocket session
// requests feedback separately so it can discard stale responses.
func (s *QuizService) ScoreResults(ctx context.Context, quizID string, who domain.Identity) (ResultsView, domain.Quiz, domain.UserAnswers, bool, error) {
	return s.score(ctx, quizID, who)
}

// RequestFeedback asks for feedback on a scored attempt.
func (s *QuizService) RequestFeedback(ctx context.Context, who domain.Identity, quiz domain.Quiz, answers domain.UserAnswers) (domain.Feedback, error) {
	return s.requestFeedback(ctx, who, quiz, answers)
}

// Progress returns the caller's stored results and chart points. Anonymous
// callers see every partition merged.
func (s *QuizService) Progress(ctx context.Context, who domain.Identity) (Progress, error) {
	results, err := s.store.LoadResults(ctx, who.UserID)
	if err != nil {
		return Progress{}, err
	}
	return Progress{Results: results, Points: history.Points(results)}, nil
}

func (s *QuizService) score(ctx context.Context, quizID string, who domain.Identity) (ResultsView, domain.Quiz, domain.UserAnswers, bool, error) {
	quiz, ok, err := s.store.LoadQuiz(ctx, quizID, who.UserID)
	if err != nil || !ok {
		return ResultsView{}, domain.Quiz{}, nil, false, err
	}
	answers, ok, err := s.store.LoadAnswers(ctx, quizID, who.UserID)
	if err != nil || !ok {
		return ResultsView{}, domain.Quiz{}, nil, false, err
	}

	outcome := scoring.Score(quiz, answers)
	userName := quiz.UserName
	if userName == "" {
		userName = who.DisplayName
	}
	result := domain.QuizResult{
		QuizID:         quiz.QuizID,
		Topic:          quiz.Topic,
		Score:          outcome.Score,
		TotalQuestions: outcome.Total,
		Date:           s.capturedAt(ctx, quiz.QuizID, who.UserID, answers),
		CorrectAnswers: outcome.CorrectAnswers,
		UserAnswers:    answers,
		UserName:       userName,
		UserID:         who.UserID,
	}
	if err := s.store.SaveResult(ctx, result); err != nil {
		// the computed score is still shown
		log.Error().Err(err).Str("quizId", quiz.QuizID).Msg("failed to store quiz result")
	}

	view := ResultsView{
		Result:       result,
		ScorePercent: scoring.Percent(outcome.Score, outcome.Total),
		Breakdown:    outcome.Breakdown,
	}
	return view, quiz, answers, true, nil
}

// capturedAt keeps the stored date of an unchanged attempt so re-viewing
// results does not move its completion time.
func (s *QuizService) capturedAt(ctx context.Context, quizID, userID string, answers domain.UserAnswers) string {
	prev, ok, err := s.store.FindResult(ctx, quizID, userID)
	if err == nil && ok && prev.Date != "" && prev.UserAnswers.Equal(answers) {
		return prev.Date
	}
	return s.now().UTC().Format(time.RFC3339Nano)
}

func (s *QuizService) requestFeedback(ctx context.Context, who domain.Identity, quiz domain.Quiz, answers domain.UserAnswers) (domain.Feedback, error) {
	req := FeedbackRequestFor(quiz, answers)
	// concurrent requests for the same attempt share one call
	fingerprint, _ := json.Marshal(answers)
	key := who.UserID + "|" + quiz.QuizID + "|" + string(fingerprint)

	// joined callers outlive the first one; the provider applies its own deadline
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.feedback.Feedback(shared, req)
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("quizId", quiz.QuizID).Msg("feedback generation failed")
		}
		return domain.Feedback{}, fmt.Errorf("%w: %v", domain.ErrFeedbackFailed, err)
	}
	return v.(domain.Feedback), nil
}

// FeedbackRequestFor re-keys answers by question text for the feedback service.
func FeedbackRequestFor(quiz domain.Quiz, answers domain.UserAnswers) domain.FeedbackRequest {
	req := domain.FeedbackRequest{
		QuizTopic:      quiz.Topic,
		UserAnswers:    make(map[string]string, len(quiz.Questions)),
		CorrectAnswers: make(map[string]string, len(quiz.Questions)),
	}
	for i, q := range quiz.Questions {
		req.UserAnswers[q.Question] = scoring.Display(answers, i)
		req.CorrectAnswers[q.Question] = q.CorrectAnswer
	}
	return req
}

// normalizeQuestions enforces the structural shape of each question type and
// drops questions that cannot be graded.
func normalizeQuestions(in []domain.Question, limit int) []domain.Question {
	out := make([]domain.Question, 0, len(in))
	for _, q := range in {
		if len(out) == limit {
			break
		}
		q.Question = strings.TrimSpace(q.Question)
		q.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)
		if q.Question == "" || q.CorrectAnswer == "" || !q.Type.Valid() {
			continue
		}
		switch q.Type {
		case domain.TrueFalse:
			q.Answers = append([]string(nil), domain.TrueFalseAnswers...)
		case domain.FillInTheBlanks:
			q.Answers = []string{}
		default:
			if len(q.Answers) == 0 {
				continue
			}
			q.Answers = append([]string(nil), q.Answers...)
		}
		out = append(out, q)
	}
	return out
}
