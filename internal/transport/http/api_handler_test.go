package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizwise-service/internal/app"
	"quizwise-service/internal/domain"
	"quizwise-service/internal/identity"
	"quizwise-service/internal/infra/memory"
	"quizwise-service/internal/store"
)

func TestAPIQuizLifecycle(t *testing.T) {
	service := app.NewQuizService(store.New(memory.NewKV()), &stubGenerator{}, &stubFeedback{})
	server := httptest.NewServer(NewRouter(service, identity.Anonymous{}))
	defer server.Close()

	resp := do(t, http.MethodPost, server.URL+"/api/quizzes", app.CreateQuizInput{Topic: "Arithmetic", UserName: "Ana"})
	var quiz domain.Quiz
	expectStatus(t, resp, http.StatusCreated, &quiz)
	if quiz.QuizID == "" || len(quiz.Questions) != 2 {
		t.Fatalf("unexpected quiz %+v", quiz)
	}

	resp = do(t, http.MethodGet, server.URL+"/api/quizzes/"+quiz.QuizID, nil)
	expectStatus(t, resp, http.StatusOK, nil)

	resp = do(t, http.MethodPut, server.URL+"/api/quizzes/"+quiz.QuizID+"/answers/1", answerPayload{Answer: "true"})
	var answers answersPayload
	expectStatus(t, resp, http.StatusOK, &answers)
	if answers.Answers[1] != "true" {
		t.Fatalf("unexpected answers %v", answers.Answers)
	}

	resp = do(t, http.MethodPut, server.URL+"/api/quizzes/"+quiz.QuizID+"/answers", answersPayload{Answers: domain.UserAnswers{0: "4", 1: "true"}})
	expectStatus(t, resp, http.StatusNoContent, nil)

	resp = do(t, http.MethodGet, server.URL+"/api/quizzes/"+quiz.QuizID+"/results", nil)
	var view app.ResultsView
	expectStatus(t, resp, http.StatusOK, &view)
	if view.Result.Score != 2 || view.ScorePercent != 100 || view.Feedback == nil {
		t.Fatalf("unexpected results %+v", view)
	}

	resp = do(t, http.MethodGet, server.URL+"/api/progress", nil)
	var progress app.Progress
	expectStatus(t, resp, http.StatusOK, &progress)
	if len(progress.Points) != 1 || progress.Points[0].QuizID != quiz.QuizID {
		t.Fatalf("unexpected progress %+v", progress)
	}
}

func TestAPIErrorStatuses(t *testing.T) {
	service := app.NewQuizService(store.New(memory.NewKV()), &stubGenerator{err: errors.New("quota")}, &stubFeedback{})
	server := httptest.NewServer(NewRouter(service, identity.Anonymous{}))
	defer server.Close()

	resp := do(t, http.MethodPost, server.URL+"/api/quizzes", app.CreateQuizInput{Topic: "Go", UserName: "A"})
	var payload errorPayload
	expectStatus(t, resp, http.StatusBadRequest, &payload)
	if len(payload.Problems) != 2 {
		t.Fatalf("expected both problems reported, got %+v", payload)
	}

	resp = do(t, http.MethodPost, server.URL+"/api/quizzes", app.CreateQuizInput{Topic: "Quantum chess", UserName: "Ana"})
	expectStatus(t, resp, http.StatusBadGateway, &payload)
	if payload.Message != domain.GenerationFailedMessage {
		t.Fatalf("unexpected message %q", payload.Message)
	}

	resp = do(t, http.MethodGet, server.URL+"/api/quizzes/missing", nil)
	expectStatus(t, resp, http.StatusNotFound, nil)

	resp = do(t, http.MethodGet, server.URL+"/api/quizzes/missing/results", nil)
	expectStatus(t, resp, http.StatusNotFound, nil)

	resp = do(t, http.MethodPut, server.URL+"/api/quizzes/missing/answers/x", answerPayload{Answer: "a"})
	expectStatus(t, resp, http.StatusBadRequest, nil)
}

func TestAPIResultsSurviveFeedbackFailure(t *testing.T) {
	service := app.NewQuizService(store.New(memory.NewKV()), &stubGenerator{}, &stubFeedback{err: errors.New("overloaded")})
	server := httptest.NewServer(NewRouter(service, identity.Anonymous{}))
	defer server.Close()
	quiz := createQuiz(t, service)

	resp := do(t, http.MethodPut, server.URL+"/api/quizzes/"+quiz.QuizID+"/answers", answersPayload{Answers: domain.UserAnswers{0: "4"}})
	expectStatus(t, resp, http.StatusNoContent, nil)

	resp = do(t, http.MethodGet, server.URL+"/api/quizzes/"+quiz.QuizID+"/results", nil)
	var view app.ResultsView
	expectStatus(t, resp, http.StatusOK, &view)
	if view.Result.Score != 1 || view.FeedbackError != domain.FeedbackFailedMessage {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestAPIUsesCallerPartition(t *testing.T) {
	resolver := identity.NewJWTResolver("secret")
	service := app.NewQuizService(store.New(memory.NewKV()), &stubGenerator{}, &stubFeedback{})
	server := httptest.NewServer(NewRouter(service, resolver))
	defer server.Close()

	token, err := resolver.Issue(domain.Identity{UserID: "u1", DisplayName: "Ana"}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	resp := doAuth(t, http.MethodPost, server.URL+"/api/quizzes", token, app.CreateQuizInput{Topic: "Arithmetic", UserName: "Ana"})
	var quiz domain.Quiz
	expectStatus(t, resp, http.StatusCreated, &quiz)

	// the quiz lives in u1's partition only
	resp = do(t, http.MethodGet, server.URL+"/api/quizzes/"+quiz.QuizID, nil)
	expectStatus(t, resp, http.StatusNotFound, nil)
	resp = doAuth(t, http.MethodGet, server.URL+"/api/quizzes/"+quiz.QuizID, token, nil)
	expectStatus(t, resp, http.StatusOK, nil)

	resp = doAuth(t, http.MethodGet, server.URL+"/api/progress", "garbage", nil)
	expectStatus(t, resp, http.StatusUnauthorized, nil)
}

func TestHealthz(t *testing.T) {
	service := app.NewQuizService(store.New(memory.NewKV()), &stubGenerator{}, &stubFeedback{})
	rec := httptest.NewRecorder()
	NewRouter(service, identity.Anonymous{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz response %d %q", rec.Code, rec.Body.String())
	}
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	return doAuth(t, method, url, "", body)
}

func doAuth(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, status int, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != status {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d: %s", status, resp.StatusCode, raw)
	}
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("decode body: %v", err)
		}
	}
}
