package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"quizwise-service/internal/app"
	"quizwise-service/internal/domain"
	"quizwise-service/internal/identity"
	"github.com/rs/zerolog/log"
)

// APIHandler serves the JSON endpoints backing the quiz pages.
type APIHandler struct {
	service *app.QuizService
}

func NewAPIHandler(service *app.QuizService) *APIHandler {
	return &APIHandler{service: service}
}

type errorPayload struct {
	Message  string   `json:"message"`
	Problems []string `json:"problems,omitempty"`
}

type answerPayload struct {
	Index  int    `json:"index"`
	Answer string `json:"answer"`
}

type answersPayload struct {
	Answers domain.UserAnswers `json:"answers"`
}

// Register mounts the API routes on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/quizzes", h.createQuiz)
	mux.HandleFunc("GET /api/quizzes/{quizId}", h.getQuiz)
	mux.HandleFunc("PUT /api/quizzes/{quizId}/answers", h.submitAnswers)
	mux.HandleFunc("PUT /api/quizzes/{quizId}/answers/{index}", h.recordAnswer)
	mux.HandleFunc("GET /api/quizzes/{quizId}/results", h.results)
	mux.HandleFunc("GET /api/progress", h.progress)
}

func (h *APIHandler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var in app.CreateQuizInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid request body"})
		return
	}
	quiz, err := h.service.CreateQuiz(r.Context(), in, identity.FromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *APIHandler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, ok, err := h.service.GetQuiz(r.Context(), r.PathValue("quizId"), identity.FromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, domain.ErrQuizNotFound)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *APIHandler) recordAnswer(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, domain.ErrQuestionOutOfRange)
		return
	}
	var payload answerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid answer payload"})
		return
	}
	answers, err := h.service.RecordAnswer(r.Context(), r.PathValue("quizId"), identity.FromContext(r.Context()), index, payload.Answer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answersPayload{Answers: answers})
}

func (h *APIHandler) submitAnswers(w http.ResponseWriter, r *http.Request) {
	var payload answersPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid answers payload"})
		return
	}
	if err := h.service.SubmitAnswers(r.Context(), r.PathValue("quizId"), identity.FromContext(r.Context()), payload.Answers); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) results(w http.ResponseWriter, r *http.Request) {
	view, ok, err := h.service.ViewResults(r.Context(), r.PathValue("quizId"), identity.FromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorPayload{Message: "Quiz results not found."})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *APIHandler) progress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.service.Progress(r.Context(), identity.FromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// statusFor maps service errors onto HTTP statuses and user-facing messages.
func statusFor(err error) (int, errorPayload) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorPayload{Message: verr.Error(), Problems: verr.Problems}
	case errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound, errorPayload{Message: "Quiz not found."}
	case errors.Is(err, domain.ErrAnswersNotFound):
		return http.StatusNotFound, errorPayload{Message: "Quiz results not found."}
	case errors.Is(err, domain.ErrQuestionOutOfRange):
		return http.StatusBadRequest, errorPayload{Message: err.Error()}
	case errors.Is(err, domain.ErrGenerationFailed):
		return http.StatusBadGateway, errorPayload{Message: domain.GenerationFailedMessage}
	default:
		return http.StatusInternalServerError, errorPayload{Message: "internal error"}
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response failed")
	}
}

// NewRouter builds the service's HTTP surface.
func NewRouter(service *app.QuizService, resolver identity.Resolver) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	NewAPIHandler(service).Register(mux)
	mux.HandleFunc("GET /ws", NewWSHandler(service).ServeWS)
	return identity.Middleware(resolver, mux)
}
