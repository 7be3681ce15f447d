package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"quizwise-service/internal/app"
	"quizwise-service/internal/domain"
	"quizwise-service/internal/identity"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSHandler runs a live quiz-taking session over a websocket.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type feedbackErrorPayload struct {
	QuizID  string `json:"quizId"`
	Message string `json:"message"`
}

// ServeWS upgrades the request and serves one quiz. The client records
// answers one at a time, then submits; results arrive immediately and
// feedback follows once generated. Feedback for a superseded attempt is
// never delivered.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	who := identity.FromContext(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	quiz, ok, err := h.service.GetQuiz(ctx, quizID, who)
	if err != nil || !ok {
		_, payload := statusFor(domain.ErrQuizNotFound)
		if err != nil {
			_, payload = statusFor(err)
		}
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: payload})
		return
	}

	out := newOutbox(16)
	var pending sync.WaitGroup
	var latest app.Latest

	go func() {
		defer close(out.writerDone)
		for msg := range out.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn().Err(err).Str("quizId", quizID).Msg("ws write error")
				return
			}
		}
	}()

	out.deliver(outboundMessage[any]{Type: "quiz", Payload: quiz})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				out.deliver(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			// a changed attempt makes any outstanding feedback stale
			latest.Begin()
			answers, err := h.service.RecordAnswer(ctx, quizID, who, payload.Index, payload.Answer)
			if err != nil {
				_, msg := statusFor(err)
				out.deliver(outboundMessage[any]{Type: "error", Payload: msg})
				continue
			}
			out.deliver(outboundMessage[any]{Type: "answers", Payload: answersPayload{Answers: answers}})
		case "submit":
			ticket := latest.Begin()
			view, scored, answers, found, err := h.service.ScoreResults(ctx, quizID, who)
			if err != nil || !found {
				if err == nil {
					err = domain.ErrAnswersNotFound
				}
				_, msg := statusFor(err)
				out.deliver(outboundMessage[any]{Type: "error", Payload: msg})
				continue
			}
			out.deliver(outboundMessage[any]{Type: "results", Payload: view})

			pending.Add(1)
			go func() {
				defer pending.Done()
				fb, err := h.service.RequestFeedback(ctx, who, scored, answers)
				if !latest.Current(ticket) || errors.Is(ctx.Err(), context.Canceled) {
					return
				}
				if err != nil {
					out.deliver(outboundMessage[any]{Type: "feedbackError", Payload: feedbackErrorPayload{
						QuizID:  scored.QuizID,
						Message: domain.FeedbackFailedMessage,
					}})
					return
				}
				out.deliver(outboundMessage[any]{Type: "feedback", Payload: fb})
			}()
		default:
			out.deliver(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	cancel()
	close(out.closed)
	pending.Wait()
	close(out.send)
	<-out.writerDone
}

// outbox feeds the single writer goroutine. deliver gives up once the session
// is closing or the writer has stopped, so no sender blocks on a dead socket.
type outbox struct {
	send       chan outboundMessage[any]
	closed     chan struct{}
	writerDone chan struct{}
}

func newOutbox(size int) *outbox {
	return &outbox{
		send:       make(chan outboundMessage[any], size),
		closed:     make(chan struct{}),
		writerDone: make(chan struct{}),
	}
}

func (o *outbox) deliver(msg outboundMessage[any]) bool {
	select {
	case o.send <- msg:
		return true
	case <-o.closed:
		return false
	case <-o.writerDone:
		return false
	}
}
