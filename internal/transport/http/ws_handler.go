package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"spurs-trivia-service/internal/app"
	"spurs-trivia-service/internal/auth"
)

type WSHandler struct {
	service  *app.QuizService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
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

type answerPayload struct {
	Value *string `json:"value"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: errorCode(err), Message: err.Error()}}
}

// ServeWS upgrades HTTP requests to websockets and runs one quiz session per connection.
// Closing the connection discards the session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	started, err := h.service.Start(ctx, id.UserID, quizID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	sessionID := started.SessionID
	defer h.service.Leave(ctx, id.UserID, sessionID)

	// The subscription delivers the initial state as its first value.
	updates, cancel, err := h.service.Subscribe(ctx, id.UserID, sessionID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer: gorilla connections do not allow concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.DebugContext(ctx, "ws write failed", "session_id", sessionID, "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		// Successful state changes reach the client through the subscription.
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Value == nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "invalid_message", Message: "invalid answer payload"}}
				continue
			}
			_, err = h.service.Answer(ctx, id.UserID, sessionID, *payload.Value)
		case "previous":
			_, err = h.service.Previous(ctx, id.UserID, sessionID)
		case "next":
			_, err = h.service.Next(ctx, id.UserID, sessionID)
		case "restart":
			_, err = h.service.Restart(ctx, id.UserID, sessionID)
		case "finish":
			var summary any
			summary, err = h.service.Finish(ctx, id.UserID, sessionID)
			if err == nil {
				send <- outboundMessage[any]{Type: "summary", Payload: summary}
			}
		case "summary":
			var summary any
			summary, err = h.service.Summary(ctx, id.UserID, sessionID)
			if err == nil {
				send <- outboundMessage[any]{Type: "summary", Payload: summary}
			}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "invalid_message", Message: "unsupported message type"}}
			continue
		}
		if err != nil {
			send <- errorMessage(err)
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
