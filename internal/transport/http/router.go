package http

import (
	"log/slog"
	"net/http"

	"spurs-trivia-service/internal/auth"
	"spurs-trivia-service/internal/logging"
)

// NewRouter wires every route; everything but /healthz requires an identity.
func NewRouter(api *APIHandler, ws *WSHandler, authenticator auth.Authenticator, logger *slog.Logger) http.Handler {
	protected := auth.Middleware(authenticator)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /quizzes", protected(http.HandlerFunc(api.ListQuizzes)))
	mux.Handle("GET /quizzes/{id}", protected(http.HandlerFunc(api.GetQuiz)))
	mux.Handle("GET /me/attempts", protected(http.HandlerFunc(api.MyAttempts)))
	mux.Handle("GET /ws", protected(http.HandlerFunc(ws.ServeWS)))

	return logging.Middleware(logger)(mux)
}
