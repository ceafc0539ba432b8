package http

import (
	"log/slog"
	"net/http"

	"spurs-trivia-service/internal/app"
	"spurs-trivia-service/internal/auth"
)

// APIHandler serves the read-only REST endpoints.
type APIHandler struct {
	catalog *app.CatalogService
	history *app.HistoryService
	logger  *slog.Logger
}

func NewAPIHandler(catalog *app.CatalogService, history *app.HistoryService, logger *slog.Logger) *APIHandler {
	return &APIHandler{catalog: catalog, history: history, logger: logger}
}

func (h *APIHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.catalog.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *APIHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	info, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *APIHandler) MyAttempts(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	history, err := h.history.History(r.Context(), id.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *APIHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errorStatus(err) == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, err)
}
