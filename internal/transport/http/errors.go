package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"spurs-trivia-service/internal/domain"
)

var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrQuizNotFound, http.StatusNotFound, "quiz_not_found"},
	{domain.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{domain.ErrMalformedQuiz, http.StatusUnprocessableEntity, "malformed_quiz"},
	{domain.ErrInvalidSession, http.StatusUnprocessableEntity, "invalid_session"},
	{domain.ErrAlreadyCompleted, http.StatusConflict, "already_completed"},
	{domain.ErrSessionCompleted, http.StatusConflict, "session_completed"},
	{domain.ErrNotCompleted, http.StatusConflict, "not_completed"},
	{domain.ErrTimeUp, http.StatusConflict, "time_up"},
}

func errorStatus(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func errorCode(err error) string {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return "internal"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorPayload{Code: errorCode(err), Message: msg})
}
