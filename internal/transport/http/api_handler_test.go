package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"spurs-trivia-service/internal/auth"
	"spurs-trivia-service/internal/domain"
)

func TestHealthzNeedsNoIdentity(t *testing.T) {
	server, _ := newTestServer(t, auth.NewJWTVerifier("secret"))
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestQuizCatalogEndpoints(t *testing.T) {
	verifier := auth.NewJWTVerifier("secret")
	server, _ := newTestServer(t, verifier)
	defer server.Close()
	token, _ := verifier.IssueToken(auth.Identity{UserID: "u1"}, time.Hour)

	var quizzes []domain.QuizInfo
	if status := getJSON(t, server.URL+"/quizzes", token, &quizzes); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(quizzes) != 1 || quizzes[0].ID != "legends" || quizzes[0].QuestionCount != 2 {
		t.Fatalf("unexpected catalog %+v", quizzes)
	}

	var info map[string]any
	if status := getJSON(t, server.URL+"/quizzes/legends", token, &info); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if _, leaked := info["questions"]; leaked {
		t.Fatalf("descriptor must not include questions: %v", info)
	}

	var errBody errorPayload
	if status := getJSON(t, server.URL+"/quizzes/missing", token, &errBody); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if errBody.Code != "quiz_not_found" {
		t.Fatalf("unexpected error body %+v", errBody)
	}

	if status := getJSON(t, server.URL+"/quizzes", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
}

func TestMyAttemptsReturnsOwnHistory(t *testing.T) {
	verifier := auth.NewJWTVerifier("secret")
	server, attempts := newTestServer(t, verifier)
	defer server.Close()

	ctx := context.Background()
	base := time.Date(2024, 1, 15, 19, 0, 0, 0, time.UTC)
	_ = attempts.SaveAttempt(ctx, domain.Attempt{ID: "a1", UserID: "u1", QuizName: "Spurs Legends", Percentage: 75, CompletedAt: base})
	_ = attempts.SaveAttempt(ctx, domain.Attempt{ID: "a2", UserID: "u1", QuizName: "Current Squad", Percentage: 50, CompletedAt: base.Add(time.Hour)})
	_ = attempts.SaveAttempt(ctx, domain.Attempt{ID: "a3", UserID: "u2", Percentage: 100, CompletedAt: base})

	token, _ := verifier.IssueToken(auth.Identity{UserID: "u1"}, time.Hour)
	var history domain.AttemptHistory
	if status := getJSON(t, server.URL+"/me/attempts", token, &history); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(history.Attempts) != 2 || history.Attempts[0].ID != "a2" {
		t.Fatalf("unexpected attempts %+v", history.Attempts)
	}
	if history.Stats.AverageScore != 63 || history.Stats.BestScore != 75 {
		t.Fatalf("unexpected stats %+v", history.Stats)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	cases := map[error]int{
		domain.ErrSessionNotFound:  http.StatusNotFound,
		domain.ErrMalformedQuiz:    http.StatusUnprocessableEntity,
		domain.ErrAlreadyCompleted: http.StatusConflict,
		domain.ErrTimeUp:           http.StatusConflict,
		context.Canceled:           http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := errorStatus(err); got != want {
			t.Fatalf("%v: expected %d, got %d", err, want, got)
		}
	}
}

func getJSON(t *testing.T, url, token string, into any) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if into != nil && resp.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}
