package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"spurs-trivia-service/internal/app"
	"spurs-trivia-service/internal/auth"
	"spurs-trivia-service/internal/domain"
	"spurs-trivia-service/internal/infra/memory"
)

func TestWebSocketQuizFlow(t *testing.T) {
	server, attempts := newTestServer(t, auth.HeaderAuthenticator{})
	defer server.Close()

	conn := dial(t, server, "/ws?quizId=legends&userId=u1")
	defer conn.Close()

	var state domain.SessionView
	readUntil(t, conn, "state", &state)
	if state.Question.ID != "q1" || state.Progress.Total != 2 || len(state.Question.Options) != 4 {
		t.Fatalf("unexpected initial state %+v", state)
	}

	send(t, conn, "answer", map[string]any{"value": "Steve Perryman"})
	readUntil(t, conn, "state", &state)
	if !state.Answer.Answered() || state.Answer.Value() != "Steve Perryman" {
		t.Fatalf("expected recorded answer, got %+v", state.Answer)
	}

	send(t, conn, "next", nil)
	readUntil(t, conn, "state", &state)
	if state.Question.ID != "q2" || !state.IsLast {
		t.Fatalf("expected last question, got %+v", state)
	}

	send(t, conn, "answer", map[string]any{"value": "ricky villa!"})
	readUntil(t, conn, "state", &state)

	send(t, conn, "finish", nil)
	var summary domain.Summary
	readUntil(t, conn, "summary", &summary)
	if summary.Evaluation.CorrectCount != 2 || summary.Evaluation.Percentage != 100 {
		t.Fatalf("expected perfect score, got %+v", summary.Evaluation)
	}
	if summary.Performance.Tier != "outstanding" || len(summary.Evaluation.Results) != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	send(t, conn, "next", nil)
	var errMsg errorPayload
	readUntil(t, conn, "error", &errMsg)
	if errMsg.Code != "session_completed" {
		t.Fatalf("expected session_completed, got %+v", errMsg)
	}

	assertAttemptStored(t, attempts)
}

func TestWebSocketRejectsBadInput(t *testing.T) {
	server, _ := newTestServer(t, auth.HeaderAuthenticator{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws?quizId=legends")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp.StatusCode)
	}

	conn := dial(t, server, "/ws?quizId=missing&userId=u1")
	defer conn.Close()
	var errMsg errorPayload
	readUntil(t, conn, "error", &errMsg)
	if errMsg.Code != "quiz_not_found" {
		t.Fatalf("expected quiz_not_found, got %+v", errMsg)
	}
}

func TestWebSocketReportsInvalidMessages(t *testing.T) {
	server, _ := newTestServer(t, auth.HeaderAuthenticator{})
	defer server.Close()

	conn := dial(t, server, "/ws?quizId=legends&userId=u1")
	defer conn.Close()
	readUntil(t, conn, "state", nil)

	var errMsg errorPayload
	send(t, conn, "dance", nil)
	readUntil(t, conn, "error", &errMsg)
	if errMsg.Code != "invalid_message" {
		t.Fatalf("expected invalid_message, got %+v", errMsg)
	}

	send(t, conn, "answer", map[string]any{})
	readUntil(t, conn, "error", &errMsg)
	if errMsg.Message != "invalid answer payload" {
		t.Fatalf("unexpected error %+v", errMsg)
	}

	send(t, conn, "summary", nil)
	readUntil(t, conn, "error", &errMsg)
	if errMsg.Code != "not_completed" {
		t.Fatalf("expected not_completed, got %+v", errMsg)
	}
}

func newTestServer(t *testing.T, authenticator auth.Authenticator) (*httptest.Server, *memory.AttemptStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loader := memory.NewStaticQuizLoader(sampleQuizzes())
	quizRepo := memory.NewQuizRepository(loader, time.Minute)
	attempts := memory.NewAttemptStore()

	service := app.NewQuizService(memory.NewSessionStore(), quizRepo, savingPublisher{attempts}, logger)
	api := NewAPIHandler(app.NewCatalogService(loader, quizRepo), app.NewHistoryService(attempts), logger)
	return httptest.NewServer(NewRouter(api, NewWSHandler(service, logger), authenticator, logger)), attempts
}

// savingPublisher stores attempts synchronously in place of the event pipeline.
type savingPublisher struct {
	store *memory.AttemptStore
}

func (p savingPublisher) PublishAttempt(ctx context.Context, attempt domain.Attempt) error {
	return p.store.SaveAttempt(ctx, attempt)
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil skips messages of other types, e.g. state broadcasts that race a summary.
func readUntil(t *testing.T, conn *websocket.Conn, want string, into any) {
	t.Helper()
	for i := 0; i < 10; i++ {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		if msg.Type != want {
			continue
		}
		if into != nil {
			if err := json.Unmarshal(msg.Payload, into); err != nil {
				t.Fatalf("decode %s: %v", want, err)
			}
		}
		return
	}
	t.Fatalf("no %s message received", want)
}

func assertAttemptStored(t *testing.T, store *memory.AttemptStore) {
	t.Helper()
	attempts, _ := store.ListAttempts(context.Background(), "u1")
	if len(attempts) != 1 || attempts[0].Score != 2 {
		t.Fatalf("expected one stored attempt, got %+v", attempts)
	}
}

func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"legends": {
			QuizInfo: domain.QuizInfo{ID: "legends", Title: "Spurs Legends", Difficulty: "Medium"},
			Questions: []domain.Question{
				{
					ID:            "q1",
					Text:          "Which player holds the record for most appearances for Tottenham Hotspur?",
					Kind:          domain.KindSingleChoice,
					Options:       []string{"Steve Perryman", "Gary Mabbutt", "Ledley King", "Glenn Hoddle"},
					CorrectAnswer: "Steve Perryman",
				},
				{
					ID:            "q2",
					Text:          "Which Spurs legend scored the famous solo goal in the 1981 FA Cup Final replay?",
					Kind:          domain.KindFreeText,
					CorrectAnswer: "Ricky Villa",
					Explanation:   "Ricky Villa's mazy run decided the replay against Manchester City.",
				},
			},
		},
	}
}
