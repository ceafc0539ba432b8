// Package events carries finished attempts from the quiz service to
// persistence over a watermill pub/sub (in-process channel or Kafka).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"spurs-trivia-service/internal/domain"
)

const (
	// TopicAttemptCompleted receives one message per finished attempt.
	TopicAttemptCompleted = "quiz.attempt.completed"

	EventAttemptCompleted = "attempt.completed"
)

// AttemptPublisher implements app.AttemptPublisher on a watermill publisher.
type AttemptPublisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

func NewAttemptPublisher(publisher message.Publisher, topic string, logger *slog.Logger) *AttemptPublisher {
	if topic == "" {
		topic = TopicAttemptCompleted
	}
	return &AttemptPublisher{publisher: publisher, topic: topic, logger: logger}
}

// PublishAttempt sends the attempt as JSON; the attempt ID doubles as the message UUID.
func (p *AttemptPublisher) PublishAttempt(ctx context.Context, attempt domain.Attempt) error {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt: %w", err)
	}

	msg := message.NewMessage(attempt.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", EventAttemptCompleted)
	msg.Metadata.Set("user_id", attempt.UserID)
	msg.Metadata.Set("quiz_id", attempt.QuizID)
	msg.Metadata.Set("timestamp", attempt.CompletedAt.Format(time.RFC3339))

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish attempt: %w", err)
	}
	p.logger.DebugContext(ctx, "published attempt", "attempt_id", attempt.ID, "topic", p.topic)
	return nil
}

func (p *AttemptPublisher) Close() error {
	return p.publisher.Close()
}
