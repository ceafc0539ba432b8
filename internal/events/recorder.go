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

// AttemptSaver persists an attempt. Implementations must tolerate redelivery.
type AttemptSaver interface {
	SaveAttempt(ctx context.Context, attempt domain.Attempt) error
}

// Recorder consumes completed attempts and hands them to an AttemptSaver.
type Recorder struct {
	subscriber message.Subscriber
	topic      string
	saver      AttemptSaver
	logger     *slog.Logger
	retryDelay time.Duration
	done       chan struct{}
}

func NewRecorder(subscriber message.Subscriber, topic string, saver AttemptSaver, logger *slog.Logger) *Recorder {
	if topic == "" {
		topic = TopicAttemptCompleted
	}
	return &Recorder{
		subscriber: subscriber,
		topic:      topic,
		saver:      saver,
		logger:     logger,
		retryDelay: time.Second,
		done:       make(chan struct{}),
	}
}

// Start subscribes before returning, so attempts published afterwards are not
// missed, then consumes in the background until ctx is cancelled.
func (r *Recorder) Start(ctx context.Context) error {
	msgs, err := r.subscriber.Subscribe(ctx, r.topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.topic, err)
	}
	go func() {
		defer close(r.done)
		for msg := range msgs {
			r.handle(ctx, msg)
		}
	}()
	return nil
}

// Done is closed once the subscription channel has drained.
func (r *Recorder) Done() <-chan struct{} {
	return r.done
}

func (r *Recorder) handle(ctx context.Context, msg *message.Message) {
	var attempt domain.Attempt
	if err := json.Unmarshal(msg.Payload, &attempt); err != nil {
		// Undecodable payloads would be redelivered forever.
		r.logger.ErrorContext(ctx, "dropping malformed attempt message", "message_id", msg.UUID, "error", err)
		msg.Ack()
		return
	}

	if err := r.saver.SaveAttempt(ctx, attempt); err != nil {
		r.logger.ErrorContext(ctx, "failed to save attempt",
			"attempt_id", attempt.ID,
			"user_id", attempt.UserID,
			"error", err)
		select {
		case <-time.After(r.retryDelay):
		case <-ctx.Done():
		}
		msg.Nack()
		return
	}

	r.logger.InfoContext(ctx, "attempt recorded",
		"attempt_id", attempt.ID,
		"user_id", attempt.UserID,
		"quiz_id", attempt.QuizID,
		"percentage", attempt.Percentage)
	msg.Ack()
}
