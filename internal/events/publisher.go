package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/luaforge/script-platform/internal/model"
)

const (
	// StreamName is the name of the turn events stream.
	StreamName = "TURNS"

	// SubjectPrefix is the prefix for all turn event subjects.
	SubjectPrefix = "turns"
)

// Publisher emits turn events to JetStream. A nil Publisher is valid
// and drops everything, so callers never have to branch on whether
// events are configured.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher over an established client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// EnsureStream creates the turn events stream if it does not exist.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Turn lifecycle events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// TurnSubject returns the subject for a turn event.
func TurnSubject(conversationID string, eventType model.TurnEventType) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, conversationID, eventType)
}

// PublishTurnEvent publishes a turn event. Failures are logged, never
// returned: event publication must not affect turn outcomes.
func (p *Publisher) PublishTurnEvent(ctx context.Context, event *model.TurnEvent) {
	if p == nil || p.client == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.client.logger.Error("failed to marshal turn event", zap.Error(err))
		return
	}

	subject := TurnSubject(event.ConversationID, event.Type)
	if _, err := p.client.JetStream().Publish(ctx, subject, data); err != nil {
		p.client.logger.Warn("failed to publish turn event",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
