package model

import (
	"time"
)

// TurnEventType classifies turn lifecycle events published to the event
// stream.
type TurnEventType string

const (
	EventTurnCommitted     TurnEventType = "turn_committed"
	EventProviderExhausted TurnEventType = "provider_exhausted"
)

// TurnEvent is published after the turn pipeline finishes, successfully
// or not. Consumers must not treat it as the source of truth; the store is.
type TurnEvent struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	UserID         string        `json:"user_id"`
	Type           TurnEventType `json:"type"`
	Model          string        `json:"model,omitempty"`
	Reason         string        `json:"reason,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}
