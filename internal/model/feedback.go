package model

import (
	"time"
)

// ErrorFeedback records a runtime error the user reported against a
// previously generated script, together with the user message that
// triggered it. Entries are never deleted; they feed the error-learning
// block of future prompts.
type ErrorFeedback struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id"`
	ErrorText      string    `json:"error_text"`
	Context        string    `json:"context"`
	ResolvedCode   string    `json:"resolved_code,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
