// Package model defines data structures for the script platform.
package model

import (
	"time"
)

// ConversationMetadata is the summary metadata maintained by the turn
// pipeline: one increment per persisted message.
type ConversationMetadata struct {
	TotalMessages int        `json:"total_messages"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

// Conversation represents a conversation thread owned by a single user.
type Conversation struct {
	ID          string               `json:"id"`
	UserID      string               `json:"user_id"`
	Title       string               `json:"title"`
	Environment Environment          `json:"environment"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Metadata    ConversationMetadata `json:"metadata"`
}

// CreateConversationRequest is the request to create a new conversation.
type CreateConversationRequest struct {
	Title       string      `json:"title"`
	Environment Environment `json:"environment"`
}

// UpdateConversationRequest is the request to rename a conversation.
type UpdateConversationRequest struct {
	Title string `json:"title"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

// ConversationDetailResponse bundles a conversation with its messages.
type ConversationDetailResponse struct {
	Conversation *Conversation `json:"conversation"`
	Messages     []Message     `json:"messages"`
}
