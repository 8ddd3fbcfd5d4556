package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ReviewDecision is the human review outcome for generated code.
type ReviewDecision string

const (
	ReviewAccepted ReviewDecision = "accepted"
	ReviewRejected ReviewDecision = "rejected"
)

// Attachment is a reference file embedded into a user message at commit
// time. The original upload bytes are not retained anywhere else.
type Attachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Notes    string `json:"notes,omitempty"`
}

// MessageMetadata is the mutable metadata bag on a message. Everything
// else on a message is immutable once persisted.
type MessageMetadata struct {
	Files           []Attachment   `json:"files,omitempty"`
	Errors          string         `json:"errors,omitempty"`
	GeneratedCode   string         `json:"generated_code,omitempty"`
	DiffApproval    ReviewDecision `json:"diff_approval,omitempty"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
}

// Message represents one turn in a conversation. Messages are append-only
// and totally ordered by timestamp within their conversation.
type Message struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Role           Role            `json:"role"`
	Content        string          `json:"content"`
	Timestamp      time.Time       `json:"timestamp"`
	Metadata       MessageMetadata `json:"metadata"`
}

// ReviewRequest records a human review outcome on an assistant message.
type ReviewRequest struct {
	Decision ReviewDecision `json:"decision"`
	Reason   string         `json:"reason,omitempty"`
}

// TurnResponse is returned after a turn is committed. AssistantMessage is
// nil when every candidate model failed; the user message is still
// persisted in that case.
type TurnResponse struct {
	UserMessage      *Message      `json:"user_message"`
	AssistantMessage *Message      `json:"assistant_message,omitempty"`
	Conversation     *Conversation `json:"conversation"`
}

// ListMessagesResponse is the response for listing messages.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
}
