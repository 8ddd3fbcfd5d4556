// Package store provides durable persistence for users, conversations,
// messages, and error feedback.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/luaforge/script-platform/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a uniqueness constraint is violated.
var ErrConflict = errors.New("record already exists")

// Store is the persistence collaborator. Per-record operations are
// atomic; there are no cross-record transactions, which is why the turn
// pipeline's commit is documented as non-atomic.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	TouchUserLogin(ctx context.Context, id string, at time.Time) error

	// Conversations
	CreateConversation(ctx context.Context, conv *model.Conversation) error
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	ListConversationsByUser(ctx context.Context, userID string) ([]model.Conversation, error)
	RenameConversation(ctx context.Context, id, title string, at time.Time) error
	// TouchConversation bumps the message counter by one and records the
	// last-message timestamp.
	TouchConversation(ctx context.Context, id string, at time.Time) error
	DeleteConversation(ctx context.Context, id string) error

	// Messages
	CreateMessage(ctx context.Context, msg *model.Message) error
	GetMessage(ctx context.Context, id string) (*model.Message, error)
	ListMessagesByConversation(ctx context.Context, conversationID string) ([]model.Message, error)
	UpdateMessageMetadata(ctx context.Context, id string, metadata model.MessageMetadata) error
	LatestGeneratedCode(ctx context.Context, conversationID string) (string, error)

	// Error feedback
	CreateErrorFeedback(ctx context.Context, fb *model.ErrorFeedback) error
	ListErrorFeedbackByConversation(ctx context.Context, conversationID string) ([]model.ErrorFeedback, error)
	ResolveErrorFeedback(ctx context.Context, id, resolvedCode string) error

	Close() error
}
