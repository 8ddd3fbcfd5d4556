package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luaforge/script-platform/internal/model"
	"github.com/luaforge/script-platform/internal/store"
	"github.com/luaforge/script-platform/pkg/logger"
	"github.com/luaforge/script-platform/pkg/metrics"
)

// ConversationService handles conversation operations.
type ConversationService struct {
	store  store.Store
	logger *logger.Logger
}

// NewConversationService creates a new conversation service.
func NewConversationService(st store.Store, log *logger.Logger) *ConversationService {
	return &ConversationService{
		store:  st,
		logger: log,
	}
}

// Create creates a new conversation for a user.
func (s *ConversationService) Create(ctx context.Context, userID string, req *model.CreateConversationRequest) (*model.Conversation, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, Validationf("title is required")
	}
	if !req.Environment.Valid() {
		return nil, Validationf("environment must be %q or %q", model.EnvironmentExecutor, model.EnvironmentStudio)
	}

	now := time.Now()
	conv := &model.Conversation{
		ID:          uuid.Must(uuid.NewV7()).String(),
		UserID:      userID,
		Title:       req.Title,
		Environment: req.Environment,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}

	metrics.ConversationsTotal.WithLabelValues(string(conv.Environment)).Inc()
	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("environment", string(conv.Environment)),
	)

	return conv, nil
}

// GetOwned fetches a conversation and verifies the caller owns it.
func (s *ConversationService) GetOwned(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if conv.UserID != userID {
		return nil, ErrForbidden
	}
	return conv, nil
}

// List lists a user's conversations, most recently updated first.
func (s *ConversationService) List(ctx context.Context, userID string) (*model.ListConversationsResponse, error) {
	convs, err := s.store.ListConversationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.ListConversationsResponse{Conversations: convs}, nil
}

// Detail fetches a conversation together with its full message history.
func (s *ConversationService) Detail(ctx context.Context, userID, conversationID string) (*model.ConversationDetailResponse, error) {
	conv, err := s.GetOwned(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessagesByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	return &model.ConversationDetailResponse{
		Conversation: conv,
		Messages:     messages,
	}, nil
}

// Rename updates a conversation's title.
func (s *ConversationService) Rename(ctx context.Context, userID, conversationID, title string) (*model.Conversation, error) {
	if strings.TrimSpace(title) == "" {
		return nil, Validationf("title is required")
	}

	conv, err := s.GetOwned(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.store.RenameConversation(ctx, conversationID, title, now); err != nil {
		return nil, err
	}
	conv.Title = title
	conv.UpdatedAt = now

	return conv, nil
}

// Delete removes a conversation and its dependent records.
func (s *ConversationService) Delete(ctx context.Context, userID, conversationID string) error {
	if _, err := s.GetOwned(ctx, userID, conversationID); err != nil {
		return err
	}
	return s.store.DeleteConversation(ctx, conversationID)
}

// LatestCode returns the most recent generated code in a conversation.
func (s *ConversationService) LatestCode(ctx context.Context, userID, conversationID string) (string, error) {
	if _, err := s.GetOwned(ctx, userID, conversationID); err != nil {
		return "", err
	}

	code, err := s.store.LatestGeneratedCode(ctx, conversationID)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNotFound
	}
	return code, err
}
