package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luaforge/script-platform/internal/events"
	"github.com/luaforge/script-platform/internal/llm"
	"github.com/luaforge/script-platform/internal/model"
	"github.com/luaforge/script-platform/internal/prompt"
	"github.com/luaforge/script-platform/internal/store"
	"github.com/luaforge/script-platform/pkg/logger"
	"github.com/luaforge/script-platform/pkg/metrics"
)

// Generator produces generated text for a composed prompt, trying
// candidate models in order.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*llm.Result, error)
}

// CodePredicate decides whether generated output should be treated as
// code. Pluggable so the heuristic can be replaced without touching the
// pipeline.
type CodePredicate func(output string) bool

// LuaCodeHeuristic is the default predicate: output containing a Lua
// line comment or a local declaration is treated as code.
func LuaCodeHeuristic(output string) bool {
	return strings.Contains(output, "--") || strings.Contains(output, "local")
}

// TurnInput is one turn submission.
type TurnInput struct {
	ConversationID string
	UserID         string
	Text           string
	Attachments    []model.Attachment
	ReportedError  string
}

// MessageService runs the turn pipeline: persist the user turn, build
// the prompt from stored state, invoke the model chain, and commit the
// assistant turn.
type MessageService struct {
	store         store.Store
	conversations *ConversationService
	generator     Generator
	publisher     *events.Publisher
	isCode        CodePredicate
	logger        *logger.Logger
}

// NewMessageService creates a new message service. publisher may be nil.
func NewMessageService(
	st store.Store,
	conversations *ConversationService,
	generator Generator,
	publisher *events.Publisher,
	log *logger.Logger,
) *MessageService {
	return &MessageService{
		store:         st,
		conversations: conversations,
		generator:     generator,
		publisher:     publisher,
		isCode:        LuaCodeHeuristic,
		logger:        log,
	}
}

// SetCodePredicate replaces the code-detection heuristic.
func (s *MessageService) SetCodePredicate(p CodePredicate) {
	s.isCode = p
}

// SubmitTurn commits one full exchange. The commit is deliberately
// non-atomic: the user message is persisted before the model chain
// runs, and it stays persisted if every candidate model fails.
func (s *MessageService) SubmitTurn(ctx context.Context, in *TurnInput) (*model.TurnResponse, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, Validationf("message is required")
	}
	if len(in.Attachments) > prompt.MaxAttachments {
		return nil, Validationf("at most %d attachments are allowed", prompt.MaxAttachments)
	}

	conv, err := s.conversations.GetOwned(ctx, in.UserID, in.ConversationID)
	if err != nil {
		return nil, err
	}

	// Step 1: persist the user turn.
	userMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        in.Text,
		Timestamp:      time.Now(),
		Metadata: model.MessageMetadata{
			Files:  in.Attachments,
			Errors: in.ReportedError,
		},
	}
	if err := s.store.CreateMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}
	if err := s.store.TouchConversation(ctx, conv.ID, userMsg.Timestamp); err != nil {
		s.logger.Warn("failed to update conversation metadata", zap.Error(err))
	}
	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser)).Inc()

	// Step 2: assemble the prompt from persisted state. The history
	// read includes the user message just written.
	history, err := s.store.ListMessagesByConversation(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	feedback, err := s.store.ListErrorFeedbackByConversation(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read error feedback: %w", err)
	}

	composed := prompt.ComposeTurn(prompt.TurnContext{
		Environment: conv.Environment,
		History:     history,
		Feedback:    feedback,
		Attachments: in.Attachments,
		UserText:    in.Text,
	})

	// Step 3: invoke the model chain.
	result, err := s.generator.Generate(ctx, composed)
	if err != nil {
		s.publishEvent(ctx, conv, model.EventProviderExhausted, "", err.Error())

		var exhausted *llm.ExhaustedError
		if errors.As(err, &exhausted) {
			s.logger.Error("all candidate models failed",
				zap.String("conversation_id", conv.ID),
				zap.Int("attempts", len(exhausted.Failures)),
			)
		}
		return nil, err
	}

	// Step 4: persist the assistant turn.
	assistantMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conv.ID,
		Role:           model.RoleAssistant,
		Content:        result.Output,
		Timestamp:      time.Now(),
	}
	if s.isCode(result.Output) {
		assistantMsg.Metadata.GeneratedCode = result.Output
	}
	if err := s.store.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to persist assistant message: %w", err)
	}
	if err := s.store.TouchConversation(ctx, conv.ID, assistantMsg.Timestamp); err != nil {
		s.logger.Warn("failed to update conversation metadata", zap.Error(err))
	}
	metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant)).Inc()

	// Step 5: record reported error text against the user message.
	if in.ReportedError != "" {
		fb := &model.ErrorFeedback{
			ID:             uuid.Must(uuid.NewV7()).String(),
			ConversationID: conv.ID,
			MessageID:      userMsg.ID,
			ErrorText:      in.ReportedError,
			Context:        in.Text,
			CreatedAt:      time.Now(),
		}
		if err := s.store.CreateErrorFeedback(ctx, fb); err != nil {
			s.logger.Warn("failed to record error feedback", zap.Error(err))
		} else {
			metrics.ErrorFeedbackTotal.Inc()
		}
	}

	s.publishEvent(ctx, conv, model.EventTurnCommitted, result.Model, "")
	s.logger.Info("turn committed",
		zap.String("conversation_id", conv.ID),
		zap.String("model", result.Model),
		zap.Int("fallbacks", len(result.Failures)),
	)

	// Re-read for fresh summary metadata.
	updated, err := s.store.GetConversation(ctx, conv.ID)
	if err != nil {
		updated = conv
	}

	return &model.TurnResponse{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Conversation:     updated,
	}, nil
}

// ListMessages returns a conversation's messages in timestamp order.
func (s *MessageService) ListMessages(ctx context.Context, userID, conversationID string) (*model.ListMessagesResponse, error) {
	if _, err := s.conversations.GetOwned(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessagesByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	return &model.ListMessagesResponse{Messages: messages}, nil
}

// Review records a human review outcome on an assistant message's
// metadata bag. The message itself stays immutable.
func (s *MessageService) Review(ctx context.Context, userID, conversationID, messageID string, req *model.ReviewRequest) (*model.Message, error) {
	if req.Decision != model.ReviewAccepted && req.Decision != model.ReviewRejected {
		return nil, Validationf("decision must be %q or %q", model.ReviewAccepted, model.ReviewRejected)
	}
	if req.Decision == model.ReviewRejected && strings.TrimSpace(req.Reason) == "" {
		return nil, Validationf("a reason is required when rejecting")
	}

	if _, err := s.conversations.GetOwned(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if msg.ConversationID != conversationID {
		return nil, ErrNotFound
	}
	if msg.Role != model.RoleAssistant {
		return nil, Validationf("only assistant messages can be reviewed")
	}

	msg.Metadata.DiffApproval = req.Decision
	msg.Metadata.RejectionReason = ""
	if req.Decision == model.ReviewRejected {
		msg.Metadata.RejectionReason = req.Reason
	}

	if err := s.store.UpdateMessageMetadata(ctx, messageID, msg.Metadata); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessageService) publishEvent(ctx context.Context, conv *model.Conversation, eventType model.TurnEventType, modelName, reason string) {
	s.publisher.PublishTurnEvent(ctx, &model.TurnEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conv.ID,
		UserID:         conv.UserID,
		Type:           eventType,
		Model:          modelName,
		Reason:         reason,
		CreatedAt:      time.Now(),
	})
}
