package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/luaforge/script-platform/internal/middleware"
	"github.com/luaforge/script-platform/internal/model"
	"github.com/luaforge/script-platform/internal/prompt"
	"github.com/luaforge/script-platform/internal/service"
	"github.com/luaforge/script-platform/pkg/logger"
)

// maxTurnFormMemory bounds in-memory multipart parsing for a turn.
const maxTurnFormMemory = 32 << 20

// MessageHandler handles message endpoints.
type MessageHandler struct {
	service *service.MessageService
	logger  *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/v1/conversations/:id/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.ListMessages(ctx, middleware.GetUserID(ctx), conversationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Send handles POST /api/v1/conversations/:id/messages. The body is a
// multipart form: message, optional errors, and file_<i>/notes_<i>
// attachment pairs.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxTurnFormMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	message := r.FormValue("message")
	if err := middleware.ValidateMessageContent(message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	attachments, err := prompt.ExtractAttachments(r.MultipartForm)
	if err != nil {
		if errors.Is(err, prompt.ErrTooManyAttachments) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read attachments")
		return
	}

	resp, err := h.service.SubmitTurn(ctx, &service.TurnInput{
		ConversationID: conversationID,
		UserID:         middleware.GetUserID(ctx),
		Text:           message,
		Attachments:    attachments,
		ReportedError:  r.FormValue("errors"),
	})
	if err != nil {
		if !service.IsValidation(err) {
			h.logger.Error("turn failed",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Review handles PUT /api/v1/conversations/:id/messages/:messageID/review
func (h *MessageHandler) Review(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID := chi.URLParam(r, "id")
	messageID := chi.URLParam(r, "messageID")

	if err := middleware.ValidateID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.service.Review(ctx, middleware.GetUserID(ctx), conversationID, messageID, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}
