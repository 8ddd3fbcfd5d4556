package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/luaforge/script-platform/internal/prompt"
	"github.com/luaforge/script-platform/internal/service"
	"github.com/luaforge/script-platform/pkg/logger"
)

// GenerateHandler handles the standalone one-shot generation endpoint.
type GenerateHandler struct {
	service *service.ScriptService
	logger  *logger.Logger
}

// NewGenerateHandler creates a new generate handler.
func NewGenerateHandler(svc *service.ScriptService, log *logger.Logger) *GenerateHandler {
	return &GenerateHandler{
		service: svc,
		logger:  log,
	}
}

// Generate handles POST /api/v1/generate. Multipart form: environment,
// userPrompt, and file_<i>/notes_<i> attachment pairs. Nothing is
// persisted.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxTurnFormMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
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

	script, err := h.service.Generate(r.Context(), r.FormValue("environment"), r.FormValue("userPrompt"), attachments)
	if err != nil {
		if !service.IsValidation(err) {
			h.logger.Error("one-shot generation failed", zap.Error(err))
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"script": script})
}
