package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/luaforge/script-platform/internal/model"
	"github.com/luaforge/script-platform/internal/prompt"
	"github.com/luaforge/script-platform/pkg/logger"
)

// ScriptService serves the standalone one-shot generation path: no
// conversation, no persistence, no error learnings.
type ScriptService struct {
	generator Generator
	logger    *logger.Logger
}

// NewScriptService creates a new script service.
func NewScriptService(generator Generator, log *logger.Logger) *ScriptService {
	return &ScriptService{
		generator: generator,
		logger:    log,
	}
}

// Generate produces a script for a single request. An unrecognized
// environment tag silently falls back to the studio template; the
// one-shot endpoint is deliberately permissive.
func (s *ScriptService) Generate(ctx context.Context, environment string, userText string, attachments []model.Attachment) (string, error) {
	if strings.TrimSpace(userText) == "" {
		return "", Validationf("userPrompt is required")
	}
	if len(attachments) > prompt.MaxAttachments {
		return "", Validationf("at most %d attachments are allowed", prompt.MaxAttachments)
	}

	composed := prompt.ComposeOneShot(model.Environment(environment), attachments, userText)

	result, err := s.generator.Generate(ctx, composed)
	if err != nil {
		return "", err
	}

	s.logger.Info("one-shot script generated", zap.String("model", result.Model))
	return result.Output, nil
}
