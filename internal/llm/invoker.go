package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/luaforge/script-platform/pkg/logger"
	"github.com/luaforge/script-platform/pkg/metrics"
)

// ErrEmptyCompletion marks a provider response that succeeded at the
// transport level but produced no usable text. Treated like any other
// attempt failure so the next candidate gets a chance.
var ErrEmptyCompletion = errors.New("provider returned empty completion")

// Failure records one failed generation attempt.
type Failure struct {
	Model string
	Err   error
}

// ExhaustedError is returned when every candidate model failed. It
// carries the full failure trail and unwraps to the last failure.
type ExhaustedError struct {
	Failures []Failure
}

func (e *ExhaustedError) Error() string {
	last := e.Failures[len(e.Failures)-1]
	return fmt.Sprintf("all %d candidate models failed, last (%s): %v", len(e.Failures), last.Model, last.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Failures[len(e.Failures)-1].Err
}

// Result is a successful invocation outcome.
type Result struct {
	// Output is the sanitized generated text.
	Output string
	// Model is the candidate that served the request.
	Model string
	// Failures lists candidates that failed before Model succeeded.
	Failures []Failure
}

// Invoker tries an ordered list of candidate models against a provider
// client, returning the first success. Candidate order is significant:
// the primary model is always attempted first, and a candidate is never
// retried within one invocation.
type Invoker struct {
	client Client
	models []string
	logger *logger.Logger
}

// NewInvoker creates an invoker over the given candidate list.
func NewInvoker(client Client, models []string, log *logger.Logger) *Invoker {
	return &Invoker{
		client: client,
		models: models,
		logger: log,
	}
}

// Models returns the candidate list in attempt order.
func (inv *Invoker) Models() []string {
	return inv.models
}

// Generate runs the fallback sequence for one prompt. The output is
// sanitized before being returned; an empty sanitized output counts as
// a failed attempt.
func (inv *Invoker) Generate(ctx context.Context, prompt string) (*Result, error) {
	if len(inv.models) == 0 {
		return nil, errors.New("no candidate models configured")
	}

	var failures []Failure
	for _, model := range inv.models {
		start := time.Now()

		raw, err := inv.client.Generate(ctx, prompt, model)
		if err == nil {
			if output := StripCodeFences(raw); output != "" {
				metrics.RecordGeneration(model, "success", time.Since(start).Seconds())
				return &Result{
					Output:   output,
					Model:    model,
					Failures: failures,
				}, nil
			}
			err = ErrEmptyCompletion
		}

		metrics.RecordGeneration(model, "failure", time.Since(start).Seconds())
		metrics.GenerationFallbacks.WithLabelValues(model).Inc()
		inv.logger.Warn("generation attempt failed",
			zap.String("model", model),
			zap.Error(err),
		)
		failures = append(failures, Failure{Model: model, Err: err})
	}

	metrics.GenerationExhausted.Inc()
	return nil, &ExhaustedError{Failures: failures}
}
