package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luaforge/script-platform/pkg/logger"
)

// fakeClient scripts per-model responses and records attempt order.
type fakeClient struct {
	responses map[string]string
	errs      map[string]error
	attempts  []string
}

func (f *fakeClient) Generate(ctx context.Context, prompt, model string) (string, error) {
	f.attempts = append(f.attempts, model)
	if err, ok := f.errs[model]; ok {
		return "", err
	}
	return f.responses[model], nil
}

func (f *fakeClient) Name() string { return "fake" }

func TestInvokerFallsBackInOrder(t *testing.T) {
	client := &fakeClient{
		responses: map[string]string{"model-c": "```lua\nlocal x = 1\n```"},
		errs: map[string]error{
			"model-a": errors.New("quota exceeded"),
			"model-b": errors.New("timeout"),
		},
	}
	inv := NewInvoker(client, []string{"model-a", "model-b", "model-c"}, logger.NewNop())

	result, err := inv.Generate(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, "local x = 1", result.Output)
	assert.Equal(t, "model-c", result.Model)
	assert.Equal(t, []string{"model-a", "model-b", "model-c"}, client.attempts)

	require.Len(t, result.Failures, 2)
	assert.Equal(t, "model-a", result.Failures[0].Model)
	assert.Equal(t, "model-b", result.Failures[1].Model)
}

func TestInvokerStopsAtFirstSuccess(t *testing.T) {
	client := &fakeClient{
		responses: map[string]string{
			"model-a": "primary output",
			"model-b": "should never run",
		},
	}
	inv := NewInvoker(client, []string{"model-a", "model-b"}, logger.NewNop())

	result, err := inv.Generate(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, "primary output", result.Output)
	assert.Equal(t, []string{"model-a"}, client.attempts)
	assert.Empty(t, result.Failures)
}

func TestInvokerExhaustion(t *testing.T) {
	client := &fakeClient{
		errs: map[string]error{
			"model-a": errors.New("down"),
			"model-b": errors.New("also down"),
		},
	}
	inv := NewInvoker(client, []string{"model-a", "model-b"}, logger.NewNop())

	result, err := inv.Generate(context.Background(), "prompt")
	require.Nil(t, result)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Len(t, exhausted.Failures, 2)
	assert.Equal(t, "model-a", exhausted.Failures[0].Model)
	assert.Equal(t, "model-b", exhausted.Failures[1].Model)
	assert.EqualError(t, errors.Unwrap(exhausted), "also down")
}

func TestInvokerTreatsEmptyOutputAsFailure(t *testing.T) {
	client := &fakeClient{
		responses: map[string]string{
			"model-a": "```lua\n```", // sanitizes to nothing
			"model-b": "local ok = true",
		},
	}
	inv := NewInvoker(client, []string{"model-a", "model-b"}, logger.NewNop())

	result, err := inv.Generate(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, "local ok = true", result.Output)
	assert.Equal(t, "model-b", result.Model)
	require.Len(t, result.Failures, 1)
	assert.ErrorIs(t, result.Failures[0].Err, ErrEmptyCompletion)
}

func TestInvokerNoModelsConfigured(t *testing.T) {
	inv := NewInvoker(&fakeClient{}, nil, logger.NewNop())

	_, err := inv.Generate(context.Background(), "prompt")
	require.Error(t, err)
}
