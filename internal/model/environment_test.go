package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvironment(t *testing.T) {
	env, err := ParseEnvironment("executor")
	require.NoError(t, err)
	assert.Equal(t, EnvironmentExecutor, env)

	env, err = ParseEnvironment("studio")
	require.NoError(t, err)
	assert.Equal(t, EnvironmentStudio, env)

	_, err = ParseEnvironment("sandbox")
	assert.Error(t, err)
	_, err = ParseEnvironment("")
	assert.Error(t, err)
}

func TestEnvironmentUnmarshalRejectsUnknown(t *testing.T) {
	var req CreateConversationRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"t","environment":"studio"}`), &req))
	assert.Equal(t, EnvironmentStudio, req.Environment)

	err := json.Unmarshal([]byte(`{"title":"t","environment":"mainframe"}`), &req)
	assert.Error(t, err)
}
