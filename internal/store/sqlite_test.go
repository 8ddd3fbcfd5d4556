package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luaforge/script-platform/internal/model"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func seedUser(t *testing.T, st *SQLite, id, username string) {
	t.Helper()
	require.NoError(t, st.CreateUser(context.Background(), &model.User{
		ID:           id,
		Username:     username,
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}))
}

func seedConversation(t *testing.T, st *SQLite, id, userID string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, st.CreateConversation(context.Background(), &model.Conversation{
		ID:          id,
		UserID:      userID,
		Title:       "test",
		Environment: model.EnvironmentStudio,
		CreatedAt:   now,
		UpdatedAt:   now,
	}))
}

func TestCreateUserConflict(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	seedUser(t, st, "u-1", "builder")
	err := st.CreateUser(ctx, &model.User{
		ID:           "u-2",
		Username:     "builder",
		PasswordHash: "other",
		CreatedAt:    time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ErrConflict)

	user, err := st.GetUserByUsername(ctx, "builder")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Nil(t, user.LastLogin)

	_, err = st.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTouchUserLogin(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedUser(t, st, "u-1", "builder")

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.TouchUserLogin(ctx, "u-1", at))

	user, err := st.GetUser(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, user.LastLogin)
	assert.True(t, user.LastLogin.Equal(at))

	assert.ErrorIs(t, st.TouchUserLogin(ctx, "missing", at), ErrNotFound)
}

func TestTouchConversationCountsMessages(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedUser(t, st, "u-1", "builder")
	seedConversation(t, st, "c-1", "u-1")

	conv, err := st.GetConversation(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 0, conv.Metadata.TotalMessages)
	assert.Nil(t, conv.Metadata.LastMessageAt)

	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)
	require.NoError(t, st.TouchConversation(ctx, "c-1", first))
	require.NoError(t, st.TouchConversation(ctx, "c-1", second))

	conv, err = st.GetConversation(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 2, conv.Metadata.TotalMessages)
	require.NotNil(t, conv.Metadata.LastMessageAt)
	assert.True(t, conv.Metadata.LastMessageAt.Equal(second))
}

func TestListConversationsByUserOrder(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedUser(t, st, "u-1", "builder")
	seedUser(t, st, "u-2", "other")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, st.CreateConversation(ctx, &model.Conversation{
			ID:          fmt.Sprintf("c-%d", i),
			UserID:      "u-1",
			Title:       fmt.Sprintf("conv %d", i),
			Environment: model.EnvironmentExecutor,
			CreatedAt:   base,
			UpdatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
	seedConversation(t, st, "c-other", "u-2")

	convs, err := st.ListConversationsByUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, convs, 3)
	assert.Equal(t, "c-2", convs[0].ID)
	assert.Equal(t, "c-0", convs[2].ID)
	assert.Equal(t, model.EnvironmentExecutor, convs[0].Environment)
}

func TestMessageMetadataRoundtrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedUser(t, st, "u-1", "builder")
	seedConversation(t, st, "c-1", "u-1")

	msg := &model.Message{
		ID:             "m-1",
		ConversationID: "c-1",
		Role:           model.RoleUser,
		Content:        "fix the jump script",
		Timestamp:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Metadata: model.MessageMetadata{
			Files: []model.Attachment{
				{Filename: "jump.lua", Content: "local jump = 50", Notes: "current version"},
			},
			Errors: "attempt to call nil",
		},
	}
	require.NoError(t, st.CreateMessage(ctx, msg))

	stored, err := st.GetMessage(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, stored.Role)
	require.Len(t, stored.Metadata.Files, 1)
	assert.Equal(t, "jump.lua", stored.Metadata.Files[0].Filename)
	assert.Equal(t, "attempt to call nil", stored.Metadata.Errors)

	stored.Metadata.DiffApproval = model.ReviewAccepted
	require.NoError(t, st.UpdateMessageMetadata(ctx, "m-1", stored.Metadata))

	stored, err = st.GetMessage(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, model.ReviewAccepted, stored.Metadata.DiffApproval)
	assert.Equal(t, "attempt to call nil", stored.Metadata.Errors)
}

func TestListMessagesOrdering(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedUser(t, st, "u-1", "builder")
	seedConversation(t, st, "c-1", "u-1")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Insert out of order; the list must come back by timestamp.
	for _, i := range []int{2, 0, 1} {
		require.NoError(t, st.CreateMessage(ctx, &model.Message{
			ID:             fmt.Sprintf("m-%d", i),
			ConversationID: "c-1",
			Role:           model.RoleUser,
			Content:        fmt.Sprintf("turn %d", i),
			Timestamp:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	msgs, err := st.ListMessagesByConversation(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m-0", msgs[0].ID)
	assert.Equal(t, "m-1", msgs[1].ID)
	assert.Equal(t, "m-2", msgs[2].ID)
}

func TestLatestGeneratedCode(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedUser(t, st, "u-1", "builder")
	seedConversation(t, st, "c-1", "u-1")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.CreateMessage(ctx, &model.Message{
		ID: "m-1", ConversationID: "c-1", Role: model.RoleAssistant,
		Content: "local old = 1", Timestamp: base,
		Metadata: model.MessageMetadata{GeneratedCode: "local old = 1"},
	}))
	require.NoError(t, st.CreateMessage(ctx, &model.Message{
		ID: "m-2", ConversationID: "c-1", Role: model.RoleAssistant,
		Content: "local new = 2", Timestamp: base.Add(time.Minute),
		Metadata: model.MessageMetadata{GeneratedCode: "local new = 2"},
	}))
	// Newest assistant turn produced no code; the lookup skips it.
	require.NoError(t, st.CreateMessage(ctx, &model.Message{
		ID: "m-3", ConversationID: "c-1", Role: model.RoleAssistant,
		Content: "prose only", Timestamp: base.Add(2 * time.Minute),
	}))

	code, err := st.LatestGeneratedCode(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "local new = 2", code)

	_, err = st.LatestGeneratedCode(ctx, "c-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestErrorFeedbackOrdering(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedUser(t, st, "u-1", "builder")
	seedConversation(t, st, "c-1", "u-1")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, st.CreateErrorFeedback(ctx, &model.ErrorFeedback{
			ID:             fmt.Sprintf("fb-%d", i),
			ConversationID: "c-1",
			MessageID:      "m-1",
			ErrorText:      fmt.Sprintf("error %d", i),
			Context:        "context",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := st.ListErrorFeedbackByConversation(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "fb-2", entries[0].ID)
	assert.Equal(t, "fb-0", entries[2].ID)
	assert.Empty(t, entries[0].ResolvedCode)

	require.NoError(t, st.ResolveErrorFeedback(ctx, "fb-2", "local fixed = true"))
	entries, err = st.ListErrorFeedbackByConversation(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "local fixed = true", entries[0].ResolvedCode)
}

func TestDeleteConversationCascades(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	seedUser(t, st, "u-1", "builder")
	seedConversation(t, st, "c-1", "u-1")

	now := time.Now().UTC()
	require.NoError(t, st.CreateMessage(ctx, &model.Message{
		ID: "m-1", ConversationID: "c-1", Role: model.RoleUser,
		Content: "hello", Timestamp: now,
	}))
	require.NoError(t, st.CreateErrorFeedback(ctx, &model.ErrorFeedback{
		ID: "fb-1", ConversationID: "c-1", MessageID: "m-1",
		ErrorText: "boom", Context: "hello", CreatedAt: now,
	}))

	require.NoError(t, st.DeleteConversation(ctx, "c-1"))

	_, err := st.GetConversation(ctx, "c-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.GetMessage(ctx, "m-1")
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := st.ListErrorFeedbackByConversation(ctx, "c-1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, st.DeleteConversation(ctx, "c-1"), ErrNotFound)
}
