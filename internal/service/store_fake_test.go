package service

import (
	"context"
	"sort"
	"time"

	"github.com/luaforge/script-platform/internal/model"
	"github.com/luaforge/script-platform/internal/store"
)

// memStore is an in-memory Store for pipeline tests.
type memStore struct {
	users         map[string]*model.User
	conversations map[string]*model.Conversation
	messages      []model.Message
	feedback      []model.ErrorFeedback
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[string]*model.User),
		conversations: make(map[string]*model.Conversation),
	}
}

func (m *memStore) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return store.ErrConflict
		}
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memStore) GetUser(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, store.ErrNotFound
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) TouchUserLogin(_ context.Context, id string, at time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.LastLogin = &at
	return nil
}

func (m *memStore) CreateConversation(_ context.Context, conv *model.Conversation) error {
	copied := *conv
	m.conversations[conv.ID] = &copied
	return nil
}

func (m *memStore) GetConversation(_ context.Context, id string) (*model.Conversation, error) {
	if c, ok := m.conversations[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, store.ErrNotFound
}

func (m *memStore) ListConversationsByUser(_ context.Context, userID string) ([]model.Conversation, error) {
	var out []model.Conversation
	for _, c := range m.conversations {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memStore) RenameConversation(_ context.Context, id, title string, at time.Time) error {
	c, ok := m.conversations[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Title = title
	c.UpdatedAt = at
	return nil
}

func (m *memStore) TouchConversation(_ context.Context, id string, at time.Time) error {
	c, ok := m.conversations[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Metadata.TotalMessages++
	c.Metadata.LastMessageAt = &at
	c.UpdatedAt = at
	return nil
}

func (m *memStore) DeleteConversation(_ context.Context, id string) error {
	if _, ok := m.conversations[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.conversations, id)

	var msgs []model.Message
	for _, msg := range m.messages {
		if msg.ConversationID != id {
			msgs = append(msgs, msg)
		}
	}
	m.messages = msgs

	var fbs []model.ErrorFeedback
	for _, fb := range m.feedback {
		if fb.ConversationID != id {
			fbs = append(fbs, fb)
		}
	}
	m.feedback = fbs
	return nil
}

func (m *memStore) CreateMessage(_ context.Context, msg *model.Message) error {
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *memStore) GetMessage(_ context.Context, id string) (*model.Message, error) {
	for _, msg := range m.messages {
		if msg.ID == id {
			copied := msg
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) ListMessagesByConversation(_ context.Context, conversationID string) ([]model.Message, error) {
	var out []model.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *memStore) UpdateMessageMetadata(_ context.Context, id string, metadata model.MessageMetadata) error {
	for i := range m.messages {
		if m.messages[i].ID == id {
			m.messages[i].Metadata = metadata
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memStore) LatestGeneratedCode(_ context.Context, conversationID string) (string, error) {
	msgs, _ := m.ListMessagesByConversation(context.Background(), conversationID)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleAssistant && msgs[i].Metadata.GeneratedCode != "" {
			return msgs[i].Metadata.GeneratedCode, nil
		}
	}
	return "", store.ErrNotFound
}

func (m *memStore) CreateErrorFeedback(_ context.Context, fb *model.ErrorFeedback) error {
	m.feedback = append(m.feedback, *fb)
	return nil
}

func (m *memStore) ListErrorFeedbackByConversation(_ context.Context, conversationID string) ([]model.ErrorFeedback, error) {
	var out []model.ErrorFeedback
	for _, fb := range m.feedback {
		if fb.ConversationID == conversationID {
			out = append(out, fb)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) ResolveErrorFeedback(_ context.Context, id, resolvedCode string) error {
	for i := range m.feedback {
		if m.feedback[i].ID == id {
			m.feedback[i].ResolvedCode = resolvedCode
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memStore) Close() error { return nil }
