package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/luaforge/script-platform/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    last_login TIMESTAMP
);

CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    title TEXT NOT NULL,
    environment TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    total_messages INTEGER NOT NULL DEFAULT 0,
    last_message_at TIMESTAMP,
    FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL,
    metadata TEXT NOT NULL DEFAULT '{}',
    FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, timestamp);

CREATE TABLE IF NOT EXISTS error_feedback (
    id TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    message_id TEXT NOT NULL,
    error_text TEXT NOT NULL,
    context TEXT NOT NULL,
    resolved_code TEXT,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_feedback_conversation ON error_feedback(conversation_id, created_at);
`

// SQLite is the Store implementation backed by SQLite.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and migrates) a SQLite database at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateUser inserts a new user.
func (s *SQLite) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Username, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrConflict
		}
		return err
	}
	return nil
}

// GetUser fetches a user by ID.
func (s *SQLite) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, last_login FROM users WHERE id = ?`, id))
}

// GetUserByUsername fetches a user by username.
func (s *SQLite) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at, last_login FROM users WHERE username = ?`, username))
}

func (s *SQLite) scanUser(row *sql.Row) (*model.User, error) {
	var user model.User
	var lastLogin sql.NullTime
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return &user, nil
}

// TouchUserLogin records a successful login.
func (s *SQLite) TouchUserLogin(ctx context.Context, id string, at time.Time) error {
	return s.exec(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, at, id)
}

// CreateConversation inserts a new conversation.
func (s *SQLite) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, title, environment, created_at, updated_at, total_messages)
         VALUES (?, ?, ?, ?, ?, ?, 0)`,
		conv.ID, conv.UserID, conv.Title, string(conv.Environment), conv.CreatedAt, conv.UpdatedAt)
	return err
}

// GetConversation fetches a conversation by ID.
func (s *SQLite) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, environment, created_at, updated_at, total_messages, last_message_at
         FROM conversations WHERE id = ?`, id)

	conv, err := scanConversation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// ListConversationsByUser lists a user's conversations, most recently
// updated first.
func (s *SQLite) ListConversationsByUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, environment, created_at, updated_at, total_messages, last_message_at
         FROM conversations WHERE user_id = ? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []model.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows.Scan)
		if err != nil {
			return nil, err
		}
		convs = append(convs, *conv)
	}
	return convs, rows.Err()
}

func scanConversation(scan func(dest ...any) error) (*model.Conversation, error) {
	var conv model.Conversation
	var env string
	var lastMessageAt sql.NullTime
	err := scan(&conv.ID, &conv.UserID, &conv.Title, &env, &conv.CreatedAt, &conv.UpdatedAt,
		&conv.Metadata.TotalMessages, &lastMessageAt)
	if err != nil {
		return nil, err
	}
	conv.Environment = model.Environment(env)
	if lastMessageAt.Valid {
		conv.Metadata.LastMessageAt = &lastMessageAt.Time
	}
	return &conv, nil
}

// RenameConversation updates a conversation's title.
func (s *SQLite) RenameConversation(ctx context.Context, id, title string, at time.Time) error {
	return s.exec(ctx, `UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?`, title, at, id)
}

// TouchConversation bumps the message counter and last-message timestamp.
func (s *SQLite) TouchConversation(ctx context.Context, id string, at time.Time) error {
	return s.exec(ctx,
		`UPDATE conversations SET total_messages = total_messages + 1, last_message_at = ?, updated_at = ? WHERE id = ?`,
		at, at, id)
}

// DeleteConversation removes a conversation and, via foreign keys, its
// messages and error feedback.
func (s *SQLite) DeleteConversation(ctx context.Context, id string) error {
	return s.exec(ctx, `DELETE FROM conversations WHERE id = ?`, id)
}

// CreateMessage inserts a new message.
func (s *SQLite) CreateMessage(ctx context.Context, msg *model.Message) error {
	metadata, err := json.Marshal(msg.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode message metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, timestamp, metadata)
         VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content, msg.Timestamp, string(metadata))
	return err
}

// GetMessage fetches a message by ID.
func (s *SQLite) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, conversation_id, role, content, timestamp, metadata FROM messages WHERE id = ?`, id)

	msg, err := scanMessage(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessagesByConversation lists messages in ascending timestamp
// order. This ordering is authoritative for context assembly.
func (s *SQLite) ListMessagesByConversation(ctx context.Context, conversationID string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, timestamp, metadata
         FROM messages WHERE conversation_id = ? ORDER BY timestamp ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *msg)
	}
	return msgs, rows.Err()
}

func scanMessage(scan func(dest ...any) error) (*model.Message, error) {
	var msg model.Message
	var role, metadata string
	if err := scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &msg.Timestamp, &metadata); err != nil {
		return nil, err
	}
	msg.Role = model.Role(role)
	if err := json.Unmarshal([]byte(metadata), &msg.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode message metadata: %w", err)
	}
	return &msg, nil
}

// UpdateMessageMetadata replaces a message's metadata bag.
func (s *SQLite) UpdateMessageMetadata(ctx context.Context, id string, metadata model.MessageMetadata) error {
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode message metadata: %w", err)
	}
	return s.exec(ctx, `UPDATE messages SET metadata = ? WHERE id = ?`, string(encoded), id)
}

// LatestGeneratedCode returns the newest assistant message's generated
// code for a conversation.
func (s *SQLite) LatestGeneratedCode(ctx context.Context, conversationID string) (string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT metadata FROM messages
         WHERE conversation_id = ? AND role = ? ORDER BY timestamp DESC`, conversationID, string(model.RoleAssistant))
	if err != nil {
		return "", err
	}
	defer rows.Close()

	for rows.Next() {
		var encoded string
		if err := rows.Scan(&encoded); err != nil {
			return "", err
		}
		var metadata model.MessageMetadata
		if err := json.Unmarshal([]byte(encoded), &metadata); err != nil {
			return "", fmt.Errorf("failed to decode message metadata: %w", err)
		}
		if metadata.GeneratedCode != "" {
			return metadata.GeneratedCode, nil
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return "", ErrNotFound
}

// CreateErrorFeedback inserts a new error feedback entry.
func (s *SQLite) CreateErrorFeedback(ctx context.Context, fb *model.ErrorFeedback) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO error_feedback (id, conversation_id, message_id, error_text, context, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		fb.ID, fb.ConversationID, fb.MessageID, fb.ErrorText, fb.Context, fb.CreatedAt)
	return err
}

// ListErrorFeedbackByConversation lists feedback newest first.
func (s *SQLite) ListErrorFeedbackByConversation(ctx context.Context, conversationID string) ([]model.ErrorFeedback, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, message_id, error_text, context, resolved_code, created_at
         FROM error_feedback WHERE conversation_id = ? ORDER BY created_at DESC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.ErrorFeedback
	for rows.Next() {
		var fb model.ErrorFeedback
		var resolved sql.NullString
		if err := rows.Scan(&fb.ID, &fb.ConversationID, &fb.MessageID, &fb.ErrorText, &fb.Context,
			&resolved, &fb.CreatedAt); err != nil {
			return nil, err
		}
		if resolved.Valid {
			fb.ResolvedCode = resolved.String
		}
		entries = append(entries, fb)
	}
	return entries, rows.Err()
}

// ResolveErrorFeedback annotates a feedback entry with resolving code.
func (s *SQLite) ResolveErrorFeedback(ctx context.Context, id, resolvedCode string) error {
	return s.exec(ctx, `UPDATE error_feedback SET resolved_code = ? WHERE id = ?`, resolvedCode, id)
}

func (s *SQLite) exec(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
