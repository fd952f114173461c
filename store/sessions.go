// ABOUTME: Chat session persistence - sessions with ordered messages,
// ABOUTME: optional suggested follow-ups, and image URL lists.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Message is one chat message within a session.
type Message struct {
	Role               string   `json:"role"` // "user" or "model"
	Text               string   `json:"text"`
	SuggestedQuestions []string `json:"suggestedQuestions,omitempty"`
	Images             []string `json:"images,omitempty"`
}

// Session is a chat session with its ordered messages.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt int64     `json:"createdAt"` // unix millis
	Messages  []Message `json:"messages"`
}

// Sessions returns every session with its messages, newest session first.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at FROM chat_sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Title, &sess.CreatedAt); err != nil {
			return nil, err
		}
		sess.Messages = []Message{}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sessions {
		messages, err := s.sessionMessages(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Messages = messages
	}
	return sessions, nil
}

func (s *Store) sessionMessages(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, text, suggested_questions, images
		 FROM messages WHERE session_id = ? ORDER BY order_index`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var msg Message
		var questions, images sql.NullString
		if err := rows.Scan(&msg.Role, &msg.Text, &questions, &images); err != nil {
			return nil, err
		}
		if questions.Valid {
			_ = json.Unmarshal([]byte(questions.String), &msg.SuggestedQuestions)
		}
		if images.Valid {
			_ = json.Unmarshal([]byte(images.String), &msg.Images)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// CreateSession inserts a new session. A missing id or timestamp is filled in.
func (s *Store) CreateSession(ctx context.Context, sess Session) (Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	if sess.CreatedAt == 0 {
		sess.CreatedAt = time.Now().UnixMilli()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, title, created_at) VALUES (?, ?, ?)`,
		sess.ID, sess.Title, sess.CreatedAt)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	sess.Messages = []Message{}
	return sess, nil
}

// UpdateSessionTitle renames a session.
func (s *Store) UpdateSessionTitle(ctx context.Context, sessionID, title string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET title = ? WHERE id = ?`, title, sessionID)
	if err != nil {
		return fmt.Errorf("update session title: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMessage appends a message to a session at the next order index.
func (s *Store) AddMessage(ctx context.Context, sessionID string, msg Message) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_sessions WHERE id = ?`, sessionID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	questions, err := nullableJSON(msg.SuggestedQuestions)
	if err != nil {
		return err
	}
	images, err := nullableJSON(msg.Images)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, text, suggested_questions, images, order_index, created_at)
		 VALUES (?, ?, ?, ?, ?,
		         (SELECT COALESCE(MAX(order_index) + 1, 0) FROM messages WHERE session_id = ?),
		         ?)`,
		sessionID, msg.Role, msg.Text, questions, images, sessionID, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("add message: %w", err)
	}
	return nil
}

// DeleteSession removes a session; its messages cascade.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func nullableJSON(v []string) (any, error) {
	if len(v) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}
