package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/RichardoC/bankchat/internal/models"
	"go.uber.org/zap"
)

// ListChatSessions returns the user's saved sessions, most recently written
// first.
func (d *Database) ListChatSessions(ctx context.Context, userID int64) ([]models.ChatSessionSummary, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, topic, messages, timestamp
		FROM chat_history
		WHERE user_id = ?
		ORDER BY timestamp DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.ChatSessionSummary, 0)
	for rows.Next() {
		var (
			s   models.ChatSessionSummary
			raw sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Topic, &raw, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat session: %w", err)
		}
		s.MessageCount = len(d.decodeMessages(s.ID, raw))
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat sessions: %w", err)
	}
	return summaries, nil
}

// GetChatSession loads a session owned by userID. Sessions of other users are
// reported as not found.
func (d *Database) GetChatSession(ctx context.Context, userID, sessionID int64) (*models.ChatSession, error) {
	var raw sql.NullString
	session := &models.ChatSession{}
	err := d.db.QueryRowContext(ctx, `
		SELECT id, user_id, topic, messages, timestamp
		FROM chat_history
		WHERE id = ? AND user_id = ?`, sessionID, userID).
		Scan(&session.ID, &session.UserID, &session.Topic, &raw, &session.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}
	session.Messages = d.decodeMessages(session.ID, raw)
	return session, nil
}

// SaveChatSession inserts a new session when sessionID is 0 and overwrites the
// user's existing session otherwise. Nothing is written for an empty
// transcript; the given sessionID is returned unchanged.
func (d *Database) SaveChatSession(ctx context.Context, userID, sessionID int64, topic string, messages []models.Message) (int64, error) {
	if len(messages) == 0 {
		return sessionID, nil
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return 0, fmt.Errorf("failed to encode messages: %w", err)
	}
	now := d.now().UTC()

	if sessionID == 0 {
		var id int64
		err := d.db.QueryRowContext(ctx, `
			INSERT INTO chat_history (user_id, topic, messages, timestamp)
			VALUES (?, ?, ?, ?)
			RETURNING id`, userID, topic, string(payload), now).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to insert chat session: %w", err)
		}
		return id, nil
	}

	res, err := d.db.ExecContext(ctx, `
		UPDATE chat_history
		SET topic = ?, messages = ?, timestamp = ?
		WHERE id = ? AND user_id = ?`, topic, string(payload), now, sessionID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to update chat session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to update chat session: %w", err)
	}
	if n == 0 {
		return 0, models.ErrNotFound
	}
	return sessionID, nil
}

func (d *Database) RenameChatSession(ctx context.Context, userID, sessionID int64, topic string) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE chat_history SET topic = ? WHERE id = ? AND user_id = ?`, topic, sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to rename chat session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to rename chat session: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteChatSession removes the session if it exists. Deleting a missing
// session is not an error.
func (d *Database) DeleteChatSession(ctx context.Context, userID, sessionID int64) error {
	if _, err := d.db.ExecContext(ctx, `
		DELETE FROM chat_history WHERE id = ? AND user_id = ?`, sessionID, userID); err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}
	return nil
}

// decodeMessages never fails: a corrupt payload yields an empty transcript.
func (d *Database) decodeMessages(sessionID int64, raw sql.NullString) []models.Message {
	messages := make([]models.Message, 0)
	if !raw.Valid || raw.String == "" {
		return messages
	}
	if err := json.Unmarshal([]byte(raw.String), &messages); err != nil {
		d.logger.Warn("discarding undecodable chat transcript",
			zap.Int64("sessionID", sessionID),
			zap.Error(err))
		return make([]models.Message, 0)
	}
	if messages == nil {
		messages = make([]models.Message, 0)
	}
	return messages
}
