package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusbot/internal/models"
)

// AppendMessage stores one chat message for its user and stamps it with the
// current time.
func (s *Service) AppendMessage(ctx context.Context, msg models.Message) (*models.Message, error) {
	if msg.UserID <= 0 {
		return nil, errors.New("user_id is required")
	}
	if strings.TrimSpace(msg.Content) == "" {
		return nil, errors.New("content cannot be empty")
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (user_id, content, is_user, sentiment, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.UserID, msg.Content, msg.IsUser, msg.Sentiment, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	msg.ID = id
	msg.CreatedAt = now
	return &msg, nil
}

// GetConversation returns the user's messages oldest first.
func (s *Service) GetConversation(ctx context.Context, userID int64) ([]*models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, content, is_user, sentiment, created_at FROM messages WHERE user_id = ? ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		m := new(models.Message)
		if err := rows.Scan(&m.ID, &m.UserID, &m.Content, &m.IsUser, &m.Sentiment, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ClearConversation deletes every message of the user.
func (s *Service) ClearConversation(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return errors.New("invalid user id")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear conversation: %w", err)
	}
	return nil
}
