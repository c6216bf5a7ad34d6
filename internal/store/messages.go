package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

func (s queries) CreateMessage(ctx context.Context, msg *Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	var meta *string
	if len(msg.Metadata) > 0 {
		m := string(msg.Metadata)
		meta = &m
	}

	res, err := s.q.ExecContext(ctx,
		"INSERT INTO messages (conversation_id, role, content, tokens_used, meta, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		msg.ConversationID, msg.Role, msg.Content, msg.TokensUsed, meta, msg.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert message")
	}
	msg.ID, err = res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to read message id")
	}
	return nil
}

// ListMessagesByConversationID returns the conversation's messages oldest
// first. Messages sharing a timestamp keep insertion order.
func (s queries) ListMessagesByConversationID(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT id, conversation_id, role, content, tokens_used, meta, created_at FROM messages WHERE conversation_id = ? ORDER BY created_at ASC, id ASC",
		conversationID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query messages")
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var msg Message
		var meta sql.NullString
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.TokensUsed, &meta, &msg.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan message row")
		}
		if meta.Valid && meta.String != "" {
			msg.Metadata = []byte(meta.String)
		}
		messages = append(messages, msg)
	}
	return messages, errors.Wrap(rows.Err(), "failed to iterate message rows")
}

// DeleteMessagesByConversationID returns the number of messages removed.
func (s queries) DeleteMessagesByConversationID(ctx context.Context, conversationID string) (int64, error) {
	res, err := s.q.ExecContext(ctx, "DELETE FROM messages WHERE conversation_id = ?", conversationID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete messages")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read affected rows")
	}
	return n, nil
}
