package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// CreateConversation inserts c together with its ordered document references.
func (s queries) CreateConversation(ctx context.Context, c *Conversation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	if c.DocumentIDs == nil {
		c.DocumentIDs = []string{}
	}

	_, err := s.q.ExecContext(ctx,
		"INSERT INTO conversations (id, user_id, title, mode, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		c.ID, c.UserID, c.Title, c.Mode, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert conversation")
	}

	for i, docID := range c.DocumentIDs {
		_, err := s.q.ExecContext(ctx,
			"INSERT INTO conversation_documents (conversation_id, document_id, position) VALUES (?, ?, ?)",
			c.ID, docID, i,
		)
		if err != nil {
			return errors.Wrapf(err, "failed to link document %s", docID)
		}
	}
	return nil
}

// GetConversationByID returns nil, nil when the conversation does not exist.
func (s queries) GetConversationByID(ctx context.Context, id string) (*Conversation, error) {
	var c Conversation
	var title sql.NullString
	err := s.q.QueryRowContext(ctx,
		"SELECT id, user_id, title, mode, created_at, updated_at FROM conversations WHERE id = ?", id,
	).Scan(&c.ID, &c.UserID, &title, &c.Mode, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get conversation")
	}
	if title.Valid {
		c.Title = &title.String
	}

	links, err := s.documentLinks(ctx,
		"SELECT conversation_id, document_id FROM conversation_documents WHERE conversation_id = ? ORDER BY position",
		id,
	)
	if err != nil {
		return nil, err
	}
	c.DocumentIDs = orEmpty(links[c.ID])
	return &c, nil
}

// ListConversationsByUserID returns the user's conversations, most recently
// updated first. Equal timestamps fall back to newest insertion first.
func (s queries) ListConversationsByUserID(ctx context.Context, userID int64) ([]Conversation, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT id, user_id, title, mode, created_at, updated_at FROM conversations WHERE user_id = ? ORDER BY updated_at DESC, rowid DESC",
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query conversations")
	}
	defer rows.Close()

	conversations := []Conversation{}
	for rows.Next() {
		var c Conversation
		var title sql.NullString
		if err := rows.Scan(&c.ID, &c.UserID, &title, &c.Mode, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation row")
		}
		if title.Valid {
			c.Title = &title.String
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate conversation rows")
	}
	rows.Close()

	links, err := s.documentLinks(ctx,
		`SELECT cd.conversation_id, cd.document_id
		FROM conversation_documents cd
		JOIN conversations c ON c.id = cd.conversation_id
		WHERE c.user_id = ?
		ORDER BY cd.conversation_id, cd.position`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	for i := range conversations {
		conversations[i].DocumentIDs = orEmpty(links[conversations[i].ID])
	}
	return conversations, nil
}

// TouchConversation sets updated_at. It reports whether the row exists.
func (s queries) TouchConversation(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.q.ExecContext(ctx, "UPDATE conversations SET updated_at = ? WHERE id = ?", at, id)
	if err != nil {
		return false, errors.Wrap(err, "failed to update conversation timestamp")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	return affected > 0, nil
}

// DeleteConversation removes the conversation row and its document
// references. Messages must be deleted first. It reports whether a row was
// removed.
func (s queries) DeleteConversation(ctx context.Context, id string) (bool, error) {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM conversation_documents WHERE conversation_id = ?", id); err != nil {
		return false, errors.Wrap(err, "failed to delete conversation documents")
	}
	res, err := s.q.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return false, errors.Wrap(err, "failed to delete conversation")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	return affected > 0, nil
}

func (s queries) documentLinks(ctx context.Context, query string, args ...any) (map[string][]string, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query conversation documents")
	}
	defer rows.Close()

	links := make(map[string][]string)
	for rows.Next() {
		var conversationID, documentID string
		if err := rows.Scan(&conversationID, &documentID); err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation document row")
		}
		links[conversationID] = append(links[conversationID], documentID)
	}
	return links, errors.Wrap(rows.Err(), "failed to iterate conversation document rows")
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
