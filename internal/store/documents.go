package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func (s queries) CreateDocument(ctx context.Context, doc *Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx,
		"INSERT INTO documents (id, user_id, title, uri, created_at) VALUES (?, ?, ?, ?, ?)",
		doc.ID, doc.UserID, doc.Title, doc.URI, doc.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert document")
	}
	return nil
}

// ListDocumentsByUserID returns the user's documents newest first.
func (s queries) ListDocumentsByUserID(ctx context.Context, userID int64) ([]Document, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT id, user_id, title, uri, created_at FROM documents WHERE user_id = ? ORDER BY created_at DESC, rowid DESC",
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query documents")
	}
	return scanDocuments(rows)
}

// FindDocumentsByIDs returns the documents among ids that exist, in no
// particular order.
func (s queries) FindDocumentsByIDs(ctx context.Context, ids []string) ([]Document, error) {
	if len(ids) == 0 {
		return []Document{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.q.QueryContext(ctx,
		"SELECT id, user_id, title, uri, created_at FROM documents WHERE id IN ("+placeholders(len(ids))+")",
		args...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query documents by id")
	}
	return scanDocuments(rows)
}

func scanDocuments(rows *sql.Rows) ([]Document, error) {
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var doc Document
		var uri sql.NullString
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Title, &uri, &doc.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan document row")
		}
		if uri.Valid {
			doc.URI = &uri.String
		}
		docs = append(docs, doc)
	}
	return docs, errors.Wrap(rows.Err(), "failed to iterate document rows")
}
