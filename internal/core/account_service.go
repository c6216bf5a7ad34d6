package core

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gwi.com/botgpt/internal/store"
)

// AccountService manages users and the documents they register.
type AccountService struct {
	store Store
	log   zerolog.Logger
}

func NewAccountService(db Store, log zerolog.Logger) *AccountService {
	return &AccountService{store: db, log: log}
}

func (s *AccountService) CreateUser(ctx context.Context, username string, email *string) (*store.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, NewValidationError("username is required")
	}
	if email != nil && strings.TrimSpace(*email) == "" {
		email = nil
	}

	user := &store.User{Username: username, Email: email}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, NewConflictError("username or email already exists")
		}
		return nil, NewInternalError(err, "failed to create user %q", username)
	}

	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user created")
	return user, nil
}

func (s *AccountService) GetUser(ctx context.Context, id int64) (*store.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, NewInternalError(err, "failed to look up user %d", id)
	}
	if user == nil {
		return nil, NewNotFoundError("user with ID %d not found", id)
	}
	return user, nil
}

// CreateDocument registers a document for userID. Only the id is used by
// retrieval; title and uri are stored as given.
func (s *AccountService) CreateDocument(ctx context.Context, userID int64, title string, uri *string) (*store.Document, error) {
	if strings.TrimSpace(title) == "" {
		return nil, NewValidationError("title is required")
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	doc := &store.Document{UserID: userID, Title: title, URI: uri}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, NewInternalError(err, "failed to create document for user %d", userID)
	}

	s.log.Info().Str("document_id", doc.ID).Int64("user_id", userID).Msg("document created")
	return doc, nil
}

// ListDocumentsForUser returns the user's documents, newest first. An unknown
// user simply has no documents.
func (s *AccountService) ListDocumentsForUser(ctx context.Context, userID int64) ([]store.Document, error) {
	docs, err := s.store.ListDocumentsByUserID(ctx, userID)
	if err != nil {
		return nil, NewInternalError(err, "failed to list documents for user %d", userID)
	}
	return docs, nil
}
