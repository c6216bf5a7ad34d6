package core

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gwi.com/botgpt/internal/store"
)

const (
	titleMaxRunes  = 50
	titleEllipsis  = "..."
	defaultTimeout = 60 * time.Second
)

// Store is the record store the services read and write through.
// *store.SQLiteStore satisfies it.
type Store interface {
	WithTx(ctx context.Context, fn func(tx *store.Tx) error) error

	CreateUser(ctx context.Context, u *store.User) error
	GetUserByID(ctx context.Context, id int64) (*store.User, error)

	CreateDocument(ctx context.Context, doc *store.Document) error
	ListDocumentsByUserID(ctx context.Context, userID int64) ([]store.Document, error)
	FindDocumentsByIDs(ctx context.Context, ids []string) ([]store.Document, error)

	GetConversationByID(ctx context.Context, id string) (*store.Conversation, error)
	ListConversationsByUserID(ctx context.Context, userID int64) ([]store.Conversation, error)
	ListMessagesByConversationID(ctx context.Context, conversationID string) ([]store.Message, error)
}

type ConversationService struct {
	store        Store
	provider     ReplyProvider
	log          zerolog.Logger
	now          func() time.Time
	replyTimeout time.Duration
	locks        *keyedMutex // nil when per-conversation locking is off
}

type Option func(*ConversationService)

func WithLogger(log zerolog.Logger) Option {
	return func(s *ConversationService) { s.log = log }
}

// WithClock replaces time.Now for message and conversation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *ConversationService) { s.now = now }
}

// WithReplyTimeout bounds each provider call. Zero disables the bound.
func WithReplyTimeout(d time.Duration) Option {
	return func(s *ConversationService) { s.replyTimeout = d }
}

// WithConversationLocking serialises AddMessage and DeleteConversation calls
// that target the same conversation.
func WithConversationLocking(enabled bool) Option {
	return func(s *ConversationService) {
		if enabled {
			s.locks = newKeyedMutex()
		} else {
			s.locks = nil
		}
	}
}

func NewConversationService(db Store, provider ReplyProvider, opts ...Option) *ConversationService {
	s := &ConversationService{
		store:        db,
		provider:     provider,
		log:          zerolog.Nop(),
		now:          func() time.Time { return time.Now().UTC() },
		replyTimeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateConversation starts a conversation with firstMessage and the
// assistant's reply to it. The conversation and both messages are written in
// one transaction, and nothing is written if the reply cannot be generated.
func (s *ConversationService) CreateConversation(ctx context.Context, userID int64, firstMessage string, mode Mode, documentIDs []string) (*ConversationView, error) {
	if strings.TrimSpace(firstMessage) == "" {
		return nil, NewValidationError("message must not be empty")
	}
	mode, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, NewInternalError(err, "failed to look up user %d", userID)
	}
	if user == nil {
		return nil, NewNotFoundError("user with ID %d not found", userID)
	}

	var docIDs []string
	var retrievalContext string
	if mode == ModeRAG {
		docIDs = dedupe(documentIDs)
		if err := s.checkDocumentsExist(ctx, docIDs); err != nil {
			return nil, err
		}
		if len(docIDs) > 0 {
			retrievalContext = SimulateRetrieval(firstMessage, docIDs)
		}
	}

	startedAt := s.now()
	history := []Turn{{Role: store.RoleUser, Content: firstMessage}}
	reply, err := s.generateReply(ctx, history, mode, retrievalContext)
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("reply generation failed, conversation not created")
		return nil, err
	}

	title := Title(firstMessage)
	conversation := store.Conversation{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       &title,
		Mode:        string(mode),
		DocumentIDs: orEmpty(docIDs),
		CreatedAt:   startedAt,
		UpdatedAt:   startedAt,
	}
	userMsg := store.Message{
		ConversationID: conversation.ID,
		Role:           store.RoleUser,
		Content:        firstMessage,
		CreatedAt:      startedAt,
	}
	assistantMsg := s.assistantMessage(conversation.ID, reply, retrievalContext != "")

	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.CreateConversation(ctx, &conversation); err != nil {
			return err
		}
		if err := tx.CreateMessage(ctx, &userMsg); err != nil {
			return err
		}
		return tx.CreateMessage(ctx, &assistantMsg)
	})
	if err != nil {
		return nil, NewInternalError(err, "failed to save conversation")
	}

	s.log.Info().
		Str("conversation_id", conversation.ID).
		Int64("user_id", userID).
		Str("mode", conversation.Mode).
		Int("tokens", reply.Tokens).
		Msg("conversation created")

	return &ConversationView{
		Conversation: conversation,
		Messages:     []store.Message{userMsg, assistantMsg},
	}, nil
}

// AddMessage appends userMessage and the assistant's reply to an existing
// conversation and bumps its updated_at. Both messages are written in one
// transaction; a failed reply leaves the conversation untouched.
func (s *ConversationService) AddMessage(ctx context.Context, conversationID, userMessage string) (*ConversationView, error) {
	if strings.TrimSpace(userMessage) == "" {
		return nil, NewValidationError("message must not be empty")
	}

	unlock := s.lock(conversationID)
	defer unlock()

	conversation, err := s.store.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, NewInternalError(err, "failed to load conversation %s", conversationID)
	}
	if conversation == nil {
		return nil, conversationNotFound(conversationID)
	}

	stored, err := s.store.ListMessagesByConversationID(ctx, conversationID)
	if err != nil {
		return nil, NewInternalError(err, "failed to load history for conversation %s", conversationID)
	}

	receivedAt := s.now()
	history := append(toHistory(stored), Turn{Role: store.RoleUser, Content: userMessage})

	mode := Mode(conversation.Mode)
	var retrievalContext string
	if mode == ModeRAG && len(conversation.DocumentIDs) > 0 {
		retrievalContext = SimulateRetrieval(userMessage, conversation.DocumentIDs)
	}

	reply, err := s.generateReply(ctx, history, mode, retrievalContext)
	if err != nil {
		s.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("reply generation failed, message not saved")
		return nil, err
	}

	userMsg := store.Message{
		ConversationID: conversationID,
		Role:           store.RoleUser,
		Content:        userMessage,
		CreatedAt:      receivedAt,
	}
	assistantMsg := s.assistantMessage(conversationID, reply, retrievalContext != "")

	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		// The conversation may have been deleted while the reply was generated.
		exists, err := tx.TouchConversation(ctx, conversationID, assistantMsg.CreatedAt)
		if err != nil {
			return err
		}
		if !exists {
			return conversationNotFound(conversationID)
		}
		if err := tx.CreateMessage(ctx, &userMsg); err != nil {
			return err
		}
		return tx.CreateMessage(ctx, &assistantMsg)
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, NewInternalError(err, "failed to save messages for conversation %s", conversationID)
	}

	s.log.Debug().
		Str("conversation_id", conversationID).
		Int("history_len", len(history)).
		Int("tokens", reply.Tokens).
		Msg("message added")

	return s.GetConversation(ctx, conversationID)
}

// ListConversationsForUser returns the user's conversations without
// messages, most recently updated first.
func (s *ConversationService) ListConversationsForUser(ctx context.Context, userID int64) ([]store.Conversation, error) {
	conversations, err := s.store.ListConversationsByUserID(ctx, userID)
	if err != nil {
		return nil, NewInternalError(err, "failed to list conversations for user %d", userID)
	}
	return conversations, nil
}

func (s *ConversationService) GetConversation(ctx context.Context, conversationID string) (*ConversationView, error) {
	conversation, err := s.store.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, NewInternalError(err, "failed to load conversation %s", conversationID)
	}
	if conversation == nil {
		return nil, conversationNotFound(conversationID)
	}

	messages, err := s.store.ListMessagesByConversationID(ctx, conversationID)
	if err != nil {
		return nil, NewInternalError(err, "failed to load messages for conversation %s", conversationID)
	}
	return &ConversationView{Conversation: *conversation, Messages: messages}, nil
}

// DeleteConversation removes the conversation's messages and then the
// conversation itself. It returns false, not an error, for an unknown id.
func (s *ConversationService) DeleteConversation(ctx context.Context, conversationID string) (bool, error) {
	unlock := s.lock(conversationID)
	defer unlock()

	var deleted bool
	var removedMessages int64
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		conversation, err := tx.GetConversationByID(ctx, conversationID)
		if err != nil || conversation == nil {
			return err
		}
		if removedMessages, err = tx.DeleteMessagesByConversationID(ctx, conversationID); err != nil {
			return err
		}
		deleted, err = tx.DeleteConversation(ctx, conversationID)
		return err
	})
	if err != nil {
		return false, NewInternalError(err, "failed to delete conversation %s", conversationID)
	}

	if deleted {
		s.log.Info().
			Str("conversation_id", conversationID).
			Int64("messages", removedMessages).
			Msg("conversation deleted")
	}
	return deleted, nil
}

// Title derives a conversation title from its first message.
func Title(firstMessage string) string {
	if utf8.RuneCountInString(firstMessage) <= titleMaxRunes {
		return firstMessage
	}
	return string([]rune(firstMessage)[:titleMaxRunes]) + titleEllipsis
}

func (s *ConversationService) generateReply(ctx context.Context, history []Turn, mode Mode, retrievalContext string) (Reply, error) {
	if s.replyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.replyTimeout)
		defer cancel()
	}

	reply, err := s.provider.GetResponse(ctx, history, mode, retrievalContext)
	if err == nil {
		return reply, nil
	}

	var coreErr *Error
	switch {
	case errors.As(err, &coreErr):
		return Reply{}, err
	case errors.Is(err, context.DeadlineExceeded):
		return Reply{}, NewUpstreamError(err, "reply provider %s timed out after %s", s.provider.Name(), s.replyTimeout)
	default:
		return Reply{}, NewUpstreamError(err, "reply provider %s failed", s.provider.Name())
	}
}

func (s *ConversationService) assistantMessage(conversationID string, reply Reply, contextUsed bool) store.Message {
	meta, _ := json.Marshal(map[string]any{
		"backend":      s.provider.Name(),
		"context_used": contextUsed,
	})
	return store.Message{
		ConversationID: conversationID,
		Role:           store.RoleAssistant,
		Content:        reply.Content,
		TokensUsed:     reply.Tokens,
		Metadata:       meta,
		CreatedAt:      s.now(),
	}
}

// checkDocumentsExist fails with a validation error listing every id in ids
// that has no document.
func (s *ConversationService) checkDocumentsExist(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	docs, err := s.store.FindDocumentsByIDs(ctx, ids)
	if err != nil {
		return NewInternalError(err, "failed to look up documents")
	}

	found := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		found[d.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	sort.Strings(missing)
	verr := NewValidationError("documents not found: %s", strings.Join(missing, ", "))
	verr.Details = map[string]any{"missing_document_ids": missing}
	return verr
}

func (s *ConversationService) lock(conversationID string) func() {
	if s.locks == nil {
		return func() {}
	}
	return s.locks.Lock(conversationID)
}

func conversationNotFound(id string) *Error {
	return NewNotFoundError("conversation with ID %s not found", id)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
