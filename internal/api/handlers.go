package api

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gwi.com/botgpt/internal/core"
)

const conversationDeletedMessage = "Conversation deleted successfully"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type APIHandler struct {
	conversations *core.ConversationService
	accounts      *core.AccountService
	db            Pinger
	validate      *validator.Validate
	log           zerolog.Logger
}

func NewAPIHandler(conversations *core.ConversationService, accounts *core.AccountService, db Pinger, log zerolog.Logger) *APIHandler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &APIHandler{
		conversations: conversations,
		accounts:      accounts,
		db:            db,
		validate:      validate,
		log:           log,
	}
}

// decode reads a JSON body into dst and validates it. On failure it writes
// the 400 response and returns false.
func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeBadRequest(w, "Invalid request body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeBadRequest(w, validationMessage(err))
		return false
	}
	return true
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, "invalid user id")
		return 0, false
	}
	return id, true
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.log.Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type CreateUserRequest struct {
	Username string  `json:"username" validate:"required,max=255"`
	Email    *string `json:"email" validate:"omitempty,max=255"`
}

func (h *APIHandler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.accounts.CreateUser(r.Context(), req.Username, req.Email)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *APIHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.accounts.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type CreateConversationRequest struct {
	UserID      int64    `json:"user_id" validate:"required,gt=0"`
	Message     string   `json:"message" validate:"required"`
	Mode        string   `json:"mode" validate:"omitempty,oneof=open_chat rag"`
	DocumentIDs []string `json:"document_ids"`
}

func (h *APIHandler) CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if !h.decode(w, r, &req) {
		return
	}

	view, err := h.conversations.CreateConversation(r.Context(), req.UserID, req.Message, core.Mode(req.Mode), req.DocumentIDs)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

type AddMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

func (h *APIHandler) AddMessageHandler(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	var req AddMessageRequest
	if !h.decode(w, r, &req) {
		return
	}

	view, err := h.conversations.AddMessage(r.Context(), conversationID, req.Message)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *APIHandler) ListUserConversationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	conversations, err := h.conversations.ListConversationsForUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

func (h *APIHandler) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.conversations.GetConversation(r.Context(), chi.URLParam(r, "conversationID"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *APIHandler) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.conversations.DeleteConversation(r.Context(), chi.URLParam(r, "conversationID"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Conversation not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": conversationDeletedMessage})
}

type CreateDocumentRequest struct {
	UserID int64   `json:"user_id" validate:"required,gt=0"`
	Title  string  `json:"title" validate:"required,max=500"`
	URI    *string `json:"uri" validate:"omitempty,max=2048"`
}

func (h *APIHandler) CreateDocumentHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if !h.decode(w, r, &req) {
		return
	}

	doc, err := h.accounts.CreateDocument(r.Context(), req.UserID, req.Title, req.URI)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *APIHandler) ListUserDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	docs, err := h.accounts.ListDocumentsForUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}
