package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gwi.com/botgpt/internal/metrics"
)

func NewRouter(apiHandler *APIHandler, log zerolog.Logger, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	var observer RequestObserver
	if m != nil {
		observer = m
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log, observer))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", apiHandler.HealthHandler)

		r.Post("/users", apiHandler.CreateUserHandler)
		r.Get("/users/{userID}", apiHandler.GetUserHandler)
		r.Get("/users/{userID}/conversations", apiHandler.ListUserConversationsHandler)
		r.Get("/users/{userID}/documents", apiHandler.ListUserDocumentsHandler)

		r.Post("/conversations", apiHandler.CreateConversationHandler)
		r.Get("/conversations/{conversationID}", apiHandler.GetConversationHandler)
		r.Delete("/conversations/{conversationID}", apiHandler.DeleteConversationHandler)
		r.Post("/conversations/{conversationID}/messages", apiHandler.AddMessageHandler)

		r.Post("/documents", apiHandler.CreateDocumentHandler)
	})

	return r
}
