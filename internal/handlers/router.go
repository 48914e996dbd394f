package handlers

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appmiddleware "roleplaychat/internal/middleware"
)

// Deps are the constructed handlers the router mounts.
type Deps struct {
	Health        *HealthHandler
	Characters    *CharacterHandler
	Conversations *ConversationHandler
	Personas      *PersonaHandler
	Chat          *ChatHandler
	WorldState    *WorldStateHandler
	Prompts       *PromptHandler
	Scenarios     *ScenarioHandler
	Events        *EventsHandler
	Logger        *slog.Logger
}

// NewRouter mounts the API under /v1.
func NewRouter(d Deps) *chi.Mux {
	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.RequestID)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Recoverer)
	router.Use(appmiddleware.RequestLogger(d.Logger))

	router.Get("/healthz", d.Health.ServeHTTP)

	router.Route("/v1", func(r chi.Router) {
		r.Route("/characters", func(r chi.Router) {
			r.Get("/", d.Characters.List)
			r.Post("/", d.Characters.Create)
			r.Get("/{characterID}", d.Characters.Get)
			r.Put("/{characterID}", d.Characters.Update)
			r.Delete("/{characterID}", d.Characters.Delete)
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", d.Conversations.List)
			r.Post("/", d.Conversations.Create)
			r.Get("/{conversationID}", d.Conversations.Get)
			r.Delete("/{conversationID}", d.Conversations.Delete)
			r.Put("/{conversationID}/scenario", d.Conversations.UpdateScenario)
			r.Post("/{conversationID}/reset", d.Conversations.Reset)
			r.Get("/{conversationID}/messages", d.Conversations.Messages)

			r.Post("/{conversationID}/chat", d.Chat.Chat)
			r.Post("/{conversationID}/impersonate", d.Chat.Impersonate)
			r.Post("/{conversationID}/narrate", d.Chat.Narrate)
			r.Post("/{conversationID}/scene", d.Chat.Scene)

			r.Get("/{conversationID}/worldstate", d.WorldState.Get)
			r.Put("/{conversationID}/worldstate", d.WorldState.Put)
			r.Post("/{conversationID}/worldstate/refresh", d.WorldState.Refresh)

			r.Get("/{conversationID}/events", d.Events.ServeHTTP)
		})

		r.Delete("/messages/{messageID}", d.Conversations.DeleteMessage)

		r.Route("/personas", func(r chi.Router) {
			r.Get("/", d.Personas.List)
			r.Post("/", d.Personas.Create)
			r.Get("/active", d.Personas.Active)
			r.Post("/{personaID}/activate", d.Personas.Activate)
		})

		r.Route("/prompts", func(r chi.Router) {
			r.Get("/logs", d.Prompts.Logs)
			r.Get("/{category}", d.Prompts.Get)
			r.Put("/{category}", d.Prompts.Put)
			r.Delete("/{category}", d.Prompts.Reset)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", d.Scenarios.List)
			r.Get("/{filename}", d.Scenarios.Get)
		})
	})

	return router
}
