package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	chatHandler "github.com/swasthya-ai/backend/internal/handler/chat"
	facilityHandler "github.com/swasthya-ai/backend/internal/handler/facility"
	languageHandler "github.com/swasthya-ai/backend/internal/handler/language"
	speechHandler "github.com/swasthya-ai/backend/internal/handler/speech"
	"github.com/swasthya-ai/backend/internal/handler/stream"
	middlewarePkg "github.com/swasthya-ai/backend/internal/middleware"
	facilityModel "github.com/swasthya-ai/backend/internal/model/facility"
	"github.com/swasthya-ai/backend/internal/model/language"
	chatService "github.com/swasthya-ai/backend/internal/service/chat"
	"github.com/swasthya-ai/backend/internal/service/conversation"
	speechService "github.com/swasthya-ai/backend/internal/service/speech"
	"github.com/swasthya-ai/backend/pkg/utils"
)

// Deps collects everything the HTTP surface needs. Orchestrator is nil when
// no chat model is configured; the conversation routes then answer 503.
// Speech fields are nil when no speech provider is configured.
type Deps struct {
	Languages    language.Store
	Facilities   []facilityModel.Facility
	ChatSvc      *chatService.Service
	Orchestrator *conversation.Orchestrator
	SpeechSvc    *speechService.Service
	Synthesizer  *speechService.Synthesizer
	Recognizer   *speechService.Recognizer
	Logger       *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	logger := deps.Logger
	if logger == nil {
		logger = zap.L()
	}

	r.Route("/api", func(api chi.Router) {
		languageHandler.New(deps.Languages).RegisterRoutes(api)
		facilityHandler.New(deps.Facilities).RegisterRoutes(api)

		if deps.Orchestrator != nil {
			chatHandler.New(deps.ChatSvc, deps.Languages, deps.Orchestrator).RegisterRoutes(api)

			streamHandler := stream.New(deps.Orchestrator, logger)
			api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
				sessionID := chi.URLParam(r, "sessionID")
				userMessage := r.URL.Query().Get("message")

				if userMessage == "" {
					utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
					return
				}

				if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
					logger.Warn("turn stream failed",
						zap.String("session", sessionID), zap.Error(err))
				}
			})
		} else {
			unavailable := func(w http.ResponseWriter, _ *http.Request) {
				utils.RespondError(w, http.StatusServiceUnavailable, "assistant unavailable: chat model not configured")
			}
			api.Post("/session", unavailable)
			api.Get("/session/{sessionID}/messages", unavailable)
			api.Post("/session/{sessionID}/turn", unavailable)
			api.Get("/stream/{sessionID}", unavailable)
		}

		if deps.SpeechSvc != nil {
			var voice speechHandler.VoiceOutput
			if deps.Synthesizer != nil {
				voice = deps.Synthesizer
			}
			h := speechHandler.New(deps.SpeechSvc, voice, deps.ChatSvc, deps.Languages, logger)
			h.RegisterRoutes(api, deps.Orchestrator, deps.Recognizer)
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
