package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swasthya-ai/backend/internal/model/language"
	chatservice "github.com/swasthya-ai/backend/internal/service/chat"
	"github.com/swasthya-ai/backend/internal/service/conversation"
	"github.com/swasthya-ai/backend/pkg/utils"
)

// Handler exposes the conversation over plain REST: session creation, the
// transcript, and one blocking turn per request.
type Handler struct {
	chatSvc      *chatservice.Service
	languages    language.Store
	orchestrator *conversation.Orchestrator
}

// New creates the chat handler.
func New(chatSvc *chatservice.Service, languages language.Store, orchestrator *conversation.Orchestrator) *Handler {
	return &Handler{
		chatSvc:      chatSvc,
		languages:    languages,
		orchestrator: orchestrator,
	}
}

// RegisterRoutes registers chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}/messages", h.handleListMessages)
	r.Post("/session/{sessionID}/turn", h.handleTurn)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		LanguageCode   string `json:"languageCode"`
		MedicalHistory string `json:"medicalHistory"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.LanguageCode == "" {
		utils.RespondError(w, http.StatusBadRequest, "languageCode is required")
		return
	}
	if _, ok := h.languages.FindByCode(payload.LanguageCode); !ok {
		utils.RespondError(w, http.StatusBadRequest, "unsupported language")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.LanguageCode, payload.MedicalHistory)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	greetingMsg, err := h.orchestrator.Greet(r.Context(), session.ID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to seed greeting")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"session":  session,
		"greeting": greetingMsg,
	})
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, messages)
}

func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.orchestrator.Run(r.Context(), sessionID, payload.Message)
	if err != nil {
		utils.RespondError(w, turnStatus(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

func turnStatus(err error) int {
	switch {
	case errors.Is(err, conversation.ErrEmptyUtterance):
		return http.StatusBadRequest
	case errors.Is(err, chatservice.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatservice.ErrTurnInFlight):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
