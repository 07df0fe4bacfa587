package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/swasthya-ai/backend/internal/model/language"
	speechmodel "github.com/swasthya-ai/backend/internal/model/speech"
	chatservice "github.com/swasthya-ai/backend/internal/service/chat"
	"github.com/swasthya-ai/backend/internal/service/conversation"
	speechsvc "github.com/swasthya-ai/backend/internal/service/speech"
	"github.com/swasthya-ai/backend/pkg/utils"
)

// SpeechService abstracts the speech pipeline for testing.
type SpeechService interface {
	TranscribeAudio(ctx context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error)
	SynthesizeSpeech(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error)
	TranscribeBuffer(ctx context.Context, sessionID string, audioData []byte, format, locale string) (*speechmodel.ASRResponse, error)
	SynthesizeToBuffer(ctx context.Context, sessionID, text, locale string) (*speechmodel.TTSResponse, error)
}

// VoiceOutput is the read-back resource: the most recent synthesized
// utterance per session, with best-effort cancellation.
type VoiceOutput interface {
	Latest(sessionID string) (speechsvc.Utterance, bool)
	Cancel(sessionID string)
}

// Handler exposes speech recognition and synthesis over REST.
type Handler struct {
	speechSvc SpeechService
	voice     VoiceOutput
	chatSvc   *chatservice.Service
	languages language.Store
	logger    *zap.Logger
}

// New creates the speech handler. voice may be nil when no synthesizer is
// configured; the utterance routes then report 404.
func New(speechSvc SpeechService, voice VoiceOutput, chatSvc *chatservice.Service, languages language.Store, logger *zap.Logger) *Handler {
	return &Handler{
		speechSvc: speechSvc,
		voice:     voice,
		chatSvc:   chatSvc,
		languages: languages,
		logger:    logger,
	}
}

// RegisterRoutes registers speech routes. The websocket voice loop is only
// mounted when a conversation pipeline is available.
func (h *Handler) RegisterRoutes(r chi.Router, orchestrator *conversation.Orchestrator, recognizer *speechsvc.Recognizer) {
	r.Route("/speech", func(speechRouter chi.Router) {
		speechRouter.Post("/transcribe", h.handleTranscribe)
		speechRouter.Post("/transcribe/{sessionID}", h.handleTranscribeWithSession)

		speechRouter.Post("/synthesize", h.handleSynthesize)
		speechRouter.Post("/synthesize/{sessionID}", h.handleSynthesizeWithSession)

		speechRouter.Get("/utterance/{sessionID}", h.handleLatestUtterance)
		speechRouter.Post("/utterance/{sessionID}/cancel", h.handleCancelUtterance)

		speechRouter.Get("/health", h.handleHealth)

		if orchestrator != nil && recognizer != nil && h.chatSvc != nil {
			wsHandler := NewWebSocketHandler(h.speechSvc, recognizer, orchestrator, h.chatSvc, h.languages, h.logger)
			wsHandler.RegisterWebSocketRoutes(speechRouter)
		} else {
			speechRouter.Get("/ws/{sessionID}", func(w http.ResponseWriter, _ *http.Request) {
				utils.RespondError(w, http.StatusNotImplemented, "speech websocket not available")
			})
		}
	})
}

func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	h.processTranscribe(w, r, "")
}

func (h *Handler) handleTranscribeWithSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionID is required")
		return
	}
	h.processTranscribe(w, r, sessionID)
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	h.processSynthesize(w, r, "")
}

func (h *Handler) handleSynthesizeWithSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionID is required")
		return
	}
	h.processSynthesize(w, r, sessionID)
}

func (h *Handler) processTranscribe(w http.ResponseWriter, r *http.Request, overrideSessionID string) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	sessionID := overrideSessionID
	if sessionID == "" {
		sessionID = r.FormValue("sessionId")
	}
	if sessionID == "" {
		sessionID = "default"
	}

	locale := r.FormValue("locale")
	if locale == "" {
		locale = h.resolveLocale(r.Context(), sessionID)
	}

	resp, err := h.speechSvc.TranscribeAudio(r.Context(), &speechmodel.ASRRequest{
		SessionID: sessionID,
		AudioData: file,
		Format:    inferAudioFormat(header.Filename),
		Locale:    locale,
	})
	if err != nil {
		h.logger.Warn("transcription failed", zap.String("session", sessionID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "speech recognition failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) processSynthesize(w http.ResponseWriter, r *http.Request, overrideSessionID string) {
	var req speechmodel.TTSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if overrideSessionID != "" {
		req.SessionID = overrideSessionID
	}
	if strings.TrimSpace(req.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}
	if req.Locale == "" {
		req.Locale = h.resolveLocale(r.Context(), req.SessionID)
	}

	resp, err := h.speechSvc.SynthesizeSpeech(r.Context(), &req)
	if err != nil {
		h.logger.Warn("synthesis failed", zap.String("session", req.SessionID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "speech synthesis failed")
		return
	}

	writeAudio(w, resp.AudioData, resp.Format)
}

// handleLatestUtterance returns the audio of the most recent assistant reply
// voiced for the session.
func (h *Handler) handleLatestUtterance(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if h.voice == nil {
		utils.RespondError(w, http.StatusNotFound, "voice output not configured")
		return
	}

	utterance, ok := h.voice.Latest(sessionID)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "no utterance available")
		return
	}

	writeAudio(w, utterance.AudioData, utterance.Format)
}

func (h *Handler) handleCancelUtterance(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if h.voice != nil {
		h.voice.Cancel(sessionID)
	}
	utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "cancelled"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "speech",
	})
}

// resolveLocale maps the session's language to its speech locale. Sessions
// without a known language fall back to the first supported one.
func (h *Handler) resolveLocale(ctx context.Context, sessionID string) string {
	if h.chatSvc != nil && h.languages != nil {
		if session, err := h.chatSvc.GetSession(ctx, sessionID); err == nil {
			if lang, ok := h.languages.FindByCode(session.LanguageCode); ok {
				return lang.Locale
			}
		}
	}
	if h.languages != nil {
		if all := h.languages.List(); len(all) > 0 {
			return all[0].Locale
		}
	}
	return "hi-IN"
}

func writeAudio(w http.ResponseWriter, audio []byte, format string) {
	if len(audio) == 0 {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "empty"})
		return
	}
	if format == "" {
		format = "octet-stream"
	}
	w.Header().Set("Content-Type", "audio/"+format)
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.Header().Set("Content-Disposition", "attachment; filename=speech."+format)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		zap.L().Warn("write audio response failed", zap.Error(err))
	}
}

func inferAudioFormat(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3":
		return "mp3"
	case ".wav":
		return "wav"
	case ".webm":
		return "webm"
	case ".m4a":
		return "m4a"
	case ".aac":
		return "aac"
	default:
		return "wav"
	}
}
