package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/swasthya-ai/backend/internal/model/language"
	chatservice "github.com/swasthya-ai/backend/internal/service/chat"
	"github.com/swasthya-ai/backend/internal/service/conversation"
	speechsvc "github.com/swasthya-ai/backend/internal/service/speech"
)

// WebSocketHandler runs the full voice loop over one connection: buffered
// audio in, transcript plus assistant reply plus synthesized audio out.
type WebSocketHandler struct {
	speechSvc    SpeechService
	recognizer   *speechsvc.Recognizer
	orchestrator *conversation.Orchestrator
	chatSvc      *chatservice.Service
	languages    language.Store
	logger       *zap.Logger
	upgrader     websocket.Upgrader
}

// NewWebSocketHandler creates the websocket voice handler.
func NewWebSocketHandler(speechSvc SpeechService, recognizer *speechsvc.Recognizer, orchestrator *conversation.Orchestrator, chatSvc *chatservice.Service, languages language.Store, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		speechSvc:    speechSvc,
		recognizer:   recognizer,
		orchestrator: orchestrator,
		chatSvc:      chatSvc,
		languages:    languages,
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes registers the websocket route.
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// AudioMessage carries one recorded chunk. IsFinal marks the end of the
// utterance and triggers transcription of everything buffered so far.
type AudioMessage struct {
	AudioData  []byte `json:"audioData"`
	Format     string `json:"format"`
	Locale     string `json:"locale"`
	IsFinal    bool   `json:"isFinal"`
	ChunkIndex int    `json:"chunkIndex"`
}

// TextMessage carries a typed utterance, bypassing recognition.
type TextMessage struct {
	Text string `json:"text"`
}

// ConfigMessage adjusts per-connection voice settings.
type ConfigMessage struct {
	Locale     string `json:"locale"`
	Format     string `json:"format"`
	ASREnabled *bool  `json:"asrEnabled,omitempty"`
	TTSEnabled *bool  `json:"ttsEnabled,omitempty"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// safeConn serializes writes to one websocket connection. gorilla/websocket
// permits at most one concurrent writer, and the ping loop writes alongside
// the read loop's responses.
type safeConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *safeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *safeConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

type connectionState struct {
	sessionID   string
	locale      string
	audioFormat string
	asrEnabled  bool
	ttsEnabled  bool
	capturing   bool
}

func newConnectionState(sessionID, locale string) *connectionState {
	return &connectionState{
		sessionID:  sessionID,
		locale:     locale,
		asrEnabled: true,
		ttsEnabled: true,
	}
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	locale := "hi-IN"
	if lang, ok := h.languages.FindByCode(session.LanguageCode); ok {
		locale = lang.Locale
	}
	state := newConnectionState(sessionID, locale)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	defer h.recognizer.Abort(sessionID)

	h.logger.Info("voice connection opened", zap.String("session", sessionID))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	out := &safeConn{conn: conn}

	go h.pingLoop(ctx, out)

	h.sendInfo(out, sessionID, map[string]any{
		"type":   "connected",
		"locale": state.locale,
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Warn("websocket read failed", zap.String("session", sessionID), zap.Error(err))
				}
				return
			}

			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			if msg.SessionID != "" && msg.SessionID != sessionID {
				h.sendError(out, "session mismatch")
				continue
			}

			h.handleMessage(ctx, out, state, &msg)
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *safeConn, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "audio":
		h.handleAudioMessage(ctx, conn, state, msg.Data)
	case "text":
		h.handleTextMessage(ctx, conn, state, msg.Data)
	case "config":
		h.handleConfigMessage(conn, state, msg.Data)
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) handleAudioMessage(ctx context.Context, conn *safeConn, state *connectionState, raw json.RawMessage) {
	if !state.asrEnabled {
		h.sendInfo(conn, state.sessionID, map[string]any{"type": "asr", "enabled": false})
		return
	}

	var audio AudioMessage
	if err := json.Unmarshal(raw, &audio); err != nil {
		h.sendError(conn, "invalid audio payload")
		return
	}

	if audio.Format != "" {
		state.audioFormat = audio.Format
	}
	if audio.Locale != "" {
		state.locale = audio.Locale
	}

	if len(audio.AudioData) > 0 {
		if !state.capturing {
			h.recognizer.Start(state.sessionID, state.audioFormat, state.locale)
			state.capturing = true
		}
		if err := h.recognizer.Push(state.sessionID, audio.AudioData); err != nil {
			h.sendError(conn, fmt.Sprintf("audio buffering failed: %v", err))
			return
		}
	}

	if audio.IsFinal {
		h.finishCapture(ctx, conn, state)
	}
}

// finishCapture transcribes the buffered utterance and feeds it through the
// conversation pipeline.
func (h *WebSocketHandler) finishCapture(ctx context.Context, conn *safeConn, state *connectionState) {
	if !state.capturing {
		return
	}
	state.capturing = false

	asrResp, err := h.recognizer.Finish(ctx, state.sessionID)
	if err != nil {
		if errors.Is(err, speechsvc.ErrNoCapture) {
			return
		}
		h.sendError(conn, fmt.Sprintf("speech recognition failed: %v", err))
		return
	}

	h.sendInfo(conn, state.sessionID, map[string]any{
		"type":    "asr",
		"text":    asrResp.Text,
		"isFinal": true,
	})

	if asrResp.Text == "" {
		return
	}

	h.runTurn(ctx, conn, state, asrResp.Text)
}

func (h *WebSocketHandler) handleTextMessage(ctx context.Context, conn *safeConn, state *connectionState, raw json.RawMessage) {
	var text TextMessage
	if err := json.Unmarshal(raw, &text); err != nil {
		h.sendError(conn, "invalid text payload")
		return
	}
	if text.Text == "" {
		return
	}

	h.runTurn(ctx, conn, state, text.Text)
}

// runTurn drives one conversation turn and voices the reply inline on the
// connection.
func (h *WebSocketHandler) runTurn(ctx context.Context, conn *safeConn, state *connectionState, userText string) {
	reply, err := h.orchestrator.RunWithEvents(ctx, state.sessionID, userText, func(stage, content string) {
		h.sendInfo(conn, state.sessionID, map[string]any{
			"type":    stage,
			"content": content,
		})
	})
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}

	h.sendInfo(conn, state.sessionID, map[string]any{
		"type":    "assistant",
		"text":    reply.Content,
		"isFinal": true,
	})

	if state.ttsEnabled {
		h.sendTTS(ctx, conn, state, reply.Content)
	}
}

func (h *WebSocketHandler) sendTTS(ctx context.Context, conn *safeConn, state *connectionState, text string) {
	ttsResp, err := h.speechSvc.SynthesizeToBuffer(ctx, state.sessionID, text, state.locale)
	if err != nil {
		h.logger.Warn("websocket synthesis failed", zap.String("session", state.sessionID), zap.Error(err))
		h.sendInfo(conn, state.sessionID, map[string]any{
			"type":  "tts",
			"error": "synthesis failed",
		})
		return
	}

	if len(ttsResp.AudioData) == 0 {
		return
	}

	h.sendInfo(conn, state.sessionID, map[string]any{
		"type":      "tts",
		"audioData": base64.StdEncoding.EncodeToString(ttsResp.AudioData),
		"format":    ttsResp.Format,
		"isFinal":   true,
	})
}

func (h *WebSocketHandler) handleConfigMessage(conn *safeConn, state *connectionState, raw json.RawMessage) {
	var cfg ConfigMessage
	if err := json.Unmarshal(raw, &cfg); err != nil {
		h.sendError(conn, "invalid config payload")
		return
	}

	applyConfig(state, cfg)

	h.sendInfo(conn, state.sessionID, map[string]any{
		"type":   "config",
		"locale": state.locale,
		"format": state.audioFormat,
		"asr":    state.asrEnabled,
		"tts":    state.ttsEnabled,
	})
}

func applyConfig(state *connectionState, cfg ConfigMessage) {
	if cfg.Locale != "" {
		state.locale = cfg.Locale
	}
	if cfg.Format != "" {
		state.audioFormat = cfg.Format
	}
	if cfg.ASREnabled != nil {
		state.asrEnabled = *cfg.ASREnabled
	}
	if cfg.TTSEnabled != nil {
		state.ttsEnabled = *cfg.TTSEnabled
	}
}

func (h *WebSocketHandler) sendInfo(conn *safeConn, sessionID string, data map[string]any) {
	msg := outgoingMessage{
		Type:      "result",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn("websocket write failed", zap.Error(err))
	}
}

func (h *WebSocketHandler) sendError(conn *safeConn, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn("websocket write failed", zap.Error(err))
	}
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *safeConn) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				return
			}
		}
	}
}
