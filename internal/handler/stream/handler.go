package stream

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/swasthya-ai/backend/internal/service/conversation"
	"github.com/swasthya-ai/backend/pkg/utils"
)

// Handler runs one conversation turn over Server-Sent Events, surfacing
// each pipeline stage as it completes.
type Handler struct {
	orchestrator *conversation.Orchestrator
	logger       *zap.Logger
}

// New creates a stream handler.
func New(orchestrator *conversation.Orchestrator, logger *zap.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// StreamResponse is one event on the turn stream.
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest executes a turn and streams its stages: start, user
// (utterance accepted), classifier (detected condition or "none"), message
// (the full assistant reply), end. Failures emit an error event instead.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
	})

	reply, err := h.orchestrator.RunWithEvents(ctx, sessionID, userMessage, func(stage, content string) {
		h.sendSSE(w, flusher, StreamResponse{
			Event:     stage,
			SessionID: sessionID,
			Content:   content,
		})
	})
	if err != nil {
		h.sendSSE(w, flusher, StreamResponse{
			Event:     "error",
			SessionID: sessionID,
			Error:     err.Error(),
		})
		return err
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   reply.Content,
	})
	h.sendSSE(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	h.logger.Info("turn stream completed", zap.String("session", sessionID))
	return nil
}

func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}
