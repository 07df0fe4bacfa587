package speech

import (
	"bytes"
	"context"
	"errors"
	"sync"

	speechmodel "github.com/swasthya-ai/backend/internal/model/speech"
)

var ErrNoCapture = errors.New("no capture session started")

type capture struct {
	buffer bytes.Buffer
	format string
	locale string
}

// Recognizer owns the voice-input resource: one capture session per
// conversation. Starting a new capture implicitly discards the previous
// one, including any audio it buffered. A stop is best-effort and never
// flushes a partial transcript.
type Recognizer struct {
	provider Provider

	mu       sync.Mutex
	captures map[string]*capture
}

// NewRecognizer builds the recognition resource handle.
func NewRecognizer(provider Provider) *Recognizer {
	return &Recognizer{
		provider: provider,
		captures: make(map[string]*capture),
	}
}

// Start opens a capture session keyed by the conversation session and a
// locale tag. A capture already in progress is dropped.
func (r *Recognizer) Start(sessionID, format, locale string) {
	if format == "" {
		format = "wav"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.captures[sessionID] = &capture{format: format, locale: locale}
}

// Push appends an audio chunk to the open capture session.
func (r *Recognizer) Push(sessionID string, chunk []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.captures[sessionID]
	if !ok {
		return ErrNoCapture
	}
	_, err := c.buffer.Write(chunk)
	return err
}

// Finish closes the capture session and transcribes what was buffered.
func (r *Recognizer) Finish(ctx context.Context, sessionID string) (*speechmodel.ASRResponse, error) {
	r.mu.Lock()
	c, ok := r.captures[sessionID]
	delete(r.captures, sessionID)
	r.mu.Unlock()

	if !ok {
		return nil, ErrNoCapture
	}
	if c.buffer.Len() == 0 {
		return nil, errors.New("capture session is empty")
	}

	return r.provider.Transcribe(ctx, &speechmodel.ASRRequest{
		SessionID: sessionID,
		AudioData: bytes.NewReader(c.buffer.Bytes()),
		Format:    c.format,
		Locale:    c.locale,
	})
}

// Abort discards the capture session without transcribing.
func (r *Recognizer) Abort(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.captures, sessionID)
}
