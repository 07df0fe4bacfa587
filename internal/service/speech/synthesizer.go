package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	speechmodel "github.com/swasthya-ai/backend/internal/model/speech"
)

// Utterance is the last fully synthesized assistant reply for a session,
// retrievable until the next Speak replaces it.
type Utterance struct {
	Text      string `json:"text"`
	Locale    string `json:"locale"`
	AudioData []byte `json:"-"`
	Format    string `json:"format"`
}

type activeEntry struct {
	cancel context.CancelFunc
}

// Synthesizer owns the voice-output resource: at most one synthesis
// utterance is active per session, and starting a new one cancels the
// previous (last write wins, no queueing). It implements the
// orchestrator's Speaker port.
type Synthesizer struct {
	provider Provider
	voice    string
	speed    float32
	timeout  time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	active map[string]*activeEntry
	latest map[string]*Utterance
	wg     sync.WaitGroup
}

// NewSynthesizer builds the synthesis resource handle.
func NewSynthesizer(provider Provider, voice string, speed float32, timeout time.Duration, logger *zap.Logger) *Synthesizer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Synthesizer{
		provider: provider,
		voice:    voice,
		speed:    speed,
		timeout:  timeout,
		logger:   logger,
		active:   make(map[string]*activeEntry),
		latest:   make(map[string]*Utterance),
	}
}

// Speak synthesizes text asynchronously. Any utterance still in flight for
// the session is cancelled first (best-effort stop). Failures are logged
// and swallowed: voice output never affects the transcript.
func (s *Synthesizer) Speak(_ context.Context, sessionID, text, locale string) {
	clean := strings.TrimSpace(StripMarkdown(text))
	if clean == "" {
		return
	}

	// Synthesis outlives the HTTP request that triggered it, so it runs on
	// its own deadline rather than the request context.
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	entry := &activeEntry{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.active[sessionID]; ok {
		prev.cancel()
	}
	s.active[sessionID] = entry
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		resp, err := s.provider.Synthesize(ctx, &speechmodel.TTSRequest{
			SessionID: sessionID,
			Text:      clean,
			Voice:     s.voice,
			Speed:     s.speed,
			Locale:    locale,
		})

		s.mu.Lock()
		defer s.mu.Unlock()

		current := s.active[sessionID] == entry
		if current {
			delete(s.active, sessionID)
		}
		if !current {
			// Superseded by a newer utterance; discard whatever happened.
			return
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Warn("speech synthesis failed",
				zap.String("session", sessionID), zap.Error(err))
			return
		}
		s.latest[sessionID] = &Utterance{
			Text:      clean,
			Locale:    locale,
			AudioData: resp.AudioData,
			Format:    resp.Format,
		}
	}()
}

// Cancel stops any in-flight synthesis for the session (best effort).
func (s *Synthesizer) Cancel(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.active[sessionID]; ok {
		entry.cancel()
		delete(s.active, sessionID)
	}
}

// Latest returns the most recently completed utterance for the session.
func (s *Synthesizer) Latest(sessionID string) (Utterance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	utterance, ok := s.latest[sessionID]
	if !ok {
		return Utterance{}, false
	}
	return *utterance, true
}

// Flush waits for all in-flight synthesis to finish. Used on shutdown and
// in tests.
func (s *Synthesizer) Flush() {
	s.wg.Wait()
}
