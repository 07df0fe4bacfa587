package speech

import (
	"bytes"
	"context"

	speechmodel "github.com/swasthya-ai/backend/internal/model/speech"
)

// Service is the speech facade used by HTTP and WebSocket handlers.
type Service struct {
	provider Provider
	voice    string
	speed    float32
}

// NewService wraps a provider with the configured default voice.
func NewService(provider Provider, voice string, speed float32) *Service {
	return &Service{provider: provider, voice: voice, speed: speed}
}

// TranscribeAudio converts one recorded utterance to text.
func (s *Service) TranscribeAudio(ctx context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error) {
	return s.provider.Transcribe(ctx, req)
}

// SynthesizeSpeech converts text to audio.
func (s *Service) SynthesizeSpeech(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	if req.Voice == "" {
		req.Voice = s.voice
	}
	if req.Speed == 0 {
		req.Speed = s.speed
	}
	return s.provider.Synthesize(ctx, req)
}

// TranscribeBuffer transcribes an in-memory audio buffer.
func (s *Service) TranscribeBuffer(ctx context.Context, sessionID string, audioData []byte, format, locale string) (*speechmodel.ASRResponse, error) {
	req := &speechmodel.ASRRequest{
		SessionID: sessionID,
		AudioData: bytes.NewReader(audioData),
		Format:    format,
		Locale:    locale,
	}
	return s.TranscribeAudio(ctx, req)
}

// SynthesizeToBuffer synthesizes text and returns the audio bytes. Markdown
// markers are stripped so formatting does not leak into the voice output.
func (s *Service) SynthesizeToBuffer(ctx context.Context, sessionID, text, locale string) (*speechmodel.TTSResponse, error) {
	req := &speechmodel.TTSRequest{
		SessionID: sessionID,
		Text:      StripMarkdown(text),
		Locale:    locale,
	}
	return s.SynthesizeSpeech(ctx, req)
}
