package speech

import "io"

// ASRRequest asks the provider to transcribe one utterance.
type ASRRequest struct {
	SessionID string    `json:"sessionId"`
	AudioData io.Reader `json:"-"`
	Format    string    `json:"format"` // mp3, wav, webm
	Locale    string    `json:"locale"` // hi-IN, ta-IN, ...
}

// TTSRequest asks the provider to synthesize one utterance.
type TTSRequest struct {
	SessionID string  `json:"sessionId"`
	Text      string  `json:"text"`
	Voice     string  `json:"voice"`
	Speed     float32 `json:"speed"`  // 0.5-2.0
	Format    string  `json:"format"` // mp3, wav
	Locale    string  `json:"locale"`
}
