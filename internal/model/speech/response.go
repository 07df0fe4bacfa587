package speech

import "time"

// ASRResponse is the transcription result for one utterance.
type ASRResponse struct {
	SessionID  string    `json:"sessionId"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Duration   int64     `json:"duration"` // milliseconds
	CreatedAt  time.Time `json:"createdAt"`
}

// TTSResponse carries the synthesized audio for one utterance.
type TTSResponse struct {
	SessionID string    `json:"sessionId"`
	AudioData []byte    `json:"-"`
	Duration  int64     `json:"duration"` // milliseconds
	Format    string    `json:"format"`
	CreatedAt time.Time `json:"createdAt"`
}
