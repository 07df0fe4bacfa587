package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	speechmodel "github.com/swasthya-ai/backend/internal/model/speech"
)

// Provider is the external ASR/TTS engine, reached over REST.
type Provider interface {
	Transcribe(ctx context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error)
	Synthesize(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error)
}

// RestProvider talks to an OpenAI-compatible audio API.
type RestProvider struct {
	client   *resty.Client
	asrModel string
	ttsModel string
}

// RestProviderConfig carries the provider endpoint and model names.
type RestProviderConfig struct {
	BaseURL  string
	APIKey   string
	ASRModel string
	TTSModel string
	Timeout  time.Duration
}

// NewRestProvider builds the REST client for the speech provider.
func NewRestProvider(cfg RestProviderConfig) *RestProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetTimeout(timeout)

	return &RestProvider{
		client:   client,
		asrModel: cfg.ASRModel,
		ttsModel: cfg.TTSModel,
	}
}

// Transcribe uploads one utterance and returns its transcript.
func (p *RestProvider) Transcribe(ctx context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error) {
	if req == nil || req.AudioData == nil {
		return nil, errors.New("audio data is required")
	}

	format := req.Format
	if format == "" {
		format = "wav"
	}

	var result struct {
		Text string `json:"text"`
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetFileReader("file", "utterance."+format, req.AudioData).
		SetFormData(map[string]string{
			"model":    p.asrModel,
			"language": req.Locale,
		}).
		SetResult(&result).
		Post("/audio/transcriptions")
	if err != nil {
		return nil, fmt.Errorf("asr request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("asr provider status %d: %s", resp.StatusCode(), resp.String())
	}

	return &speechmodel.ASRResponse{
		SessionID: req.SessionID,
		Text:      result.Text,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Synthesize converts text to audio bytes.
func (p *RestProvider) Synthesize(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	if req == nil || req.Text == "" {
		return nil, errors.New("text is required")
	}

	format := req.Format
	if format == "" {
		format = "mp3"
	}

	body := map[string]any{
		"model":           p.ttsModel,
		"input":           req.Text,
		"voice":           req.Voice,
		"response_format": format,
	}
	if req.Speed > 0 {
		body["speed"] = req.Speed
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/audio/speech")
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tts provider status %d: %s", resp.StatusCode(), resp.String())
	}

	audio := resp.Body()
	if len(audio) == 0 {
		return nil, errors.New("tts provider returned empty audio")
	}

	return &speechmodel.TTSResponse{
		SessionID: req.SessionID,
		AudioData: audio,
		Format:    format,
		CreatedAt: time.Now().UTC(),
	}, nil
}
