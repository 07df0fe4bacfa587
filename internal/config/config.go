package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates all service configuration, loaded from the environment.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Database DatabaseConfig
	Speech   SpeechConfig
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parse server config: %w", err)
	}
	if err := env.Parse(&cfg.AI); err != nil {
		return nil, fmt.Errorf("parse ai config: %w", err)
	}
	if err := env.Parse(&cfg.Database); err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if err := env.Parse(&cfg.Speech); err != nil {
		return nil, fmt.Errorf("parse speech config: %w", err)
	}
	cfg.Server.normalize()
	return cfg, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `env:"PORT" envDefault:"8080"`
}

// normalize allows PORT to be "8080", ":8080" or "127.0.0.1:8080".
func (c *ServerConfig) normalize() {
	addr := strings.TrimSpace(c.Addr)
	if addr == "" {
		addr = "8080"
	}
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}
	c.Addr = addr
}

// AIConfig describes the hosted completion model.
type AIConfig struct {
	APIKey      string   `env:"ARK_API_KEY"`
	AccessKey   string   `env:"ARK_ACCESS_KEY"`
	SecretKey   string   `env:"ARK_SECRET_KEY"`
	Model       string   `env:"ARK_MODEL"`
	BaseURL     string   `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	Region      string   `env:"ARK_REGION" envDefault:"cn-beijing"`
	Temperature *float64 `env:"ARK_TEMPERATURE"`
	TopP        *float64 `env:"ARK_TOP_P"`
	MaxTokens   *int     `env:"ARK_MAX_TOKENS"`
}

// Enabled reports whether the required model credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds the Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("model credentials missing: set ARK_MODEL plus ARK_API_KEY or AK/SK")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

// DatabaseConfig describes the first-aid document store. Optional: without
// a URL the service falls back to the built-in condition set.
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL"`
}

// Enabled reports whether a database connection is configured.
func (c DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != ""
}

// SpeechConfig describes the ASR/TTS provider.
type SpeechConfig struct {
	BaseURL        string  `env:"SPEECH_BASE_URL"`
	APIKey         string  `env:"SPEECH_API_KEY"`
	ASRModel       string  `env:"SPEECH_ASR_MODEL" envDefault:"whisper-1"`
	TTSModel       string  `env:"SPEECH_TTS_MODEL" envDefault:"tts-1"`
	TTSVoice       string  `env:"SPEECH_TTS_VOICE" envDefault:"alloy"`
	TTSSpeed       float32 `env:"SPEECH_TTS_SPEED" envDefault:"1.0"`
	TimeoutSeconds int     `env:"SPEECH_TIMEOUT" envDefault:"30"`
}

// Enabled reports whether the speech provider is configured.
func (c SpeechConfig) Enabled() bool {
	return c.BaseURL != "" && c.APIKey != ""
}
