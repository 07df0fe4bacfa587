package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	speechmodel "github.com/swasthya-ai/backend/internal/model/speech"
	speechsvc "github.com/swasthya-ai/backend/internal/service/speech"
)

type recordingProvider struct {
	lastTTS *speechmodel.TTSRequest
}

func (p *recordingProvider) Transcribe(context.Context, *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error) {
	return nil, errors.New("not used")
}

func (p *recordingProvider) Synthesize(_ context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	p.lastTTS = req
	return &speechmodel.TTSResponse{
		SessionID: req.SessionID,
		AudioData: []byte("riff-bytes"),
		Format:    req.Format,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func TestRunTTSForwardsRequestedFormat(t *testing.T) {
	provider := &recordingProvider{}
	svc := speechsvc.NewService(provider, "anushka", 1.0)
	out := filepath.Join(t.TempDir(), "out.wav")

	runTTS(context.Background(), svc, "manual-1", "hello **there**", out, "wav", "hi-IN")

	if provider.lastTTS == nil {
		t.Fatal("provider never received a synthesis request")
	}
	if provider.lastTTS.Format != "wav" {
		t.Fatalf("expected wav format at the provider, got %q", provider.lastTTS.Format)
	}
	if provider.lastTTS.Text != "hello there" {
		t.Fatalf("expected markdown stripped, got %q", provider.lastTTS.Text)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "riff-bytes" {
		t.Fatalf("unexpected output bytes: %q", data)
	}
}
