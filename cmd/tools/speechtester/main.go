// Command speechtester exercises the configured ASR/TTS provider from the
// command line, outside the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/swasthya-ai/backend/internal/config"
	speechmodel "github.com/swasthya-ai/backend/internal/model/speech"
	speechsvc "github.com/swasthya-ai/backend/internal/service/speech"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] no .env file, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration failed: %v", err)
	}

	if !cfg.Speech.Enabled() {
		log.Fatal("speech provider not configured: set SPEECH_BASE_URL and SPEECH_API_KEY")
	}

	mode := flag.String("mode", "", "test mode: asr or tts")
	audioPath := flag.String("audio", "", "ASR input audio file path")
	text := flag.String("text", "", "TTS input text")
	outputPath := flag.String("out", "", "TTS output path (derived from format when empty)")
	format := flag.String("format", "", "audio format (ASR input / TTS output)")
	locale := flag.String("locale", "hi-IN", "speech locale tag")
	session := flag.String("session", "", "custom sessionID, auto-generated when empty")
	timeout := flag.Duration("timeout", 45*time.Second, "request timeout")

	flag.Parse()

	if *mode != "asr" && *mode != "tts" {
		flag.Usage()
		log.Fatal("specify -mode=asr or -mode=tts")
	}

	sessionID := *session
	if sessionID == "" {
		sessionID = fmt.Sprintf("manual-%d", time.Now().UnixNano())
	}

	provider := speechsvc.NewRestProvider(speechsvc.RestProviderConfig{
		BaseURL:  cfg.Speech.BaseURL,
		APIKey:   cfg.Speech.APIKey,
		ASRModel: cfg.Speech.ASRModel,
		TTSModel: cfg.Speech.TTSModel,
		Timeout:  *timeout,
	})
	svc := speechsvc.NewService(provider, cfg.Speech.TTSVoice, cfg.Speech.TTSSpeed)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "asr":
		runASR(ctx, svc, sessionID, *audioPath, *format, *locale)
	case "tts":
		runTTS(ctx, svc, sessionID, *text, *outputPath, *format, *locale)
	}
}

func runASR(ctx context.Context, svc *speechsvc.Service, sessionID, audioPath, format, locale string) {
	if audioPath == "" {
		log.Fatal("-audio is required in asr mode")
	}

	data, err := os.ReadFile(audioPath)
	if err != nil {
		log.Fatalf("read audio file failed: %v", err)
	}

	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(audioPath), ".")
	}

	resp, err := svc.TranscribeBuffer(ctx, sessionID, data, format, locale)
	if err != nil {
		log.Fatalf("transcription failed: %v", err)
	}

	fmt.Printf("session: %s\ntranscript: %s\n", sessionID, resp.Text)
}

func runTTS(ctx context.Context, svc *speechsvc.Service, sessionID, text, outputPath, format, locale string) {
	if text == "" {
		log.Fatal("-text is required in tts mode")
	}

	resp, err := svc.SynthesizeSpeech(ctx, &speechmodel.TTSRequest{
		SessionID: sessionID,
		Text:      speechsvc.StripMarkdown(text),
		Format:    format,
		Locale:    locale,
	})
	if err != nil {
		log.Fatalf("synthesis failed: %v", err)
	}

	if len(resp.AudioData) == 0 {
		log.Fatal("provider returned no audio")
	}

	if format == "" {
		format = resp.Format
		if format == "" {
			format = "mp3"
		}
	}
	if outputPath == "" {
		outputPath = fmt.Sprintf("tts-%s.%s", sessionID, format)
	}

	if err := os.WriteFile(outputPath, resp.AudioData, 0o644); err != nil {
		log.Fatalf("write output failed: %v", err)
	}

	fmt.Printf("session: %s\nwrote %d bytes to %s\n", sessionID, len(resp.AudioData), outputPath)
}
