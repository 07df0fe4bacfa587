package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/swasthya-ai/backend/internal/config"
	"github.com/swasthya-ai/backend/internal/db"
	"github.com/swasthya-ai/backend/internal/handler"
	"github.com/swasthya-ai/backend/internal/model/facility"
	"github.com/swasthya-ai/backend/internal/model/language"
	"github.com/swasthya-ai/backend/internal/repository"
	chatservice "github.com/swasthya-ai/backend/internal/service/chat"
	"github.com/swasthya-ai/backend/internal/service/conversation"
	"github.com/swasthya-ai/backend/internal/service/firstaid"
	speechsvc "github.com/swasthya-ai/backend/internal/service/speech"
	"github.com/swasthya-ai/backend/internal/service/triage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file, using system environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load configuration failed", zap.Error(err))
	}

	languages := language.NewMemoryStore(language.Seed())
	chatService := chatservice.NewService()

	conditions := buildConditionRepository(ctx, cfg, logger)

	var orchestrator *conversation.Orchestrator
	speechService, synthesizer, recognizer := buildSpeech(cfg, logger)

	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			logger.Warn("chat model initialization failed, conversation routes disabled", zap.Error(err))
		} else {
			classifier, err := triage.NewClassifier(ctx, chatModel, logger)
			if err != nil {
				logger.Fatal("build symptom classifier failed", zap.Error(err))
			}
			advisor, err := firstaid.NewAdvisor(ctx, conditions, chatModel, logger)
			if err != nil {
				logger.Fatal("build first-aid advisor failed", zap.Error(err))
			}

			var speaker conversation.Speaker
			if synthesizer != nil {
				speaker = synthesizer
			}
			orchestrator = conversation.NewOrchestrator(chatService, languages, classifier, advisor, speaker, logger)
			logger.Info("conversation pipeline initialized", zap.String("model", cfg.AI.Model))
		}
	} else {
		logger.Warn("chat model credentials not configured, conversation routes disabled")
	}

	router := handler.NewRouter(handler.Deps{
		Languages:    languages,
		Facilities:   facility.Seed(),
		ChatSvc:      chatService,
		Orchestrator: orchestrator,
		SpeechSvc:    speechService,
		Synthesizer:  synthesizer,
		Recognizer:   recognizer,
		Logger:       logger,
	})

	startServer(ctx, cfg.Server, router, logger)

	if synthesizer != nil {
		synthesizer.Flush()
	}
}

// buildConditionRepository prefers the configured document store and falls
// back to the built-in condition set.
func buildConditionRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) repository.ConditionRepository {
	if cfg.Database.Enabled() {
		pool, err := db.NewPool(ctx, cfg.Database.URL)
		if err == nil {
			err = db.Ping(ctx, pool)
		}
		if err != nil {
			logger.Warn("database connection failed, using built-in conditions", zap.Error(err))
		} else {
			logger.Info("condition repository backed by database")
			return repository.NewPgConditionRepository(pool)
		}
	} else {
		logger.Info("DATABASE_URL not set, using built-in conditions")
	}
	return repository.NewMemoryConditionRepository(repository.DefaultConditions())
}

func buildSpeech(cfg *config.Config, logger *zap.Logger) (*speechsvc.Service, *speechsvc.Synthesizer, *speechsvc.Recognizer) {
	if !cfg.Speech.Enabled() {
		logger.Warn("speech provider not configured, voice features disabled")
		return nil, nil, nil
	}

	timeout := time.Duration(cfg.Speech.TimeoutSeconds) * time.Second
	provider := speechsvc.NewRestProvider(speechsvc.RestProviderConfig{
		BaseURL:  cfg.Speech.BaseURL,
		APIKey:   cfg.Speech.APIKey,
		ASRModel: cfg.Speech.ASRModel,
		TTSModel: cfg.Speech.TTSModel,
		Timeout:  timeout,
	})

	service := speechsvc.NewService(provider, cfg.Speech.TTSVoice, cfg.Speech.TTSSpeed)
	synthesizer := speechsvc.NewSynthesizer(provider, cfg.Speech.TTSVoice, cfg.Speech.TTSSpeed, timeout, logger)
	recognizer := speechsvc.NewRecognizer(provider)

	logger.Info("speech service initialized",
		zap.String("asr_model", cfg.Speech.ASRModel),
		zap.String("tts_model", cfg.Speech.TTSModel))
	return service, synthesizer, recognizer
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("listening", zap.String("addr", serverCfg.Addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
