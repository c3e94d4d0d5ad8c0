package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/socialsieve/backend/internal"
	"github.com/socialsieve/backend/internal/ai"
	"github.com/socialsieve/backend/internal/ai/anthropic"
	"github.com/socialsieve/backend/internal/ai/deepgram"
	"github.com/socialsieve/backend/internal/ai/groq"
	"github.com/socialsieve/backend/internal/ai/mock"
	"github.com/socialsieve/backend/internal/handler"
	"github.com/socialsieve/backend/internal/metrics"
	"github.com/socialsieve/backend/internal/middleware"
	"github.com/socialsieve/backend/internal/repository"
	"github.com/socialsieve/backend/internal/service"
	"github.com/socialsieve/backend/internal/storage"
	"github.com/socialsieve/backend/internal/worker"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize storage
	store, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	// Initialize AI providers
	transcriber, summarizer, err := newAIProviders(cfg, logger)
	if err != nil {
		return fmt.Errorf("AI provider initialization failed: %w", err)
	}
	logger.Info("AI providers ready",
		"transcription", cfg.TranscriptionProvider,
		"summarization", cfg.SummarizationProvider,
	)

	// Initialize services
	userService := service.NewUserService(repo, logger)
	quotaService := service.NewQuotaService(repo, logger)
	voiceService := service.NewVoiceService(repo, store, transcriber, summarizer, quotaService, logger)
	textService := service.NewTextService(repo, summarizer, quotaService, logger)

	// Start the background maintenance worker
	workerCfg := worker.DefaultConfig()
	workerCfg.Interval = cfg.WorkerInterval
	maintenance, err := worker.New(workerCfg, logger)
	if err != nil {
		return fmt.Errorf("worker initialization failed: %w", err)
	}
	maintenance.Register(worker.NewSessionCleanup(userService))
	maintenance.Start(ctx)

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(userService, logger)
	authLimiter := middleware.NewAuthRateLimiter(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService, quotaService, logger)
	voiceHandler := handler.NewVoiceHandler(voiceService, logger)
	textHandler := handler.NewTextHandler(textService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Prometheus metrics (basic auth protected)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Locally stored audio files (development only)
	if cfg.StorageProvider == storage.ProviderLocal {
		filesFS := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", filesFS))
	}

	// Middleware stack for routes requiring authentication
	requireUser := middleware.Stack(authMw.WithUser, authMw.RequireUser)

	// API routes
	authHandler.RegisterRoutes(mux, authLimiter.LimitLogin, authLimiter.LimitRegister, requireUser)
	voiceHandler.RegisterRoutes(mux, requireUser)
	textHandler.RegisterRoutes(mux, requireUser)

	// Outer middleware applied to every request
	root := middleware.Stack(
		metrics.Middleware,
		loggingMw.Handler,
		securityMw.Handler,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: root,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	maintenance.Stop()

	logger.Info("Graceful shutdown complete")
	return nil
}

// newStorage selects the storage backend from configuration.
func newStorage(cfg *internal.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.StorageProvider {
	case storage.ProviderS3:
		return storage.NewS3Storage(storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			BucketName:      cfg.S3BucketName,
			PublicURL:       cfg.S3PublicURL,
		}, logger)
	default:
		return storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
	}
}

// newAIProviders builds the transcription and summarization providers from
// configuration. Either side can be the mock provider in development.
func newAIProviders(cfg *internal.Config, logger *slog.Logger) (ai.Transcriber, ai.Summarizer, error) {
	providerCfg := ai.ProviderConfig{
		MaxRetries:     cfg.AIMaxRetries,
		RetryBaseDelay: cfg.AIRetryBaseDelay,
		RequestTimeout: cfg.AIRequestTimeout,
	}

	var transcriber ai.Transcriber
	if cfg.TranscriptionProvider == "deepgram" {
		p, err := deepgram.New(deepgram.Config{
			APIKey:         cfg.DeepgramAPIKey,
			Model:          cfg.DeepgramModel,
			ProviderConfig: providerCfg,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		transcriber = p
	} else {
		transcriber = mock.New(logger)
	}

	var summarizer ai.Summarizer
	switch cfg.SummarizationProvider {
	case "groq":
		p, err := groq.New(groq.Config{
			APIKey:         cfg.GroqAPIKey,
			Model:          cfg.GroqModel,
			ProviderConfig: providerCfg,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		summarizer = p
	case "anthropic":
		p, err := anthropic.New(anthropic.Config{
			APIKey:         cfg.AnthropicAPIKey,
			Model:          cfg.AnthropicModel,
			ProviderConfig: providerCfg,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		summarizer = p
	default:
		summarizer = mock.New(logger)
	}

	return transcriber, summarizer, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
