// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vidiria/verilo-ai/internal/config"
	"github.com/vidiria/verilo-ai/internal/events"
	"github.com/vidiria/verilo-ai/internal/handler"
	"github.com/vidiria/verilo-ai/internal/job"
	"github.com/vidiria/verilo-ai/internal/middleware"
	"github.com/vidiria/verilo-ai/internal/provider"
	"github.com/vidiria/verilo-ai/internal/service"
	"github.com/vidiria/verilo-ai/internal/speech"
	"github.com/vidiria/verilo-ai/internal/store"
	"github.com/vidiria/verilo-ai/pkg/logger"
	"github.com/vidiria/verilo-ai/pkg/tracing"
)

func main() {
	// Load .env for local development before reading configuration
	_ = godotenv.Load()
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting Verilo API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "verilo-ai", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect the exchange audit stream when configured
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		publisher, err = events.Connect(ctx, events.Config{
			URL:   cfg.NATSURL,
			Token: cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("failed to connect event stream, audit events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
		}
	}

	// Persistence backend
	var repo store.Repository
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		repo = store.NewRedisRepository(rdb)
	}

	// Provider adapters; families without credentials stay unregistered and
	// their models fail request validation.
	var adapters []provider.Adapter
	if cfg.OpenAIAPIKey != "" {
		a, err := provider.NewOpenAIAdapter(cfg.OpenAIAPIKey)
		if err != nil {
			log.Warn("failed to create OpenAI adapter", zap.Error(err))
		} else {
			adapters = append(adapters, a)
		}
	}
	if cfg.AnthropicAPIKey != "" {
		a, err := provider.NewAnthropicAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			log.Warn("failed to create Anthropic adapter", zap.Error(err))
		} else {
			adapters = append(adapters, a)
		}
	}
	if cfg.XAIAPIKey != "" {
		a, err := provider.NewGrokAdapter(cfg.XAIAPIKey, cfg.XAIBaseURL)
		if err != nil {
			log.Warn("failed to create Grok adapter", zap.Error(err))
		} else {
			adapters = append(adapters, a)
		}
	}
	registry := provider.NewRegistry(adapters...)

	// Stores
	conversationStore := store.NewStore(ctx, cfg.MaxConversations, repo, log)
	memories := store.NewMemories(ctx, cfg.MaxMemories, repo, log)

	// Services
	exchangeSvc := service.NewExchangeService(registry, conversationStore, publisher, cfg.ProviderTimeout, log)
	jobClient := job.NewClient(cfg.ReplicateAPIToken, cfg.ReplicateBaseURL, cfg.ReplicateVersion, log)
	transcribeSvc := service.NewTranscribeService(jobClient, registry, job.Policy{
		Interval:    cfg.PollInterval,
		MaxAttempts: cfg.PollMaxAttempts,
	}, log)

	var synthesizer *speech.Synthesizer
	if cfg.OpenAIAPIKey != "" {
		synthesizer, err = speech.NewSynthesizer(cfg.OpenAIAPIKey, cfg.DefaultVoice)
		if err != nil {
			log.Warn("failed to create speech synthesizer", zap.Error(err))
		}
	}

	// Handlers
	healthHandler := handler.NewHealthHandler(repo, publisher)
	chatHandler := handler.NewChatHandler(exchangeSvc, cfg.DefaultModel, log)
	conversationHandler := handler.NewConversationHandler(conversationStore, exchangeSvc, log)
	transcribeHandler := handler.NewTranscribeHandler(transcribeSvc, cfg.MaxUploadSize, log)
	speechHandler := handler.NewSpeechHandler(synthesizer, log)
	memoryHandler := handler.NewMemoryHandler(memories, log)
	uploadHandler := handler.NewUploadHandler(cfg.UploadDir, cfg.MaxUploadSize, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Uploaded attachment files
	r.Handle("/uploads/*", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(cfg.UploadDir))))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(middleware.Auth(cfg.JWTSecret))
		}
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/chat", chatHandler.SendTurn)

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversationHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Delete("/", conversationHandler.Delete)
				r.Post("/cancel", conversationHandler.Cancel)
			})
		})

		r.Post("/transcribe", transcribeHandler.Transcribe)
		r.Post("/speech", speechHandler.Synthesize)

		r.Get("/memories", memoryHandler.List)
		r.Put("/memories", memoryHandler.Upsert)

		r.Post("/upload", uploadHandler.Upload)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
