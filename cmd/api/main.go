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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/luaforge/script-platform/internal/config"
	"github.com/luaforge/script-platform/internal/events"
	"github.com/luaforge/script-platform/internal/handler"
	"github.com/luaforge/script-platform/internal/llm"
	"github.com/luaforge/script-platform/internal/middleware"
	"github.com/luaforge/script-platform/internal/service"
	"github.com/luaforge/script-platform/internal/store"
	"github.com/luaforge/script-platform/pkg/logger"
	"github.com/luaforge/script-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "script-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the store
	db, err := store.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("failed to open database", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	// Optional NATS event publication
	var eventsClient *events.Client
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		eventsClient, err = events.Connect(ctx, events.Config{
			URL:   cfg.NATSURL,
			Token: cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer eventsClient.Close()

		publisher = events.NewPublisher(eventsClient)
		if err := publisher.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure stream", zap.Error(err))
			os.Exit(1)
		}
	}

	// Initialize the generation client and fallback invoker
	genClient, err := llm.NewClient(ctx, llm.Provider(cfg.Provider), providerKey(cfg))
	if err != nil {
		log.Error("failed to create generation client", zap.Error(err))
		os.Exit(1)
	}
	invoker := llm.NewInvoker(genClient, cfg.CandidateModels, log)

	// Initialize services
	authSvc := service.NewAuthService(db, cfg.JWTSecret, cfg.JWTExpiration, log)
	conversationSvc := service.NewConversationService(db, log)
	messageSvc := service.NewMessageService(db, conversationSvc, invoker, publisher, log)
	scriptSvc := service.NewScriptService(invoker, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db, eventsClient)
	authHandler := handler.NewAuthHandler(authSvc, log)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	messageHandler := handler.NewMessageHandler(messageSvc, log)
	generateHandler := handler.NewGenerateHandler(scriptSvc, log)

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
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

			r.Get("/auth/me", authHandler.Me)

			// One-shot generation
			r.Post("/generate", generateHandler.Generate)

			// Conversations
			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", conversationHandler.Create)
				r.Get("/", conversationHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", conversationHandler.Get)
					r.Put("/", conversationHandler.Update)
					r.Delete("/", conversationHandler.Delete)
					r.Get("/code", conversationHandler.LatestCode)

					// Messages
					r.Get("/messages", messageHandler.List)
					r.Post("/messages", messageHandler.Send)
					r.Put("/messages/{messageID}/review", messageHandler.Review)
				})
			})
		})
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

func providerKey(cfg *config.Config) string {
	switch llm.Provider(cfg.Provider) {
	case llm.ProviderOpenAI:
		return cfg.OpenAIAPIKey
	case llm.ProviderAnthropic:
		return cfg.AnthropicAPIKey
	default:
		return cfg.GoogleAIAPIKey
	}
}
