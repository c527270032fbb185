// Package main is the entry point for the operations console API server.
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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bwdnr95/tono-operation-sub000/internal/channel"
	"github.com/bwdnr95/tono-operation-sub000/internal/config"
	"github.com/bwdnr95/tono-operation-sub000/internal/confirm"
	"github.com/bwdnr95/tono-operation-sub000/internal/handler"
	"github.com/bwdnr95/tono-operation-sub000/internal/inbox"
	"github.com/bwdnr95/tono-operation-sub000/internal/llm"
	"github.com/bwdnr95/tono-operation-sub000/internal/middleware"
	"github.com/bwdnr95/tono-operation-sub000/internal/model"
	natsclient "github.com/bwdnr95/tono-operation-sub000/internal/nats"
	"github.com/bwdnr95/tono-operation-sub000/internal/push"
	"github.com/bwdnr95/tono-operation-sub000/internal/safety"
	"github.com/bwdnr95/tono-operation-sub000/internal/service"
	"github.com/bwdnr95/tono-operation-sub000/pkg/logger"
	"github.com/bwdnr95/tono-operation-sub000/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "tono-console", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	natsClient, err := natsclient.Connect(natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer natsClient.Close()

	streamManager := natsclient.NewStreamManager(natsClient, log)
	if err := streamManager.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure stream", zap.Error(err))
		os.Exit(1)
	}

	var llmClient llm.Client
	if cfg.AnthropicAPIKey != "" || cfg.OpenAIAPIKey != "" {
		provider := llm.Provider(cfg.DefaultLLM)
		apiKey := cfg.AnthropicAPIKey
		if provider == llm.ProviderOpenAI {
			apiKey = cfg.OpenAIAPIKey
		}
		llmClient, err = llm.NewClient(provider, apiKey)
		if err != nil {
			log.Warn("failed to create LLM client, draft generation disabled", zap.Error(err))
		}
	}

	var tokenStore confirm.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()
		tokenStore = confirm.NewRedisStore(rdb)
		log.Info("using Redis confirm token store", zap.String("addr", cfg.RedisAddr))
	} else {
		tokenStore = confirm.NewMemoryStore()
	}

	dispatcher := channel.NewClient(cfg.ChannelAPIURL, cfg.ChannelAPIKey, log)

	conversationSvc := service.NewConversationService(log)
	draftSvc := service.NewDraftService(conversationSvc, llmClient, safety.NewClassifier(), log, cfg.DraftModel)
	sendSvc := service.NewSendService(conversationSvc, tokenStore, dispatcher, streamManager, log, cfg.ConfirmTokenTTL)

	sessions := inbox.NewManager(conversationSvc, log, cfg.DetailTTL)

	hub := push.NewHub(log)
	go hub.Run()

	// Fan every refresh event into session caches and connected consoles.
	refreshSub, err := streamManager.SubscribeRefresh(func(ev model.RefreshEvent) {
		sessions.HandleRefresh(context.Background(), ev)
		hub.BroadcastRefresh(ev)
	})
	if err != nil {
		log.Error("failed to subscribe to refresh events", zap.Error(err))
		os.Exit(1)
	}
	defer refreshSub.Drain()

	healthHandler := handler.NewHealthHandler(natsClient.IsConnected)
	conversationHandler := handler.NewConversationHandler(conversationSvc, sessions, log)
	draftHandler := handler.NewDraftHandler(draftSvc, sessions, log)
	sendHandler := handler.NewSendHandler(sendSvc, sessions, log)
	messageHandler := handler.NewMessageHandler(conversationSvc, streamManager, log)
	wsHandler := handler.NewWSHandler(hub)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversationHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Post("/read", conversationHandler.MarkRead)
				r.Delete("/read", conversationHandler.MarkUnread)
				r.Post("/status", conversationHandler.Transition)

				r.Post("/draft", draftHandler.Generate)
				r.Put("/draft", draftHandler.Save)

				r.Post("/send", sendHandler.Send)
				r.Post("/send/confirm", sendHandler.Confirm)
			})
		})

		r.Post("/send/bulk", sendHandler.BulkSend)
		r.Delete("/session", conversationHandler.EndSession)
		r.Get("/ws", wsHandler.Connect)

		// Channel webhook, authenticated with a scoped token.
		r.With(middleware.RequireScope("webhook:ingest")).
			Post("/messages/inbound", messageHandler.Inbound)
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
