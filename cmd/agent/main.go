package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepmitra/prepmitra-client/internal/auth"
	"github.com/prepmitra/prepmitra-client/internal/backend"
	"github.com/prepmitra/prepmitra-client/internal/config"
	"github.com/prepmitra/prepmitra-client/internal/handler"
	"github.com/prepmitra/prepmitra-client/internal/logger"
	"github.com/prepmitra/prepmitra-client/internal/router"
	"github.com/prepmitra/prepmitra-client/internal/service"
	"github.com/prepmitra/prepmitra-client/internal/store"
	"github.com/prepmitra/prepmitra-client/internal/validator"
	"github.com/prepmitra/prepmitra-client/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreDriver).
		Str("backend", cfg.BackendURL).
		Msg("Starting PrepMitra Agent")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Local Store ──────────────────────────────────────────────
	kv, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to open local store")
	}
	defer kv.Close()

	// ─── Initialize Session + Backend Client ──────────────────────────
	sessionContext := auth.NewSessionContext(ctx, kv, log, nil)
	backendClient := backend.NewHTTPClient(
		cfg.BackendURL,
		&http.Client{Timeout: cfg.BackendTimeout},
		sessionContext,
		log,
	)

	// ─── Initialize Store Layers ──────────────────────────────────────
	cache := store.NewCache(kv, cfg.QuestionCacheTTL, cfg.BookmarkCacheTTL, cfg.ProgressCacheTTL, log, nil)
	outbox := store.NewOutbox(kv, log)

	// ─── Initialize Services ──────────────────────────────────────────
	examService := service.NewExamService(backendClient, log, nil)
	practiceService := service.NewPracticeService(backendClient, cache, outbox, log, nil)

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	outboxWorker := worker.NewOutboxWorker(backendClient, outbox, cache, cfg.SyncInterval, cfg.OnlineSettleDelay, log)
	go outboxWorker.Start(workerCtx)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Exam:     handler.NewExamHandler(examService),
		Practice: handler.NewPracticeHandler(practiceService),
		Sync:     handler.NewSyncHandler(practiceService, outboxWorker),
		Session:  handler.NewSessionHandler(sessionContext),
		WS:       handler.NewWSHandler(examService, practiceService, outboxWorker, log, cfg.AllowedOrigins),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Agent listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the outbox worker. Queued items survive in the store.
	workerCancel()
	time.Sleep(time.Second)

	log.Info().Msg("Shutdown complete")
}

// openStore selects the persistent KV backend from config.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.KV, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		return store.NewSQLiteKV(ctx, cfg.SQLitePath, log)
	case "memory":
		log.Warn().Msg("Using in-memory store, queued mutations will not survive restarts")
		return store.NewMemoryKV(), nil
	default:
		return store.NewRedisKV(ctx, cfg.RedisURL, log)
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
