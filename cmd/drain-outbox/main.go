package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/prepmitra/prepmitra-client/internal/auth"
	"github.com/prepmitra/prepmitra-client/internal/backend"
	"github.com/prepmitra/prepmitra-client/internal/config"
	"github.com/prepmitra/prepmitra-client/internal/logger"
	"github.com/prepmitra/prepmitra-client/internal/store"
	"github.com/prepmitra/prepmitra-client/internal/worker"
)

// One-shot outbox drain against the configured backend. Useful after the
// agent was killed while offline and queued mutations are waiting.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Open Local Store ──────────────────────────────────────────────
	kv, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to open local store")
	}
	defer kv.Close()

	// ─── Wire the Drain Path ──────────────────────────────────────────
	sessionContext := auth.NewSessionContext(ctx, kv, log, nil)
	backendClient := backend.NewHTTPClient(
		cfg.BackendURL,
		&http.Client{Timeout: cfg.BackendTimeout},
		sessionContext,
		log,
	)
	cache := store.NewCache(kv, cfg.QuestionCacheTTL, cfg.BookmarkCacheTTL, cfg.ProgressCacheTTL, log, nil)
	outbox := store.NewOutbox(kv, log)

	pending := len(outbox.Items(ctx))
	if pending == 0 {
		fmt.Println("Outbox is empty, nothing to drain.")
		return
	}
	fmt.Printf("Draining %d queued mutation(s)...\n", pending)

	outboxWorker := worker.NewOutboxWorker(backendClient, outbox, cache, cfg.SyncInterval, cfg.OnlineSettleDelay, log)
	result := outboxWorker.Drain(ctx)

	fmt.Printf("Dispatched: %d  Failed: %d\n", result.Dispatched, result.Failed)
	if result.Failed > 0 {
		os.Exit(1)
	}
}

// openStore selects the persistent KV backend from config.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.KV, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		return store.NewSQLiteKV(ctx, cfg.SQLitePath, log)
	case "memory":
		return store.NewMemoryKV(), nil
	default:
		return store.NewRedisKV(ctx, cfg.RedisURL, log)
	}
}
