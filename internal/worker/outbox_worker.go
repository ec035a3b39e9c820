package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepmitra/prepmitra-client/internal/backend"
	"github.com/prepmitra/prepmitra-client/internal/model"
	"github.com/prepmitra/prepmitra-client/internal/store"
)

// OutboxWorker replays queued practice mutations against the backend. Drains
// are triggered on startup, on an online notification (after a settle delay)
// and on a fixed interval; every trigger funnels into the same single-flight
// Drain. Delivery is at-least-once: a replayed bookmark toggle can double-flip
// if the original call actually landed.
type OutboxWorker struct {
	backend backend.Service
	outbox  *store.Outbox
	cache   *store.Cache
	log     zerolog.Logger

	interval    time.Duration
	settleDelay time.Duration

	draining atomic.Bool
	online   chan struct{}
}

// NewOutboxWorker creates an OutboxWorker.
func NewOutboxWorker(svc backend.Service, outbox *store.Outbox, cache *store.Cache, interval, settleDelay time.Duration, log zerolog.Logger) *OutboxWorker {
	return &OutboxWorker{
		backend:     svc,
		outbox:      outbox,
		cache:       cache,
		log:         log.With().Str("component", "outbox_worker").Logger(),
		interval:    interval,
		settleDelay: settleDelay,
		online:      make(chan struct{}, 1),
	}
}

// NotifyOnline signals that connectivity was (re)gained. Coalesces repeated
// notifications while one is pending.
func (w *OutboxWorker) NotifyOnline() {
	select {
	case w.online <- struct{}{}:
	default:
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *OutboxWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	// Drain whatever a previous run left behind.
	w.Drain(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.Drain(ctx)
		case <-w.online:
			// Let the network settle before hammering the backend.
			select {
			case <-ctx.Done():
				w.log.Info().Msg("Worker stopped")
				return
			case <-time.After(w.settleDelay):
			}
			w.Drain(ctx)
		}
	}
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	// Skipped is true when another drain was already in flight.
	Skipped    bool `json:"skipped"`
	Dispatched int  `json:"dispatched"`
	Failed     int  `json:"failed"`
}

// Drain replays the queue once. Single-flight: overlapping calls are no-ops.
// Items are walked in reverse index order so removals cannot shift indices of
// entries not yet processed; a failing item is kept in place and does not
// block the rest. After at least one successful dispatch, the dependent read
// caches are invalidated so the UI re-fetches authoritative state.
func (w *OutboxWorker) Drain(ctx context.Context) DrainResult {
	if !w.draining.CompareAndSwap(false, true) {
		return DrainResult{Skipped: true}
	}
	defer w.draining.Store(false)

	items := w.outbox.Items(ctx)
	if len(items) == 0 {
		return DrainResult{}
	}

	var result DrainResult
	for i := len(items) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			break
		}
		item := items[i]
		if err := w.dispatch(ctx, item); err != nil {
			result.Failed++
			w.log.Warn().Err(err).
				Str("action", string(item.Action)).
				Int64("question_id", item.QuestionID).
				Str("client_ref", item.ClientRef).
				Msg("Replay failed, keeping item for next drain")
			continue
		}
		w.outbox.RemoveAt(ctx, i)
		result.Dispatched++
	}

	if result.Dispatched > 0 {
		w.cache.InvalidatePracticeReads(ctx)
	}

	w.log.Info().
		Int("dispatched", result.Dispatched).
		Int("failed", result.Failed).
		Msg("Outbox drained")
	return result
}

func (w *OutboxWorker) dispatch(ctx context.Context, item model.OutboxItem) error {
	switch item.Action {
	case model.OutboxActionAnswer:
		// Correctness of a replayed answer is not reported anywhere.
		_, err := w.backend.SubmitAnswer(ctx, item.QuestionID, item.SelectedOption)
		return err
	case model.OutboxActionBookmark:
		return w.backend.ToggleBookmark(ctx, item.QuestionID)
	default:
		return fmt.Errorf("unknown outbox action %q", item.Action)
	}
}
