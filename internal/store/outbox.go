package store

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/prepmitra/prepmitra-client/internal/config"
	"github.com/prepmitra/prepmitra-client/internal/model"
)

// Outbox is the persisted queue of practice mutations awaiting replay. The
// whole queue is one JSON array under a single key: appends happen only when
// the backend is already unreachable, and drains remove items one at a time
// by index, so the array stays tiny. Ordering within the array is the retry
// order (oldest first). Best-effort like the cache — store failures are
// logged and swallowed, a corrupted queue reads as empty.
type Outbox struct {
	kv  KV
	log zerolog.Logger
}

// NewOutbox creates an Outbox over the given KV.
func NewOutbox(kv KV, log zerolog.Logger) *Outbox {
	return &Outbox{
		kv:  kv,
		log: log.With().Str("component", "outbox").Logger(),
	}
}

// Items returns a snapshot of the pending queue, oldest first.
func (o *Outbox) Items(ctx context.Context) []model.OutboxItem {
	raw, ok, err := o.kv.Get(ctx, config.StoreKey.OutboxKey())
	if err != nil {
		o.log.Warn().Err(err).Msg("Outbox read failed")
		return nil
	}
	if !ok {
		return nil
	}

	var items []model.OutboxItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		o.log.Warn().Err(err).Msg("Outbox malformed, treating as empty")
		return nil
	}
	return items
}

// Append adds an item to the tail of the queue.
func (o *Outbox) Append(ctx context.Context, item model.OutboxItem) {
	items := append(o.Items(ctx), item)
	o.persist(ctx, items)
	o.log.Info().
		Str("action", string(item.Action)).
		Int64("question_id", item.QuestionID).
		Int("pending", len(items)).
		Msg("Queued offline mutation")
}

// RemoveAt deletes the item at index i. Out-of-range indices are ignored
// (another process may have drained the queue underneath us).
func (o *Outbox) RemoveAt(ctx context.Context, i int) {
	items := o.Items(ctx)
	if i < 0 || i >= len(items) {
		return
	}
	items = append(items[:i], items[i+1:]...)
	o.persist(ctx, items)
}

// Clear drops the whole queue.
func (o *Outbox) Clear(ctx context.Context) {
	if err := o.kv.Del(ctx, config.StoreKey.OutboxKey()); err != nil {
		o.log.Warn().Err(err).Msg("Outbox clear failed")
	}
}

func (o *Outbox) persist(ctx context.Context, items []model.OutboxItem) {
	if len(items) == 0 {
		o.Clear(ctx)
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		o.log.Warn().Err(err).Msg("Outbox encode failed")
		return
	}
	if err := o.kv.Set(ctx, config.StoreKey.OutboxKey(), string(raw)); err != nil {
		o.log.Warn().Err(err).Msg("Outbox write failed")
	}
}
