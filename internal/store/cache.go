package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepmitra/prepmitra-client/internal/config"
	"github.com/prepmitra/prepmitra-client/internal/model"
)

// Cache is the best-effort read cache over the KV store. Every operation
// swallows store and decode failures (a broken cache must never break the
// caller); expired or malformed entries are reported as misses.
type Cache struct {
	kv  KV
	log zerolog.Logger
	now func() time.Time

	questionTTL time.Duration
	bookmarkTTL time.Duration
	progressTTL time.Duration
}

// NewCache creates a Cache with the given TTLs. now may be nil (wall clock).
func NewCache(kv KV, questionTTL, bookmarkTTL, progressTTL time.Duration, log zerolog.Logger, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		kv:          kv,
		log:         log.With().Str("component", "cache").Logger(),
		now:         now,
		questionTTL: questionTTL,
		bookmarkTTL: bookmarkTTL,
		progressTTL: progressTTL,
	}
}

// Questions returns the cached question list for course+chapter, or false on
// a miss (absent, expired, unreadable).
func (c *Cache) Questions(ctx context.Context, course, chapter string) ([]model.Question, bool) {
	var questions []model.Question
	ok := c.read(ctx, config.StoreKey.QuestionsKey(course, chapter), c.questionTTL, &questions)
	return questions, ok
}

// SetQuestions overwrites the question list cache with a fresh timestamp.
func (c *Cache) SetQuestions(ctx context.Context, course, chapter string, questions []model.Question) {
	c.write(ctx, config.StoreKey.QuestionsKey(course, chapter), questions)
}

// Bookmarks returns the cached bookmark list, or false on a miss.
func (c *Cache) Bookmarks(ctx context.Context) ([]model.Question, bool) {
	var questions []model.Question
	ok := c.read(ctx, config.StoreKey.BookmarksKey(), c.bookmarkTTL, &questions)
	return questions, ok
}

// SetBookmarks overwrites the bookmark list cache with a fresh timestamp.
func (c *Cache) SetBookmarks(ctx context.Context, questions []model.Question) {
	c.write(ctx, config.StoreKey.BookmarksKey(), questions)
}

// Progress returns the cached progress summary for course+chapter, or false
// on a miss.
func (c *Cache) Progress(ctx context.Context, course, chapter string) (*model.PracticeProgress, bool) {
	var progress model.PracticeProgress
	if !c.read(ctx, config.StoreKey.ProgressKey(course, chapter), c.progressTTL, &progress) {
		return nil, false
	}
	return &progress, true
}

// SetProgress overwrites the progress cache with a fresh timestamp.
func (c *Cache) SetProgress(ctx context.Context, course, chapter string, progress *model.PracticeProgress) {
	c.write(ctx, config.StoreKey.ProgressKey(course, chapter), progress)
}

// InvalidateProgress drops every cached progress summary.
func (c *Cache) InvalidateProgress(ctx context.Context) {
	if err := c.kv.DelPrefix(ctx, config.StoreKey.ProgressPrefix()); err != nil {
		c.log.Warn().Err(err).Msg("Invalidate progress failed")
	}
}

// InvalidatePracticeReads drops the caches that depend on practice mutations
// (progress summaries and the bookmark list) so the next read re-fetches
// authoritative state. Called after a successful outbox drain.
func (c *Cache) InvalidatePracticeReads(ctx context.Context) {
	if err := c.kv.Del(ctx, config.StoreKey.BookmarksKey()); err != nil {
		c.log.Warn().Err(err).Msg("Invalidate bookmarks failed")
	}
	if err := c.kv.DelPrefix(ctx, config.StoreKey.ProgressPrefix()); err != nil {
		c.log.Warn().Err(err).Msg("Invalidate progress failed")
	}
}

// read loads key into dst if the entry exists, parses and is within ttl.
// Expired entries are deleted on sight so the store does not accumulate
// dead snapshots.
func (c *Cache) read(ctx context.Context, key string, ttl time.Duration, dst interface{}) bool {
	raw, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		return false
	}
	if !ok {
		return false
	}

	var envelope Stamped[json.RawMessage]
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Cache entry malformed, dropping")
		_ = c.kv.Del(ctx, key)
		return false
	}
	if !envelope.Valid(c.now(), ttl) {
		_ = c.kv.Del(ctx, key)
		return false
	}
	if err := json.Unmarshal(envelope.Value, dst); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Cache value malformed, dropping")
		_ = c.kv.Del(ctx, key)
		return false
	}
	return true
}

func (c *Cache) write(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Cache encode failed")
		return
	}
	envelope, err := json.Marshal(NewStamped(json.RawMessage(raw), c.now()))
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Cache envelope encode failed")
		return
	}
	if err := c.kv.Set(ctx, key, string(envelope)); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
