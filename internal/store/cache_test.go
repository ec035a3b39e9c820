package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepmitra/prepmitra-client/internal/config"
	"github.com/prepmitra/prepmitra-client/internal/model"
	"github.com/prepmitra/prepmitra-client/internal/store"
)

type testClock struct {
	current time.Time
}

func (c *testClock) now() time.Time { return c.current }

func newCacheFixture() (*store.Cache, *store.MemoryKV, *testClock) {
	kv := store.NewMemoryKV()
	clock := &testClock{current: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	cache := store.NewCache(kv, time.Hour, 30*time.Minute, time.Minute, zerolog.Nop(), clock.now)
	return cache, kv, clock
}

func TestCacheQuestionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, _, _ := newCacheFixture()

	if _, ok := cache.Questions(ctx, "MSCIT", "Ch1"); ok {
		t.Fatal("hit on empty cache")
	}

	cache.SetQuestions(ctx, "MSCIT", "Ch1", []model.Question{{ID: 5, Course: "MSCIT", Chapter: "Ch1"}})

	questions, ok := cache.Questions(ctx, "MSCIT", "Ch1")
	if !ok || len(questions) != 1 || questions[0].ID != 5 {
		t.Fatalf("questions = %+v, ok = %v", questions, ok)
	}

	// Scoped by course+chapter.
	if _, ok := cache.Questions(ctx, "MSCIT", "Ch2"); ok {
		t.Fatal("hit for a different chapter")
	}
}

func TestCacheExpiryDeletesEntry(t *testing.T) {
	ctx := context.Background()
	cache, kv, clock := newCacheFixture()

	cache.SetQuestions(ctx, "MSCIT", "Ch1", []model.Question{{ID: 1}})

	clock.current = clock.current.Add(2 * time.Hour)
	if _, ok := cache.Questions(ctx, "MSCIT", "Ch1"); ok {
		t.Fatal("hit past TTL")
	}

	// The expired entry is removed from the store, not just skipped.
	if _, ok, _ := kv.Get(ctx, config.StoreKey.QuestionsKey("MSCIT", "Ch1")); ok {
		t.Fatal("expired entry still in store")
	}
}

func TestCacheMalformedEntryDropped(t *testing.T) {
	ctx := context.Background()
	cache, kv, _ := newCacheFixture()

	key := config.StoreKey.BookmarksKey()
	if err := kv.Set(ctx, key, "{not json"); err != nil {
		t.Fatal(err)
	}

	if _, ok := cache.Bookmarks(ctx); ok {
		t.Fatal("hit on malformed entry")
	}
	if _, ok, _ := kv.Get(ctx, key); ok {
		t.Fatal("malformed entry still in store")
	}
}

func TestCacheProgressTTLSeparateFromQuestions(t *testing.T) {
	ctx := context.Background()
	cache, _, clock := newCacheFixture()

	cache.SetQuestions(ctx, "MSCIT", "Ch1", []model.Question{{ID: 1}})
	cache.SetProgress(ctx, "MSCIT", "Ch1", &model.PracticeProgress{TotalAnswered: 3})

	// Two minutes kills the progress entry but not the question list.
	clock.current = clock.current.Add(2 * time.Minute)
	if _, ok := cache.Progress(ctx, "MSCIT", "Ch1"); ok {
		t.Fatal("progress hit past its TTL")
	}
	if _, ok := cache.Questions(ctx, "MSCIT", "Ch1"); !ok {
		t.Fatal("question list expired too early")
	}
}

func TestInvalidatePracticeReads(t *testing.T) {
	ctx := context.Background()
	cache, _, _ := newCacheFixture()

	cache.SetBookmarks(ctx, []model.Question{{ID: 1}})
	cache.SetProgress(ctx, "MSCIT", "Ch1", &model.PracticeProgress{})
	cache.SetProgress(ctx, "GCC-TBC", "Ch9", &model.PracticeProgress{})
	cache.SetQuestions(ctx, "MSCIT", "Ch1", []model.Question{{ID: 1}})

	cache.InvalidatePracticeReads(ctx)

	if _, ok := cache.Bookmarks(ctx); ok {
		t.Fatal("bookmarks survived invalidation")
	}
	if _, ok := cache.Progress(ctx, "MSCIT", "Ch1"); ok {
		t.Fatal("progress survived invalidation")
	}
	if _, ok := cache.Progress(ctx, "GCC-TBC", "Ch9"); ok {
		t.Fatal("second progress entry survived invalidation")
	}
	// Question lists are not derived from mutations and stay put.
	if _, ok := cache.Questions(ctx, "MSCIT", "Ch1"); !ok {
		t.Fatal("question list dropped by invalidation")
	}
}

func TestStampedValid(t *testing.T) {
	captured := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	stamped := store.NewStamped("v", captured)

	if !stamped.Valid(captured.Add(30*time.Minute), time.Hour) {
		t.Fatal("invalid within TTL")
	}
	if stamped.Valid(captured.Add(2*time.Hour), time.Hour) {
		t.Fatal("valid past TTL")
	}
}
