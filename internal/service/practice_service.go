package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prepmitra/prepmitra-client/internal/backend"
	"github.com/prepmitra/prepmitra-client/internal/model"
	"github.com/prepmitra/prepmitra-client/internal/session"
	"github.com/prepmitra/prepmitra-client/internal/store"
)

// PracticeService handles practice-mode reads and mutations. Reads are
// remote-first with a TTL cache fallback (never cache-first); mutations that
// hit an unreachable backend degrade silently into the offline outbox instead
// of failing the user.
type PracticeService struct {
	backend backend.Service
	cache   *store.Cache
	outbox  *store.Outbox
	log     zerolog.Logger
	now     session.Clock
}

// NewPracticeService creates a PracticeService. now may be nil (wall clock).
func NewPracticeService(svc backend.Service, cache *store.Cache, outbox *store.Outbox, log zerolog.Logger, now session.Clock) *PracticeService {
	if now == nil {
		now = time.Now
	}
	return &PracticeService{
		backend: svc,
		cache:   cache,
		outbox:  outbox,
		log:     log.With().Str("component", "practice_service").Logger(),
		now:     now,
	}
}

// GetQuestions fetches practice questions, refreshing the cache on success.
// When the backend fails, a cached list within TTL is returned as a degraded
// success; absent or expired caches let the original error propagate.
func (s *PracticeService) GetQuestions(ctx context.Context, course, chapter string, limit, offset *int64) ([]model.Question, error) {
	questions, err := s.backend.GetQuestions(ctx, course, chapter, limit, offset)
	if err == nil {
		s.cache.SetQuestions(ctx, course, chapter, questions)
		return questions, nil
	}

	if cached, ok := s.cache.Questions(ctx, course, chapter); ok {
		s.log.Warn().Err(err).
			Str("course", course).
			Str("chapter", chapter).
			Msg("Backend fetch failed, serving cached questions")
		return cached, nil
	}
	return nil, fmt.Errorf("get questions: %w", err)
}

// AnswerResult reports the outcome of a practice answer submission.
type AnswerResult struct {
	// Correct is meaningful only when Queued is false.
	Correct bool `json:"correct"`
	// Queued means the backend was unreachable and the answer now sits in
	// the outbox for later replay.
	Queued bool `json:"queued"`
}

// SubmitAnswer sends one practice answer immediately. A backend outage is not
// surfaced as an error: the answer is queued for replay instead.
func (s *PracticeService) SubmitAnswer(ctx context.Context, questionID int64, selectedOption string) (*AnswerResult, error) {
	correct, err := s.backend.SubmitAnswer(ctx, questionID, selectedOption)
	if err == nil {
		// Progress summaries are now stale.
		s.cache.InvalidateProgress(ctx)
		return &AnswerResult{Correct: correct}, nil
	}

	if errors.Is(err, backend.ErrServiceUnavailable) {
		s.outbox.Append(ctx, model.OutboxItem{
			Action:         model.OutboxActionAnswer,
			QuestionID:     questionID,
			SelectedOption: selectedOption,
			ClientRef:      uuid.New().String(),
			Timestamp:      s.now().UnixMilli(),
		})
		return &AnswerResult{Queued: true}, nil
	}
	return nil, fmt.Errorf("submit answer: %w", err)
}

// BookmarkResult reports the outcome of a bookmark toggle.
type BookmarkResult struct {
	Queued bool `json:"queued"`
}

// ToggleBookmark flips a bookmark immediately, queueing the toggle when the
// backend is unreachable. Replay is at-least-once and toggle is not
// idempotent, so a replayed toggle can double-flip; the queued item carries a
// client ref for a future server-side dedupe.
func (s *PracticeService) ToggleBookmark(ctx context.Context, questionID int64) (*BookmarkResult, error) {
	err := s.backend.ToggleBookmark(ctx, questionID)
	if err == nil {
		s.cache.InvalidatePracticeReads(ctx)
		return &BookmarkResult{}, nil
	}

	if errors.Is(err, backend.ErrServiceUnavailable) {
		s.outbox.Append(ctx, model.OutboxItem{
			Action:     model.OutboxActionBookmark,
			QuestionID: questionID,
			ClientRef:  uuid.New().String(),
			Timestamp:  s.now().UnixMilli(),
		})
		return &BookmarkResult{Queued: true}, nil
	}
	return nil, fmt.Errorf("toggle bookmark: %w", err)
}

// GetBookmarkedQuestions fetches the bookmark list, with cache fallback.
func (s *PracticeService) GetBookmarkedQuestions(ctx context.Context) ([]model.Question, error) {
	bookmarks, err := s.backend.GetBookmarkedQuestions(ctx)
	if err == nil {
		s.cache.SetBookmarks(ctx, bookmarks)
		return bookmarks, nil
	}

	if cached, ok := s.cache.Bookmarks(ctx); ok {
		s.log.Warn().Err(err).Msg("Backend fetch failed, serving cached bookmarks")
		return cached, nil
	}
	return nil, fmt.Errorf("get bookmarked questions: %w", err)
}

// GetProgress fetches the per-chapter progress summary, with cache fallback.
func (s *PracticeService) GetProgress(ctx context.Context, course, chapter string) (*model.PracticeProgress, error) {
	progress, err := s.backend.GetPracticeProgress(ctx, course, chapter)
	if err == nil {
		s.cache.SetProgress(ctx, course, chapter, progress)
		return progress, nil
	}

	if cached, ok := s.cache.Progress(ctx, course, chapter); ok {
		s.log.Warn().Err(err).
			Str("course", course).
			Str("chapter", chapter).
			Msg("Backend fetch failed, serving cached progress")
		return cached, nil
	}
	return nil, fmt.Errorf("get practice progress: %w", err)
}

// PendingItems exposes the outbox snapshot for the UI badge.
func (s *PracticeService) PendingItems(ctx context.Context) []model.OutboxItem {
	return s.outbox.Items(ctx)
}
