package backend

import (
	"context"
	"errors"

	"github.com/prepmitra/prepmitra-client/internal/model"
)

// ErrServiceUnavailable classifies network failures and backend 5xx responses.
// Callers use it to decide between surfacing a retryable error (exam flow) and
// degrading into the offline outbox (practice mutations).
var ErrServiceUnavailable = errors.New("exam service unavailable")

// Service is the remote exam backend consumed by the agent. The backend owns
// scoring, correctness and the canonical attempt records; the client only
// drives the calls.
type Service interface {
	// StartExam creates a new attempt for the course and returns its ID.
	StartExam(ctx context.Context, course string) (int64, error)

	// GetExamQuestion returns the review payload for one question of an
	// attempt. Content for a started attempt never changes, so callers may
	// cache the result for the life of the session.
	GetExamQuestion(ctx context.Context, attemptID, questionID int64) (*model.ExamQuestionReview, error)

	// SubmitExam transmits the full ordered answer set exactly once and
	// returns the scored attempt.
	SubmitExam(ctx context.Context, attemptID int64, answers []model.UserAnswer) (*model.ExamAttempt, error)

	// GetAttempts returns the caller's attempt history.
	GetAttempts(ctx context.Context) ([]model.ExamAttempt, error)

	// GetQuestions returns practice questions for a course/chapter.
	GetQuestions(ctx context.Context, course, chapter string, limit, offset *int64) ([]model.Question, error)

	// SubmitAnswer records a single practice answer and reports correctness.
	SubmitAnswer(ctx context.Context, questionID int64, selectedOption string) (bool, error)

	// ToggleBookmark flips the bookmark state of a question. Not idempotent.
	ToggleBookmark(ctx context.Context, questionID int64) error

	// GetBookmarkedQuestions returns the caller's bookmarked questions.
	GetBookmarkedQuestions(ctx context.Context) ([]model.Question, error)

	// GetPracticeProgress returns the per-chapter progress summary.
	GetPracticeProgress(ctx context.Context, course, chapter string) (*model.PracticeProgress, error)
}
