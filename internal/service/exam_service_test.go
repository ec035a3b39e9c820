package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepmitra/prepmitra-client/internal/backend"
	"github.com/prepmitra/prepmitra-client/internal/model"
	"github.com/prepmitra/prepmitra-client/internal/service"
)

// fakeBackend satisfies backend.Service with per-method function hooks.
type fakeBackend struct {
	startExam       func(ctx context.Context, course string) (int64, error)
	getExamQuestion func(ctx context.Context, attemptID, questionID int64) (*model.ExamQuestionReview, error)
	submitExam      func(ctx context.Context, attemptID int64, answers []model.UserAnswer) (*model.ExamAttempt, error)
	getAttempts     func(ctx context.Context) ([]model.ExamAttempt, error)
	getQuestions    func(ctx context.Context, course, chapter string, limit, offset *int64) ([]model.Question, error)
	submitAnswer    func(ctx context.Context, questionID int64, selectedOption string) (bool, error)
	toggleBookmark  func(ctx context.Context, questionID int64) error
	getBookmarks    func(ctx context.Context) ([]model.Question, error)
	getProgress     func(ctx context.Context, course, chapter string) (*model.PracticeProgress, error)
}

var errNotImplemented = errors.New("not implemented")

func (f *fakeBackend) StartExam(ctx context.Context, course string) (int64, error) {
	if f.startExam == nil {
		return 0, errNotImplemented
	}
	return f.startExam(ctx, course)
}

func (f *fakeBackend) GetExamQuestion(ctx context.Context, attemptID, questionID int64) (*model.ExamQuestionReview, error) {
	if f.getExamQuestion == nil {
		return nil, errNotImplemented
	}
	return f.getExamQuestion(ctx, attemptID, questionID)
}

func (f *fakeBackend) SubmitExam(ctx context.Context, attemptID int64, answers []model.UserAnswer) (*model.ExamAttempt, error) {
	if f.submitExam == nil {
		return nil, errNotImplemented
	}
	return f.submitExam(ctx, attemptID, answers)
}

func (f *fakeBackend) GetAttempts(ctx context.Context) ([]model.ExamAttempt, error) {
	if f.getAttempts == nil {
		return nil, errNotImplemented
	}
	return f.getAttempts(ctx)
}

func (f *fakeBackend) GetQuestions(ctx context.Context, course, chapter string, limit, offset *int64) ([]model.Question, error) {
	if f.getQuestions == nil {
		return nil, errNotImplemented
	}
	return f.getQuestions(ctx, course, chapter, limit, offset)
}

func (f *fakeBackend) SubmitAnswer(ctx context.Context, questionID int64, selectedOption string) (bool, error) {
	if f.submitAnswer == nil {
		return false, errNotImplemented
	}
	return f.submitAnswer(ctx, questionID, selectedOption)
}

func (f *fakeBackend) ToggleBookmark(ctx context.Context, questionID int64) error {
	if f.toggleBookmark == nil {
		return errNotImplemented
	}
	return f.toggleBookmark(ctx, questionID)
}

func (f *fakeBackend) GetBookmarkedQuestions(ctx context.Context) ([]model.Question, error) {
	if f.getBookmarks == nil {
		return nil, errNotImplemented
	}
	return f.getBookmarks(ctx)
}

func (f *fakeBackend) GetPracticeProgress(ctx context.Context, course, chapter string) (*model.PracticeProgress, error) {
	if f.getProgress == nil {
		return nil, errNotImplemented
	}
	return f.getProgress(ctx, course, chapter)
}

// movableClock is a hand-driven clock shared by the service under test.
// Mutex-guarded because the timer watcher goroutine reads it concurrently.
type movableClock struct {
	mu      sync.Mutex
	current time.Time
}

func (c *movableClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *movableClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

func newMovableClock() *movableClock {
	return &movableClock{current: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func TestStartExamBackendFailureStaysIdle(t *testing.T) {
	clock := newMovableClock()
	be := &fakeBackend{
		startExam: func(context.Context, string) (int64, error) {
			return 0, backend.ErrServiceUnavailable
		},
	}
	svc := service.NewExamService(be, zerolog.Nop(), clock.now)

	if _, err := svc.StartExam(context.Background(), "MSCIT"); err == nil {
		t.Fatal("expected error from failing backend")
	}
	if got := svc.State(); got != service.StateIdle {
		t.Fatalf("state after failed start = %s, want IDLE", got)
	}

	// A clean retry must be possible.
	be.startExam = func(context.Context, string) (int64, error) { return 7, nil }
	status, err := svc.StartExam(context.Background(), "MSCIT")
	if err != nil {
		t.Fatalf("retry start: %v", err)
	}
	if status.State != service.StateInProgress || status.AttemptID != 7 {
		t.Fatalf("retry status = %+v", status)
	}
}

func TestStartExamRejectsSecondAttempt(t *testing.T) {
	clock := newMovableClock()
	be := &fakeBackend{
		startExam: func(context.Context, string) (int64, error) { return 1, nil },
	}
	svc := service.NewExamService(be, zerolog.Nop(), clock.now)

	if _, err := svc.StartExam(context.Background(), "MSCIT"); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, err := svc.StartExam(context.Background(), "GCC-TBC"); !errors.Is(err, service.ErrAttemptActive) {
		t.Fatalf("second start err = %v, want ErrAttemptActive", err)
	}
}

func TestStartExamUnknownCourse(t *testing.T) {
	clock := newMovableClock()
	svc := service.NewExamService(&fakeBackend{}, zerolog.Nop(), clock.now)

	if _, err := svc.StartExam(context.Background(), "NOPE"); err == nil {
		t.Fatal("expected error for unknown course")
	}
	if got := svc.State(); got != service.StateIdle {
		t.Fatalf("state = %s, want IDLE", got)
	}
}

func TestSubmitBuildsFullOrderedPayload(t *testing.T) {
	clock := newMovableClock()
	var captured []model.UserAnswer
	be := &fakeBackend{
		startExam: func(context.Context, string) (int64, error) { return 9, nil },
		submitExam: func(_ context.Context, attemptID int64, answers []model.UserAnswer) (*model.ExamAttempt, error) {
			captured = answers
			return &model.ExamAttempt{AttemptID: attemptID, Submitted: true, Score: 3, Passed: false}, nil
		},
	}
	svc := service.NewExamService(be, zerolog.Nop(), clock.now)

	if _, err := svc.StartExam(context.Background(), "MSCIT"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Answer questions 1, 3 and 5.
	mustNoErr := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	mustNoErr(svc.SelectAnswer("A"))
	mustNoErr(svc.JumpTo(2))
	mustNoErr(svc.SelectAnswer("B"))
	mustNoErr(svc.JumpTo(4))
	mustNoErr(svc.SelectAnswer("D"))

	// Stay short of the deadline so the watcher cannot force a submission
	// underneath this deliberate manual one.
	clock.advance(12 * time.Minute)

	result, err := svc.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Submitted || result.AttemptID != 9 {
		t.Fatalf("result = %+v", result)
	}
	if got := svc.State(); got != service.StateCompleted {
		t.Fatalf("state = %s, want COMPLETED", got)
	}

	if len(captured) != 15 {
		t.Fatalf("payload length = %d, want 15", len(captured))
	}
	answered := map[int64]string{1: "A", 3: "B", 5: "D"}
	nonEmpty := 0
	for i, entry := range captured {
		if entry.QuestionID != int64(i+1) {
			t.Fatalf("payload[%d].QuestionID = %d", i, entry.QuestionID)
		}
		if entry.SelectedOption != "" {
			nonEmpty++
		}
		if want := answered[entry.QuestionID]; entry.SelectedOption != want {
			t.Fatalf("payload[%d].SelectedOption = %q, want %q", i, entry.SelectedOption, want)
		}
	}
	if nonEmpty != 3 {
		t.Fatalf("non-empty answers = %d, want 3", nonEmpty)
	}
}

func TestSubmitFailureKeepsSessionForRetry(t *testing.T) {
	clock := newMovableClock()
	submitErr := backend.ErrServiceUnavailable
	be := &fakeBackend{
		startExam: func(context.Context, string) (int64, error) { return 5, nil },
		submitExam: func(_ context.Context, attemptID int64, answers []model.UserAnswer) (*model.ExamAttempt, error) {
			if submitErr != nil {
				return nil, submitErr
			}
			return &model.ExamAttempt{AttemptID: attemptID, Submitted: true}, nil
		},
	}
	svc := service.NewExamService(be, zerolog.Nop(), clock.now)

	if _, err := svc.StartExam(context.Background(), "MSCIT"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.SelectAnswer("C"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Submit(context.Background()); err == nil {
		t.Fatal("expected submit failure")
	}
	if got := svc.State(); got != service.StateInProgress {
		t.Fatalf("state after failed submit = %s, want IN_PROGRESS", got)
	}

	// Answers survive the failed submission.
	status := svc.Status()
	if status.AnsweredCount != 1 {
		t.Fatalf("answeredCount = %d, want 1", status.AnsweredCount)
	}

	submitErr = nil
	if _, err := svc.Submit(context.Background()); err != nil {
		t.Fatalf("retry submit: %v", err)
	}
	if got := svc.State(); got != service.StateCompleted {
		t.Fatalf("state = %s, want COMPLETED", got)
	}

	// The session is gone: a third submit has nothing to send.
	if _, err := svc.Submit(context.Background()); !errors.Is(err, service.ErrNoActiveAttempt) {
		t.Fatalf("third submit err = %v, want ErrNoActiveAttempt", err)
	}
}

func TestQuestionReviewMemoized(t *testing.T) {
	clock := newMovableClock()
	calls := 0
	be := &fakeBackend{
		startExam: func(context.Context, string) (int64, error) { return 3, nil },
		getExamQuestion: func(_ context.Context, attemptID, questionID int64) (*model.ExamQuestionReview, error) {
			calls++
			return &model.ExamQuestionReview{Question: model.Question{ID: questionID}}, nil
		},
	}
	svc := service.NewExamService(be, zerolog.Nop(), clock.now)

	if _, err := svc.StartExam(context.Background(), "MSCIT"); err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 3; i++ {
		review, err := svc.QuestionReview(context.Background(), 2)
		if err != nil {
			t.Fatalf("review: %v", err)
		}
		if review.Question.ID != 2 {
			t.Fatalf("review question ID = %d", review.Question.ID)
		}
	}
	if calls != 1 {
		t.Fatalf("backend calls = %d, want 1", calls)
	}

	if _, err := svc.QuestionReview(context.Background(), 4); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("backend calls = %d, want 2", calls)
	}
}

func TestAbandonDiscardsSession(t *testing.T) {
	clock := newMovableClock()
	be := &fakeBackend{
		startExam: func(context.Context, string) (int64, error) { return 1, nil },
	}
	svc := service.NewExamService(be, zerolog.Nop(), clock.now)

	if err := svc.Abandon(); !errors.Is(err, service.ErrNoActiveAttempt) {
		t.Fatalf("abandon with no attempt err = %v", err)
	}

	if _, err := svc.StartExam(context.Background(), "MSCIT"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.Abandon(); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if got := svc.State(); got != service.StateIdle {
		t.Fatalf("state = %s, want IDLE", got)
	}
	if err := svc.SelectAnswer("A"); !errors.Is(err, service.ErrNoActiveAttempt) {
		t.Fatalf("select after abandon err = %v", err)
	}
}

func TestHistorySortedAndReused(t *testing.T) {
	clock := newMovableClock()
	calls := 0
	be := &fakeBackend{
		getAttempts: func(context.Context) ([]model.ExamAttempt, error) {
			calls++
			return []model.ExamAttempt{
				{AttemptID: 2, Submitted: true},
				{AttemptID: 5, Submitted: true},
				{AttemptID: 3, Submitted: true},
			}, nil
		},
	}
	svc := service.NewExamService(be, zerolog.Nop(), clock.now)

	attempts, err := svc.History(context.Background())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(attempts) != 3 || attempts[0].AttemptID != 5 || attempts[1].AttemptID != 3 || attempts[2].AttemptID != 2 {
		t.Fatalf("history order = %+v", attempts)
	}

	// Within the staleness window the fetch is reused.
	clock.advance(time.Minute)
	if _, err := svc.History(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("backend calls = %d, want 1", calls)
	}

	clock.advance(5 * time.Minute)
	if _, err := svc.History(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("backend calls = %d, want 2", calls)
	}
}

// waitForState polls until the service settles in the wanted state. The
// watcher goroutine ticks on real seconds, so forced transitions land a
// moment after the fake clock passes the deadline.
func waitForState(t *testing.T, svc *service.ExamService, want service.ExamState) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if svc.State() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("state = %s, want %s", svc.State(), want)
}

func TestTimerForcesSubmission(t *testing.T) {
	clock := newMovableClock()
	submitted := make(chan []model.UserAnswer, 1)
	be := &fakeBackend{
		startExam: func(context.Context, string) (int64, error) { return 8, nil },
		submitExam: func(_ context.Context, attemptID int64, answers []model.UserAnswer) (*model.ExamAttempt, error) {
			submitted <- answers
			return &model.ExamAttempt{AttemptID: attemptID, Submitted: true}, nil
		},
	}
	svc := service.NewExamService(be, zerolog.Nop(), clock.now)

	if _, err := svc.StartExam(context.Background(), "MSCIT"); err != nil {
		t.Fatalf("start: %v", err)
	}
	mustNoErr := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	mustNoErr(svc.SelectAnswer("A"))
	mustNoErr(svc.JumpTo(2))
	mustNoErr(svc.SelectAnswer("B"))
	mustNoErr(svc.JumpTo(4))
	mustNoErr(svc.SelectAnswer("D"))

	// Past the deadline the watcher must submit without any user action.
	clock.advance(16 * time.Minute)

	var payload []model.UserAnswer
	select {
	case payload = <-submitted:
	case <-time.After(5 * time.Second):
		t.Fatal("deadline passed but no forced submission arrived")
	}

	if len(payload) != 15 {
		t.Fatalf("forced payload length = %d, want 15", len(payload))
	}
	answered := map[int64]string{1: "A", 3: "B", 5: "D"}
	nonEmpty := 0
	for i, entry := range payload {
		if entry.SelectedOption != "" {
			nonEmpty++
		}
		if want := answered[entry.QuestionID]; entry.SelectedOption != want {
			t.Fatalf("forced payload[%d].SelectedOption = %q, want %q", i, entry.SelectedOption, want)
		}
	}
	if nonEmpty != 3 {
		t.Fatalf("forced payload non-empty answers = %d, want 3", nonEmpty)
	}

	waitForState(t, svc, service.StateCompleted)

	// The session is gone; the losing submit path is a no-op.
	if _, err := svc.Submit(context.Background()); !errors.Is(err, service.ErrNoActiveAttempt) {
		t.Fatalf("submit after forced submission err = %v, want ErrNoActiveAttempt", err)
	}
	result, ok := svc.LastResult()
	if !ok || result.AttemptID != 8 {
		t.Fatalf("last result = %+v, %v", result, ok)
	}
}

func TestForcedSubmissionFailureRevertsForManualRetry(t *testing.T) {
	clock := newMovableClock()
	var mu sync.Mutex
	failing := true
	attempts := 0
	be := &fakeBackend{
		startExam: func(context.Context, string) (int64, error) { return 6, nil },
		submitExam: func(_ context.Context, attemptID int64, _ []model.UserAnswer) (*model.ExamAttempt, error) {
			mu.Lock()
			defer mu.Unlock()
			attempts++
			if failing {
				return nil, backend.ErrServiceUnavailable
			}
			return &model.ExamAttempt{AttemptID: attemptID, Submitted: true}, nil
		},
	}
	svc := service.NewExamService(be, zerolog.Nop(), clock.now)

	if _, err := svc.StartExam(context.Background(), "MSCIT"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.SelectAnswer("C"); err != nil {
		t.Fatal(err)
	}

	clock.advance(16 * time.Minute)

	// Wait for the watcher's forced submission to hit the failing backend.
	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := attempts
		mu.Unlock()
		if n >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("deadline passed but no forced submission was attempted")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The failed forced submit reverts to IN_PROGRESS with zero remaining;
	// the timer has already fired once and will not fire again.
	waitForState(t, svc, service.StateInProgress)
	remaining, ok := svc.Remaining()
	if !ok || remaining != 0 {
		t.Fatalf("remaining = %v, %v; want 0, true", remaining, ok)
	}
	status := svc.Status()
	if status.AnsweredCount != 1 {
		t.Fatalf("answeredCount after failed forced submit = %d, want 1", status.AnsweredCount)
	}

	// Manual retry succeeds once the backend recovers.
	mu.Lock()
	failing = false
	mu.Unlock()
	result, err := svc.Submit(context.Background())
	if err != nil {
		t.Fatalf("manual retry: %v", err)
	}
	if !result.Submitted || result.AttemptID != 6 {
		t.Fatalf("retry result = %+v", result)
	}
	if got := svc.State(); got != service.StateCompleted {
		t.Fatalf("state = %s, want COMPLETED", got)
	}
}

func TestReviewResolvesFromHistory(t *testing.T) {
	clock := newMovableClock()
	be := &fakeBackend{
		getAttempts: func(context.Context) ([]model.ExamAttempt, error) {
			return []model.ExamAttempt{{AttemptID: 4, Score: 11}}, nil
		},
	}
	svc := service.NewExamService(be, zerolog.Nop(), clock.now)

	attempt, err := svc.Review(context.Background(), 4)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if attempt.Score != 11 {
		t.Fatalf("score = %d, want 11", attempt.Score)
	}

	if _, err := svc.Review(context.Background(), 99); err == nil {
		t.Fatal("expected error for unknown attempt")
	}
}
