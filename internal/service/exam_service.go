package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepmitra/prepmitra-client/internal/backend"
	"github.com/prepmitra/prepmitra-client/internal/model"
	"github.com/prepmitra/prepmitra-client/internal/session"
)

// ExamState enumerates the attempt lifecycle states.
type ExamState string

const (
	StateIdle       ExamState = "IDLE"
	StateStarting   ExamState = "STARTING"
	StateInProgress ExamState = "IN_PROGRESS"
	StateSubmitting ExamState = "SUBMITTING"
	StateCompleted  ExamState = "COMPLETED"
)

var (
	// ErrNoActiveAttempt is returned when an operation needs a running attempt.
	ErrNoActiveAttempt = errors.New("no active exam attempt")
	// ErrAttemptActive is returned when starting while an attempt is running.
	ErrAttemptActive = errors.New("an exam attempt is already active")
)

// historyStaleAfter bounds how long a fetched attempt history is reused
// before the next read goes back to the backend.
const historyStaleAfter = 2 * time.Minute

// reviewKey identifies a memoized per-question review payload.
type reviewKey struct {
	attemptID  int64
	questionID int64
}

// ExamService drives the exam attempt lifecycle:
//
//	IDLE → STARTING → IN_PROGRESS → SUBMITTING → COMPLETED
//
// Exactly one attempt session exists at a time. All transitions happen under
// one mutex, which is also what resolves the race between a user-initiated
// submit and the timer-forced one: whichever observes IN_PROGRESS first wins,
// the loser sees SUBMITTING/COMPLETED and becomes a no-op.
type ExamService struct {
	backend backend.Service
	log     zerolog.Logger
	now     session.Clock

	mu          sync.Mutex
	state       ExamState
	sess        *session.AttemptSession
	timer       *session.Timer
	watchCancel context.CancelFunc
	lastResult  *model.ExamAttempt
	reviews     map[reviewKey]*model.ExamQuestionReview

	historyCache []model.ExamAttempt
	historyAt    time.Time
}

// NewExamService creates an ExamService. now may be nil (wall clock).
func NewExamService(svc backend.Service, log zerolog.Logger, now session.Clock) *ExamService {
	if now == nil {
		now = time.Now
	}
	return &ExamService{
		backend: svc,
		log:     log.With().Str("component", "exam_service").Logger(),
		now:     now,
		state:   StateIdle,
		reviews: make(map[reviewKey]*model.ExamQuestionReview),
	}
}

// State returns the current lifecycle state.
func (s *ExamService) State() ExamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AttemptStatus is a snapshot of the active session for the UI.
type AttemptStatus struct {
	State             ExamState `json:"state"`
	AttemptID         int64     `json:"attemptId,omitempty"`
	Course            string    `json:"course,omitempty"`
	QuestionIDs       []int64   `json:"questionIds,omitempty"`
	Position          int       `json:"position"`
	CurrentQuestionID int64     `json:"currentQuestionId,omitempty"`
	AnsweredCount     int       `json:"answeredCount"`
	MarkedForReview   []int64   `json:"markedForReview,omitempty"`
	RemainingSeconds  int64     `json:"remainingSeconds"`
	TotalSeconds      int64     `json:"totalSeconds,omitempty"`
}

// Status snapshots the current state machine for display.
func (s *ExamService) Status() AttemptStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := AttemptStatus{State: s.state}
	if s.sess == nil {
		return st
	}

	st.AttemptID = s.sess.AttemptID()
	st.Course = s.sess.Course()
	st.QuestionIDs = s.sess.QuestionIDs()
	st.Position = s.sess.Position()
	st.CurrentQuestionID = s.sess.CurrentQuestionID()
	st.AnsweredCount = s.sess.AnsweredCount()
	st.RemainingSeconds = int64(s.timer.Remaining().Seconds())
	st.TotalSeconds = int64(s.sess.TotalTime().Seconds())
	for _, qid := range s.sess.QuestionIDs() {
		if s.sess.IsMarkedForReview(qid) {
			st.MarkedForReview = append(st.MarkedForReview, qid)
		}
	}
	return st
}

// StartExam begins a new attempt for the course. On backend failure no
// partial session is created and the machine stays IDLE for a clean retry.
func (s *ExamService) StartExam(ctx context.Context, course string) (*AttemptStatus, error) {
	cfg, err := model.ConfigForCourse(course)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.state == StateStarting || s.state == StateInProgress || s.state == StateSubmitting {
		s.mu.Unlock()
		return nil, ErrAttemptActive
	}
	s.state = StateStarting
	s.mu.Unlock()

	attemptID, err := s.backend.StartExam(ctx, course)
	if err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		return nil, fmt.Errorf("start exam: %w", err)
	}

	s.mu.Lock()
	s.sess = session.New(attemptID, cfg, s.now)
	s.timer = session.NewTimer(s.sess.StartedAt(), s.sess.TotalTime(), s.now)
	s.reviews = make(map[reviewKey]*model.ExamQuestionReview)
	s.lastResult = nil
	s.state = StateInProgress

	watchCtx, cancel := context.WithCancel(context.Background())
	s.watchCancel = cancel
	go s.timer.Watch(watchCtx, nil, s.autoSubmit)
	s.mu.Unlock()

	s.log.Info().
		Int64("attempt_id", attemptID).
		Str("course", course).
		Int("questions", cfg.QuestionCount).
		Dur("time_limit", cfg.TimeLimit).
		Msg("Exam attempt started")

	status := s.Status()
	return &status, nil
}

// SelectAnswer records an option for the current question (last write wins).
func (s *ExamService) SelectAnswer(option string) error {
	return s.withActiveSession(func(sess *session.AttemptSession) {
		sess.SelectAnswer(option)
	})
}

// ToggleReviewFlag flips the review flag on the current question.
func (s *ExamService) ToggleReviewFlag() error {
	return s.withActiveSession(func(sess *session.AttemptSession) {
		sess.ToggleReviewFlag()
	})
}

// Advance moves to the next question (no-op at the last one).
func (s *ExamService) Advance() error {
	return s.withActiveSession(func(sess *session.AttemptSession) {
		sess.Advance()
	})
}

// Retreat moves to the previous question (no-op at the first one).
func (s *ExamService) Retreat() error {
	return s.withActiveSession(func(sess *session.AttemptSession) {
		sess.Retreat()
	})
}

// JumpTo moves to a specific question index (ignored when out of range).
func (s *ExamService) JumpTo(index int) error {
	return s.withActiveSession(func(sess *session.AttemptSession) {
		sess.JumpTo(index)
	})
}

func (s *ExamService) withActiveSession(fn func(*session.AttemptSession)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress || s.sess == nil {
		return ErrNoActiveAttempt
	}
	fn(s.sess)
	return nil
}

// QuestionReview fetches the review payload for one question of the active
// attempt. Fetched lazily per visited question and memoized for the life of
// the session — question content for a started attempt cannot change.
func (s *ExamService) QuestionReview(ctx context.Context, questionID int64) (*model.ExamQuestionReview, error) {
	s.mu.Lock()
	if s.state != StateInProgress || s.sess == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveAttempt
	}
	attemptID := s.sess.AttemptID()
	key := reviewKey{attemptID: attemptID, questionID: questionID}
	if cached, ok := s.reviews[key]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	review, err := s.backend.GetExamQuestion(ctx, attemptID, questionID)
	if err != nil {
		return nil, fmt.Errorf("fetch question review: %w", err)
	}

	s.mu.Lock()
	// Only memoize if the same attempt is still active.
	if s.sess != nil && s.sess.AttemptID() == attemptID {
		s.reviews[key] = review
	}
	s.mu.Unlock()
	return review, nil
}

// Submit transmits the full answer set once. On success the scored attempt
// becomes the terminal last result and the session is discarded. On failure
// the machine reverts to IN_PROGRESS with the session intact, so the user can
// retry submission without redoing the exam.
func (s *ExamService) Submit(ctx context.Context) (*model.ExamAttempt, error) {
	s.mu.Lock()
	if s.state != StateInProgress || s.sess == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveAttempt
	}
	attemptID := s.sess.AttemptID()
	payload := s.sess.BuildSubmissionPayload()
	s.state = StateSubmitting
	s.mu.Unlock()

	result, err := s.backend.SubmitExam(ctx, attemptID, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateInProgress
		s.log.Warn().Err(err).Int64("attempt_id", attemptID).Msg("Submit failed, session preserved for retry")
		return nil, fmt.Errorf("submit exam: %w", err)
	}

	s.lastResult = result
	s.sess = nil
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	s.historyCache = nil // Force a re-fetch so history shows the new attempt.
	s.state = StateCompleted

	s.log.Info().
		Int64("attempt_id", attemptID).
		Int64("score", result.Score).
		Bool("passed", result.Passed).
		Msg("Exam attempt submitted")
	return result, nil
}

// autoSubmit is the timer's time-up callback. If the user already submitted
// (or abandoned), the state check makes this a no-op. A failed forced submit
// reverts to IN_PROGRESS with zero remaining; the timer will not re-fire, so
// the UI must offer a manual retry.
func (s *ExamService) autoSubmit() {
	s.mu.Lock()
	if s.state != StateInProgress || s.sess == nil {
		s.mu.Unlock()
		return
	}
	attemptID := s.sess.AttemptID()
	s.mu.Unlock()

	s.log.Info().Int64("attempt_id", attemptID).Msg("Time up, forcing submission")
	if _, err := s.Submit(context.Background()); err != nil && !errors.Is(err, ErrNoActiveAttempt) {
		s.log.Error().Err(err).Int64("attempt_id", attemptID).Msg("Forced submission failed")
	}
}

// Abandon explicitly discards the active session without submitting.
func (s *ExamService) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress || s.sess == nil {
		return ErrNoActiveAttempt
	}
	attemptID := s.sess.AttemptID()
	s.sess = nil
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	s.state = StateIdle
	s.log.Info().Int64("attempt_id", attemptID).Msg("Exam attempt abandoned")
	return nil
}

// LastResult returns the terminal result of the most recent submission.
func (s *ExamService) LastResult() (*model.ExamAttempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastResult == nil {
		return nil, false
	}
	return s.lastResult, true
}

// Remaining returns the authoritative remaining time of the active attempt.
func (s *ExamService) Remaining() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil || s.sess == nil {
		return 0, false
	}
	return s.timer.Remaining(), true
}

// History returns the attempt history sorted by attempt ID descending,
// reusing the last fetch for up to two minutes.
func (s *ExamService) History(ctx context.Context) ([]model.ExamAttempt, error) {
	s.mu.Lock()
	if s.historyCache != nil && s.now().Sub(s.historyAt) <= historyStaleAfter {
		cached := s.historyCache
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	attempts, err := s.backend.GetAttempts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].AttemptID > attempts[j].AttemptID
	})

	s.mu.Lock()
	s.historyCache = attempts
	s.historyAt = s.now()
	s.mu.Unlock()
	return attempts, nil
}

// Review resolves one attempt from the canonical history by ID.
func (s *ExamService) Review(ctx context.Context, attemptID int64) (*model.ExamAttempt, error) {
	attempts, err := s.History(ctx)
	if err != nil {
		return nil, err
	}
	for i := range attempts {
		if attempts[i].AttemptID == attemptID {
			return &attempts[i], nil
		}
	}
	return nil, fmt.Errorf("attempt %d not found", attemptID)
}
