package session

import (
	"time"

	"github.com/prepmitra/prepmitra-client/internal/model"
)

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

// AttemptSession is the in-memory working state of one exam attempt. It is
// created on a successful startExam, discarded on submit or abandonment, and
// deliberately not persisted across restarts: a timed attempt that loses its
// process is lost. It is not safe for concurrent use; the facade serializes
// access on the service mutex.
type AttemptSession struct {
	attemptID   int64
	course      string
	questionIDs []int64
	index       int
	answers     map[int64]string
	marked      map[int64]struct{}
	startedAt   time.Time
	totalTime   time.Duration
	now         Clock
}

// New seeds a session: position 0, empty answer map, empty review set, start
// timestamp = now. The question sequence is fixed by the course catalog
// (identifiers 1..N) and never reordered afterwards.
func New(attemptID int64, cfg model.CourseConfig, now Clock) *AttemptSession {
	if now == nil {
		now = time.Now
	}
	ids := make([]int64, cfg.QuestionCount)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	return &AttemptSession{
		attemptID:   attemptID,
		course:      cfg.Course,
		questionIDs: ids,
		answers:     make(map[int64]string),
		marked:      make(map[int64]struct{}),
		startedAt:   now(),
		totalTime:   cfg.TimeLimit,
		now:         now,
	}
}

// AttemptID returns the server-assigned attempt identifier.
func (s *AttemptSession) AttemptID() int64 { return s.attemptID }

// Course returns the course this attempt belongs to.
func (s *AttemptSession) Course() string { return s.course }

// Length returns the number of questions in the sequence.
func (s *AttemptSession) Length() int { return len(s.questionIDs) }

// Position returns the current zero-based question index.
func (s *AttemptSession) Position() int { return s.index }

// QuestionIDs returns a copy of the fixed question sequence.
func (s *AttemptSession) QuestionIDs() []int64 {
	ids := make([]int64, len(s.questionIDs))
	copy(ids, s.questionIDs)
	return ids
}

// CurrentQuestionID returns the question at the current position.
func (s *AttemptSession) CurrentQuestionID() int64 {
	return s.questionIDs[s.index]
}

// SelectAnswer records the option for the question at the current position.
// Last write wins. The option letter is not validated against the question's
// actual option set — the backend is authoritative on correctness anyway.
func (s *AttemptSession) SelectAnswer(option string) {
	s.answers[s.CurrentQuestionID()] = option
}

// AnswerFor returns the recorded option for a question, if any.
func (s *AttemptSession) AnswerFor(questionID int64) (string, bool) {
	option, ok := s.answers[questionID]
	return option, ok
}

// AnsweredCount returns how many questions have a recorded option.
func (s *AttemptSession) AnsweredCount() int { return len(s.answers) }

// ToggleReviewFlag flips the marked-for-review flag on the current question.
func (s *AttemptSession) ToggleReviewFlag() {
	qid := s.CurrentQuestionID()
	if _, ok := s.marked[qid]; ok {
		delete(s.marked, qid)
	} else {
		s.marked[qid] = struct{}{}
	}
}

// IsMarkedForReview reports whether a question carries the review flag.
func (s *AttemptSession) IsMarkedForReview(questionID int64) bool {
	_, ok := s.marked[questionID]
	return ok
}

// Advance moves to the next question. A no-op at the last index.
func (s *AttemptSession) Advance() {
	if s.index < len(s.questionIDs)-1 {
		s.index++
	}
}

// Retreat moves to the previous question. A no-op at index 0.
func (s *AttemptSession) Retreat() {
	if s.index > 0 {
		s.index--
	}
}

// JumpTo moves directly to the given index. Out-of-range indices are ignored.
func (s *AttemptSession) JumpTo(index int) {
	if index >= 0 && index < len(s.questionIDs) {
		s.index = index
	}
}

// StartedAt returns the wall-clock start of the attempt.
func (s *AttemptSession) StartedAt() time.Time { return s.startedAt }

// TotalTime returns the allotted duration for the attempt.
func (s *AttemptSession) TotalTime() time.Duration { return s.totalTime }

// Remaining derives the countdown from wall-clock elapsed time, never from a
// decrementing counter: max(0, total - elapsed). Correct even when the
// display ticker is throttled or misses ticks.
func (s *AttemptSession) Remaining() time.Duration {
	elapsed := s.now().Sub(s.startedAt)
	if remaining := s.totalTime - elapsed; remaining > 0 {
		return remaining
	}
	return 0
}

// BuildSubmissionPayload produces the full ordered answer array: exactly one
// entry per question in sequence order, empty SelectedOption for unanswered
// questions, Correct always false (the backend recomputes it). Pure function
// of current state.
func (s *AttemptSession) BuildSubmissionPayload() []model.UserAnswer {
	nowMillis := s.now().UnixMilli()
	payload := make([]model.UserAnswer, len(s.questionIDs))
	for i, qid := range s.questionIDs {
		payload[i] = model.UserAnswer{
			ID:             int64(i),
			QuestionID:     qid,
			SelectedOption: s.answers[qid],
			Correct:        false,
			Timestamp:      nowMillis,
		}
	}
	return payload
}
