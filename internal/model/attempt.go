package model

// UserAnswer is one entry of the submission payload. The full ordered array
// (one entry per question in sequence order, empty SelectedOption for
// unanswered questions) is the sole payload of submitExam. Correct is always
// sent as false; the backend recomputes it and is authoritative.
type UserAnswer struct {
	ID             int64  `json:"id"`
	QuestionID     int64  `json:"questionId"`
	SelectedOption string `json:"selectedOption"`
	Correct        bool   `json:"correct"`
	Timestamp      int64  `json:"timestamp"`
}

// ExamQuestionReview is the per-question payload fetched lazily during an
// attempt and shown again on the review screen.
type ExamQuestionReview struct {
	Question       Question `json:"question"`
	Correct        bool     `json:"correct"`
	UserCorrect    bool     `json:"userCorrect"`
	SelectedOption *string  `json:"selectedOption,omitempty"`
	OriginalAnswer *string  `json:"originalAnswer,omitempty"`
}

// ExamAttempt is the client's read-only projection of a server-owned attempt.
// It is created by startExam and mutated exactly once by submitExam, after
// which the terminal fields (Submitted, Score, Passed, TimeRemaining,
// QuestionReviews) are populated and never change.
type ExamAttempt struct {
	AttemptID       int64                `json:"attemptId"`
	ExamType        string               `json:"examType"`
	Submitted       bool                 `json:"submitted"`
	Score           int64                `json:"score"`
	Passed          bool                 `json:"passed"`
	TimeRemaining   int64                `json:"timeRemaining"`
	Answers         []UserAnswer         `json:"answers"`
	QuestionReviews []ExamQuestionReview `json:"questionReviews"`
}
