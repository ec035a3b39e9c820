package model

// PracticeProgress is the backend's per-chapter progress summary.
type PracticeProgress struct {
	TotalAnswered   int64 `json:"totalAnswered"`
	TotalBookmarked int64 `json:"totalBookmarked"`
	TotalWrong      int64 `json:"totalWrong"`
}

// OutboxAction discriminates pending offline mutations.
type OutboxAction string

const (
	OutboxActionAnswer   OutboxAction = "answer"
	OutboxActionBookmark OutboxAction = "bookmark"
)

// OutboxItem is a practice mutation that failed against the backend and is
// queued locally for replay. ClientRef is a client-generated token recorded
// per item so a server-side dedupe can be adopted later; the current backend
// contract does not consume it, so replay remains at-least-once.
type OutboxItem struct {
	Action         OutboxAction `json:"action"`
	QuestionID     int64        `json:"questionId"`
	SelectedOption string       `json:"selectedOption,omitempty"`
	ClientRef      string       `json:"clientRef"`
	Timestamp      int64        `json:"timestamp"`
}
