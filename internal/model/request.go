package model

// StartExamRequest starts a new attempt for a catalog course.
type StartExamRequest struct {
	Course string `json:"course" binding:"required"`
}

// SelectAnswerRequest records an option for the current question.
type SelectAnswerRequest struct {
	Option string `json:"option" binding:"required"`
}

// JumpRequest moves the cursor to a question index. Pointer so index 0
// survives required validation.
type JumpRequest struct {
	Index *int `json:"index" binding:"required"`
}

// PracticeQuestionsQuery filters the practice question list.
type PracticeQuestionsQuery struct {
	Course  string `form:"course" binding:"required"`
	Chapter string `form:"chapter" binding:"required"`
	Limit   *int64 `form:"limit" binding:"omitempty,min=1"`
	Offset  *int64 `form:"offset" binding:"omitempty,min=0"`
}

// PracticeAnswerRequest submits one practice answer.
type PracticeAnswerRequest struct {
	QuestionID     int64  `json:"question_id" binding:"required"`
	SelectedOption string `json:"selected_option" binding:"required"`
}

// BookmarkToggleRequest flips the bookmark state of a question.
type BookmarkToggleRequest struct {
	QuestionID int64 `json:"question_id" binding:"required"`
}

// ProgressQuery selects the progress summary scope.
type ProgressQuery struct {
	Course  string `form:"course" binding:"required"`
	Chapter string `form:"chapter" binding:"required"`
}

// SetTokenRequest installs a backend session token.
type SetTokenRequest struct {
	Token string `json:"token" binding:"required"`
}
