package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepmitra/prepmitra-client/internal/backend"
	"github.com/prepmitra/prepmitra-client/internal/model"
	"github.com/prepmitra/prepmitra-client/internal/response"
	"github.com/prepmitra/prepmitra-client/internal/service"
	"github.com/prepmitra/prepmitra-client/internal/validator"
)

// PracticeHandler exposes practice-mode reads and mutations to the UI.
type PracticeHandler struct {
	practiceService *service.PracticeService
}

// NewPracticeHandler creates a new PracticeHandler.
func NewPracticeHandler(practiceService *service.PracticeService) *PracticeHandler {
	return &PracticeHandler{practiceService: practiceService}
}

// Questions godoc
// GET /api/v1/practice/questions?course=...&chapter=...
// Returns the question list, remote-first with cache fallback.
func (h *PracticeHandler) Questions(c *gin.Context) {
	var query model.PracticeQuestionsQuery
	if fields := validator.BindQuery(c, &query); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.practiceService.GetQuestions(c.Request.Context(), query.Course, query.Chapter, query.Limit, query.Offset)
	if err != nil {
		h.failFetch(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Answer godoc
// POST /api/v1/practice/answers
// Submits one practice answer. Queues it instead of failing when offline.
func (h *PracticeHandler) Answer(c *gin.Context) {
	var req model.PracticeAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.practiceService.SubmitAnswer(c.Request.Context(), req.QuestionID, req.SelectedOption)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"answer": result})
}

// ToggleBookmark godoc
// POST /api/v1/practice/bookmarks/toggle
// Flips a bookmark. Queues the toggle instead of failing when offline.
func (h *PracticeHandler) ToggleBookmark(c *gin.Context) {
	var req model.BookmarkToggleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.practiceService.ToggleBookmark(c.Request.Context(), req.QuestionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookmark": result})
}

// Bookmarks godoc
// GET /api/v1/practice/bookmarks
// Returns the bookmarked questions, remote-first with cache fallback.
func (h *PracticeHandler) Bookmarks(c *gin.Context) {
	bookmarks, err := h.practiceService.GetBookmarkedQuestions(c.Request.Context())
	if err != nil {
		h.failFetch(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": bookmarks})
}

// Progress godoc
// GET /api/v1/practice/progress?course=...&chapter=...
// Returns the per-chapter progress summary, remote-first with cache fallback.
func (h *PracticeHandler) Progress(c *gin.Context) {
	var query model.ProgressQuery
	if fields := validator.BindQuery(c, &query); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	progress, err := h.practiceService.GetProgress(c.Request.Context(), query.Course, query.Chapter)
	if err != nil {
		h.failFetch(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"progress": progress})
}

func (h *PracticeHandler) failFetch(c *gin.Context, err error) {
	if errors.Is(err, backend.ErrServiceUnavailable) {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrBackendUnavailable)
		return
	}
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
