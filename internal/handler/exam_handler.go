package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prepmitra/prepmitra-client/internal/backend"
	"github.com/prepmitra/prepmitra-client/internal/model"
	"github.com/prepmitra/prepmitra-client/internal/response"
	"github.com/prepmitra/prepmitra-client/internal/service"
	"github.com/prepmitra/prepmitra-client/internal/validator"
)

// ExamHandler exposes the attempt lifecycle to the UI.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// Start godoc
// POST /api/v1/exam/start
// Begins a new attempt for a catalog course.
func (h *ExamHandler) Start(c *gin.Context) {
	var req model.StartExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if _, err := model.ConfigForCourse(req.Course); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownCourse)
		return
	}

	status, err := h.examService.StartExam(c.Request.Context(), req.Course)
	if err != nil {
		h.failLifecycle(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"attempt": status})
}

// Status godoc
// GET /api/v1/exam/status
// Snapshots the attempt state machine for the UI.
func (h *ExamHandler) Status(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"status": h.examService.Status()})
}

// Answer godoc
// POST /api/v1/exam/answer
// Records an option for the current question. Last write wins.
func (h *ExamHandler) Answer(c *gin.Context) {
	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.examService.SelectAnswer(req.Option); err != nil {
		h.failLifecycle(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": h.examService.Status()})
}

// ToggleFlag godoc
// POST /api/v1/exam/flag
// Flips the review flag on the current question.
func (h *ExamHandler) ToggleFlag(c *gin.Context) {
	if err := h.examService.ToggleReviewFlag(); err != nil {
		h.failLifecycle(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": h.examService.Status()})
}

// Next godoc
// POST /api/v1/exam/next
// Moves to the next question. No-op at the last one.
func (h *ExamHandler) Next(c *gin.Context) {
	if err := h.examService.Advance(); err != nil {
		h.failLifecycle(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": h.examService.Status()})
}

// Previous godoc
// POST /api/v1/exam/previous
// Moves to the previous question. No-op at the first one.
func (h *ExamHandler) Previous(c *gin.Context) {
	if err := h.examService.Retreat(); err != nil {
		h.failLifecycle(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": h.examService.Status()})
}

// Jump godoc
// POST /api/v1/exam/jump
// Moves to a specific question index. Out-of-range indexes are ignored.
func (h *ExamHandler) Jump(c *gin.Context) {
	var req model.JumpRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.examService.JumpTo(*req.Index); err != nil {
		h.failLifecycle(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": h.examService.Status()})
}

// Question godoc
// GET /api/v1/exam/questions/:question_id
// Returns the review payload for one question of the active attempt.
func (h *ExamHandler) Question(c *gin.Context) {
	questionID, err := strconv.ParseInt(c.Param("question_id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	review, err := h.examService.QuestionReview(c.Request.Context(), questionID)
	if err != nil {
		h.failLifecycle(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": review})
}

// Submit godoc
// POST /api/v1/exam/submit
// Transmits the full answer set. On failure the attempt stays open for retry.
func (h *ExamHandler) Submit(c *gin.Context) {
	result, err := h.examService.Submit(c.Request.Context())
	if err != nil {
		h.failLifecycle(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// Abandon godoc
// POST /api/v1/exam/abandon
// Discards the active attempt without submitting.
func (h *ExamHandler) Abandon(c *gin.Context) {
	if err := h.examService.Abandon(); err != nil {
		h.failLifecycle(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Result godoc
// GET /api/v1/exam/result
// Returns the scored attempt of the most recent submission.
func (h *ExamHandler) Result(c *gin.Context) {
	result, ok := h.examService.LastResult()
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrNoResult)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// History godoc
// GET /api/v1/exam/attempts
// Returns the attempt history, newest first.
func (h *ExamHandler) History(c *gin.Context) {
	attempts, err := h.examService.History(c.Request.Context())
	if err != nil {
		h.failLifecycle(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// Review godoc
// GET /api/v1/exam/attempts/:attempt_id
// Returns one attempt from the canonical history for answer review.
func (h *ExamHandler) Review(c *gin.Context) {
	attemptID, err := strconv.ParseInt(c.Param("attempt_id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.examService.Review(c.Request.Context(), attemptID)
	if err != nil {
		if errors.Is(err, backend.ErrServiceUnavailable) {
			response.Fail(c, http.StatusServiceUnavailable, response.ErrBackendUnavailable)
			return
		}
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// failLifecycle maps service errors onto the response envelope.
func (h *ExamHandler) failLifecycle(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoActiveAttempt):
		response.Fail(c, http.StatusConflict, response.ErrNoActiveAttempt)
	case errors.Is(err, service.ErrAttemptActive):
		response.Fail(c, http.StatusConflict, response.ErrAttemptActive)
	case errors.Is(err, backend.ErrServiceUnavailable):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrBackendUnavailable)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
