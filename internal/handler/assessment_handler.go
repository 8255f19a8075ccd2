package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pathwise/compass-backend/internal/middleware"
	"github.com/pathwise/compass-backend/internal/model"
	"github.com/pathwise/compass-backend/internal/repository"
	"github.com/pathwise/compass-backend/internal/response"
	"github.com/pathwise/compass-backend/internal/service"
	"github.com/pathwise/compass-backend/internal/session"
	"github.com/pathwise/compass-backend/internal/validator"
)

// AssessmentHandler exposes the assessment session over REST. Every
// operation resolves the student's live controller through the
// manager and maps controller errors onto the response envelope.
type AssessmentHandler struct {
	manager  *session.Manager
	attempts *service.AttemptService
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(manager *session.Manager, attempts *service.AttemptService) *AssessmentHandler {
	return &AssessmentHandler{manager: manager, attempts: attempts}
}

type gradeRequest struct {
	GradeLevel string `json:"grade_level" binding:"required"`
}

type categoryRequest struct {
	CategoryID string `json:"category_id" binding:"required"`
}

// Eligibility godoc
// GET /api/v1/assessment/eligibility
// Reports whether the retake cooldown permits a new attempt.
func (h *AssessmentHandler) Eligibility(c *gin.Context) {
	claims := middleware.GetClaims(c)
	elig, err := h.attempts.CheckEligibility(c.Request.Context(), claims.StudentID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, elig)
}

// State godoc
// GET /api/v1/assessment/state
// Attaches (creating or resuming a session) and returns the snapshot.
func (h *AssessmentHandler) State(c *gin.Context) {
	ctrl, err := h.attach(c)
	if err != nil {
		return
	}
	response.Success(c, http.StatusOK, ctrl.State())
}

// SelectGrade godoc
// POST /api/v1/assessment/grade
func (h *AssessmentHandler) SelectGrade(c *gin.Context) {
	var req gradeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	ctrl, err := h.attach(c)
	if err != nil {
		return
	}
	if err := ctrl.SelectGrade(c.Request.Context(), req.GradeLevel); err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, ctrl.State())
}

// SelectCategory godoc
// POST /api/v1/assessment/category
func (h *AssessmentHandler) SelectCategory(c *gin.Context) {
	var req categoryRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	ctrl, err := h.attach(c)
	if err != nil {
		return
	}
	if err := ctrl.SelectCategory(c.Request.Context(), req.CategoryID); err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, ctrl.State())
}

// StartSection godoc
// POST /api/v1/assessment/section/start
// Moves from the section intro into answering, arming the timer.
func (h *AssessmentHandler) StartSection(c *gin.Context) {
	h.run(c, func(ctrl *session.Controller) error {
		return ctrl.StartSection(c.Request.Context())
	})
}

// RetrySection godoc
// POST /api/v1/assessment/section/retry
// Retries a failed adaptive section start from the intro screen.
func (h *AssessmentHandler) RetrySection(c *gin.Context) {
	h.run(c, func(ctrl *session.Controller) error {
		return ctrl.RetrySection(c.Request.Context())
	})
}

// Answer godoc
// POST /api/v1/assessment/answer
// Stores the answer for the question the student is currently on.
func (h *AssessmentHandler) Answer(c *gin.Context) {
	var value model.Answer
	if fields := validator.Bind(c, &value); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if !model.ValidAnswerKind(value.Kind) {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidAnswer)
		return
	}
	h.run(c, func(ctrl *session.Controller) error {
		return ctrl.AnswerQuestion(c.Request.Context(), value)
	})
}

// Next godoc
// POST /api/v1/assessment/next
func (h *AssessmentHandler) Next(c *gin.Context) {
	h.run(c, func(ctrl *session.Controller) error {
		return ctrl.Next(c.Request.Context())
	})
}

// Previous godoc
// POST /api/v1/assessment/previous
func (h *AssessmentHandler) Previous(c *gin.Context) {
	h.run(c, func(ctrl *session.Controller) error {
		return ctrl.Previous(c.Request.Context())
	})
}

// NextSection godoc
// POST /api/v1/assessment/section/next
// Leaves the section-complete screen for the next intro, or submits
// after the final section.
func (h *AssessmentHandler) NextSection(c *gin.Context) {
	h.run(c, func(ctrl *session.Controller) error {
		return ctrl.NextSection(c.Request.Context())
	})
}

// Submit godoc
// POST /api/v1/assessment/submit
// Also retries a previously failed submission.
func (h *AssessmentHandler) Submit(c *gin.Context) {
	ctrl, err := h.attach(c)
	if err != nil {
		return
	}
	if err := ctrl.Submit(c.Request.Context()); err != nil {
		if errors.Is(err, session.ErrWrongPhase) {
			h.failSession(c, err)
			return
		}
		// Scoring or persistence failed; the phase stays retryable.
		response.Fail(c, http.StatusInternalServerError, response.ErrSubmissionFailed)
		return
	}
	response.Success(c, http.StatusOK, ctrl.State())
}

// Abandon godoc
// POST /api/v1/assessment/abandon
// Abandons the attempt and releases the live session.
func (h *AssessmentHandler) Abandon(c *gin.Context) {
	claims := middleware.GetClaims(c)
	ctrl, ok := h.manager.Get(claims.StudentID)
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return
	}
	if err := ctrl.Abandon(c.Request.Context()); err != nil {
		h.failSession(c, err)
		return
	}
	h.manager.Detach(claims.StudentID)
	response.Success(c, http.StatusOK, gin.H{})
}

// GetResult godoc
// GET /api/v1/assessment/results/:id
func (h *AssessmentHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	result, err := h.attempts.GetResult(c.Request.Context(), claims.StudentID, id)
	if err != nil {
		if errors.Is(err, repository.ErrResultNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrResultUnavailable)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// GetLatestResult godoc
// GET /api/v1/assessment/results/latest
func (h *AssessmentHandler) GetLatestResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	result, err := h.attempts.GetLatestResult(c.Request.Context(), claims.StudentID)
	if err != nil {
		if errors.Is(err, repository.ErrResultNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrResultUnavailable)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// run executes one controller operation against an attached session
// and returns the refreshed state.
func (h *AssessmentHandler) run(c *gin.Context, op func(*session.Controller) error) {
	ctrl, err := h.attach(c)
	if err != nil {
		return
	}
	if err := op(ctrl); err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, ctrl.State())
}

func (h *AssessmentHandler) attach(c *gin.Context) (*session.Controller, error) {
	claims := middleware.GetClaims(c)
	ctrl, err := h.manager.Attach(c.Request.Context(), claims.StudentID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return nil, err
	}
	return ctrl, nil
}

func (h *AssessmentHandler) failSession(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidGrade):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidGrade)
	case errors.Is(err, session.ErrInvalidCategory):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidCategory)
	case errors.Is(err, session.ErrWrongPhase):
		response.Fail(c, http.StatusConflict, response.ErrWrongPhase)
	case errors.Is(err, session.ErrNoQuestions):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrNoQuestions)
	case errors.Is(err, session.ErrAdaptiveEngine):
		response.Fail(c, http.StatusBadGateway, response.ErrAdaptiveEngine)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
