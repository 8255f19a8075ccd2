package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pathwise/compass-backend/internal/middleware"
	"github.com/pathwise/compass-backend/internal/model"
	"github.com/pathwise/compass-backend/internal/response"
	"github.com/pathwise/compass-backend/internal/service"
	"github.com/pathwise/compass-backend/internal/validator"
)

// AuthHandler handles student authentication endpoints.
type AuthHandler struct {
	studentService *service.StudentService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(studentService *service.StudentService) *AuthHandler {
	return &AuthHandler{studentService: studentService}
}

// Login godoc
// POST /api/v1/auth/login
// Validates NISN + password, rejects if another session is active, returns JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.StudentLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, student, err := h.studentService.Login(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		case errors.Is(err, service.ErrSessionAlreadyActive):
			response.Fail(c, http.StatusConflict, response.ErrSessionActive)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"student": gin.H{
			"id":          student.ID,
			"nisn":        student.NISN,
			"name":        student.Name,
			"grade_level": student.GradeLevel,
			"school_name": student.SchoolName,
		},
	})
}

// Logout godoc
// POST /api/v1/auth/logout
// Clears the single-device session so a new login is accepted.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.studentService.Logout(c.Request.Context(), claims.StudentID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated student.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), claims.StudentID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"student": gin.H{
			"id":          student.ID,
			"nisn":        student.NISN,
			"name":        student.Name,
			"grade_level": student.GradeLevel,
			"school_name": student.SchoolName,
		},
	})
}
