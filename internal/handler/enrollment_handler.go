package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-ledger-api/internal/models"
	"github.com/noah-isme/college-ledger-api/pkg/response"
)

type enrollmentService interface {
	Current(ctx context.Context, studentID string) (*models.CurrentEnrollment, error)
	History(ctx context.Context, studentID string) ([]models.AcademicYearHistory, error)
	Registration(ctx context.Context, yearEnrollmentID string) (*models.Registration, error)
}

// EnrollmentHandler exposes a student's enrollment state.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(service enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

// Current godoc
// @Summary Get the active academic year and semester of a student
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/enrollment [get]
func (h *EnrollmentHandler) Current(c *gin.Context) {
	current, err := h.service.Current(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, current)
}

// History godoc
// @Summary List every academic year enrollment with nested semesters
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enrollments [get]
func (h *EnrollmentHandler) History(c *gin.Context) {
	history, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, map[string]interface{}{"total": len(history)})
}

// Registration godoc
// @Summary Get an academic year enrollment with its registered subjects
// @Tags Enrollments
// @Produce json
// @Param id path string true "Academic year enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /academic-year-enrollments/{id} [get]
func (h *EnrollmentHandler) Registration(c *gin.Context) {
	registration, err := h.service.Registration(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registration)
}
