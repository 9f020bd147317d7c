package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-ledger-api/internal/dto"
	"github.com/noah-isme/college-ledger-api/internal/models"
	appErrors "github.com/noah-isme/college-ledger-api/pkg/errors"
	"github.com/noah-isme/college-ledger-api/pkg/response"
)

type registrationService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*models.Registration, error)
}

// RegistrationHandler exposes academic year registration.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(service registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: service}
}

// Register godoc
// @Summary Register an active academic year enrollment
// @Tags Registration
// @Accept json
// @Produce json
// @Param id path string true "Academic year enrollment ID"
// @Param Idempotency-Key header string false "Key that makes retries replay the first result"
// @Param payload body dto.RegisterRequest true "Registration payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /academic-year-enrollments/{id}/register [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid registration payload"))
		return
	}
	req.AcademicYearEnrollmentID = c.Param("id")
	req.IdempotencyKey = idempotencyKey(c)
	registration, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registration)
}
