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

type progressionService interface {
	ComputePromotionTarget(ctx context.Context, studentID string) (*models.PromotionPlan, error)
	Promote(ctx context.Context, req dto.PromoteRequest) (*models.ProgressionResult, error)
	TransferBranch(ctx context.Context, req dto.TransferRequest) (*models.ProgressionResult, error)
}

// ProgressionHandler exposes promotion and branch transfer.
type ProgressionHandler struct {
	service progressionService
}

// NewProgressionHandler constructs the handler.
func NewProgressionHandler(service progressionService) *ProgressionHandler {
	return &ProgressionHandler{service: service}
}

// PromotionTarget godoc
// @Summary Compute the next semester of a student
// @Description Returns end_of_course=true when the student has finished the course.
// @Tags Progression
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/promotion-target [get]
func (h *ProgressionHandler) PromotionTarget(c *gin.Context) {
	plan, err := h.service.ComputePromotionTarget(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan)
}

// Promote godoc
// @Summary Promote a student to the next semester
// @Tags Progression
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param Idempotency-Key header string false "Key that makes retries replay the first result"
// @Param payload body dto.PromoteRequest false "Promotion options"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/promote [post]
func (h *ProgressionHandler) Promote(c *gin.Context) {
	var req dto.PromoteRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid promotion payload"))
		return
	}
	req.StudentID = c.Param("id")
	req.IdempotencyKey = idempotencyKey(c)
	result, err := h.service.Promote(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Transfer godoc
// @Summary Transfer a student to another course
// @Tags Progression
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param Idempotency-Key header string false "Key that makes retries replay the first result"
// @Param payload body dto.TransferRequest true "Transfer target"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/transfer [post]
func (h *ProgressionHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid transfer payload"))
		return
	}
	req.StudentID = c.Param("id")
	req.IdempotencyKey = idempotencyKey(c)
	result, err := h.service.TransferBranch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
