package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-ledger-api/internal/models"
	"github.com/noah-isme/college-ledger-api/pkg/response"
)

type ledgerService interface {
	YearFinancials(ctx context.Context, studentID, yearEnrollmentID string) (*models.YearFinancials, error)
	GlobalSummary(ctx context.Context, studentID string) (*models.GlobalSummary, error)
	Statement(ctx context.Context, studentID string) ([]byte, error)
}

// LedgerHandler exposes fee and payment aggregates.
type LedgerHandler struct {
	service ledgerService
}

// NewLedgerHandler constructs the handler.
func NewLedgerHandler(service ledgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// Summary godoc
// @Summary Get the financial summary of a student across registered years
// @Tags Ledger
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/financials [get]
func (h *LedgerHandler) Summary(c *gin.Context) {
	summary, err := h.service.GlobalSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}

// Year godoc
// @Summary Get the financials of one academic year enrollment
// @Tags Ledger
// @Produce json
// @Param id path string true "Student ID"
// @Param yearEnrollmentId path string true "Academic year enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/financials/years/{yearEnrollmentId} [get]
func (h *LedgerHandler) Year(c *gin.Context) {
	financials, err := h.service.YearFinancials(c.Request.Context(), c.Param("id"), c.Param("yearEnrollmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, financials)
}

// Statement godoc
// @Summary Download the financial statement as CSV
// @Tags Ledger
// @Produce text/csv
// @Param id path string true "Student ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/financials/statement.csv [get]
func (h *LedgerHandler) Statement(c *gin.Context) {
	studentID := c.Param("id")
	body, err := h.service.Statement(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "statement-"+studentID+".csv", "text/csv; charset=utf-8", body)
}
