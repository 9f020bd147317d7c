package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-ledger-api/internal/dto"
	"github.com/noah-isme/college-ledger-api/internal/models"
	appErrors "github.com/noah-isme/college-ledger-api/pkg/errors"
	"github.com/noah-isme/college-ledger-api/pkg/response"
)

type extensionFieldService interface {
	Fields(ctx context.Context, entity, entityID string) (map[string]json.RawMessage, error)
	Replace(ctx context.Context, entity, entityID string, values map[string]json.RawMessage) (map[string]json.RawMessage, error)
}

// ExtensionFieldHandler exposes admin-defined student fields.
type ExtensionFieldHandler struct {
	service extensionFieldService
}

// NewExtensionFieldHandler constructs the handler.
func NewExtensionFieldHandler(service extensionFieldService) *ExtensionFieldHandler {
	return &ExtensionFieldHandler{service: service}
}

// Get godoc
// @Summary Get the extension fields of a student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/extension-fields [get]
func (h *ExtensionFieldHandler) Get(c *gin.Context) {
	studentID := c.Param("id")
	fields, err := h.service.Fields(c.Request.Context(), models.ExtensionEntityStudent, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ExtensionFieldsResponse{Entity: models.ExtensionEntityStudent, EntityID: studentID, Fields: fields})
}

// Replace godoc
// @Summary Replace the extension fields of a student
// @Description Fields are validated against the JSON Schema configured for students.
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.ReplaceExtensionFieldsRequest true "Extension fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/{id}/extension-fields [put]
func (h *ExtensionFieldHandler) Replace(c *gin.Context) {
	var req dto.ReplaceExtensionFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Fields == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid extension fields payload"))
		return
	}
	studentID := c.Param("id")
	fields, err := h.service.Replace(c.Request.Context(), models.ExtensionEntityStudent, studentID, req.Fields)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ExtensionFieldsResponse{Entity: models.ExtensionEntityStudent, EntityID: studentID, Fields: fields})
}
