package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-ledger-api/internal/models"
	"github.com/noah-isme/college-ledger-api/pkg/response"
)

type catalogService interface {
	Streams(ctx context.Context) ([]models.Stream, error)
	CoursesByStream(ctx context.Context, streamID string) ([]models.Course, error)
	AcademicYearsByCourse(ctx context.Context, courseID string) ([]models.AcademicYear, error)
	SemestersByAcademicYear(ctx context.Context, academicYearID string) ([]models.Semester, error)
	SubjectsBySemester(ctx context.Context, semesterID string) ([]models.Subject, error)
	FeeAmount(ctx context.Context, courseID, category string) (int64, error)
}

// CatalogHandler exposes the read-only academic hierarchy.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// Streams godoc
// @Summary List streams
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/streams [get]
func (h *CatalogHandler) Streams(c *gin.Context) {
	streams, err := h.service.Streams(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, streams)
}

// Courses godoc
// @Summary List courses of a stream
// @Tags Catalog
// @Produce json
// @Param id path string true "Stream ID"
// @Success 200 {object} response.Envelope
// @Router /catalog/streams/{id}/courses [get]
func (h *CatalogHandler) Courses(c *gin.Context) {
	courses, err := h.service.CoursesByStream(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses)
}

// AcademicYears godoc
// @Summary List academic years of a course in progression order
// @Tags Catalog
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /catalog/courses/{id}/academic-years [get]
func (h *CatalogHandler) AcademicYears(c *gin.Context) {
	years, err := h.service.AcademicYearsByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, years)
}

// Semesters godoc
// @Summary List semesters of an academic year in progression order
// @Tags Catalog
// @Produce json
// @Param id path string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /catalog/academic-years/{id}/semesters [get]
func (h *CatalogHandler) Semesters(c *gin.Context) {
	semesters, err := h.service.SemestersByAcademicYear(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters)
}

// Subjects godoc
// @Summary List subjects of a semester
// @Tags Catalog
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /catalog/semesters/{id}/subjects [get]
func (h *CatalogHandler) Subjects(c *gin.Context) {
	subjects, err := h.service.SubjectsBySemester(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects)
}

// FeeAmount godoc
// @Summary Get the fee of a course for a fee category
// @Tags Catalog
// @Produce json
// @Param id path string true "Course ID"
// @Param category path string true "Fee category"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /catalog/courses/{id}/fees/{category} [get]
func (h *CatalogHandler) FeeAmount(c *gin.Context) {
	courseID, category := c.Param("id"), c.Param("category")
	amount, err := h.service.FeeAmount(c.Request.Context(), courseID, category)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, models.FeeAmount{CourseID: courseID, CategoryName: category, Amount: amount})
}
