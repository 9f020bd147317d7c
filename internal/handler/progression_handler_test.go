package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-ledger-api/internal/dto"
	"github.com/noah-isme/college-ledger-api/internal/models"
	appErrors "github.com/noah-isme/college-ledger-api/pkg/errors"
)

type progressionServiceMock struct {
	plan        *models.PromotionPlan
	promoteReq  dto.PromoteRequest
	transferReq dto.TransferRequest
	err         error
}

func (m *progressionServiceMock) ComputePromotionTarget(ctx context.Context, studentID string) (*models.PromotionPlan, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.plan, nil
}

func (m *progressionServiceMock) Promote(ctx context.Context, req dto.PromoteRequest) (*models.ProgressionResult, error) {
	m.promoteReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.ProgressionResult{StudentID: req.StudentID}, nil
}

func (m *progressionServiceMock) TransferBranch(ctx context.Context, req dto.TransferRequest) (*models.ProgressionResult, error) {
	m.transferReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.ProgressionResult{StudentID: req.StudentID, IsNewYear: true}, nil
}

func newJSONContext(method, path string, body []byte, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = params
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *appErrors.Error {
	t.Helper()
	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	return envelope.Error
}

func TestProgressionHandlerPromoteWithoutBody(t *testing.T) {
	svc := &progressionServiceMock{}
	handler := NewProgressionHandler(svc)
	c, w := newJSONContext(http.MethodPost, "/students/stu-1/promote", nil, gin.Params{{Key: "id", Value: "stu-1"}})
	c.Request.Header.Set(IdempotencyHeader, " retry-7 ")

	handler.Promote(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "stu-1", svc.promoteReq.StudentID)
	assert.Equal(t, "retry-7", svc.promoteReq.IdempotencyKey)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestProgressionHandlerPromoteBlocked(t *testing.T) {
	svc := &progressionServiceMock{err: appErrors.PromotionBlocked("Hold")}
	handler := NewProgressionHandler(svc)
	body, _ := json.Marshal(dto.PromoteRequest{NewYearSession: "2025-2026"})
	c, w := newJSONContext(http.MethodPost, "/students/stu-1/promote", body, gin.Params{{Key: "id", Value: "stu-1"}})

	handler.Promote(c)
	require.Equal(t, http.StatusConflict, w.Code)
	appErr := decodeError(t, w)
	assert.Equal(t, "PROMOTION_BLOCKED", appErr.Code)
	assert.Equal(t, "Hold", appErr.Details["current_status"])
	assert.Equal(t, "2025-2026", svc.promoteReq.NewYearSession)
}

func TestProgressionHandlerPromotionTargetEndOfCourse(t *testing.T) {
	handler := NewProgressionHandler(&progressionServiceMock{plan: &models.PromotionPlan{EndOfCourse: true}})
	c, w := newJSONContext(http.MethodGet, "/students/stu-1/promotion-target", nil, gin.Params{{Key: "id", Value: "stu-1"}})

	handler.PromotionTarget(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"end_of_course":true}}`, w.Body.String())
}

func TestProgressionHandlerTransferInvalidBody(t *testing.T) {
	handler := NewProgressionHandler(&progressionServiceMock{})
	c, w := newJSONContext(http.MethodPost, "/students/stu-1/transfer", []byte(`{`), gin.Params{{Key: "id", Value: "stu-1"}})

	handler.Transfer(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgressionHandlerTransferSameCourse(t *testing.T) {
	svc := &progressionServiceMock{err: appErrors.ErrSameCourseTransfer}
	handler := NewProgressionHandler(svc)
	body, _ := json.Marshal(map[string]string{
		"target_course_id": "bsc", "target_academic_year_id": "bsc-y1", "target_semester_id": "bsc-y1-s1", "new_session": "2024-2025",
	})
	c, w := newJSONContext(http.MethodPost, "/students/stu-1/transfer", body, gin.Params{{Key: "id", Value: "stu-1"}})

	handler.Transfer(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SAME_COURSE_TRANSFER", decodeError(t, w).Code)
	assert.Equal(t, "bsc-y1-s1", svc.transferReq.TargetSemesterID)
}
