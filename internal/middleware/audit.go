package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/college-ledger-api/internal/models"
	"github.com/noah-isme/college-ledger-api/pkg/middleware/requestid"
)

// AuditLogger persists audit trail records.
type AuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit records an audit log after every successful request. The resource id is
// read from the route parameter named param.
func Audit(repo AuditLogger, logger *zap.Logger, action, resource, param string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if repo == nil || c.Writer.Status() >= 400 {
			return
		}

		var resourceID *string
		if id := c.Param(param); id != "" {
			resourceID = &id
		}
		var reqID *string
		if id := requestid.Value(c); id != "" {
			reqID = &id
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":            c.FullPath(),
			"method":          c.Request.Method,
			"status":          c.Writer.Status(),
			"latency":         time.Since(start).Milliseconds(),
			"idempotency_key": c.GetHeader("Idempotency-Key"),
		})

		entry := &models.AuditLog{
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			RequestID:  reqID,
			NewValues:  body,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		}
		if err := repo.CreateAuditLog(context.WithoutCancel(c.Request.Context()), entry); err != nil {
			logger.Warn("write audit log failed", zap.String("action", action), zap.Error(err))
		}
	}
}
