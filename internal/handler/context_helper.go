package handler

import (
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
)

// IdempotencyHeader carries the client-chosen key that makes a mutating request safe to retry.
const IdempotencyHeader = "Idempotency-Key"

func idempotencyKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(IdempotencyHeader))
}

// bindOptionalJSON binds a JSON body when one is present; an empty body leaves dest untouched.
func bindOptionalJSON(c *gin.Context, dest interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
