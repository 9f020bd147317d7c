package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so clones match their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound             = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict             = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed   = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation           = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal             = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss            = New("CACHE_MISS", http.StatusNotFound, "cache entry not found")
	ErrTransactionFailure   = New("TRANSACTION_FAILURE", http.StatusInternalServerError, "transaction failed and was rolled back")
	ErrPromotionBlocked     = New("PROMOTION_BLOCKED", http.StatusConflict, "promotion blocked")
	ErrEndOfCourse          = New("END_OF_COURSE", http.StatusConflict, "student has completed the final semester of the course")
	ErrSameCourseTransfer   = New("SAME_COURSE_TRANSFER", http.StatusConflict, "target course is the student's current course")
	ErrAlreadyRegistered    = New("ALREADY_REGISTERED", http.StatusConflict, "academic year is already registered")
	ErrMissingUndertaking   = New("MISSING_UNDERTAKING", http.StatusBadRequest, "installment payment plan requires an undertaking document")
	ErrEnrollmentNotActive  = New("ENROLLMENT_NOT_ACTIVE", http.StatusPreconditionFailed, "academic year enrollment is not active")
	ErrStalePromotionTarget = New("STALE_PROMOTION_TARGET", http.StatusConflict, "promotion target no longer matches the student's next semester")
	ErrDuplicateRequest     = New("DUPLICATE_REQUEST", http.StatusConflict, "a request with this idempotency key is already in progress")
)

// PromotionBlocked reports the live promotion status that prevented a promotion.
func PromotionBlocked(currentStatus string) *Error {
	err := Clone(ErrPromotionBlocked, fmt.Sprintf("promotion blocked: current promotion status is %s", currentStatus))
	err.Details = map[string]string{"current_status": currentStatus}
	return err
}

// Validation builds a validation error with a caller-facing message.
func Validation(message string) *Error {
	return Clone(ErrValidation, message)
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	if err.Details != nil {
		clone.Details = make(map[string]string, len(err.Details))
		for k, v := range err.Details {
			clone.Details[k] = v
		}
	}
	return &clone
}
