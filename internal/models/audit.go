package models

import "time"

// Audit actions recorded for state-changing requests.
const (
	AuditActionPromote          = "PROMOTE"
	AuditActionTransferBranch   = "TRANSFER_BRANCH"
	AuditActionRegister         = "REGISTER"
	AuditActionExtensionUpdate  = "EXTENSION_FIELDS_UPDATE"
	AuditResourceStudent        = "student"
	AuditResourceYearEnrollment = "academic_year_enrollment"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	RequestID  *string   `db:"request_id" json:"request_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
