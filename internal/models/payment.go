package models

import "time"

// FeesType classifies a payment. Any value other than tuition or scholarship is a miscellaneous fee.
type FeesType string

const (
	FeesTypeTuition     FeesType = "TuitionFee"
	FeesTypeScholarship FeesType = "Scholarship"
)

// Payment is an append-only ledger entry recorded against an academic year enrollment.
type Payment struct {
	ID                       string    `db:"id" json:"id"`
	StudentID                string    `db:"student_id" json:"student_id"`
	AcademicYearEnrollmentID string    `db:"academic_year_enrollment_id" json:"academic_year_enrollment_id"`
	Amount                   int64     `db:"amount" json:"amount"`
	FeesType                 FeesType  `db:"fees_type" json:"fees_type"`
	CreatedAt                time.Time `db:"created_at" json:"created_at"`
}
