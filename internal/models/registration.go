package models

import "time"

// RegistrationSubject is one row of the subject snapshot taken at registration.
type RegistrationSubject struct {
	AcademicYearEnrollmentID string    `db:"academic_year_enrollment_id" json:"academic_year_enrollment_id"`
	SubjectID                string    `db:"subject_id" json:"subject_id"`
	IsCompulsory             bool      `db:"is_compulsory" json:"is_compulsory"`
	CreatedAt                time.Time `db:"created_at" json:"created_at"`
}

// RegistrationUpdate carries the fields written when an academic year is registered.
type RegistrationUpdate struct {
	AcademicYearEnrollmentID string
	PaymentPlan              PaymentPlan
	UndertakingRef           *string
	ScholarshipName          string
	ScholarshipAmount        int64
	RegisteredAt             time.Time
	Subjects                 []RegistrationSubject
}

// Registration is the registered academic year together with its subject snapshot.
type Registration struct {
	AcademicYear AcademicYearEnrollment `json:"academic_year"`
	Subjects     []RegistrationSubject  `json:"subjects"`
}
