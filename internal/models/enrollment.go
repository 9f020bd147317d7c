package models

import "time"

// AcademicYearStatus is the lifecycle of an academic year enrollment.
type AcademicYearStatus string

const (
	AcademicYearStatusActive      AcademicYearStatus = "Active"
	AcademicYearStatusInactive    AcademicYearStatus = "Inactive"
	AcademicYearStatusTransferred AcademicYearStatus = "Transferred"
)

// SemesterStatus is the lifecycle of a semester enrollment. Inactive and transferred are terminal.
type SemesterStatus string

const (
	SemesterStatusActive      SemesterStatus = "active"
	SemesterStatusInactive    SemesterStatus = "inactive"
	SemesterStatusTransferred SemesterStatus = "transferred"
)

// PromotionStatus is the grading outcome that gates promotion.
type PromotionStatus string

const (
	PromotionStatusEligible    PromotionStatus = "Eligible"
	PromotionStatusNotEligible PromotionStatus = "NotEligible"
	PromotionStatusYearDrop    PromotionStatus = "YearDrop"
	PromotionStatusHold        PromotionStatus = "Hold"
	PromotionStatusPromoted    PromotionStatus = "Promoted"
)

// PaymentPlan is chosen at registration.
type PaymentPlan string

const (
	PaymentPlanOneTime     PaymentPlan = "OneTime"
	PaymentPlanInstallment PaymentPlan = "Installment"
)

// Valid reports whether the plan is one of the known plans.
func (p PaymentPlan) Valid() bool {
	return p == PaymentPlanOneTime || p == PaymentPlanInstallment
}

// AcademicYearEnrollment is a student's attempt at one named year of a course in a session.
type AcademicYearEnrollment struct {
	ID                  string             `db:"id" json:"id"`
	StudentID           string             `db:"student_id" json:"student_id"`
	CourseID            string             `db:"course_id" json:"course_id"`
	AcademicYearName    string             `db:"academic_year_name" json:"academic_year_name"`
	AcademicYearSession string             `db:"academic_year_session" json:"academic_year_session"`
	Status              AcademicYearStatus `db:"status" json:"status"`
	IsRegistered        bool               `db:"is_registered" json:"is_registered"`
	TotalFee            int64              `db:"total_fee" json:"total_fee"`
	ScholarshipName     string             `db:"scholarship_name" json:"scholarship_name"`
	ScholarshipAmount   int64              `db:"scholarship_amount" json:"scholarship_amount"`
	NetPayableFee       int64              `db:"net_payable_fee" json:"net_payable_fee"`
	PaymentPlan         *PaymentPlan       `db:"payment_plan" json:"payment_plan,omitempty"`
	UndertakingRef      *string            `db:"undertaking_ref" json:"undertaking_ref,omitempty"`
	RegisteredAt        *time.Time         `db:"registered_at" json:"registered_at,omitempty"`
	CreatedAt           time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time          `db:"updated_at" json:"updated_at"`
}

// SetFees assigns the fee figures and keeps net payable equal to total minus scholarship.
func (e *AcademicYearEnrollment) SetFees(totalFee int64, scholarshipName string, scholarshipAmount int64) {
	e.TotalFee = totalFee
	e.ScholarshipName = scholarshipName
	e.ScholarshipAmount = scholarshipAmount
	e.NetPayableFee = totalFee - scholarshipAmount
}

// FeesReconcile reports whether net payable equals total minus scholarship.
func (e AcademicYearEnrollment) FeesReconcile() bool {
	return e.NetPayableFee == e.TotalFee-e.ScholarshipAmount
}

// SemesterEnrollment registers a student in one semester under an academic year enrollment.
type SemesterEnrollment struct {
	ID                       string          `db:"id" json:"id"`
	StudentID                string          `db:"student_id" json:"student_id"`
	SemesterID               string          `db:"semester_id" json:"semester_id"`
	AcademicYearEnrollmentID string          `db:"academic_year_enrollment_id" json:"academic_year_enrollment_id"`
	Status                   SemesterStatus  `db:"status" json:"status"`
	PromotionStatus          PromotionStatus `db:"promotion_status" json:"promotion_status"`
	CreatedAt                time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time       `db:"updated_at" json:"updated_at"`
}

// CurrentEnrollment is the active semester under the active academic year.
type CurrentEnrollment struct {
	AcademicYear AcademicYearEnrollment `json:"academic_year"`
	Semester     SemesterEnrollment     `json:"semester"`
}

// AcademicYearHistory nests the semester enrollments recorded under a year enrollment.
type AcademicYearHistory struct {
	AcademicYearEnrollment
	Semesters []SemesterEnrollment `json:"semesters"`
}
