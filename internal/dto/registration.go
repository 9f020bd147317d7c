package dto

// RegisterRequest finalises an academic year enrollment.
type RegisterRequest struct {
	AcademicYearEnrollmentID string   `json:"-" validate:"required"`
	SubjectIDs               []string `json:"subject_ids" validate:"required,min=1,dive,required"`
	PaymentPlan              string   `json:"payment_plan" validate:"required,oneof=OneTime Installment"`
	UndertakingRef           *string  `json:"undertaking_ref"`
	// ScholarshipCategory replaces the carried scholarship with total fee minus the category fee.
	ScholarshipCategory *string `json:"scholarship_category"`
	IdempotencyKey      string  `json:"-"`
}
