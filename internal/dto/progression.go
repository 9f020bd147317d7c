package dto

// PromoteRequest asks to move a student to the next semester of their course.
type PromoteRequest struct {
	StudentID string `json:"-" validate:"required"`
	// NewYearSession is required when the promotion crosses into a new academic year.
	NewYearSession string `json:"new_year_session"`
	// ExpectedSemesterID, when set, must match the freshly computed target.
	ExpectedSemesterID string `json:"expected_semester_id"`
	IdempotencyKey     string `json:"-"`
}

// TransferRequest moves a student onto another course of the catalog.
type TransferRequest struct {
	StudentID            string `json:"-" validate:"required"`
	TargetCourseID       string `json:"target_course_id" validate:"required"`
	TargetAcademicYearID string `json:"target_academic_year_id" validate:"required"`
	TargetSemesterID     string `json:"target_semester_id" validate:"required"`
	NewSession           string `json:"new_session" validate:"required"`
	IdempotencyKey       string `json:"-"`
}
