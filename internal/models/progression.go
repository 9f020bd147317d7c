package models

// PromotionTarget is the next (academic year, semester) a student moves to.
type PromotionTarget struct {
	AcademicYearID   string `json:"academic_year_id"`
	AcademicYearName string `json:"academic_year_name"`
	SemesterID       string `json:"semester_id"`
	SemesterName     string `json:"semester_name"`
	IsNewYear        bool   `json:"is_new_year"`
}

// PromotionPlan is the result of computing a promotion target; EndOfCourse is a terminal state, not an error.
type PromotionPlan struct {
	EndOfCourse bool             `json:"end_of_course"`
	Target      *PromotionTarget `json:"target,omitempty"`
}

// ProgressionResult describes the rows written by a promotion or branch transfer.
type ProgressionResult struct {
	StudentID                        string                 `json:"student_id"`
	AcademicYear                     AcademicYearEnrollment `json:"academic_year"`
	Semester                         SemesterEnrollment     `json:"semester"`
	PreviousAcademicYearEnrollmentID string                 `json:"previous_academic_year_enrollment_id"`
	PreviousSemesterEnrollmentID     string                 `json:"previous_semester_enrollment_id"`
	IsNewYear                        bool                   `json:"is_new_year"`
}
