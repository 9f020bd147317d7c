package models

// YearFinancials aggregates the payments recorded against one academic year enrollment.
type YearFinancials struct {
	AcademicYearEnrollmentID string `json:"academic_year_enrollment_id"`
	AcademicYearName         string `json:"academic_year_name"`
	AcademicYearSession      string `json:"academic_year_session"`
	Status                   string `json:"status"`
	IsRegistered             bool   `json:"is_registered"`
	TotalFee                 int64  `json:"total_fee"`
	ScholarshipName          string `json:"scholarship_name,omitempty"`
	ScholarshipAmount        int64  `json:"scholarship_amount"`
	NetPayableFee            int64  `json:"net_payable_fee"`
	TuitionPaid              int64  `json:"tuition_paid"`
	ScholarshipUsed          int64  `json:"scholarship_used"`
	OtherFeesPaid            int64  `json:"other_fees_paid"`
	RemainingDue             int64  `json:"remaining_due"`
	RemainingScholarship     int64  `json:"remaining_scholarship"`
}

// GlobalSummary totals registered years only; Years lists every year for display.
type GlobalSummary struct {
	StudentID         string           `json:"student_id"`
	RegisteredYears   int              `json:"registered_years"`
	TotalNetPayable   int64            `json:"total_net_payable"`
	TotalPaid         int64            `json:"total_paid"`
	TotalScholarship  int64            `json:"total_scholarship"`
	TotalRemainingDue int64            `json:"total_remaining_due"`
	Years             []YearFinancials `json:"years"`
}
