package models

import "time"

// Stream is the root of the academic hierarchy (e.g. Science, Commerce).
type Stream struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Course belongs to a stream and owns a named-year template.
type Course struct {
	ID        string    `db:"id" json:"id"`
	StreamID  string    `db:"stream_id" json:"stream_id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AcademicYear is one named year of a course template ("First Year", "Second Year").
type AcademicYear struct {
	ID       string `db:"id" json:"id"`
	CourseID string `db:"course_id" json:"course_id"`
	Name     string `db:"name" json:"name"`
	Rank     *int   `db:"rank" json:"rank,omitempty"`
}

// Semester belongs to an academic year template.
type Semester struct {
	ID             string `db:"id" json:"id"`
	AcademicYearID string `db:"academic_year_id" json:"academic_year_id"`
	Name           string `db:"name" json:"name"`
	Rank           *int   `db:"rank" json:"rank,omitempty"`
}

// Subject is taught within a semester.
type Subject struct {
	ID           string `db:"id" json:"id"`
	SemesterID   string `db:"semester_id" json:"semester_id"`
	Code         string `db:"code" json:"code"`
	Name         string `db:"name" json:"name"`
	IsCompulsory bool   `db:"is_compulsory" json:"is_compulsory"`
}

// FeeAmount is the fee of a course for a fee category ("Open", "SC/ST", ...).
type FeeAmount struct {
	CourseID     string `db:"course_id" json:"course_id"`
	CategoryName string `db:"category_name" json:"category_name"`
	Amount       int64  `db:"amount" json:"amount"`
}

// SequenceName implements Sequenced.
func (y AcademicYear) SequenceName() string { return y.Name }

// SequenceRank implements Sequenced.
func (y AcademicYear) SequenceRank() *int { return y.Rank }

// SequenceName implements Sequenced.
func (s Semester) SequenceName() string { return s.Name }

// SequenceRank implements Sequenced.
func (s Semester) SequenceRank() *int { return s.Rank }
