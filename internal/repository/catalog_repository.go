package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-ledger-api/internal/models"
)

// CatalogRepository reads the academic hierarchy and fee tables.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListStreams returns every stream.
func (r *CatalogRepository) ListStreams(ctx context.Context) ([]models.Stream, error) {
	const query = `SELECT id, name, created_at FROM streams ORDER BY name ASC`
	var streams []models.Stream
	if err := r.db.SelectContext(ctx, &streams, query); err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}
	return streams, nil
}

// CoursesByStream returns the courses offered under a stream.
func (r *CatalogRepository) CoursesByStream(ctx context.Context, streamID string) ([]models.Course, error) {
	const query = `SELECT id, stream_id, code, name, created_at FROM courses WHERE stream_id = $1 ORDER BY name ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, streamID); err != nil {
		return nil, fmt.Errorf("list courses by stream: %w", err)
	}
	return courses, nil
}

// FindCourse returns a course by id.
func (r *CatalogRepository) FindCourse(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, stream_id, code, name, created_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// AcademicYearsByCourse returns the named-year template of a course. Callers order the
// result with models.SortAcademicYears.
func (r *CatalogRepository) AcademicYearsByCourse(ctx context.Context, courseID string) ([]models.AcademicYear, error) {
	const query = `SELECT id, course_id, name, rank FROM academic_years WHERE course_id = $1`
	var years []models.AcademicYear
	if err := r.db.SelectContext(ctx, &years, query, courseID); err != nil {
		return nil, fmt.Errorf("list academic years by course: %w", err)
	}
	return years, nil
}

// FindAcademicYear returns an academic year template entry by id.
func (r *CatalogRepository) FindAcademicYear(ctx context.Context, id string) (*models.AcademicYear, error) {
	const query = `SELECT id, course_id, name, rank FROM academic_years WHERE id = $1`
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, id); err != nil {
		return nil, err
	}
	return &year, nil
}

// SemestersByAcademicYear returns the semesters of an academic year template.
func (r *CatalogRepository) SemestersByAcademicYear(ctx context.Context, academicYearID string) ([]models.Semester, error) {
	const query = `SELECT id, academic_year_id, name, rank FROM semesters WHERE academic_year_id = $1`
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, academicYearID); err != nil {
		return nil, fmt.Errorf("list semesters by academic year: %w", err)
	}
	return semesters, nil
}

// FindSemester returns a semester by id.
func (r *CatalogRepository) FindSemester(ctx context.Context, id string) (*models.Semester, error) {
	const query = `SELECT id, academic_year_id, name, rank FROM semesters WHERE id = $1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

// SubjectsBySemester returns the subjects taught in a semester.
func (r *CatalogRepository) SubjectsBySemester(ctx context.Context, semesterID string) ([]models.Subject, error) {
	const query = `SELECT id, semester_id, code, name, is_compulsory FROM subjects WHERE semester_id = $1 ORDER BY code ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, semesterID); err != nil {
		return nil, fmt.Errorf("list subjects by semester: %w", err)
	}
	return subjects, nil
}

// SubjectsByAcademicYear returns every subject of every semester in an academic year template.
func (r *CatalogRepository) SubjectsByAcademicYear(ctx context.Context, academicYearID string) ([]models.Subject, error) {
	const query = `SELECT sub.id, sub.semester_id, sub.code, sub.name, sub.is_compulsory
FROM subjects sub
JOIN semesters sem ON sem.id = sub.semester_id
WHERE sem.academic_year_id = $1
ORDER BY sub.code ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, academicYearID); err != nil {
		return nil, fmt.Errorf("list subjects by academic year: %w", err)
	}
	return subjects, nil
}

// FeeAmount returns the fee of a course for a category, matched case-insensitively.
// It returns sql.ErrNoRows when no fee structure exists.
func (r *CatalogRepository) FeeAmount(ctx context.Context, courseID, categoryName string) (*models.FeeAmount, error) {
	const query = `SELECT course_id, category_name, amount FROM fee_amounts WHERE course_id = $1 AND LOWER(category_name) = LOWER($2)`
	var fee models.FeeAmount
	if err := r.db.GetContext(ctx, &fee, query, courseID, categoryName); err != nil {
		return nil, err
	}
	return &fee, nil
}
