package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-ledger-api/internal/models"
)

const academicYearColumns = `id, student_id, course_id, academic_year_name, academic_year_session, status, is_registered,
	total_fee, scholarship_name, scholarship_amount, net_payable_fee, payment_plan, undertaking_ref, registered_at,
	created_at, updated_at`

const semesterColumns = `id, student_id, semester_id, academic_year_enrollment_id, status, promotion_status, created_at, updated_at`

// EnrollmentTx is the set of enrollment reads and writes available inside one unit of work.
type EnrollmentTx interface {
	LockStudent(ctx context.Context, studentID string) error
	ActiveEnrollment(ctx context.Context, studentID string) (*models.CurrentEnrollment, error)
	LockAcademicYearEnrollment(ctx context.Context, id string) (*models.AcademicYearEnrollment, error)
	InsertAcademicYearEnrollment(ctx context.Context, enrollment *models.AcademicYearEnrollment) error
	UpdateAcademicYearStatus(ctx context.Context, id string, status models.AcademicYearStatus) error
	InsertSemesterEnrollment(ctx context.Context, enrollment *models.SemesterEnrollment) error
	UpdateSemesterEnrollment(ctx context.Context, id string, status models.SemesterStatus, promotion models.PromotionStatus) error
	UpdateRegistration(ctx context.Context, update models.RegistrationUpdate) error
}

// EnrollmentRepository persists academic year and semester enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// RunInTx executes fn inside a single database transaction. The transaction commits when
// fn returns nil; otherwise it is rolled back and fn's error is returned unchanged.
func (r *EnrollmentRepository) RunInTx(ctx context.Context, fn func(tx EnrollmentTx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&enrollmentTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment transaction: %w", err)
	}
	return nil
}

// FindActive returns the student's active academic year and active semester enrollment.
func (r *EnrollmentRepository) FindActive(ctx context.Context, studentID string) (*models.CurrentEnrollment, error) {
	return findActive(ctx, r.db, studentID, false)
}

// FindAcademicYearEnrollment returns a year enrollment by id.
func (r *EnrollmentRepository) FindAcademicYearEnrollment(ctx context.Context, id string) (*models.AcademicYearEnrollment, error) {
	query := `SELECT ` + academicYearColumns + ` FROM academic_year_enrollments WHERE id = $1`
	var enrollment models.AcademicYearEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListAcademicYearEnrollments returns every year enrollment of a student, oldest first.
func (r *EnrollmentRepository) ListAcademicYearEnrollments(ctx context.Context, studentID string) ([]models.AcademicYearEnrollment, error) {
	query := `SELECT ` + academicYearColumns + ` FROM academic_year_enrollments WHERE student_id = $1 ORDER BY created_at ASC, id ASC`
	var enrollments []models.AcademicYearEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list academic year enrollments: %w", err)
	}
	return enrollments, nil
}

// History returns the student's year enrollments with their nested semester enrollments.
func (r *EnrollmentRepository) History(ctx context.Context, studentID string) ([]models.AcademicYearHistory, error) {
	years, err := r.ListAcademicYearEnrollments(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(years) == 0 {
		return []models.AcademicYearHistory{}, nil
	}

	query := `SELECT ` + semesterColumns + ` FROM semester_enrollments WHERE student_id = $1 ORDER BY created_at ASC, id ASC`
	var semesters []models.SemesterEnrollment
	if err := r.db.SelectContext(ctx, &semesters, query, studentID); err != nil {
		return nil, fmt.Errorf("list semester enrollments: %w", err)
	}

	byYear := make(map[string][]models.SemesterEnrollment, len(years))
	for _, sem := range semesters {
		byYear[sem.AcademicYearEnrollmentID] = append(byYear[sem.AcademicYearEnrollmentID], sem)
	}

	history := make([]models.AcademicYearHistory, 0, len(years))
	for _, year := range years {
		nested := byYear[year.ID]
		if nested == nil {
			nested = []models.SemesterEnrollment{}
		}
		history = append(history, models.AcademicYearHistory{AcademicYearEnrollment: year, Semesters: nested})
	}
	return history, nil
}

// RegistrationSubjects returns the subject snapshot stored for a registered year.
func (r *EnrollmentRepository) RegistrationSubjects(ctx context.Context, yearEnrollmentID string) ([]models.RegistrationSubject, error) {
	const query = `SELECT academic_year_enrollment_id, subject_id, is_compulsory, created_at
FROM registration_subjects WHERE academic_year_enrollment_id = $1 ORDER BY subject_id ASC`
	var subjects []models.RegistrationSubject
	if err := r.db.SelectContext(ctx, &subjects, query, yearEnrollmentID); err != nil {
		return nil, fmt.Errorf("list registration subjects: %w", err)
	}
	return subjects, nil
}

func findActive(ctx context.Context, q sqlx.QueryerContext, studentID string, forUpdate bool) (*models.CurrentEnrollment, error) {
	lock := ""
	if forUpdate {
		lock = " FOR UPDATE"
	}

	yearQuery := `SELECT ` + academicYearColumns + ` FROM academic_year_enrollments WHERE student_id = $1 AND status = $2` + lock
	var year models.AcademicYearEnrollment
	if err := sqlx.GetContext(ctx, q, &year, yearQuery, studentID, models.AcademicYearStatusActive); err != nil {
		return nil, err
	}

	semQuery := `SELECT ` + semesterColumns + ` FROM semester_enrollments WHERE academic_year_enrollment_id = $1 AND status = $2` + lock
	var sem models.SemesterEnrollment
	if err := sqlx.GetContext(ctx, q, &sem, semQuery, year.ID, models.SemesterStatusActive); err != nil {
		return nil, err
	}

	return &models.CurrentEnrollment{AcademicYear: year, Semester: sem}, nil
}

type enrollmentTx struct {
	tx *sqlx.Tx
}

// LockStudent serialises concurrent units of work for one student until the transaction ends.
func (t *enrollmentTx) LockStudent(ctx context.Context, studentID string) error {
	if _, err := t.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, studentID); err != nil {
		return fmt.Errorf("lock student %s: %w", studentID, err)
	}
	return nil
}

func (t *enrollmentTx) ActiveEnrollment(ctx context.Context, studentID string) (*models.CurrentEnrollment, error) {
	return findActive(ctx, t.tx, studentID, true)
}

func (t *enrollmentTx) LockAcademicYearEnrollment(ctx context.Context, id string) (*models.AcademicYearEnrollment, error) {
	query := `SELECT ` + academicYearColumns + ` FROM academic_year_enrollments WHERE id = $1 FOR UPDATE`
	var enrollment models.AcademicYearEnrollment
	if err := t.tx.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (t *enrollmentTx) InsertAcademicYearEnrollment(ctx context.Context, enrollment *models.AcademicYearEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now
	const query = `INSERT INTO academic_year_enrollments (id, student_id, course_id, academic_year_name, academic_year_session,
	status, is_registered, total_fee, scholarship_name, scholarship_amount, net_payable_fee, payment_plan, undertaking_ref,
	registered_at, created_at, updated_at)
VALUES (:id, :student_id, :course_id, :academic_year_name, :academic_year_session, :status, :is_registered, :total_fee,
	:scholarship_name, :scholarship_amount, :net_payable_fee, :payment_plan, :undertaking_ref, :registered_at, :created_at, :updated_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("insert academic year enrollment: %w", err)
	}
	return nil
}

func (t *enrollmentTx) UpdateAcademicYearStatus(ctx context.Context, id string, status models.AcademicYearStatus) error {
	const query = `UPDATE academic_year_enrollments SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := t.tx.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update academic year enrollment status: %w", err)
	}
	return expectOneRow(res, "update academic year enrollment status")
}

func (t *enrollmentTx) InsertSemesterEnrollment(ctx context.Context, enrollment *models.SemesterEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now
	const query = `INSERT INTO semester_enrollments (id, student_id, semester_id, academic_year_enrollment_id, status,
	promotion_status, created_at, updated_at)
VALUES (:id, :student_id, :semester_id, :academic_year_enrollment_id, :status, :promotion_status, :created_at, :updated_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("insert semester enrollment: %w", err)
	}
	return nil
}

func (t *enrollmentTx) UpdateSemesterEnrollment(ctx context.Context, id string, status models.SemesterStatus, promotion models.PromotionStatus) error {
	const query = `UPDATE semester_enrollments SET status = $2, promotion_status = $3, updated_at = $4 WHERE id = $1`
	res, err := t.tx.ExecContext(ctx, query, id, status, promotion, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update semester enrollment: %w", err)
	}
	return expectOneRow(res, "update semester enrollment")
}

func (t *enrollmentTx) UpdateRegistration(ctx context.Context, update models.RegistrationUpdate) error {
	const query = `UPDATE academic_year_enrollments
SET is_registered = TRUE, payment_plan = $2, undertaking_ref = $3, scholarship_name = $4, scholarship_amount = $5,
	net_payable_fee = total_fee - $5, registered_at = $6, updated_at = $6
WHERE id = $1 AND is_registered = FALSE`
	res, err := t.tx.ExecContext(ctx, query, update.AcademicYearEnrollmentID, update.PaymentPlan, update.UndertakingRef,
		update.ScholarshipName, update.ScholarshipAmount, update.RegisteredAt)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	if err := expectOneRow(res, "update registration"); err != nil {
		return err
	}

	const insertSubject = `INSERT INTO registration_subjects (academic_year_enrollment_id, subject_id, is_compulsory, created_at)
VALUES ($1, $2, $3, $4)`
	for _, subject := range update.Subjects {
		if _, err := t.tx.ExecContext(ctx, insertSubject, update.AcademicYearEnrollmentID, subject.SubjectID, subject.IsCompulsory, update.RegisteredAt); err != nil {
			return fmt.Errorf("insert registration subject %s: %w", subject.SubjectID, err)
		}
	}
	return nil
}

func expectOneRow(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected != 1 {
		return fmt.Errorf("%s: %w", op, sql.ErrNoRows)
	}
	return nil
}
