package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-ledger-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = sqlxDB.Close()
	}
	return sqlxDB, mock, cleanup
}

var yearRowColumns = []string{"id", "student_id", "course_id", "academic_year_name", "academic_year_session", "status",
	"is_registered", "total_fee", "scholarship_name", "scholarship_amount", "net_payable_fee", "payment_plan",
	"undertaking_ref", "registered_at", "created_at", "updated_at"}

var semesterRowColumns = []string{"id", "student_id", "semester_id", "academic_year_enrollment_id", "status",
	"promotion_status", "created_at", "updated_at"}

func yearRow(id, status string, registered bool) *sqlmock.Rows {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(yearRowColumns).
		AddRow(id, "student-1", "course-bsc", "First Year", "2024-2025", status, registered, int64(100000), "Merit",
			int64(40000), int64(60000), nil, nil, nil, now, now)
}

func TestEnrollmentRepositoryFindActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM academic_year_enrollments WHERE student_id = $1 AND status = $2")).
		WithArgs("student-1", models.AcademicYearStatusActive).
		WillReturnRows(yearRow("aye-1", "Active", false))
	mock.ExpectQuery(regexp.QuoteMeta("FROM semester_enrollments WHERE academic_year_enrollment_id = $1 AND status = $2")).
		WithArgs("aye-1", models.SemesterStatusActive).
		WillReturnRows(sqlmock.NewRows(semesterRowColumns).
			AddRow("se-1", "student-1", "sem-1", "aye-1", "active", "Eligible", now, now))

	current, err := repo.FindActive(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, "aye-1", current.AcademicYear.ID)
	assert.Equal(t, int64(60000), current.AcademicYear.NetPayableFee)
	assert.Nil(t, current.AcademicYear.PaymentPlan)
	assert.Equal(t, "se-1", current.Semester.ID)
	assert.Equal(t, models.PromotionStatusEligible, current.Semester.PromotionStatus)
}

func TestEnrollmentRepositoryFindActiveNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM academic_year_enrollments WHERE student_id = $1")).
		WithArgs("student-9", models.AcademicYearStatusActive).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActive(context.Background(), "student-9")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEnrollmentRepositoryHistoryNestsSemesters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now().UTC()
	years := yearRow("aye-1", "Inactive", true)
	years.AddRow("aye-2", "student-1", "course-bsc", "Second Year", "2025-2026", "Active", false, int64(100000), "Merit",
		int64(40000), int64(60000), nil, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM academic_year_enrollments WHERE student_id = $1 ORDER BY created_at ASC")).
		WithArgs("student-1").
		WillReturnRows(years)
	mock.ExpectQuery(regexp.QuoteMeta("FROM semester_enrollments WHERE student_id = $1 ORDER BY created_at ASC")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows(semesterRowColumns).
			AddRow("se-1", "student-1", "sem-1", "aye-1", "inactive", "Promoted", now, now).
			AddRow("se-2", "student-1", "sem-2", "aye-1", "inactive", "Promoted", now, now))

	history, err := repo.History(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Len(t, history[0].Semesters, 2)
	assert.NotNil(t, history[1].Semesters)
	assert.Empty(t, history[1].Semesters)
}

func TestEnrollmentRepositoryRunInTxCommits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("student-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO semester_enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE semester_enrollments SET status = $2, promotion_status = $3")).
		WithArgs("se-1", models.SemesterStatusInactive, models.PromotionStatusPromoted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	inserted := &models.SemesterEnrollment{StudentID: "student-1", SemesterID: "sem-2", AcademicYearEnrollmentID: "aye-1",
		Status: models.SemesterStatusActive, PromotionStatus: models.PromotionStatusEligible}
	err := repo.RunInTx(context.Background(), func(tx EnrollmentTx) error {
		if err := tx.LockStudent(context.Background(), "student-1"); err != nil {
			return err
		}
		if err := tx.InsertSemesterEnrollment(context.Background(), inserted); err != nil {
			return err
		}
		return tx.UpdateSemesterEnrollment(context.Background(), "se-1", models.SemesterStatusInactive, models.PromotionStatusPromoted)
	})
	require.NoError(t, err)
	assert.NotEmpty(t, inserted.ID)
	assert.False(t, inserted.CreatedAt.IsZero())
}

func TestEnrollmentRepositoryRunInTxRollsBackAndReturnsOriginalError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	storeErr := errors.New("unique violation")
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO semester_enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE semester_enrollments")).
		WillReturnError(storeErr)
	mock.ExpectRollback()

	var inner error
	err := repo.RunInTx(context.Background(), func(tx EnrollmentTx) error {
		if err := tx.InsertSemesterEnrollment(context.Background(), &models.SemesterEnrollment{}); err != nil {
			return err
		}
		inner = tx.UpdateSemesterEnrollment(context.Background(), "se-1", models.SemesterStatusInactive, models.PromotionStatusPromoted)
		return inner
	})
	require.Error(t, err)
	assert.Same(t, inner, err)
	assert.ErrorIs(t, err, storeErr)
}

func TestEnrollmentRepositoryUpdateStatusRequiresRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_year_enrollments SET status = $2")).
		WithArgs("aye-missing", models.AcademicYearStatusInactive, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.RunInTx(context.Background(), func(tx EnrollmentTx) error {
		return tx.UpdateAcademicYearStatus(context.Background(), "aye-missing", models.AcademicYearStatusInactive)
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEnrollmentRepositoryActiveEnrollmentLocksRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_id = $1 AND status = $2 FOR UPDATE")).
		WithArgs("student-1", models.AcademicYearStatusActive).
		WillReturnRows(yearRow("aye-1", "Active", false))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE academic_year_enrollment_id = $1 AND status = $2 FOR UPDATE")).
		WithArgs("aye-1", models.SemesterStatusActive).
		WillReturnRows(sqlmock.NewRows(semesterRowColumns).
			AddRow("se-1", "student-1", "sem-1", "aye-1", "active", "Hold", now, now))
	mock.ExpectCommit()

	err := repo.RunInTx(context.Background(), func(tx EnrollmentTx) error {
		current, err := tx.ActiveEnrollment(context.Background(), "student-1")
		if err != nil {
			return err
		}
		assert.Equal(t, models.PromotionStatusHold, current.Semester.PromotionStatus)
		return nil
	})
	require.NoError(t, err)
}

func TestEnrollmentRepositoryUpdateRegistration(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	registeredAt := time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)
	undertaking := "doc-77"
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_year_enrollments\nSET is_registered = TRUE")).
		WithArgs("aye-1", models.PaymentPlanInstallment, &undertaking, "SC", int64(70000), registeredAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registration_subjects")).
		WithArgs("aye-1", "sub-math", true, registeredAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registration_subjects")).
		WithArgs("aye-1", "sub-art", false, registeredAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.RunInTx(context.Background(), func(tx EnrollmentTx) error {
		return tx.UpdateRegistration(context.Background(), models.RegistrationUpdate{
			AcademicYearEnrollmentID: "aye-1",
			PaymentPlan:              models.PaymentPlanInstallment,
			UndertakingRef:           &undertaking,
			ScholarshipName:          "SC",
			ScholarshipAmount:        70000,
			RegisteredAt:             registeredAt,
			Subjects: []models.RegistrationSubject{
				{SubjectID: "sub-math", IsCompulsory: true},
				{SubjectID: "sub-art"},
			},
		})
	})
	require.NoError(t, err)
}
