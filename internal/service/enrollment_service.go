package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/college-ledger-api/internal/models"
	appErrors "github.com/noah-isme/college-ledger-api/pkg/errors"
)

type enrollmentReader interface {
	FindActive(ctx context.Context, studentID string) (*models.CurrentEnrollment, error)
	FindAcademicYearEnrollment(ctx context.Context, id string) (*models.AcademicYearEnrollment, error)
	History(ctx context.Context, studentID string) ([]models.AcademicYearHistory, error)
	RegistrationSubjects(ctx context.Context, yearEnrollmentID string) ([]models.RegistrationSubject, error)
}

// EnrollmentService exposes read views over a student's enrollments.
type EnrollmentService struct {
	repo   enrollmentReader
	logger *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentReader, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, logger: logger}
}

// Current returns the active semester under the active academic year.
func (s *EnrollmentService) Current(ctx context.Context, studentID string) (*models.CurrentEnrollment, error) {
	current, err := s.repo.FindActive(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, activeEnrollmentError(err)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current enrollment")
	}
	return current, nil
}

// History returns every academic year enrollment of the student with nested semesters.
func (s *EnrollmentService) History(ctx context.Context, studentID string) ([]models.AcademicYearHistory, error) {
	history, err := s.repo.History(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment history")
	}
	if len(history) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student has no enrollments")
	}
	return history, nil
}

// Registration returns a year enrollment with its registered subject snapshot.
func (s *EnrollmentService) Registration(ctx context.Context, yearEnrollmentID string) (*models.Registration, error) {
	year, err := s.repo.FindAcademicYearEnrollment(ctx, yearEnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year enrollment")
	}
	subjects, err := s.repo.RegistrationSubjects(ctx, yearEnrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registered subjects")
	}
	if subjects == nil {
		subjects = []models.RegistrationSubject{}
	}
	return &models.Registration{AcademicYear: *year, Subjects: subjects}, nil
}
