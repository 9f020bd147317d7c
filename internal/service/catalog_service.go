package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/college-ledger-api/internal/models"
	appErrors "github.com/noah-isme/college-ledger-api/pkg/errors"
)

type catalogRepository interface {
	ListStreams(ctx context.Context) ([]models.Stream, error)
	CoursesByStream(ctx context.Context, streamID string) ([]models.Course, error)
	FindCourse(ctx context.Context, id string) (*models.Course, error)
	AcademicYearsByCourse(ctx context.Context, courseID string) ([]models.AcademicYear, error)
	FindAcademicYear(ctx context.Context, id string) (*models.AcademicYear, error)
	SemestersByAcademicYear(ctx context.Context, academicYearID string) ([]models.Semester, error)
	FindSemester(ctx context.Context, id string) (*models.Semester, error)
	SubjectsBySemester(ctx context.Context, semesterID string) ([]models.Subject, error)
	SubjectsByAcademicYear(ctx context.Context, academicYearID string) ([]models.Subject, error)
	FeeAmount(ctx context.Context, courseID, categoryName string) (*models.FeeAmount, error)
}

// CatalogService is the read-only view of the academic hierarchy. Year and
// semester lists come back in progression order.
type CatalogService struct {
	repo   catalogRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewCatalogService constructs the catalog service. cache may be nil.
func NewCatalogService(repo catalogRepository, cache *CacheService, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, logger: logger}
}

// Streams lists every stream.
func (s *CatalogService) Streams(ctx context.Context) ([]models.Stream, error) {
	streams, err := readThrough(ctx, s.cache, "catalog:streams", s.repo.ListStreams)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list streams")
	}
	return streams, nil
}

// CoursesByStream lists the courses of a stream.
func (s *CatalogService) CoursesByStream(ctx context.Context, streamID string) ([]models.Course, error) {
	courses, err := readThrough(ctx, s.cache, "catalog:stream:"+streamID+":courses", func(ctx context.Context) ([]models.Course, error) {
		return s.repo.CoursesByStream(ctx, streamID)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Course returns one course.
func (s *CatalogService) Course(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindCourse(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "course not found", "failed to load course")
	}
	return course, nil
}

// AcademicYearsByCourse lists a course's named years in progression order.
func (s *CatalogService) AcademicYearsByCourse(ctx context.Context, courseID string) ([]models.AcademicYear, error) {
	years, err := readThrough(ctx, s.cache, "catalog:course:"+courseID+":years", func(ctx context.Context) ([]models.AcademicYear, error) {
		years, err := s.repo.AcademicYearsByCourse(ctx, courseID)
		if err != nil {
			return nil, err
		}
		models.SortAcademicYears(years)
		return years, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic years")
	}
	return years, nil
}

// AcademicYear returns one academic year template.
func (s *CatalogService) AcademicYear(ctx context.Context, id string) (*models.AcademicYear, error) {
	year, err := s.repo.FindAcademicYear(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "academic year not found", "failed to load academic year")
	}
	return year, nil
}

// AcademicYearByName finds a course's year template by case-insensitive name.
func (s *CatalogService) AcademicYearByName(ctx context.Context, courseID, name string) (*models.AcademicYear, error) {
	years, err := s.AcademicYearsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	for i := range years {
		if strings.EqualFold(strings.TrimSpace(years[i].Name), strings.TrimSpace(name)) {
			return &years[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("academic year %q is not part of the course", name))
}

// SemestersByAcademicYear lists a year's semesters in progression order.
func (s *CatalogService) SemestersByAcademicYear(ctx context.Context, academicYearID string) ([]models.Semester, error) {
	semesters, err := readThrough(ctx, s.cache, "catalog:year:"+academicYearID+":semesters", func(ctx context.Context) ([]models.Semester, error) {
		semesters, err := s.repo.SemestersByAcademicYear(ctx, academicYearID)
		if err != nil {
			return nil, err
		}
		models.SortSemesters(semesters)
		return semesters, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	return semesters, nil
}

// Semester returns one semester template.
func (s *CatalogService) Semester(ctx context.Context, id string) (*models.Semester, error) {
	semester, err := s.repo.FindSemester(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "semester not found", "failed to load semester")
	}
	return semester, nil
}

// SubjectsBySemester lists the subjects taught in a semester.
func (s *CatalogService) SubjectsBySemester(ctx context.Context, semesterID string) ([]models.Subject, error) {
	subjects, err := readThrough(ctx, s.cache, "catalog:semester:"+semesterID+":subjects", func(ctx context.Context) ([]models.Subject, error) {
		return s.repo.SubjectsBySemester(ctx, semesterID)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// SubjectsByAcademicYear lists every subject offered across a year's semesters.
func (s *CatalogService) SubjectsByAcademicYear(ctx context.Context, academicYearID string) ([]models.Subject, error) {
	subjects, err := readThrough(ctx, s.cache, "catalog:year:"+academicYearID+":subjects", func(ctx context.Context) ([]models.Subject, error) {
		return s.repo.SubjectsByAcademicYear(ctx, academicYearID)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// FeeAmount returns the fee of a course for a category, NOT_FOUND when none is configured.
func (s *CatalogService) FeeAmount(ctx context.Context, courseID, category string) (int64, error) {
	key := "catalog:course:" + courseID + ":fee:" + strings.ToLower(category)
	fee, err := readThrough(ctx, s.cache, key, func(ctx context.Context) (models.FeeAmount, error) {
		fee, err := s.repo.FeeAmount(ctx, courseID, category)
		if err != nil {
			return models.FeeAmount{}, err
		}
		return *fee, nil
	})
	if err != nil {
		return 0, notFoundOr(err, fmt.Sprintf("no %s fee configured for course", category), "failed to load fee amount")
	}
	return fee.Amount, nil
}

// Invalidate drops every cached catalog entry.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, "catalog:*")
}

func notFoundOr(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFoundMsg)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internalMsg)
}
