package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/college-ledger-api/internal/dto"
	"github.com/noah-isme/college-ledger-api/internal/models"
	"github.com/noah-isme/college-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/college-ledger-api/pkg/errors"
)

// Domain event types published after a progression commit.
const (
	EventStudentPromoted    = "student.promoted"
	EventStudentTransferred = "student.transferred"
	EventYearRegistered     = "academic_year.registered"
)

type enrollmentStore interface {
	FindActive(ctx context.Context, studentID string) (*models.CurrentEnrollment, error)
	RunInTx(ctx context.Context, fn func(tx repository.EnrollmentTx) error) error
}

type progressionCatalog interface {
	Course(ctx context.Context, id string) (*models.Course, error)
	AcademicYear(ctx context.Context, id string) (*models.AcademicYear, error)
	AcademicYearsByCourse(ctx context.Context, courseID string) ([]models.AcademicYear, error)
	Semester(ctx context.Context, id string) (*models.Semester, error)
	SemestersByAcademicYear(ctx context.Context, academicYearID string) ([]models.Semester, error)
	FeeAmount(ctx context.Context, courseID, category string) (int64, error)
}

// EventPublisher emits domain events. Implementations must tolerate being called
// after the transaction that produced the event has committed.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// ProgressionPolicy holds the configurable business rules of promotion and transfer.
type ProgressionPolicy struct {
	OpenFeeCategory          string
	TransferRequiresEligible bool
}

// ProgressionService moves students between semesters, years and courses.
type ProgressionService struct {
	store       enrollmentStore
	catalog     progressionCatalog
	publisher   EventPublisher
	idempotency *IdempotencyService
	metrics     *MetricsService
	policy      ProgressionPolicy
	validator   *validator.Validate
	logger      *zap.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// ProgressionServiceOption configures the service.
type ProgressionServiceOption func(*ProgressionService)

// WithProgressionPublisher sets the domain event publisher.
func WithProgressionPublisher(publisher EventPublisher) ProgressionServiceOption {
	return func(s *ProgressionService) {
		s.publisher = publisher
	}
}

// WithProgressionIdempotency enables idempotency key handling.
func WithProgressionIdempotency(guard *IdempotencyService) ProgressionServiceOption {
	return func(s *ProgressionService) {
		s.idempotency = guard
	}
}

// WithProgressionMetrics records operation outcomes.
func WithProgressionMetrics(metrics *MetricsService) ProgressionServiceOption {
	return func(s *ProgressionService) {
		s.metrics = metrics
	}
}

// NewProgressionService constructs the service.
func NewProgressionService(store enrollmentStore, catalog progressionCatalog, policy ProgressionPolicy, validate *validator.Validate, logger *zap.Logger, opts ...ProgressionServiceOption) *ProgressionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(policy.OpenFeeCategory) == "" {
		policy.OpenFeeCategory = "Open"
	}
	svc := &ProgressionService{
		store:     store,
		catalog:   catalog,
		policy:    policy,
		validator: validate,
		logger:    logger,
		tracer:    otel.Tracer("college-ledger-api/progression"),
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// ComputePromotionTarget returns the student's next semester without writing anything.
func (s *ProgressionService) ComputePromotionTarget(ctx context.Context, studentID string) (*models.PromotionPlan, error) {
	ctx, span := s.tracer.Start(ctx, "progression.compute_target", trace.WithAttributes(attribute.String("student.id", studentID)))
	defer span.End()

	current, err := s.store.FindActive(ctx, studentID)
	if err != nil {
		err = activeEnrollmentError(err)
		recordSpanError(span, err)
		return nil, err
	}
	plan, err := s.planPromotion(ctx, current)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return plan, nil
}

// planPromotion walks the catalog: the next semester of the current year, else the
// first semester of the next year, else end of course.
func (s *ProgressionService) planPromotion(ctx context.Context, current *models.CurrentEnrollment) (*models.PromotionPlan, error) {
	semester, err := s.catalog.Semester(ctx, current.Semester.SemesterID)
	if err != nil {
		return nil, err
	}
	semesters, err := s.catalog.SemestersByAcademicYear(ctx, semester.AcademicYearID)
	if err != nil {
		return nil, err
	}
	idx := indexOfSemester(semesters, semester.ID)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrInternal, "current semester is missing from its academic year")
	}
	if idx+1 < len(semesters) {
		year, err := s.catalog.AcademicYear(ctx, semester.AcademicYearID)
		if err != nil {
			return nil, err
		}
		next := semesters[idx+1]
		return &models.PromotionPlan{Target: &models.PromotionTarget{
			AcademicYearID:   year.ID,
			AcademicYearName: year.Name,
			SemesterID:       next.ID,
			SemesterName:     next.Name,
		}}, nil
	}

	years, err := s.catalog.AcademicYearsByCourse(ctx, current.AcademicYear.CourseID)
	if err != nil {
		return nil, err
	}
	yearIdx := indexOfYear(years, semester.AcademicYearID, current.AcademicYear.AcademicYearName)
	if yearIdx < 0 {
		return nil, appErrors.Clone(appErrors.ErrInternal, "current academic year is missing from the course")
	}
	if yearIdx+1 >= len(years) {
		return &models.PromotionPlan{EndOfCourse: true}, nil
	}
	nextYear := years[yearIdx+1]
	nextSemesters, err := s.catalog.SemestersByAcademicYear(ctx, nextYear.ID)
	if err != nil {
		return nil, err
	}
	// A following year without semesters ends the course.
	if len(nextSemesters) == 0 {
		return &models.PromotionPlan{EndOfCourse: true}, nil
	}
	return &models.PromotionPlan{Target: &models.PromotionTarget{
		AcademicYearID:   nextYear.ID,
		AcademicYearName: nextYear.Name,
		SemesterID:       nextSemesters[0].ID,
		SemesterName:     nextSemesters[0].Name,
		IsNewYear:        true,
	}}, nil
}

// Promote moves an eligible student to the next semester, opening a new academic
// year enrollment when the next semester lies in the next year.
func (s *ProgressionService) Promote(ctx context.Context, req dto.PromoteRequest) (*models.ProgressionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	return runIdempotent(ctx, s.idempotency, "promote:"+req.StudentID, req.IdempotencyKey, func(ctx context.Context) (*models.ProgressionResult, error) {
		return s.promote(ctx, req)
	})
}

func (s *ProgressionService) promote(ctx context.Context, req dto.PromoteRequest) (*models.ProgressionResult, error) {
	ctx, span := s.tracer.Start(ctx, "progression.promote", trace.WithAttributes(attribute.String("student.id", req.StudentID)))
	defer span.End()
	start := s.now()

	var result *models.ProgressionResult
	err := s.store.RunInTx(ctx, func(tx repository.EnrollmentTx) error {
		if err := tx.LockStudent(ctx, req.StudentID); err != nil {
			return err
		}
		current, err := tx.ActiveEnrollment(ctx, req.StudentID)
		if err != nil {
			return activeEnrollmentError(err)
		}
		if current.Semester.PromotionStatus != models.PromotionStatusEligible {
			return appErrors.PromotionBlocked(string(current.Semester.PromotionStatus))
		}

		plan, err := s.planPromotion(ctx, current)
		if err != nil {
			return err
		}
		if plan.EndOfCourse {
			return appErrors.ErrEndOfCourse
		}
		target := plan.Target
		if req.ExpectedSemesterID != "" && req.ExpectedSemesterID != target.SemesterID {
			return appErrors.Clone(appErrors.ErrStalePromotionTarget,
				fmt.Sprintf("promotion target is now %s %s", target.AcademicYearName, target.SemesterName))
		}

		year := current.AcademicYear
		if target.IsNewYear {
			session := strings.TrimSpace(req.NewYearSession)
			if session == "" {
				return appErrors.Validation("new_year_session is required when promoting into a new academic year")
			}
			openFee, err := s.catalog.FeeAmount(ctx, year.CourseID, s.policy.OpenFeeCategory)
			if err != nil {
				if !errors.Is(err, appErrors.ErrNotFound) {
					return err
				}
				s.logger.Warn("open fee missing, carrying current total fee",
					zap.String("course_id", year.CourseID), zap.Int64("total_fee", year.TotalFee))
				openFee = year.TotalFee
			}
			next := models.AcademicYearEnrollment{
				StudentID:           req.StudentID,
				CourseID:            year.CourseID,
				AcademicYearName:    target.AcademicYearName,
				AcademicYearSession: session,
				Status:              models.AcademicYearStatusActive,
			}
			next.SetFees(openFee, year.ScholarshipName, year.ScholarshipAmount)

			if err := tx.UpdateAcademicYearStatus(ctx, year.ID, models.AcademicYearStatusInactive); err != nil {
				return err
			}
			if err := tx.InsertAcademicYearEnrollment(ctx, &next); err != nil {
				return err
			}
			year = next
		}

		if err := tx.UpdateSemesterEnrollment(ctx, current.Semester.ID, models.SemesterStatusInactive, models.PromotionStatusPromoted); err != nil {
			return err
		}
		semester := models.SemesterEnrollment{
			StudentID:                req.StudentID,
			SemesterID:               target.SemesterID,
			AcademicYearEnrollmentID: year.ID,
			Status:                   models.SemesterStatusActive,
			PromotionStatus:          models.PromotionStatusEligible,
		}
		if err := tx.InsertSemesterEnrollment(ctx, &semester); err != nil {
			return err
		}

		result = &models.ProgressionResult{
			StudentID:                        req.StudentID,
			AcademicYear:                     year,
			Semester:                         semester,
			PreviousAcademicYearEnrollmentID: current.AcademicYear.ID,
			PreviousSemesterEnrollmentID:     current.Semester.ID,
			IsNewYear:                        target.IsNewYear,
		}
		return nil
	})
	err = transactionError(err)
	s.finish(ctx, span, OperationPromote, start, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("student promoted",
		zap.String("student_id", req.StudentID),
		zap.String("semester_id", result.Semester.SemesterID),
		zap.Bool("new_year", result.IsNewYear))
	s.publish(ctx, EventStudentPromoted, result)
	return result, nil
}

// TransferBranch closes the student's current enrollment as transferred and opens
// an active enrollment on another course.
func (s *ProgressionService) TransferBranch(ctx context.Context, req dto.TransferRequest) (*models.ProgressionResult, error) {
	req.NewSession = strings.TrimSpace(req.NewSession)
	if err := s.validator.Struct(req); err != nil {
		return nil, transferValidationError(err)
	}
	return runIdempotent(ctx, s.idempotency, "transfer:"+req.StudentID, req.IdempotencyKey, func(ctx context.Context) (*models.ProgressionResult, error) {
		return s.transfer(ctx, req)
	})
}

func (s *ProgressionService) transfer(ctx context.Context, req dto.TransferRequest) (*models.ProgressionResult, error) {
	ctx, span := s.tracer.Start(ctx, "progression.transfer", trace.WithAttributes(
		attribute.String("student.id", req.StudentID),
		attribute.String("target.course_id", req.TargetCourseID)))
	defer span.End()
	start := s.now()

	targetYear, targetSemester, err := s.resolveTransferTarget(ctx, req)
	if err != nil {
		s.finish(ctx, span, OperationTransfer, start, err)
		return nil, err
	}

	var result *models.ProgressionResult
	err = s.store.RunInTx(ctx, func(tx repository.EnrollmentTx) error {
		if err := tx.LockStudent(ctx, req.StudentID); err != nil {
			return err
		}
		current, err := tx.ActiveEnrollment(ctx, req.StudentID)
		if err != nil {
			return activeEnrollmentError(err)
		}
		if current.AcademicYear.CourseID == req.TargetCourseID {
			return appErrors.ErrSameCourseTransfer
		}
		if s.policy.TransferRequiresEligible && current.Semester.PromotionStatus != models.PromotionStatusEligible {
			return appErrors.PromotionBlocked(string(current.Semester.PromotionStatus))
		}

		openFee, err := s.catalog.FeeAmount(ctx, req.TargetCourseID, s.policy.OpenFeeCategory)
		if err != nil {
			if !errors.Is(err, appErrors.ErrNotFound) {
				return err
			}
			s.logger.Warn("open fee missing for transfer target, opening year with zero fee",
				zap.String("course_id", req.TargetCourseID))
			openFee = 0
		}

		if err := tx.UpdateSemesterEnrollment(ctx, current.Semester.ID, models.SemesterStatusTransferred, models.PromotionStatusHold); err != nil {
			return err
		}
		if err := tx.UpdateAcademicYearStatus(ctx, current.AcademicYear.ID, models.AcademicYearStatusTransferred); err != nil {
			return err
		}

		year := models.AcademicYearEnrollment{
			StudentID:           req.StudentID,
			CourseID:            req.TargetCourseID,
			AcademicYearName:    targetYear.Name,
			AcademicYearSession: req.NewSession,
			Status:              models.AcademicYearStatusActive,
		}
		year.SetFees(openFee, current.AcademicYear.ScholarshipName, current.AcademicYear.ScholarshipAmount)
		if err := tx.InsertAcademicYearEnrollment(ctx, &year); err != nil {
			return err
		}
		semester := models.SemesterEnrollment{
			StudentID:                req.StudentID,
			SemesterID:               targetSemester.ID,
			AcademicYearEnrollmentID: year.ID,
			Status:                   models.SemesterStatusActive,
			PromotionStatus:          models.PromotionStatusEligible,
		}
		if err := tx.InsertSemesterEnrollment(ctx, &semester); err != nil {
			return err
		}

		result = &models.ProgressionResult{
			StudentID:                        req.StudentID,
			AcademicYear:                     year,
			Semester:                         semester,
			PreviousAcademicYearEnrollmentID: current.AcademicYear.ID,
			PreviousSemesterEnrollmentID:     current.Semester.ID,
			IsNewYear:                        true,
		}
		return nil
	})
	err = transactionError(err)
	s.finish(ctx, span, OperationTransfer, start, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("student transferred",
		zap.String("student_id", req.StudentID),
		zap.String("course_id", req.TargetCourseID),
		zap.String("semester_id", targetSemester.ID))
	s.publish(ctx, EventStudentTransferred, result)
	return result, nil
}

func (s *ProgressionService) resolveTransferTarget(ctx context.Context, req dto.TransferRequest) (*models.AcademicYear, *models.Semester, error) {
	if _, err := s.catalog.Course(ctx, req.TargetCourseID); err != nil {
		return nil, nil, err
	}
	year, err := s.catalog.AcademicYear(ctx, req.TargetAcademicYearID)
	if err != nil {
		return nil, nil, err
	}
	if year.CourseID != req.TargetCourseID {
		return nil, nil, appErrors.Validation("target academic year does not belong to the target course")
	}
	semester, err := s.catalog.Semester(ctx, req.TargetSemesterID)
	if err != nil {
		return nil, nil, err
	}
	if semester.AcademicYearID != year.ID {
		return nil, nil, appErrors.Validation("target semester does not belong to the target academic year")
	}
	return year, semester, nil
}

func (s *ProgressionService) finish(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = appErrors.FromError(err).Code
		recordSpanError(span, err)
		s.logger.Warn(operation+" failed", zap.String("outcome", outcome), zap.Error(err))
	}
	s.metrics.ObserveOperation(operation, outcome, s.now().Sub(start))
}

func (s *ProgressionService) publish(ctx context.Context, eventType string, payload interface{}) {
	publishEvent(ctx, s.publisher, s.metrics, s.logger, eventType, payload)
}

func publishEvent(ctx context.Context, publisher EventPublisher, metrics *MetricsService, logger *zap.Logger, eventType string, payload interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(context.WithoutCancel(ctx), eventType, payload); err != nil {
		metrics.RecordEventFailure(eventType)
		logger.Warn("publish domain event failed", zap.String("event", eventType), zap.Error(err))
	}
}

// transactionError keeps domain errors raised inside a unit of work and reports
// everything else as a rolled-back transaction, wrapping the store's error.
func transactionError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, appErrors.ErrTransactionFailure.Message)
}

func activeEnrollmentError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "student has no active enrollment")
	}
	return err
}

func transferValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0].Field()
		if field == "NewSession" {
			return appErrors.Validation("new_session is required for a branch transfer")
		}
		return appErrors.Validation(fmt.Sprintf("%s is required", field))
	}
	return appErrors.Validation("invalid transfer request")
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func indexOfSemester(semesters []models.Semester, id string) int {
	for i := range semesters {
		if semesters[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfYear(years []models.AcademicYear, id, name string) int {
	for i := range years {
		if years[i].ID == id {
			return i
		}
	}
	for i := range years {
		if strings.EqualFold(years[i].Name, name) {
			return i
		}
	}
	return -1
}
