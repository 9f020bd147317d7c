package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/college-ledger-api/internal/dto"
	"github.com/noah-isme/college-ledger-api/internal/models"
	"github.com/noah-isme/college-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/college-ledger-api/pkg/errors"
)

type registrationStore interface {
	FindAcademicYearEnrollment(ctx context.Context, id string) (*models.AcademicYearEnrollment, error)
	RunInTx(ctx context.Context, fn func(tx repository.EnrollmentTx) error) error
}

type registrationCatalog interface {
	AcademicYearByName(ctx context.Context, courseID, name string) (*models.AcademicYear, error)
	SubjectsByAcademicYear(ctx context.Context, academicYearID string) ([]models.Subject, error)
	FeeAmount(ctx context.Context, courseID, category string) (int64, error)
}

// RegistrationService finalises academic year enrollments.
type RegistrationService struct {
	store       registrationStore
	catalog     registrationCatalog
	publisher   EventPublisher
	idempotency *IdempotencyService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewRegistrationService constructs the service. publisher, idempotency and metrics may be nil.
func NewRegistrationService(store registrationStore, catalog registrationCatalog, publisher EventPublisher, idempotency *IdempotencyService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		store:       store,
		catalog:     catalog,
		publisher:   publisher,
		idempotency: idempotency,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		tracer:      otel.Tracer("college-ledger-api/registration"),
		now:         time.Now,
	}
}

// Register records the subject snapshot and payment plan of an active academic
// year enrollment, optionally replacing its scholarship from a fee category.
func (s *RegistrationService) Register(ctx context.Context, req dto.RegisterRequest) (*models.Registration, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return runIdempotent(ctx, s.idempotency, "register:"+req.AcademicYearEnrollmentID, req.IdempotencyKey, func(ctx context.Context) (*models.Registration, error) {
		return s.register(ctx, req)
	})
}

func (s *RegistrationService) validate(req dto.RegisterRequest) error {
	if err := s.validator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].StructField() {
			case "SubjectIDs":
				return appErrors.Validation("at least one subject must be selected")
			case "PaymentPlan":
				return appErrors.Validation("payment_plan must be OneTime or Installment")
			}
		}
		return appErrors.Validation("invalid registration request")
	}
	if models.PaymentPlan(req.PaymentPlan) == models.PaymentPlanInstallment &&
		(req.UndertakingRef == nil || strings.TrimSpace(*req.UndertakingRef) == "") {
		return appErrors.ErrMissingUndertaking
	}
	if req.ScholarshipCategory != nil && strings.TrimSpace(*req.ScholarshipCategory) == "" {
		return appErrors.Validation("scholarship_category must not be blank")
	}
	return nil
}

func (s *RegistrationService) register(ctx context.Context, req dto.RegisterRequest) (*models.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "registration.register", trace.WithAttributes(
		attribute.String("academic_year_enrollment.id", req.AcademicYearEnrollmentID)))
	defer span.End()
	start := s.now()

	registration, err := s.registerInTx(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = appErrors.FromError(err).Code
		recordSpanError(span, err)
		s.logger.Warn("register failed", zap.String("academic_year_enrollment_id", req.AcademicYearEnrollmentID),
			zap.String("outcome", outcome), zap.Error(err))
	}
	s.metrics.ObserveOperation(OperationRegister, outcome, s.now().Sub(start))
	if err != nil {
		return nil, err
	}

	s.logger.Info("academic year registered",
		zap.String("academic_year_enrollment_id", registration.AcademicYear.ID),
		zap.Int("subjects", len(registration.Subjects)))
	publishEvent(ctx, s.publisher, s.metrics, s.logger, EventYearRegistered, registration)
	return registration, nil
}

func (s *RegistrationService) registerInTx(ctx context.Context, req dto.RegisterRequest) (*models.Registration, error) {
	// Resolve the owning student first so the student lock is taken before the row lock,
	// the same order promotion uses.
	snapshot, err := s.store.FindAcademicYearEnrollment(ctx, req.AcademicYearEnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year enrollment not found")
		}
		return nil, transactionError(err)
	}

	template, err := s.catalog.AcademicYearByName(ctx, snapshot.CourseID, snapshot.AcademicYearName)
	if err != nil {
		return nil, err
	}
	offered, err := s.catalog.SubjectsByAcademicYear(ctx, template.ID)
	if err != nil {
		return nil, err
	}
	subjects, err := selectSubjects(offered, req.SubjectIDs, template.Name)
	if err != nil {
		return nil, err
	}

	var overrideFee *int64
	if req.ScholarshipCategory != nil {
		fee, err := s.catalog.FeeAmount(ctx, snapshot.CourseID, strings.TrimSpace(*req.ScholarshipCategory))
		if err != nil {
			return nil, err
		}
		overrideFee = &fee
	}

	var registration *models.Registration
	err = s.store.RunInTx(ctx, func(tx repository.EnrollmentTx) error {
		if err := tx.LockStudent(ctx, snapshot.StudentID); err != nil {
			return err
		}
		year, err := tx.LockAcademicYearEnrollment(ctx, req.AcademicYearEnrollmentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "academic year enrollment not found")
			}
			return err
		}
		if year.IsRegistered {
			return appErrors.ErrAlreadyRegistered
		}
		if year.Status != models.AcademicYearStatusActive {
			return appErrors.Clone(appErrors.ErrEnrollmentNotActive,
				fmt.Sprintf("academic year enrollment is %s", year.Status))
		}

		scholarshipName, scholarshipAmount := year.ScholarshipName, year.ScholarshipAmount
		if overrideFee != nil {
			scholarshipAmount = year.TotalFee - *overrideFee
			if scholarshipAmount < 0 {
				return appErrors.Validation(fmt.Sprintf("%s fee exceeds the total fee of the year", *req.ScholarshipCategory))
			}
			scholarshipName = strings.TrimSpace(*req.ScholarshipCategory)
		}

		registeredAt := s.now().UTC()
		for i := range subjects {
			subjects[i].AcademicYearEnrollmentID = year.ID
			subjects[i].CreatedAt = registeredAt
		}
		plan := models.PaymentPlan(req.PaymentPlan)
		update := models.RegistrationUpdate{
			AcademicYearEnrollmentID: year.ID,
			PaymentPlan:              plan,
			UndertakingRef:           trimmedOrNil(req.UndertakingRef),
			ScholarshipName:          scholarshipName,
			ScholarshipAmount:        scholarshipAmount,
			RegisteredAt:             registeredAt,
			Subjects:                 subjects,
		}
		if err := tx.UpdateRegistration(ctx, update); err != nil {
			return err
		}

		year.IsRegistered = true
		year.PaymentPlan = &plan
		year.UndertakingRef = update.UndertakingRef
		year.RegisteredAt = &registeredAt
		year.SetFees(year.TotalFee, scholarshipName, scholarshipAmount)
		registration = &models.Registration{AcademicYear: *year, Subjects: subjects}
		return nil
	})
	if err != nil {
		return nil, transactionError(err)
	}
	return registration, nil
}

// selectSubjects validates the chosen subjects against the year template and adds
// every compulsory subject. The snapshot is ordered by subject id.
func selectSubjects(offered []models.Subject, chosen []string, yearName string) ([]models.RegistrationSubject, error) {
	byID := make(map[string]models.Subject, len(offered))
	for _, subject := range offered {
		byID[subject.ID] = subject
	}
	selected := make(map[string]bool, len(chosen))
	for _, id := range chosen {
		if _, ok := byID[id]; !ok {
			return nil, appErrors.Validation(fmt.Sprintf("subject %s is not offered in %s", id, yearName))
		}
		selected[id] = true
	}
	for _, subject := range offered {
		if subject.IsCompulsory {
			selected[subject.ID] = true
		}
	}

	result := make([]models.RegistrationSubject, 0, len(selected))
	for id := range selected {
		result = append(result, models.RegistrationSubject{SubjectID: id, IsCompulsory: byID[id].IsCompulsory})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SubjectID < result[j].SubjectID })
	return result, nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
