package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/college-ledger-api/internal/models"
	appErrors "github.com/noah-isme/college-ledger-api/pkg/errors"
	"github.com/noah-isme/college-ledger-api/pkg/export"
)

type ledgerEnrollmentReader interface {
	FindAcademicYearEnrollment(ctx context.Context, id string) (*models.AcademicYearEnrollment, error)
	ListAcademicYearEnrollments(ctx context.Context, studentID string) ([]models.AcademicYearEnrollment, error)
}

type paymentReader interface {
	ListByStudent(ctx context.Context, studentID, yearEnrollmentID string) ([]models.Payment, error)
}

// ComputeYearFinancials summarises the payments of one academic year enrollment.
// Only tuition payments reduce the remaining due, which may go negative on overpayment.
func ComputeYearFinancials(year models.AcademicYearEnrollment, payments []models.Payment) models.YearFinancials {
	summary := models.YearFinancials{
		AcademicYearEnrollmentID: year.ID,
		AcademicYearName:         year.AcademicYearName,
		AcademicYearSession:      year.AcademicYearSession,
		Status:                   string(year.Status),
		IsRegistered:             year.IsRegistered,
		TotalFee:                 year.TotalFee,
		ScholarshipName:          year.ScholarshipName,
		ScholarshipAmount:        year.ScholarshipAmount,
		NetPayableFee:            year.NetPayableFee,
	}
	for _, payment := range payments {
		switch payment.FeesType {
		case models.FeesTypeTuition:
			summary.TuitionPaid += payment.Amount
		case models.FeesTypeScholarship:
			summary.ScholarshipUsed += payment.Amount
		default:
			summary.OtherFeesPaid += payment.Amount
		}
	}
	summary.RemainingDue = year.NetPayableFee - summary.TuitionPaid
	summary.RemainingScholarship = year.ScholarshipAmount - summary.ScholarshipUsed
	return summary
}

// ComputeGlobalSummary lists every year and totals the registered ones. TotalPaid
// counts tuition only. Payments are attributed to years by their academic year enrollment id.
func ComputeGlobalSummary(studentID string, years []models.AcademicYearEnrollment, payments []models.Payment) models.GlobalSummary {
	byYear := make(map[string][]models.Payment, len(years))
	for _, payment := range payments {
		byYear[payment.AcademicYearEnrollmentID] = append(byYear[payment.AcademicYearEnrollmentID], payment)
	}

	summary := models.GlobalSummary{StudentID: studentID, Years: make([]models.YearFinancials, 0, len(years))}
	for _, year := range years {
		financials := ComputeYearFinancials(year, byYear[year.ID])
		summary.Years = append(summary.Years, financials)
		if !year.IsRegistered {
			continue
		}
		summary.RegisteredYears++
		summary.TotalNetPayable += financials.NetPayableFee
		summary.TotalPaid += financials.TuitionPaid
		summary.TotalScholarship += financials.ScholarshipAmount
		summary.TotalRemainingDue += financials.RemainingDue
	}
	return summary
}

// LedgerService reads the payment ledger of a student.
type LedgerService struct {
	enrollments ledgerEnrollmentReader
	payments    paymentReader
	exporter    *export.CSVExporter
	logger      *zap.Logger
	tracer      trace.Tracer
}

// NewLedgerService constructs the ledger service.
func NewLedgerService(enrollments ledgerEnrollmentReader, payments paymentReader, exporter *export.CSVExporter, logger *zap.Logger) *LedgerService {
	if exporter == nil {
		exporter = export.NewCSVExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		enrollments: enrollments,
		payments:    payments,
		exporter:    exporter,
		logger:      logger,
		tracer:      otel.Tracer("college-ledger-api/ledger"),
	}
}

// YearFinancials returns the financial summary of one of the student's year enrollments.
func (s *LedgerService) YearFinancials(ctx context.Context, studentID, yearEnrollmentID string) (*models.YearFinancials, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.year_financials", trace.WithAttributes(
		attribute.String("student.id", studentID),
		attribute.String("academic_year_enrollment.id", yearEnrollmentID)))
	defer span.End()

	year, err := s.enrollments.FindAcademicYearEnrollment(ctx, yearEnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year enrollment not found")
		}
		recordSpanError(span, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year enrollment")
	}
	if year.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year enrollment not found")
	}
	payments, err := s.payments.ListByStudent(ctx, studentID, yearEnrollmentID)
	if err != nil {
		recordSpanError(span, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}
	financials := ComputeYearFinancials(*year, payments)
	return &financials, nil
}

// GlobalSummary returns the student's financial position across all years.
func (s *LedgerService) GlobalSummary(ctx context.Context, studentID string) (*models.GlobalSummary, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.global_summary", trace.WithAttributes(attribute.String("student.id", studentID)))
	defer span.End()

	years, err := s.enrollments.ListAcademicYearEnrollments(ctx, studentID)
	if err != nil {
		recordSpanError(span, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year enrollments")
	}
	if len(years) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student has no academic year enrollments")
	}
	payments, err := s.payments.ListByStudent(ctx, studentID, "")
	if err != nil {
		recordSpanError(span, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}
	summary := ComputeGlobalSummary(studentID, years, payments)
	return &summary, nil
}

var statementColumns = []export.Column{
	{Key: "year", Title: "Academic Year"},
	{Key: "session", Title: "Session"},
	{Key: "status", Title: "Status"},
	{Key: "registered", Title: "Registered"},
	{Key: "total_fee", Title: "Total Fee"},
	{Key: "scholarship", Title: "Scholarship"},
	{Key: "net_payable", Title: "Net Payable"},
	{Key: "tuition_paid", Title: "Tuition Paid"},
	{Key: "other_fees_paid", Title: "Other Fees Paid"},
	{Key: "remaining_due", Title: "Remaining Due"},
}

// Statement renders the global summary as CSV, one row per year and a totals row.
func (s *LedgerService) Statement(ctx context.Context, studentID string) ([]byte, error) {
	summary, err := s.GlobalSummary(ctx, studentID)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]string, 0, len(summary.Years)+1)
	for _, year := range summary.Years {
		rows = append(rows, map[string]string{
			"year":            year.AcademicYearName,
			"session":         year.AcademicYearSession,
			"status":          year.Status,
			"registered":      strconv.FormatBool(year.IsRegistered),
			"total_fee":       formatAmount(year.TotalFee),
			"scholarship":     formatAmount(year.ScholarshipAmount),
			"net_payable":     formatAmount(year.NetPayableFee),
			"tuition_paid":    formatAmount(year.TuitionPaid),
			"other_fees_paid": formatAmount(year.OtherFeesPaid),
			"remaining_due":   formatAmount(year.RemainingDue),
		})
	}
	rows = append(rows, map[string]string{
		"year":          "Total (registered)",
		"scholarship":   formatAmount(summary.TotalScholarship),
		"net_payable":   formatAmount(summary.TotalNetPayable),
		"tuition_paid":  formatAmount(summary.TotalPaid),
		"remaining_due": formatAmount(summary.TotalRemainingDue),
	})
	body, err := s.exporter.Render(export.Dataset{Columns: statementColumns, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statement")
	}
	return body, nil
}

func formatAmount(amount int64) string {
	return strconv.FormatInt(amount, 10)
}
