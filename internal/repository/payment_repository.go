package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-ledger-api/internal/models"
)

// PaymentRepository reads the append-only payment ledger.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// ListByStudent returns a student's payments, optionally restricted to one year enrollment.
func (r *PaymentRepository) ListByStudent(ctx context.Context, studentID, yearEnrollmentID string) ([]models.Payment, error) {
	query := `SELECT id, student_id, academic_year_enrollment_id, amount, fees_type, created_at FROM payments WHERE student_id = $1`
	args := []interface{}{studentID}
	if yearEnrollmentID != "" {
		args = append(args, yearEnrollmentID)
		query += fmt.Sprintf(" AND academic_year_enrollment_id = $%d", len(args))
	}
	query += " ORDER BY created_at ASC, id ASC"

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
