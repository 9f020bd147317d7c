package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-ledger-api/internal/models"
)

var paymentColumns = []string{"id", "student_id", "academic_year_enrollment_id", "amount", "fees_type", "created_at"}

func TestPaymentRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM payments WHERE student_id = $1 ORDER BY created_at ASC")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows(paymentColumns).
			AddRow("p1", "student-1", "aye-1", int64(20000), "TuitionFee", now).
			AddRow("p2", "student-1", "aye-1", int64(5000), "Library", now))

	payments, err := repo.ListByStudent(context.Background(), "student-1", "")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, models.FeesTypeTuition, payments[0].FeesType)
	assert.Equal(t, models.FeesType("Library"), payments[1].FeesType)
}

func TestPaymentRepositoryListByStudentAndYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_id = $1 AND academic_year_enrollment_id = $2")).
		WithArgs("student-1", "aye-2").
		WillReturnRows(sqlmock.NewRows(paymentColumns))

	payments, err := repo.ListByStudent(context.Background(), "student-1", "aye-2")
	require.NoError(t, err)
	assert.Empty(t, payments)
}
