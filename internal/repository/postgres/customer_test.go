package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/ignite/crm-pipeline/internal/domain"
	"github.com/ignite/crm-pipeline/internal/ingest"
)

func setupMock(t *testing.T) (sqlmock.Sqlmock, *CustomerRepo) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, NewCustomerRepo(db)
}

func TestCreateCustomerClassifiesDuplicate(t *testing.T) {
	mock, repo := setupMock(t)

	mock.ExpectExec("INSERT INTO customers").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "customers_email_key"})

	err := repo.CreateCustomer(context.Background(), &domain.Customer{
		ID: "c1", Email: "dup@example.com", Name: "Dup",
	})
	require.ErrorIs(t, err, ingest.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCustomerPassesThroughOtherErrors(t *testing.T) {
	mock, repo := setupMock(t)

	mock.ExpectExec("INSERT INTO customers").
		WillReturnError(&pq.Error{Code: "53300", Message: "too many connections"})

	err := repo.CreateCustomer(context.Background(), &domain.Customer{
		ID: "c1", Email: "x@example.com", Name: "X",
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, ingest.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderUpdatesAggregates(t *testing.T) {
	mock, repo := setupMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE customers").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateOrder(context.Background(), &domain.Order{
		ID: "o1", CustomerID: "c1", OrderAmount: 250, OrderDate: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderForMissingCustomerIsRetryable(t *testing.T) {
	mock, repo := setupMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "orders_customer_id_fkey"})
	mock.ExpectRollback()

	err := repo.CreateOrder(context.Background(), &domain.Order{
		ID: "o1", CustomerID: "ghost", OrderAmount: 250, OrderDate: time.Now().UTC(),
	})
	// Not a duplicate: the consumer must leave the record pending.
	require.Error(t, err)
	require.NotErrorIs(t, err, ingest.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}
