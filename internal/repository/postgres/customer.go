package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/crm-pipeline/internal/domain"
	"github.com/ignite/crm-pipeline/internal/ingest"
)

// CustomerRepo implements ingest.Store against PostgreSQL. Uniqueness
// of the customer email is enforced by the database, not the
// application; the repo's job is to classify the violation.
type CustomerRepo struct{ db *sql.DB }

// NewCustomerRepo creates a Postgres-backed customer repository.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

func (r *CustomerRepo) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (id, email, name, total_spend, visit_count, last_visit, is_mock_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`, c.ID, c.Email, c.Name, c.TotalSpend, c.VisitCount, c.LastVisit, c.IsMockData)
	if isUniqueViolation(err) {
		return fmt.Errorf("customer email: %w", ingest.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

// CreateOrder inserts the order and folds its amount into the customer
// aggregates in one transaction. A foreign-key violation (customer not
// materialized yet) is returned as a plain error so the consumer leaves
// the record pending for redelivery.
func (r *CustomerRepo) CreateOrder(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, order_amount, order_date, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, o.ID, o.CustomerID, o.OrderAmount, o.OrderDate)
	if isUniqueViolation(err) {
		return fmt.Errorf("order id: %w", ingest.ErrDuplicate)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("order %s references missing customer %s: %w", o.ID, o.CustomerID, err)
	}
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE customers
		SET total_spend = total_spend + $2,
		    last_order_date = GREATEST(COALESCE(last_order_date, $3), $3),
		    updated_at = NOW()
		WHERE id = $1
	`, o.CustomerID, o.OrderAmount, o.OrderDate)
	if err != nil {
		return fmt.Errorf("update customer aggregates: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order tx: %w", err)
	}
	return nil
}
