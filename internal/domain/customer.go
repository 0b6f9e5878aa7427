package domain

import "time"

// Customer is a CRM contact. Identity is the email address: the store
// enforces a unique constraint on it, which is what makes duplicate
// ingestion a no-op instead of a second row.
type Customer struct {
	ID            string     `json:"id" db:"id"`
	Email         string     `json:"email" db:"email"`
	Name          string     `json:"name" db:"name"`
	TotalSpend    float64    `json:"total_spend" db:"total_spend"`
	VisitCount    int        `json:"visit_count" db:"visit_count"`
	LastVisit     *time.Time `json:"last_visit" db:"last_visit"`
	LastOrderDate *time.Time `json:"last_order_date" db:"last_order_date"`

	// IsMockData marks synthetic records seeded for testing. Segment
	// evaluation excludes them unless the segment opts in.
	IsMockData bool `json:"is_mock_data" db:"is_mock_data"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Order is a purchase attributed to a customer. Orders are only ever
// materialized by the ingestion consumer.
type Order struct {
	ID          string    `json:"id" db:"id"`
	CustomerID  string    `json:"customer_id" db:"customer_id"`
	OrderAmount float64   `json:"order_amount" db:"order_amount"`
	OrderDate   time.Time `json:"order_date" db:"order_date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
