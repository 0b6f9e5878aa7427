package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/crm-pipeline/internal/stream"
)

// CustomerInput is the API-boundary payload for a customer creation.
type CustomerInput struct {
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	TotalSpend float64    `json:"total_spend"`
	VisitCount int        `json:"visit_count"`
	LastVisit  *time.Time `json:"last_visit"`
	IsMock     bool       `json:"is_mock"`
}

// OrderInput is the API-boundary payload for an order creation.
type OrderInput struct {
	CustomerID  string    `json:"customer_id"`
	OrderAmount float64   `json:"order_amount"`
	OrderDate   time.Time `json:"order_date"`
}

// Producer validates ingestion payloads and appends them to the log.
// It never writes to the persistent store; that is the consumer's job.
type Producer struct {
	log stream.Log
}

// NewProducer creates a producer over the given log.
func NewProducer(l stream.Log) *Producer {
	return &Producer{log: l}
}

// IngestCustomer validates and appends a customer record. Returns the
// log record ID. Append failures propagate to the caller; there is no
// local retry.
func (p *Producer) IngestCustomer(ctx context.Context, in CustomerInput) (string, error) {
	if in.Email == "" {
		return "", fmt.Errorf("%w: email is required", ErrValidation)
	}
	if in.Name == "" {
		return "", fmt.Errorf("%w: name is required", ErrValidation)
	}

	rec := stream.CustomerIngest{
		Email:      in.Email,
		Name:       in.Name,
		TotalSpend: in.TotalSpend,
		VisitCount: in.VisitCount,
		LastVisit:  in.LastVisit,
		IsMock:     in.IsMock,
	}
	return p.log.Append(ctx, stream.StreamCustomerIngest, stream.Encode(rec))
}

// IngestOrder validates and appends an order record.
func (p *Producer) IngestOrder(ctx context.Context, in OrderInput) (string, error) {
	if in.CustomerID == "" {
		return "", fmt.Errorf("%w: customer_id is required", ErrValidation)
	}
	if in.OrderAmount <= 0 {
		return "", fmt.Errorf("%w: order_amount must be positive", ErrValidation)
	}
	if in.OrderDate.IsZero() {
		in.OrderDate = time.Now().UTC()
	}

	// The order id is fixed at append time so every redelivery of this
	// record inserts the same row and the primary key dedupes it.
	rec := stream.OrderIngest{
		ID:          uuid.New().String(),
		CustomerID:  in.CustomerID,
		OrderAmount: in.OrderAmount,
		OrderDate:   in.OrderDate,
	}
	return p.log.Append(ctx, stream.StreamOrderIngest, stream.Encode(rec))
}
