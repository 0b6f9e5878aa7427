package ingest

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/crm-pipeline/internal/domain"
	"github.com/ignite/crm-pipeline/internal/pkg/logger"
	"github.com/ignite/crm-pipeline/internal/stream"
)

const (
	// DefaultReadBlock bounds each blocking read so the loop can notice
	// cancellation and group state changes.
	DefaultReadBlock = 5 * time.Second

	// DefaultBatchSize is the max records claimed per read.
	DefaultBatchSize = 10

	// DefaultBackoff is the pause after a failed read before retrying.
	DefaultBackoff = time.Second
)

// Store is the persistence surface the consumer materializes into.
// Implementations must be safe for concurrent use and must return
// ErrDuplicate (possibly wrapped) on uniqueness violations.
type Store interface {
	CreateCustomer(ctx context.Context, c *domain.Customer) error
	CreateOrder(ctx context.Context, o *domain.Order) error
}

// Consumer drains the ingest streams and applies records to the store.
// One loop runs per stream; loops share only the log and store clients.
type Consumer struct {
	log     stream.Log
	store   Store
	name    string
	block   time.Duration
	batch   int64
	backoff time.Duration
}

// NewConsumer creates a consumer with the given identity. The name is
// the consumer identity within the group, not the group itself.
func NewConsumer(l stream.Log, s Store, name string) *Consumer {
	return &Consumer{
		log:     l,
		store:   s,
		name:    name,
		block:   DefaultReadBlock,
		batch:   DefaultBatchSize,
		backoff: DefaultBackoff,
	}
}

// SetTimings overrides the read block and backoff, mainly for tests.
func (c *Consumer) SetTimings(block, backoff time.Duration) {
	if block > 0 {
		c.block = block
	}
	if backoff > 0 {
		c.backoff = backoff
	}
}

// Run starts one loop per ingest stream and blocks until ctx is
// cancelled and all loops have drained their current batch.
func (c *Consumer) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, s := range []string{stream.StreamCustomerIngest, stream.StreamOrderIngest} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			c.loop(ctx, name)
		}(s)
	}
	wg.Wait()
}

func (c *Consumer) loop(ctx context.Context, streamName string) {
	log.Printf("[IngestConsumer] loop started (stream=%s consumer=%s)", streamName, c.name)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[IngestConsumer] loop stopping (stream=%s)", streamName)
			return
		default:
		}

		if err := c.poll(ctx, streamName); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[IngestConsumer] read error (stream=%s): %v", streamName, err)
			c.sleep(ctx)
		}
	}
}

// poll retries this consumer's unacknowledged entries, then performs
// one bounded read for new work. Per-record failures never abort the
// batch.
func (c *Consumer) poll(ctx context.Context, streamName string) error {
	pending, err := c.log.ReadPending(ctx, streamName, stream.GroupIngest, c.name, c.batch)
	if err != nil {
		return err
	}
	for _, e := range pending {
		c.process(ctx, streamName, e)
	}

	entries, err := c.log.ReadGroup(ctx, streamName, stream.GroupIngest, c.name, c.block, c.batch)
	if err != nil {
		return err
	}
	for _, e := range entries {
		c.process(ctx, streamName, e)
	}
	return nil
}

func (c *Consumer) process(ctx context.Context, streamName string, e stream.Entry) {
	rec, err := stream.Decode(e.Values)
	if err != nil {
		// Poison: redelivery can never succeed, so ack and drop.
		log.Printf("[IngestConsumer] dropping malformed record %s on %s: %v", e.ID, streamName, err)
		c.ack(ctx, streamName, e.ID)
		return
	}

	switch err := c.apply(ctx, rec); {
	case err == nil:
		c.ack(ctx, streamName, e.ID)
	case errors.Is(err, ErrDuplicate):
		// Already applied on an earlier delivery; ack without a second
		// row. This is what makes ingestion idempotent.
		if cust, ok := rec.(stream.CustomerIngest); ok {
			logger.Info("duplicate customer record dropped",
				"email", cust.Email, "stream", streamName, "entry_id", e.ID)
		}
		c.ack(ctx, streamName, e.ID)
	default:
		// Left unacknowledged: the record is redelivered on a later
		// poll. Orders referencing a not-yet-materialized customer land
		// here until the customer arrives.
		log.Printf("[IngestConsumer] apply failed, leaving %s pending on %s: %v", e.ID, streamName, err)
	}
}

func (c *Consumer) apply(ctx context.Context, rec stream.Record) error {
	switch r := rec.(type) {
	case stream.CustomerIngest:
		err := c.store.CreateCustomer(ctx, &domain.Customer{
			ID:         uuid.New().String(),
			Email:      r.Email,
			Name:       r.Name,
			TotalSpend: r.TotalSpend,
			VisitCount: r.VisitCount,
			LastVisit:  r.LastVisit,
			IsMockData: r.IsMock,
		})
		if err == nil {
			logger.Info("customer ingested", "email", r.Email, "name", r.Name)
		}
		return err
	case stream.OrderIngest:
		// The producer minted the id; reusing it makes a redelivered
		// record a primary-key conflict instead of a second row.
		return c.store.CreateOrder(ctx, &domain.Order{
			ID:          r.ID,
			CustomerID:  r.CustomerID,
			OrderAmount: r.OrderAmount,
			OrderDate:   r.OrderDate,
		})
	default:
		// Delivery tasks never travel on the ingest streams; drop a
		// stray one like the malformed-record path, but say so.
		log.Printf("[IngestConsumer] dropping stray %s record", rec.Kind())
		return nil
	}
}

func (c *Consumer) ack(ctx context.Context, streamName, id string) {
	if err := c.log.Ack(ctx, streamName, stream.GroupIngest, id); err != nil {
		// The record will be redelivered and hit the duplicate path.
		log.Printf("[IngestConsumer] ack failed for %s on %s: %v", id, streamName, err)
	}
}

func (c *Consumer) sleep(ctx context.Context) {
	t := time.NewTimer(c.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
