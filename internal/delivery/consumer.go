package delivery

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ignite/crm-pipeline/internal/stream"
)

const (
	// DefaultDiscoverInterval is how often the consumer scans for new
	// per-campaign streams.
	DefaultDiscoverInterval = 2 * time.Second

	defaultReadBlock = 5 * time.Second
	defaultBatchSize = 10
	defaultBackoff   = time.Second
)

// Consumer drains per-campaign delivery streams and records outcomes.
// Campaign streams appear dynamically, so the consumer discovers them by
// key prefix and starts one loop per stream.
type Consumer struct {
	log      stream.Log
	recorder *Recorder
	name     string

	block    time.Duration
	backoff  time.Duration
	batch    int64
	discover time.Duration

	mu     sync.Mutex
	active map[string]bool
}

// NewConsumer creates a delivery consumer with the given identity.
func NewConsumer(l stream.Log, recorder *Recorder, name string) *Consumer {
	return &Consumer{
		log:      l,
		recorder: recorder,
		name:     name,
		block:    defaultReadBlock,
		backoff:  defaultBackoff,
		batch:    defaultBatchSize,
		discover: DefaultDiscoverInterval,
		active:   make(map[string]bool),
	}
}

// SetTimings overrides loop timings, mainly for tests.
func (c *Consumer) SetTimings(block, backoff, discover time.Duration) {
	if block > 0 {
		c.block = block
	}
	if backoff > 0 {
		c.backoff = backoff
	}
	if discover > 0 {
		c.discover = discover
	}
}

// Run discovers campaign streams and processes them until ctx is
// cancelled. It blocks until every stream loop has stopped.
func (c *Consumer) Run(ctx context.Context) {
	log.Printf("[DeliveryConsumer] started (consumer=%s)", c.name)

	var wg sync.WaitGroup
	ticker := time.NewTicker(c.discover)
	defer ticker.Stop()

	c.spawnNew(ctx, &wg)
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			log.Printf("[DeliveryConsumer] stopped")
			return
		case <-ticker.C:
			c.spawnNew(ctx, &wg)
		}
	}
}

// spawnNew starts a loop for every campaign stream not yet being
// consumed.
func (c *Consumer) spawnNew(ctx context.Context, wg *sync.WaitGroup) {
	names, err := c.log.ListStreams(ctx, stream.CampaignStreamPrefix)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[DeliveryConsumer] discovery error: %v", err)
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range names {
		if c.active[name] {
			continue
		}
		c.active[name] = true
		wg.Add(1)
		go func(streamName string) {
			defer wg.Done()
			c.loop(ctx, streamName)
		}(name)
	}
}

func (c *Consumer) loop(ctx context.Context, streamName string) {
	// The orchestrator creates the group at dispatch time; this covers
	// streams that predate this process.
	if err := c.log.CreateGroup(ctx, streamName, stream.GroupDelivery, stream.StartBeginning); err != nil {
		log.Printf("[DeliveryConsumer] create group on %s: %v", streamName, err)
	}
	log.Printf("[DeliveryConsumer] loop started (stream=%s)", streamName)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := c.poll(ctx, streamName); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[DeliveryConsumer] read error (stream=%s): %v", streamName, err)
			c.sleep(ctx)
		}
	}
}

// poll retries pending tasks, then claims new ones. Per-task failures
// never abort the batch.
func (c *Consumer) poll(ctx context.Context, streamName string) error {
	pending, err := c.log.ReadPending(ctx, streamName, stream.GroupDelivery, c.name, c.batch)
	if err != nil {
		return err
	}
	for _, e := range pending {
		c.process(ctx, streamName, e)
	}

	entries, err := c.log.ReadGroup(ctx, streamName, stream.GroupDelivery, c.name, c.block, c.batch)
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
		log.Printf("[DeliveryConsumer] dropping malformed task %s on %s: %v", e.ID, streamName, err)
		c.ack(ctx, streamName, e.ID)
		return
	}

	task, ok := rec.(stream.DeliveryTask)
	if !ok {
		log.Printf("[DeliveryConsumer] dropping %s record on %s", rec.Kind(), streamName)
		c.ack(ctx, streamName, e.ID)
		return
	}

	switch _, err := c.recorder.Record(ctx, task.LogID); {
	case err == nil:
		c.ack(ctx, streamName, e.ID)
	case errors.Is(err, ErrAlreadyRecorded):
		// Redelivered after a crash between outcome write and ack. The
		// outcome stands; just finish the ack.
		c.ack(ctx, streamName, e.ID)
	default:
		// Left unacknowledged for a later retry.
		log.Printf("[DeliveryConsumer] outcome write failed, leaving %s pending: %v", e.ID, err)
	}
}

func (c *Consumer) ack(ctx context.Context, streamName, id string) {
	if err := c.log.Ack(ctx, streamName, stream.GroupDelivery, id); err != nil {
		log.Printf("[DeliveryConsumer] ack failed for %s on %s: %v", id, streamName, err)
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
