package stream

import (
	"context"
	"time"
)

// Well-known stream and group names. Campaign delivery streams are
// dynamic, one per campaign, discovered by prefix.
const (
	StreamCustomerIngest = "customer_ingest"
	StreamOrderIngest    = "order_ingest"

	CampaignStreamPrefix = "stream:campaign:"

	GroupIngest   = "ingest_workers"
	GroupDelivery = "delivery_workers"
)

// Group start positions.
const (
	StartNow       = "$" // only records appended after group creation
	StartBeginning = "0" // full backlog
)

// CampaignStream returns the per-campaign delivery stream name.
func CampaignStream(campaignID string) string {
	return CampaignStreamPrefix + campaignID
}

// Entry is one record as read from a stream: the broker-assigned ID plus
// the flat field map the producer appended.
type Entry struct {
	ID     string
	Values map[string]interface{}
}

// Log is the durable append log capability the pipeline is built on.
// Implementations must be safe for concurrent use by multiple consumer
// loops sharing one client.
type Log interface {
	// Append adds a flat record to the named stream and returns its ID.
	Append(ctx context.Context, streamName string, values map[string]interface{}) (string, error)

	// ReadGroup block-reads up to count unacknowledged entries for the
	// given group/consumer. A nil slice with nil error means the block
	// timeout elapsed with nothing to deliver.
	ReadGroup(ctx context.Context, streamName, group, consumer string, block time.Duration, count int64) ([]Entry, error)

	// ReadPending returns entries already delivered to this consumer but
	// not yet acknowledged. Loops call it before claiming new work so
	// records that failed to apply are retried.
	ReadPending(ctx context.Context, streamName, group, consumer string, count int64) ([]Entry, error)

	// Ack marks entries consumed for the group. Acked entries are never
	// redelivered.
	Ack(ctx context.Context, streamName, group string, ids ...string) error

	// CreateGroup creates a consumer group at the given start position,
	// creating the stream if missing. An already-existing group is not
	// an error.
	CreateGroup(ctx context.Context, streamName, group, start string) error

	// DestroyGroup removes a consumer group and its pending state.
	// A missing group or stream is not an error.
	DestroyGroup(ctx context.Context, streamName, group string) error

	// ListStreams returns the names of streams matching the prefix.
	ListStreams(ctx context.Context, prefix string) ([]string, error)

	// Ping reports whether the log store is reachable. The delivery
	// orchestrator uses this to pick the stream-backed or synchronous
	// path for a run.
	Ping(ctx context.Context) error
}
