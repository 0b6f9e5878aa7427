package delivery

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/ignite/crm-pipeline/internal/domain"
)

// DefaultSuccessRate is the simulated delivery policy: 90% SENT, 10%
// FAILED. A FAILED outcome is a valid business result, not an error.
const DefaultSuccessRate = 0.9

// Recorder decides and writes the terminal outcome for one delivery
// record. The write is conditional on the row still being QUEUED, so
// invoking it twice for the same row (redelivery after a crash between
// write and ack) cannot flip the recorded outcome.
type Recorder struct {
	comms       CommunicationRepo
	successRate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRecorder creates a recorder with the given success probability.
func NewRecorder(comms CommunicationRepo, successRate float64) *Recorder {
	return &Recorder{
		comms:       comms,
		successRate: successRate,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand replaces the random source, for deterministic tests.
func (r *Recorder) SetRand(rnd *rand.Rand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rnd = rnd
}

// decide draws the simulated outcome.
func (r *Recorder) decide() domain.DeliveryStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rnd.Float64() < r.successRate {
		return domain.DeliverySent
	}
	return domain.DeliveryFailed
}

// Record decides SENT or FAILED for the row and persists it. Returns
// the recorded status. ErrAlreadyRecorded propagates so callers can
// distinguish a fresh outcome from a redelivered no-op.
func (r *Recorder) Record(ctx context.Context, logID string) (domain.DeliveryStatus, error) {
	status := r.decide()

	var deliveredAt *time.Time
	if status == domain.DeliverySent {
		now := time.Now().UTC()
		deliveredAt = &now
	}

	if err := r.comms.RecordOutcome(ctx, logID, status, deliveredAt); err != nil {
		return "", err
	}
	return status, nil
}
