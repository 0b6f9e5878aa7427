package delivery

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ignite/crm-pipeline/internal/domain"
)

func queuedRow(t *testing.T, comms *memComms, id string) {
	t.Helper()
	custID := "cust-1"
	_, err := comms.CreateLog(context.Background(), &domain.CommunicationLog{
		ID:         id,
		CampaignID: "camp-1",
		CustomerID: &custID,
		Status:     domain.DeliveryQueued,
	})
	require.NoError(t, err)
}

func TestRecordSetsDeliveredAtOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()

	comms := newMemComms()
	queuedRow(t, comms, "log-sent")
	rec := NewRecorder(comms, 1.0)
	status, err := rec.Record(ctx, "log-sent")
	require.NoError(t, err)
	require.Equal(t, domain.DeliverySent, status)
	require.NotNil(t, comms.rows["log-sent"].DeliveredAt)

	queuedRow(t, comms, "log-failed")
	rec = NewRecorder(comms, 0.0)
	status, err = rec.Record(ctx, "log-failed")
	require.NoError(t, err)
	require.Equal(t, domain.DeliveryFailed, status)
	require.Nil(t, comms.rows["log-failed"].DeliveredAt)
}

func TestRecordGuardsAgainstDoubleInvocation(t *testing.T) {
	ctx := context.Background()
	comms := newMemComms()
	queuedRow(t, comms, "log-1")

	rec := NewRecorder(comms, 1.0)
	first, err := rec.Record(ctx, "log-1")
	require.NoError(t, err)

	// A redelivered task must not flip the outcome.
	rec.successRate = 0.0
	_, err = rec.Record(ctx, "log-1")
	require.ErrorIs(t, err, ErrAlreadyRecorded)
	require.Equal(t, first, comms.rows["log-1"].Status)
}

func TestRecordUnknownRow(t *testing.T) {
	rec := NewRecorder(newMemComms(), 1.0)
	_, err := rec.Record(context.Background(), "missing")
	require.ErrorIs(t, err, ErrLogNotFound)
}

func TestOutcomeDistributionApproximatesPolicy(t *testing.T) {
	ctx := context.Background()
	comms := newMemComms()
	rec := NewRecorder(comms, DefaultSuccessRate)
	rec.SetRand(rand.New(rand.NewSource(7)))

	const runs = 1000
	sent := 0
	for i := 0; i < runs; i++ {
		id := fmt.Sprintf("log-%d", i)
		queuedRow(t, comms, id)
		status, err := rec.Record(ctx, id)
		require.NoError(t, err)
		if status == domain.DeliverySent {
			sent++
		}
	}

	// 90% ± 3 percentage points over 1000 draws.
	require.InDelta(t, 0.9, float64(sent)/runs, 0.03)
}
