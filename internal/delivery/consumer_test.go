package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ignite/crm-pipeline/internal/stream"
)

func TestConsumerDrainsCampaignStream(t *testing.T) {
	const k = 6
	f := setupOrchestrator(t, k, DefaultSuccessRate)
	ctx := context.Background()

	sum, err := f.orch.Dispatch(ctx, DispatchInput{SegmentID: "seg-1", Message: "Hello!"})
	require.NoError(t, err)
	require.True(t, sum.StreamBacked)

	cons := NewConsumer(f.log, f.rec, "test-delivery")
	cons.SetTimings(20*time.Millisecond, 10*time.Millisecond, 10*time.Millisecond)

	campaignStream := stream.CampaignStream(sum.CampaignID)
	require.NoError(t, cons.poll(ctx, campaignStream))

	// Every row ends terminal; nothing is left QUEUED and nothing stays
	// pending on the stream.
	stats, err := f.comms.CampaignStats(ctx, sum.CampaignID)
	require.NoError(t, err)
	require.Zero(t, stats.Queued)
	require.Equal(t, k, stats.Sent+stats.Failed)

	p, err := f.log.Client().XPending(ctx, campaignStream, stream.GroupDelivery).Result()
	require.NoError(t, err)
	require.Zero(t, p.Count)
}

func TestConsumerAcksRedeliveredTask(t *testing.T) {
	f := setupOrchestrator(t, 1, 1.0)
	ctx := context.Background()

	sum, err := f.orch.Dispatch(ctx, DispatchInput{SegmentID: "seg-1", Message: "Hello!"})
	require.NoError(t, err)
	campaignStream := stream.CampaignStream(sum.CampaignID)

	// First pass records the outcome but we simulate a crash before the
	// ack by recording directly, leaving the task pending.
	entries, err := f.log.ReadGroup(ctx, campaignStream, stream.GroupDelivery, "test-delivery", 10*time.Millisecond, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	rec, err := stream.Decode(entries[0].Values)
	require.NoError(t, err)
	_, err = f.rec.Record(ctx, rec.(stream.DeliveryTask).LogID)
	require.NoError(t, err)

	// The redelivered pending task hits ErrAlreadyRecorded and is acked.
	cons := NewConsumer(f.log, f.rec, "test-delivery")
	cons.SetTimings(20*time.Millisecond, 10*time.Millisecond, 10*time.Millisecond)
	require.NoError(t, cons.poll(ctx, campaignStream))

	p, err := f.log.Client().XPending(ctx, campaignStream, stream.GroupDelivery).Result()
	require.NoError(t, err)
	require.Zero(t, p.Count)

	stats, err := f.comms.CampaignStats(ctx, sum.CampaignID)
	require.NoError(t, err)
	require.Equal(t, Stats{Sent: 1}, stats)
}

func TestConsumerDiscoversStreamsAndStops(t *testing.T) {
	f := setupOrchestrator(t, 3, 1.0)

	sum, err := f.orch.Dispatch(context.Background(), DispatchInput{SegmentID: "seg-1", Message: "Hello!"})
	require.NoError(t, err)

	cons := NewConsumer(f.log, f.rec, "test-delivery")
	cons.SetTimings(20*time.Millisecond, 10*time.Millisecond, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cons.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		stats, err := f.comms.CampaignStats(context.Background(), sum.CampaignID)
		return err == nil && stats.Queued == 0 && stats.Sent == 3
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery consumer did not stop after cancellation")
	}
}
