package stream

import (
	"context"
	"fmt"
	"log"
)

// LifecycleManager is the administrative surface for consumer groups.
// It is used for environment resets between test runs, never on the
// steady-state request path.
type LifecycleManager struct {
	log Log
}

// NewLifecycleManager creates a manager over the given log.
func NewLifecycleManager(l Log) *LifecycleManager {
	return &LifecycleManager{log: l}
}

// ResetGroup destroys and recreates a group positioned at "now".
// Records appended before the reset are intentionally discarded: they
// will never be delivered to consumers reading after the reset.
func (m *LifecycleManager) ResetGroup(ctx context.Context, streamName, group string) error {
	if err := m.log.DestroyGroup(ctx, streamName, group); err != nil {
		return fmt.Errorf("reset %s/%s: %w", streamName, group, err)
	}
	if err := m.log.CreateGroup(ctx, streamName, group, StartNow); err != nil {
		return fmt.Errorf("reset %s/%s: %w", streamName, group, err)
	}
	return nil
}

// ResetAll resets the ingest groups on the static streams plus the
// delivery group on every discovered per-campaign stream.
func (m *LifecycleManager) ResetAll(ctx context.Context) error {
	for _, s := range []string{StreamCustomerIngest, StreamOrderIngest} {
		if err := m.ResetGroup(ctx, s, GroupIngest); err != nil {
			return err
		}
		log.Printf("[Lifecycle] reset %s/%s to now", s, GroupIngest)
	}

	campaignStreams, err := m.log.ListStreams(ctx, CampaignStreamPrefix)
	if err != nil {
		return fmt.Errorf("discover campaign streams: %w", err)
	}
	for _, s := range campaignStreams {
		if err := m.ResetGroup(ctx, s, GroupDelivery); err != nil {
			return err
		}
		log.Printf("[Lifecycle] reset %s/%s to now", s, GroupDelivery)
	}
	return nil
}

// EnsureIngestGroups creates the ingest groups from the beginning of
// each stream so a fresh consumer picks up any backlog. Called at
// consumer startup; existing groups are left untouched.
func (m *LifecycleManager) EnsureIngestGroups(ctx context.Context) error {
	for _, s := range []string{StreamCustomerIngest, StreamOrderIngest} {
		if err := m.log.CreateGroup(ctx, s, GroupIngest, StartBeginning); err != nil {
			return err
		}
	}
	return nil
}
