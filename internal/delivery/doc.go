// Package delivery implements campaign fan-out and outcome recording.
//
// The Orchestrator expands a segment into one CommunicationLog row per
// matched customer plus a single MASTER_LOG audit row, then picks a
// dispatch path once per run: push delivery tasks onto a per-campaign
// stream for asynchronous processing, or, when the log store is
// unreachable, simulate every delivery synchronously in-process. The
// broker is a soft dependency; a campaign is never dropped because
// Redis is momentarily down.
//
// The Recorder decides SENT or FAILED per row under a fixed success
// probability and writes the outcome with a compare-and-swap on QUEUED,
// so a task redelivered after a crash cannot flip an already-recorded
// outcome.
package delivery
