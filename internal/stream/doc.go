// Package stream wraps Redis Streams as the durable append log that
// decouples API writes from database writes.
//
// The Log interface is the full capability surface the pipeline consumes:
// append, blocking group read, acknowledge, group lifecycle, and key
// discovery. Records on the wire are flat field maps; the typed codec in
// record.go is the only place that knows their shapes.
//
// Delivery is at-least-once: a record read but not acknowledged will be
// redelivered. Consumers convert that to effectively-once application by
// acking duplicates without re-applying them.
package stream
