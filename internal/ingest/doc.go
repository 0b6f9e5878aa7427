// Package ingest implements the asynchronous customer/order ingestion
// pipeline.
//
// The Producer validates payloads at the API boundary and appends them
// to the durable log; the caller returns without waiting on the
// database. The Consumer drains the ingest streams under a consumer
// group and materializes records into the store, converting the log's
// at-least-once delivery into effectively-once application: a
// uniqueness violation on create is classified as ErrDuplicate and
// acknowledged without retry.
//
// Records that fail with any other store error are left unacknowledged
// and picked up again on a later poll. An order arriving before its
// customer simply stays pending until the customer row exists.
package ingest
