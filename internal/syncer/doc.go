// Package syncer drains the durable mutation queue to the remote endpoint.
//
// The Coordinator partitions pending items by entity type and pushes each
// partition as one batch. A partition is removed from the queue only after
// the remote accepts it, so delivery is at-least-once. Flushes are
// single-flight and are triggered by a periodic ticker, by connectivity
// being regained, or on demand.
package syncer
