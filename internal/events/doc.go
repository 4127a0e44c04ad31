// Package events provides a small in-process publish/subscribe layer.
//
// Services emit events without knowing who consumes them. The record
// services publish record.mutated after every committed change and the sync
// coordinator publishes sync.state_changed whenever its status moves.
package events
