package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/errbook/internal/domain"
)

// MutationQueue is the durable log of local changes awaiting remote
// acknowledgement. Items are only removed after a confirmed flush, which
// gives at-least-once delivery.
type MutationQueue interface {
	// Enqueue appends an item.
	Enqueue(ctx context.Context, m *domain.Mutation) error

	// List returns all pending items ordered by enqueue time, then insertion order.
	List(ctx context.Context) ([]*domain.Mutation, error)

	// Remove deletes acknowledged items. Unknown ids are ignored.
	Remove(ctx context.Context, ids ...string) error

	// MarkAttempted increments the advisory retry counter of the given items.
	MarkAttempted(ctx context.Context, ids ...string) error

	// Count returns the number of pending items.
	Count(ctx context.Context) (int, error)

	// WithTx returns a MutationQueue that uses the provided transaction.
	WithTx(tx *sql.Tx) MutationQueue
}

// Metadata keys
const (
	MetaLastSyncAt = "last_sync_at"
)

// MetaStore holds scalar values such as the last successful sync time.
type MetaStore interface {
	// Get returns the value for key. ok is false when the key is not set.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}
