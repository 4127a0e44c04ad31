package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/errbook/internal/domain"
	"github.com/phrazzld/errbook/internal/store"
)

// maxBatchIDs caps the ids bound into a single IN clause.
const maxBatchIDs = 500

// MutationQueue implements store.MutationQueue on SQLite.
type MutationQueue struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.MutationQueue = (*MutationQueue)(nil)

// NewMutationQueue creates a MutationQueue.
func NewMutationQueue(db store.DBTX, logger *slog.Logger) *MutationQueue {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &MutationQueue{
		db:     db,
		logger: logger.With(slog.String("component", "mutation_queue")),
	}
}

// Enqueue implements store.MutationQueue
func (q *MutationQueue) Enqueue(ctx context.Context, m *domain.Mutation) error {
	if !m.EntityType.Valid() || !m.Operation.Valid() || m.ID == "" || m.RecordID == "" {
		return fmt.Errorf("%w: malformed mutation %q", store.ErrInvalidEntity, m.ID)
	}

	payload := m.Payload
	if len(payload) == 0 {
		payload = []byte("null")
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO mutation_queue (id, entity_type, operation, record_id, payload, enqueued_at, retry_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID,
		string(m.EntityType),
		string(m.Operation),
		m.RecordID,
		string(payload),
		m.EnqueuedAt.UnixMilli(),
		m.RetryCount,
	)
	if err != nil {
		q.logger.Error("failed to enqueue mutation",
			slog.String("mutation_id", m.ID),
			slog.String("entity_type", string(m.EntityType)),
			slog.String("error", err.Error()))
		return store.NewStoreError("mutation", "enqueue", "write rejected", MapError(err))
	}

	return nil
}

// List implements store.MutationQueue
func (q *MutationQueue) List(ctx context.Context) ([]*domain.Mutation, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, entity_type, operation, record_id, payload, enqueued_at, retry_count
		FROM mutation_queue
		ORDER BY enqueued_at, rowid
	`)
	if err != nil {
		return nil, store.NewStoreError("mutation", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	items := make([]*domain.Mutation, 0)
	for rows.Next() {
		var (
			m          domain.Mutation
			entityType string
			operation  string
			payload    string
			enqueuedAt int64
		)
		if err := rows.Scan(&m.ID, &entityType, &operation, &m.RecordID, &payload, &enqueuedAt, &m.RetryCount); err != nil {
			return nil, store.NewStoreError("mutation", "list", "scan failed", err)
		}
		m.EntityType = domain.EntityType(entityType)
		m.Operation = domain.Operation(operation)
		m.Payload = []byte(payload)
		m.EnqueuedAt = time.UnixMilli(enqueuedAt).UTC()
		items = append(items, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("mutation", "list", "row iteration failed", err)
	}
	return items, nil
}

// Remove implements store.MutationQueue
func (q *MutationQueue) Remove(ctx context.Context, ids ...string) error {
	return q.execBatched(ctx, "remove", `DELETE FROM mutation_queue WHERE id IN (%s)`, ids)
}

// MarkAttempted implements store.MutationQueue
func (q *MutationQueue) MarkAttempted(ctx context.Context, ids ...string) error {
	return q.execBatched(ctx, "mark_attempted",
		`UPDATE mutation_queue SET retry_count = retry_count + 1 WHERE id IN (%s)`, ids)
}

func (q *MutationQueue) execBatched(ctx context.Context, op, format string, ids []string) error {
	for start := 0; start < len(ids); start += maxBatchIDs {
		end := start + maxBatchIDs
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		args := make([]interface{}, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		query := fmt.Sprintf(format, placeholders(len(chunk)))
		if _, err := q.db.ExecContext(ctx, query, args...); err != nil {
			return store.NewStoreError("mutation", op, "write rejected", MapError(err))
		}
	}
	return nil
}

// Count implements store.MutationQueue
func (q *MutationQueue) Count(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mutation_queue`).Scan(&n); err != nil {
		return 0, store.NewStoreError("mutation", "count", "query failed", MapError(err))
	}
	return n, nil
}

// WithTx implements store.MutationQueue
func (q *MutationQueue) WithTx(tx *sql.Tx) store.MutationQueue {
	return &MutationQueue{
		db:     tx,
		logger: q.logger,
	}
}
