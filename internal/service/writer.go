package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/phrazzld/errbook/internal/domain"
	"github.com/phrazzld/errbook/internal/events"
	"github.com/phrazzld/errbook/internal/platform/logger"
	"github.com/phrazzld/errbook/internal/store"
)

// recordWriter commits a record change together with its queue item.
type recordWriter struct {
	db      *sql.DB
	queue   store.MutationQueue
	entity  domain.EntityType
	tracked bool
	emitter events.EventEmitter
	logger  *slog.Logger
}

// commit runs write and, when tracked, enqueues a mutation carrying payload,
// all in one transaction.
func (w *recordWriter) commit(
	ctx context.Context,
	op domain.Operation,
	recordID string,
	payload interface{},
	now time.Time,
	write func(ctx context.Context, tx *sql.Tx) error,
) error {
	log := logger.FromContextOrDefault(ctx, w.logger)

	var m *domain.Mutation
	if w.tracked {
		var err error
		m, err = domain.NewMutation(w.entity, op, recordID, payload, now)
		if err != nil {
			return err
		}
	}

	err := store.RunInTransaction(ctx, w.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := write(ctx, tx); err != nil {
			return err
		}
		if m == nil {
			return nil
		}
		return w.queue.WithTx(tx).Enqueue(ctx, m)
	})
	if err != nil {
		log.Error("failed to commit record change",
			slog.String("entity_type", string(w.entity)),
			slog.String("operation", string(op)),
			slog.String("record_id", recordID),
			slog.String("error", err.Error()))
		return err
	}

	log.Debug("committed record change",
		slog.String("entity_type", string(w.entity)),
		slog.String("operation", string(op)),
		slog.String("record_id", recordID),
		slog.Bool("queued", m != nil))

	w.publish(ctx, op, recordID, m != nil)
	return nil
}

func (w *recordWriter) publish(ctx context.Context, op domain.Operation, recordID string, queued bool) {
	err := events.Emit(ctx, w.emitter, events.TypeRecordMutated, events.RecordMutated{
		EntityType: string(w.entity),
		Operation:  string(op),
		RecordID:   recordID,
		Queued:     queued,
	})
	if err != nil {
		// the change is already committed
		logger.FromContextOrDefault(ctx, w.logger).Warn("record event handler failed",
			slog.String("record_id", recordID),
			slog.String("error", err.Error()))
	}
}
