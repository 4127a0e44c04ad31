package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/errbook/internal/domain"
	"github.com/phrazzld/errbook/internal/platform/logger"
	"github.com/phrazzld/errbook/internal/schema"
	"github.com/phrazzld/errbook/internal/store"
)

// NoteStore implements store.NoteStore on SQLite. Blocks live in their own
// table ordered by (note_id, position). Save rewrites the block list, so it
// should run inside a transaction.
type NoteStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.NoteStore = (*NoteStore)(nil)

// NewNoteStore creates a NoteStore.
func NewNoteStore(db store.DBTX, logger *slog.Logger) *NoteStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &NoteStore{
		db:     db,
		logger: logger.With(slog.String("component", "note_store")),
	}
}

// Save implements store.NoteStore
func (s *NoteStore) Save(ctx context.Context, n *domain.Note) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := n.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	data, err := schema.EncodeNote(n)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notes (id, is_favorite, is_archived, updated_at, schema_version, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			is_favorite = excluded.is_favorite,
			is_archived = excluded.is_archived,
			updated_at = excluded.updated_at,
			schema_version = excluded.schema_version,
			data = excluded.data
	`,
		n.ID,
		boolToInt(n.IsFavorite),
		boolToInt(n.IsArchived),
		n.UpdatedAt.UnixMilli(),
		schema.NoteVersion,
		string(data),
	)
	if err != nil {
		log.Error("failed to save note",
			slog.String("note_id", n.ID),
			slog.String("error", err.Error()))
		return store.NewStoreError("note", "save", "write rejected", MapError(err))
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM note_blocks WHERE note_id = ?`, n.ID); err != nil {
		return store.NewStoreError("note", "save", "block cleanup failed", MapError(err))
	}

	for _, b := range n.Blocks {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO note_blocks (id, note_id, position, kind, content)
			VALUES (?, ?, ?, ?, ?)
		`, b.ID, n.ID, b.Position, b.Kind, b.Content)
		if err != nil {
			log.Error("failed to save note block",
				slog.String("note_id", n.ID),
				slog.String("block_id", b.ID),
				slog.String("error", err.Error()))
			return store.NewStoreError("note", "save", "block write rejected", MapError(err))
		}
	}

	return nil
}

// Delete implements store.NoteStore. Blocks are removed by the foreign key cascade.
func (s *NoteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return store.NewStoreError("note", "delete", "delete rejected", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrNoteNotFound)
}

// LoadAll implements store.NoteStore
func (s *NoteStore) LoadAll(ctx context.Context) ([]*domain.Note, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, is_favorite, is_archived, updated_at, schema_version, data
		FROM notes
		ORDER BY rowid
	`)
	if err != nil {
		return nil, store.NewStoreError("note", "load", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	notes := make([]*domain.Note, 0)
	byID := make(map[string]*domain.Note)
	healed := 0
	for rows.Next() {
		var (
			fb       schema.NoteFallback
			fav, arc int
			updated  int64
			version  int
			data     string
		)
		if err := rows.Scan(&fb.ID, &fav, &arc, &updated, &version, &data); err != nil {
			return nil, store.NewStoreError("note", "load", "scan failed", err)
		}
		fb.IsFavorite = fav != 0
		fb.IsArchived = arc != 0
		fb.UpdatedAt = time.UnixMilli(updated).UTC()

		n, wasHealed := schema.DecodeNote(version, []byte(data), fb)
		if wasHealed {
			healed++
		}
		// the row key is authoritative for block lookup
		byID[fb.ID] = n
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("note", "load", "row iteration failed", err)
	}

	if err := s.attachBlocks(ctx, byID); err != nil {
		return nil, err
	}

	if healed > 0 {
		log.Warn("upgraded stored notes on load",
			slog.Int("healed", healed),
			slog.Int("total", len(notes)))
	}

	return notes, nil
}

func (s *NoteStore) attachBlocks(ctx context.Context, byID map[string]*domain.Note) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, note_id, position, kind, content
		FROM note_blocks
		ORDER BY note_id, position
	`)
	if err != nil {
		return store.NewStoreError("note", "load", "block query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			b      domain.Block
			noteID string
		)
		if err := rows.Scan(&b.ID, &noteID, &b.Position, &b.Kind, &b.Content); err != nil {
			return store.NewStoreError("note", "load", "block scan failed", err)
		}
		n, ok := byID[noteID]
		if !ok {
			continue
		}
		// positions stay contiguous even if stored ones have gaps
		b.Position = len(n.Blocks)
		n.Blocks = append(n.Blocks, b)
	}

	if err := rows.Err(); err != nil {
		return store.NewStoreError("note", "load", "block iteration failed", err)
	}
	return nil
}

// WithTx implements store.NoteStore
func (s *NoteStore) WithTx(tx *sql.Tx) store.NoteStore {
	return &NoteStore{
		db:     tx,
		logger: s.logger,
	}
}
