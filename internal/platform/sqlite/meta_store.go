package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/phrazzld/errbook/internal/store"
)

// MetaStore implements store.MetaStore on the metadata table.
type MetaStore struct {
	db store.DBTX
}

var _ store.MetaStore = (*MetaStore)(nil)

// NewMetaStore creates a MetaStore.
func NewMetaStore(db store.DBTX) *MetaStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	return &MetaStore{db: db}
}

// Get implements store.MetaStore
func (s *MetaStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, store.NewStoreError("metadata", "get", key, MapError(err))
	}
	return value, true, nil
}

// Set implements store.MetaStore
func (s *MetaStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return store.NewStoreError("metadata", "set", key, MapError(err))
	}
	return nil
}
