package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/phrazzld/errbook/internal/domain"
	"github.com/phrazzld/errbook/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteStoreBlocksRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testDB(t)
	s := NewNoteStore(db, testLogger())
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

	n, err := domain.NewNote(domain.NoteDraft{
		Title: "Derivatives",
		Tags:  []string{"calc"},
		Blocks: []domain.BlockDraft{
			{Content: "first"},
			{Kind: "formula", Content: "d/dx x^2 = 2x"},
			{Content: "third"},
		},
	}, now)
	require.NoError(t, err)

	err = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		return s.WithTx(tx).Save(ctx, n)
	})
	require.NoError(t, err)

	loaded, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, n, loaded[0])

	// replacing the block list drops the old rows
	n.ApplyPatch(domain.NotePatch{Blocks: &[]domain.BlockDraft{{ID: n.Blocks[2].ID, Content: "third"}}}, now)
	require.NoError(t, s.Save(ctx, n))

	loaded, err = s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded[0].Blocks, 1)
	assert.Equal(t, 0, loaded[0].Blocks[0].Position)
	assert.Equal(t, "third", loaded[0].Blocks[0].Content)
}

func TestNoteStoreDeleteCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testDB(t)
	s := NewNoteStore(db, testLogger())

	n, err := domain.NewNote(domain.NoteDraft{
		Title:  "Cells",
		Blocks: []domain.BlockDraft{{Content: "a"}, {Content: "b"}},
	}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, n))

	require.NoError(t, s.Delete(ctx, n.ID))
	assert.ErrorIs(t, s.Delete(ctx, n.ID), store.ErrNoteNotFound)

	var blocks int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM note_blocks`).Scan(&blocks))
	assert.Zero(t, blocks)
}

func TestNoteStoreRejectsInvalid(t *testing.T) {
	t.Parallel()
	s := NewNoteStore(testDB(t), testLogger())
	n, err := domain.NewNote(domain.NoteDraft{Title: "x"}, time.Now().UTC())
	require.NoError(t, err)
	n.Title = " "

	assert.ErrorIs(t, s.Save(context.Background(), n), store.ErrInvalidEntity)
}
