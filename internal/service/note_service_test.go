package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/phrazzld/errbook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNoteServiceMissingDependencies(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := NewNoteService(nil, f.notes, f.queue)
	assert.ErrorIs(t, err, ErrMissingDependency)
	_, err = NewNoteService(f.db, nil, f.queue)
	assert.ErrorIs(t, err, ErrMissingDependency)
	_, err = NewNoteService(f.db, f.notes, nil)
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestNoteLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	svc := f.noteService(t)

	n, err := svc.Add(ctx, domain.NoteDraft{
		Title:  "Kinematics",
		Tags:   []string{"phys"},
		Blocks: []domain.BlockDraft{{Content: "v = u + at"}, {Kind: "image", Content: "graph.png"}},
	})
	require.NoError(t, err)
	require.Len(t, n.Blocks, 2)
	assert.Equal(t, "text", n.Blocks[0].Kind)

	reloaded := f.noteService(t)
	got, ok := reloaded.Get(n.ID)
	require.True(t, ok)
	assert.Equal(t, n, got)

	f.clock.Advance(time.Minute)
	blocks := []domain.BlockDraft{{ID: n.Blocks[1].ID, Kind: "image", Content: "graph.png"}, {Content: "s = ut"}}
	n, err = svc.Update(ctx, n.ID, domain.NotePatch{Blocks: &blocks})
	require.NoError(t, err)
	require.Len(t, n.Blocks, 2)
	assert.Equal(t, "graph.png", n.Blocks[0].Content)
	assert.Equal(t, 1, n.Blocks[1].Position)

	n, err = svc.Archive(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, n.IsArchived)
	n, err = svc.Restore(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, n.IsArchived)
	n, err = svc.ToggleFavorite(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, n.IsFavorite)

	reloaded = f.noteService(t)
	got, _ = reloaded.Get(n.ID)
	assert.Equal(t, n, got)

	require.NoError(t, svc.Delete(ctx, n.ID))
	assert.Empty(t, svc.List())

	items, err := f.queue.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 6)
	for _, m := range items {
		assert.Equal(t, domain.EntityTypeNote, m.EntityType)
	}

	var payload domain.Note
	require.NoError(t, json.Unmarshal(items[1].Payload, &payload))
	assert.Len(t, payload.Blocks, 2)
}

func TestNoteUnknownIDIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	svc := f.noteService(t)

	n, err := svc.Archive(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, n)
	assert.NoError(t, svc.Delete(ctx, "missing"))
	assert.Zero(t, f.queueCount(t))
}

func TestNoteRejectsEmptyTitle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	svc := f.noteService(t)

	_, err := svc.Add(ctx, domain.NoteDraft{Title: ""})
	assert.ErrorIs(t, err, domain.ErrEmptyTitle)

	n, err := svc.Add(ctx, domain.NoteDraft{Title: "ok"})
	require.NoError(t, err)
	blank := ""
	_, err = svc.Update(ctx, n.ID, domain.NotePatch{Title: &blank})
	assert.ErrorIs(t, err, domain.ErrEmptyTitle)

	got, _ := svc.Get(n.ID)
	assert.Equal(t, "ok", got.Title)
}

func TestNoteListOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	svc := f.noteService(t)

	a, err := svc.Add(ctx, domain.NoteDraft{Title: "a"})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	b, err := svc.Add(ctx, domain.NoteDraft{Title: "b"})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = svc.ToggleFavorite(ctx, a.ID)
	require.NoError(t, err)

	list := svc.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)
}
