package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/errbook/internal/domain"
	"github.com/phrazzld/errbook/internal/platform/logger"
	"github.com/phrazzld/errbook/internal/store"
)

// NoteService is the local record store for study notes.
type NoteService struct {
	notes  store.NoteStore
	writer *recordWriter
	clock  func() time.Time
	logger *slog.Logger

	mu      sync.RWMutex
	records map[string]*domain.Note
}

// NewNoteService creates a NoteService. Call Load before serving reads.
func NewNoteService(
	db *sql.DB,
	notes store.NoteStore,
	queue store.MutationQueue,
	opts ...Option,
) (*NoteService, error) {
	switch {
	case db == nil:
		return nil, fmt.Errorf("%w: db", ErrMissingDependency)
	case notes == nil:
		return nil, fmt.Errorf("%w: note store", ErrMissingDependency)
	case queue == nil:
		return nil, fmt.Errorf("%w: mutation queue", ErrMissingDependency)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.With(slog.String("component", "note_service"))

	return &NoteService{
		notes: notes,
		writer: &recordWriter{
			db:      db,
			queue:   queue,
			entity:  domain.EntityTypeNote,
			tracked: o.tracked,
			emitter: o.emitter,
			logger:  log,
		},
		clock:   o.clock,
		logger:  log,
		records: make(map[string]*domain.Note),
	}, nil
}

// Load replaces the in-memory set with every persisted note.
func (s *NoteService) Load(ctx context.Context) error {
	loaded, err := s.notes.LoadAll(ctx)
	if err != nil {
		return NewServiceError("note", "load", "failed to read notes", err)
	}

	records := make(map[string]*domain.Note, len(loaded))
	for _, n := range loaded {
		records[n.ID] = n
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	logger.FromContextOrDefault(ctx, s.logger).Info("loaded notes", slog.Int("count", len(records)))
	return nil
}

// Add creates a note.
func (s *NoteService) Add(ctx context.Context, draft domain.NoteDraft) (*domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	n, err := domain.NewNote(draft, now)
	if err != nil {
		return nil, NewServiceError("note", "add", "invalid note", err)
	}

	if err := s.save(ctx, domain.OperationCreate, n, now); err != nil {
		return nil, NewServiceError("note", "add", "failed to save note", err)
	}

	s.records[n.ID] = n
	return n.Clone(), nil
}

// Update merges the non-nil fields of patch into the note.
func (s *NoteService) Update(ctx context.Context, id string, patch domain.NotePatch) (*domain.Note, error) {
	return s.modify(ctx, "update", id, func(n *domain.Note, now time.Time) {
		n.ApplyPatch(patch, now)
	})
}

// Archive hides the note from the default listing.
func (s *NoteService) Archive(ctx context.Context, id string) (*domain.Note, error) {
	return s.modify(ctx, "archive", id, func(n *domain.Note, now time.Time) {
		n.IsArchived = true
		n.UpdatedAt = now
	})
}

// Restore un-archives the note.
func (s *NoteService) Restore(ctx context.Context, id string) (*domain.Note, error) {
	return s.modify(ctx, "restore", id, func(n *domain.Note, now time.Time) {
		n.IsArchived = false
		n.UpdatedAt = now
	})
}

// ToggleFavorite flips the favorite flag.
func (s *NoteService) ToggleFavorite(ctx context.Context, id string) (*domain.Note, error) {
	return s.modify(ctx, "favorite", id, func(n *domain.Note, now time.Time) {
		n.IsFavorite = !n.IsFavorite
		n.UpdatedAt = now
	})
}

// Delete removes the note and its blocks permanently.
func (s *NoteService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return nil
	}

	err := s.writer.commit(ctx, domain.OperationDelete, id, nil, s.clock(),
		func(ctx context.Context, tx *sql.Tx) error {
			return s.notes.WithTx(tx).Delete(ctx, id)
		})
	if err != nil {
		return NewServiceError("note", "delete", "failed to delete note", err)
	}

	delete(s.records, id)
	return nil
}

func (s *NoteService) modify(
	ctx context.Context,
	op, id string,
	fn func(n *domain.Note, now time.Time),
) (*domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[id]
	if !ok {
		logger.FromContextOrDefault(ctx, s.logger).Debug("change to unknown note ignored",
			slog.String("operation", op),
			slog.String("note_id", id))
		return nil, nil
	}

	now := s.clock()
	next := current.Clone()
	fn(next, now)
	if err := next.Validate(); err != nil {
		return nil, NewServiceError("note", op, "invalid note", err)
	}

	if err := s.save(ctx, domain.OperationUpdate, next, now); err != nil {
		return nil, NewServiceError("note", op, "failed to save note", err)
	}

	s.records[id] = next
	return next.Clone(), nil
}

func (s *NoteService) save(ctx context.Context, op domain.Operation, n *domain.Note, now time.Time) error {
	return s.writer.commit(ctx, op, n.ID, n, now, func(ctx context.Context, tx *sql.Tx) error {
		return s.notes.WithTx(tx).Save(ctx, n)
	})
}

// Get returns a copy of the note with the given id.
func (s *NoteService) Get(id string) (*domain.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.records[id]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// List returns copies of all notes, most recently updated first.
func (s *NoteService) List() []*domain.Note {
	s.mu.RLock()
	out := make([]*domain.Note, 0, len(s.records))
	for _, n := range s.records {
		out = append(out, n.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
