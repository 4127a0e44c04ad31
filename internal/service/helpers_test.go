package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/errbook/internal/domain/srs"
	"github.com/phrazzld/errbook/internal/events"
	"github.com/phrazzld/errbook/internal/platform/sqlite"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingHandler struct {
	mu     sync.Mutex
	events []events.RecordMutated
}

func (h *recordingHandler) HandleEvent(_ context.Context, e *events.Event) error {
	var p events.RecordMutated
	if err := e.UnmarshalPayload(&p); err != nil {
		return err
	}
	h.mu.Lock()
	h.events = append(h.events, p)
	h.mu.Unlock()
	return nil
}

type fixture struct {
	db        *sql.DB
	queue     *sqlite.MutationQueue
	questions *sqlite.QuestionStore
	notes     *sqlite.NoteStore
	clock     *fakeClock
	handler   *recordingHandler
	emitter   *events.InMemoryEventEmitter
	logger    *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := sqlite.OpenAndMigrate(context.Background(), filepath.Join(t.TempDir(), "svc.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	handler := &recordingHandler{}
	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(handler)

	return &fixture{
		db:        db,
		queue:     sqlite.NewMutationQueue(db, logger),
		questions: sqlite.NewQuestionStore(db, srs.NewDefaultParams().MaxStage(), logger),
		notes:     sqlite.NewNoteStore(db, logger),
		clock:     &fakeClock{now: t0},
		handler:   handler,
		emitter:   emitter,
		logger:    logger,
	}
}

func (f *fixture) options(extra ...Option) []Option {
	return append([]Option{
		WithClock(f.clock.Now),
		WithEmitter(f.emitter),
		WithLogger(f.logger),
	}, extra...)
}

func (f *fixture) questionService(t *testing.T, extra ...Option) *QuestionService {
	t.Helper()
	svc, err := NewQuestionService(f.db, f.questions, f.queue, srs.NewDefaultService(), f.options(extra...)...)
	require.NoError(t, err)
	require.NoError(t, svc.Load(context.Background()))
	return svc
}

func (f *fixture) noteService(t *testing.T, extra ...Option) *NoteService {
	t.Helper()
	svc, err := NewNoteService(f.db, f.notes, f.queue, f.options(extra...)...)
	require.NoError(t, err)
	require.NoError(t, svc.Load(context.Background()))
	return svc
}

func (f *fixture) queueCount(t *testing.T) int {
	t.Helper()
	n, err := f.queue.Count(context.Background())
	require.NoError(t, err)
	return n
}
