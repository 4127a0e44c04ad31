package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/errbook/internal/domain/srs"
	"github.com/phrazzld/errbook/internal/platform/sqlite"
	"github.com/phrazzld/errbook/internal/service"
	"github.com/phrazzld/errbook/internal/syncer"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeSync struct {
	state   syncer.State
	pending int
	result  syncer.Result
	err     error
	flushes int
}

func (f *fakeSync) State() syncer.State { return f.state }

func (f *fakeSync) Pending(context.Context) (int, error) { return f.pending, nil }

func (f *fakeSync) Flush(context.Context) (syncer.Result, error) {
	f.flushes++
	if f.err != nil {
		return syncer.Result{Status: syncer.StatusOffline}, f.err
	}
	f.pending -= f.result.Pushed
	return f.result, nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) Advance(d time.Duration) {
	c.Set(c.Now().Add(d))
}

type testAPI struct {
	server    *httptest.Server
	questions *service.QuestionService
	notes     *service.NoteService
	clock     *testClock
}

func newTestAPI(t *testing.T, syncService SyncService) *testAPI {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := sqlite.OpenAndMigrate(context.Background(), filepath.Join(t.TempDir(), "api.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := &testClock{now: now}
	queue := sqlite.NewMutationQueue(db, logger)

	questions, err := service.NewQuestionService(db,
		sqlite.NewQuestionStore(db, srs.NewDefaultParams().MaxStage(), logger),
		queue, srs.NewDefaultService(),
		service.WithClock(clock.Now), service.WithLogger(logger))
	require.NoError(t, err)

	notes, err := service.NewNoteService(db, sqlite.NewNoteStore(db, logger), queue,
		service.WithClock(clock.Now), service.WithLogger(logger))
	require.NoError(t, err)

	deps := RouterDeps{Questions: questions, Stats: questions, Notes: notes, Logger: logger}
	if syncService != nil {
		deps.Sync = syncService
	}

	srv := httptest.NewServer(NewRouter(deps))
	t.Cleanup(srv.Close)

	return &testAPI{server: srv, questions: questions, notes: notes, clock: clock}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}
