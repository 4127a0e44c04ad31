package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/phrazzld/errbook/internal/config"
	"github.com/phrazzld/errbook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:    config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Log:       config.LogConfig{Level: "error"},
		Storage:   config.StorageConfig{Path: filepath.Join(t.TempDir(), "app.db"), Timezone: "UTC"},
		Scheduler: config.SchedulerConfig{IntervalsDays: []int{1, 3, 7}},
		Sync: config.SyncConfig{
			Interval:        time.Minute,
			Timeout:         time.Second,
			ProbeInterval:   time.Minute,
			TrackedEntities: []string{"wrong_question"},
		},
	}
}

func TestNewApplication(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("local only", func(t *testing.T) {
		app, err := newApplication(ctx, testConfig(t), logger)
		require.NoError(t, err)
		defer app.close()

		assert.Nil(t, app.coordinator)
		assert.Nil(t, app.prober)
		assert.Equal(t, time.UTC, app.clock().Location())
	})

	t.Run("tracking follows config", func(t *testing.T) {
		app, err := newApplication(ctx, testConfig(t), logger)
		require.NoError(t, err)
		defer app.close()

		_, err = app.questions.Add(ctx, domain.QuestionDraft{Subject: "math"})
		require.NoError(t, err)
		_, err = app.notes.Add(ctx, domain.NoteDraft{Title: "untracked"})
		require.NoError(t, err)

		n, err := app.queue.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("sync enabled", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Sync.Endpoint = "http://127.0.0.1:1/batches"
		cfg.Sync.HealthURL = "http://127.0.0.1:1/health"

		app, err := newApplication(ctx, cfg, logger)
		require.NoError(t, err)
		defer app.close()

		assert.NotNil(t, app.coordinator)
		assert.NotNil(t, app.prober)
	})

	t.Run("invalid ladder", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Scheduler.IntervalsDays = []int{3, 1}

		_, err := newApplication(ctx, cfg, logger)
		assert.Error(t, err)
	})

	t.Run("data survives restart", func(t *testing.T) {
		cfg := testConfig(t)

		app, err := newApplication(ctx, cfg, logger)
		require.NoError(t, err)
		q, err := app.questions.Add(ctx, domain.QuestionDraft{Subject: "bio"})
		require.NoError(t, err)
		app.close()

		app, err = newApplication(ctx, cfg, logger)
		require.NoError(t, err)
		defer app.close()

		got, ok := app.questions.Get(q.ID)
		require.True(t, ok)
		assert.Equal(t, "bio", got.Subject)
	})
}

func TestApplicationRouter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := newApplication(context.Background(), testConfig(t), logger)
	require.NoError(t, err)
	defer app.close()

	srv := httptest.NewServer(app.router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/sync")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServeHTTPShutsDown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(t)
	cfg.Sync.Endpoint = "http://127.0.0.1:1/batches"

	app, err := newApplication(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer app.close()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, app.startBackground(ctx))

	done := make(chan error, 1)
	go func() { done <- app.serveHTTP(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
