package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProberProbe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   State
	}{
		{"ok", http.StatusOK, StateOnline},
		{"no content", http.StatusNoContent, StateOnline},
		{"not found still reachable", http.StatusNotFound, StateOnline},
		{"server error", http.StatusServiceUnavailable, StateOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			m := NewMonitor(nil)
			p := NewProber(srv.URL, time.Second, time.Second, m, nil)
			assert.Equal(t, tt.want, p.Probe(context.Background()))
			assert.Equal(t, tt.want, m.Current())
		})
	}
}

func TestProberUnreachable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	m := NewMonitor(nil)
	p := NewProber(url, time.Second, time.Second, m, nil)
	assert.Equal(t, StateOffline, p.Probe(context.Background()))
}

func TestProberRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	m := NewMonitor(nil)
	p := NewProber(srv.URL, 10*time.Millisecond, time.Second, m, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return hits.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, StateOnline, m.Current())
}

func TestNewProberPanicsWithoutMonitor(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewProber("http://localhost", time.Second, time.Second, nil, nil) })
}
