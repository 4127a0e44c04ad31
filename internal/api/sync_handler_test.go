package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/phrazzld/errbook/internal/api/shared"
	"github.com/phrazzld/errbook/internal/connectivity"
	"github.com/phrazzld/errbook/internal/syncer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncEndpoints(t *testing.T) {
	last := now.Add(-time.Hour)
	fake := &fakeSync{
		state: syncer.State{
			Status:       syncer.StatusError,
			LastSyncAt:   &last,
			FailedCount:  2,
			Connectivity: connectivity.StateOnline,
			Error:        "push of 2 note items failed: remote returned 502",
		},
		pending: 3,
		result:  syncer.Result{Status: syncer.StatusIdle, Pushed: 3},
	}
	a := newTestAPI(t, fake)

	resp := a.do(t, http.MethodGet, "/api/sync", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decode[SyncResponse](t, resp)
	assert.Equal(t, syncer.StatusError, status.Status)
	assert.Equal(t, 3, status.Pending)
	assert.Equal(t, 2, status.FailedCount)
	assert.Equal(t, connectivity.StateOnline, status.Connectivity)
	assert.Equal(t, "push of 2 note items failed: remote returned 502", status.Error)
	require.NotNil(t, status.LastSyncAt)
	assert.True(t, status.LastSyncAt.Equal(last))

	resp = a.do(t, http.MethodPost, "/api/sync", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	flushed := decode[FlushResponse](t, resp)
	assert.Equal(t, 3, flushed.Pushed)
	assert.Equal(t, 0, flushed.Pending)
	assert.Equal(t, 1, fake.flushes)
}

func TestSyncUnavailable(t *testing.T) {
	t.Run("offline", func(t *testing.T) {
		a := newTestAPI(t, &fakeSync{err: syncer.ErrOffline})

		resp := a.do(t, http.MethodPost, "/api/sync", nil)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "Remote endpoint is unreachable", decode[shared.ErrorResponse](t, resp).Error)
	})

	t.Run("disabled", func(t *testing.T) {
		a := newTestAPI(t, nil)

		for _, method := range []string{http.MethodGet, http.MethodPost} {
			resp := a.do(t, method, "/api/sync", nil)
			assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
			assert.Equal(t, "Sync is disabled", decode[shared.ErrorResponse](t, resp).Error)
		}
	})
}
