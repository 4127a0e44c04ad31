package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/errbook/internal/api/shared"
	"github.com/phrazzld/errbook/internal/platform/logger"
)

// SyncHandler reports and triggers replication. A nil SyncService means no
// remote endpoint is configured.
type SyncHandler struct {
	sync   SyncService
	logger *slog.Logger
}

// NewSyncHandler creates a new SyncHandler. sync may be nil.
func NewSyncHandler(sync SyncService, logger *slog.Logger) *SyncHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SyncHandler")
	}

	return &SyncHandler{
		sync:   sync,
		logger: logger.With(slog.String("component", "sync_handler")),
	}
}

// Status handles GET /sync
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		HandleAPIError(w, r, ErrSyncDisabled, "")
		return
	}

	pending, err := h.sync.Pending(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read sync state")
		return
	}

	state := h.sync.State()
	shared.RespondWithJSON(w, r, http.StatusOK, SyncResponse{
		Status:       state.Status,
		LastSyncAt:   state.LastSyncAt,
		FailedCount:  state.FailedCount,
		Pending:      pending,
		Connectivity: state.Connectivity,
		Error:        state.Error,
	})
}

// Flush handles POST /sync. It runs a flush and reports its outcome.
func (h *SyncHandler) Flush(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if h.sync == nil {
		HandleAPIError(w, r, ErrSyncDisabled, "")
		return
	}

	res, err := h.sync.Flush(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to flush mutation queue")
		return
	}

	pending, err := h.sync.Pending(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read sync state")
		return
	}

	log.Debug("flush requested",
		slog.Bool("skipped", res.Skipped),
		slog.Int("pushed", res.Pushed),
		slog.Int("pending", pending))

	shared.RespondWithJSON(w, r, http.StatusOK, FlushResponse{
		Skipped: res.Skipped,
		Status:  res.Status,
		Pushed:  res.Pushed,
		Failed:  res.Failed,
		Pending: pending,
	})
}
