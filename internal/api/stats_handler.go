package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/errbook/internal/api/shared"
)

// Limits of the stats query parameters
const (
	defaultStatsDays    = 7
	maxStatsDays        = 366
	defaultHeatmapWeeks = 12
	maxHeatmapWeeks     = 53
)

// StatsHandler serves the derived views over the question set
type StatsHandler struct {
	stats  StatsService
	logger *slog.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(stats StatsService, logger *slog.Logger) *StatsHandler {
	if stats == nil || logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("stats and logger cannot be nil for StatsHandler")
	}

	return &StatsHandler{
		stats:  stats,
		logger: logger.With(slog.String("component", "stats_handler")),
	}
}

// Summary handles GET /stats/summary
func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.stats.Summary())
}

// Daily handles GET /stats/daily?days=N
func (h *StatsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", defaultStatsDays, 1, maxStatsDays)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, h.stats.DailyStats(days))
}

// Heatmap handles GET /stats/heatmap?weeks=N
func (h *StatsHandler) Heatmap(w http.ResponseWriter, r *http.Request) {
	weeks, err := queryInt(r, "weeks", defaultHeatmapWeeks, 1, maxHeatmapWeeks)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, h.stats.Heatmap(weeks))
}

// Stages handles GET /stats/stages
func (h *StatsHandler) Stages(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.stats.StageDistribution())
}
