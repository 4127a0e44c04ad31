package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/errbook/internal/api/middleware"
)

// RouterDeps holds the services served by the router. Sync may be nil.
type RouterDeps struct {
	Questions QuestionService
	Stats     StatsService
	Notes     NoteService
	Sync      SyncService
	Logger    *slog.Logger
}

// NewRouter builds the HTTP routes of the collaborator API.
func NewRouter(deps RouterDeps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(deps.Logger))

	questionHandler := NewQuestionHandler(deps.Questions, deps.Logger)
	statsHandler := NewStatsHandler(deps.Stats, deps.Logger)
	noteHandler := NewNoteHandler(deps.Notes, deps.Logger)
	syncHandler := NewSyncHandler(deps.Sync, deps.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/questions", func(r chi.Router) {
			r.Get("/", questionHandler.List)
			r.Post("/", questionHandler.Create)
			r.Get("/due", questionHandler.Due)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", questionHandler.Get)
				r.Patch("/", questionHandler.Update)
				r.Delete("/", questionHandler.Delete)
				r.Post("/feedback", questionHandler.Feedback)
				r.Post("/archive", questionHandler.Archive)
				r.Post("/restore", questionHandler.Restore)
				r.Post("/master", questionHandler.Master)
				r.Post("/favorite", questionHandler.ToggleFavorite)
			})
		})

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", noteHandler.List)
			r.Post("/", noteHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", noteHandler.Get)
				r.Patch("/", noteHandler.Update)
				r.Delete("/", noteHandler.Delete)
				r.Post("/archive", noteHandler.Archive)
				r.Post("/restore", noteHandler.Restore)
				r.Post("/favorite", noteHandler.ToggleFavorite)
			})
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/summary", statsHandler.Summary)
			r.Get("/daily", statsHandler.Daily)
			r.Get("/heatmap", statsHandler.Heatmap)
			r.Get("/stages", statsHandler.Stages)
		})

		r.Get("/sync", syncHandler.Status)
		r.Post("/sync", syncHandler.Flush)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
