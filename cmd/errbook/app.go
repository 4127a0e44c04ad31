package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/phrazzld/errbook/internal/config"
	"github.com/phrazzld/errbook/internal/connectivity"
	"github.com/phrazzld/errbook/internal/domain"
	"github.com/phrazzld/errbook/internal/domain/srs"
	"github.com/phrazzld/errbook/internal/events"
	"github.com/phrazzld/errbook/internal/platform/remote"
	"github.com/phrazzld/errbook/internal/platform/sqlite"
	"github.com/phrazzld/errbook/internal/service"
	"github.com/phrazzld/errbook/internal/syncer"
)

// application holds the wired components and owns their shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	clock  func() time.Time

	queue     *sqlite.MutationQueue
	questions *service.QuestionService
	notes     *service.NoteService

	emitter *events.InMemoryEventEmitter
	monitor *connectivity.Monitor

	// prober is nil without a health URL; coordinator is nil without an endpoint.
	prober      *connectivity.Prober
	coordinator *syncer.Coordinator

	closers []io.Closer
}

// newApplication opens the database, loads both record sets and wires the
// sync components the configuration enables.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	loc, err := cfg.Storage.Location()
	if err != nil {
		return nil, err
	}

	params, err := srs.NewParams(cfg.Scheduler.IntervalsDays)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler configuration: %w", err)
	}
	scheduler := srs.NewServiceWithParams(params)

	db, err := sqlite.OpenAndMigrate(ctx, cfg.Storage.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		clock:  func() time.Time { return time.Now().In(loc) },
	}

	app.emitter = events.NewInMemoryEventEmitter(logger)
	app.emitter.RegisterHandler(events.HandlerFunc(func(_ context.Context, e *events.Event) error {
		logger.Debug("event published", slog.String("event_type", e.Type), slog.String("event_id", e.ID.String()))
		return nil
	}))

	app.queue = sqlite.NewMutationQueue(db, logger)

	app.questions, err = service.NewQuestionService(db,
		sqlite.NewQuestionStore(db, params.MaxStage(), logger),
		app.queue,
		scheduler,
		app.serviceOptions(string(domain.EntityTypeQuestion))...)
	if err != nil {
		app.close()
		return nil, err
	}

	app.notes, err = service.NewNoteService(db,
		sqlite.NewNoteStore(db, logger),
		app.queue,
		app.serviceOptions(string(domain.EntityTypeNote))...)
	if err != nil {
		app.close()
		return nil, err
	}

	if err := app.questions.Load(ctx); err != nil {
		app.close()
		return nil, err
	}
	if err := app.notes.Load(ctx); err != nil {
		app.close()
		return nil, err
	}

	app.monitor = connectivity.NewMonitor(logger)
	if cfg.Sync.HealthURL != "" {
		app.prober = connectivity.NewProber(cfg.Sync.HealthURL, cfg.Sync.ProbeInterval, cfg.Sync.Timeout, app.monitor, logger)
	}
	if cfg.Sync.Endpoint != "" {
		app.coordinator = syncer.NewCoordinator(
			app.queue,
			sqlite.NewMetaStore(db),
			remote.NewClient(cfg.Sync.Endpoint, cfg.Sync.Timeout, logger),
			app.monitor,
			syncer.Config{
				Interval: cfg.Sync.Interval,
				Clock:    app.clock,
				Logger:   logger,
				Emitter:  app.emitter,
			})
	}

	logger.Info("application initialized",
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("timezone", loc.String()),
		slog.Bool("sync_enabled", app.coordinator != nil),
		slog.Bool("probe_enabled", app.prober != nil))
	return app, nil
}

func (app *application) serviceOptions(entityType string) []service.Option {
	return []service.Option{
		service.WithClock(app.clock),
		service.WithEmitter(app.emitter),
		service.WithLogger(app.logger),
		service.WithSyncTracking(app.config.Sync.Tracks(entityType)),
	}
}

// close stops the coordinator and releases the database and log file.
func (app *application) close() {
	if app.coordinator != nil {
		app.coordinator.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", slog.String("error", err.Error()))
		}
	}

	for _, c := range app.closers {
		_ = c.Close()
	}
}
