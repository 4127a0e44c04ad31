package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/errbook/internal/api"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

func (app *application) router() http.Handler {
	deps := api.RouterDeps{
		Questions: app.questions,
		Stats:     app.questions,
		Notes:     app.notes,
		Logger:    app.logger,
	}
	// leave Sync as a nil interface when sync is disabled
	if app.coordinator != nil {
		deps.Sync = app.coordinator
	}
	return api.NewRouter(deps)
}

// startBackground starts the prober and the coordinator. They stop when ctx
// is done and close is called.
func (app *application) startBackground(ctx context.Context) error {
	if app.prober != nil {
		go app.prober.Run(ctx)
	}

	if app.coordinator != nil {
		if err := app.coordinator.Start(ctx); err != nil {
			return fmt.Errorf("failed to start sync coordinator: %w", err)
		}
	}
	return nil
}

// serveHTTP serves the API until ctx is done, then shuts down gracefully.
func (app *application) serveHTTP(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           app.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		app.logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.logger.Info("server shutdown completed")
	return nil
}
