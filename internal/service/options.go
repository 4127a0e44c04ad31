package service

import (
	"log/slog"
	"time"

	"github.com/phrazzld/errbook/internal/events"
)

// Option configures a record service.
type Option func(*options)

type options struct {
	clock   func() time.Time
	emitter events.EventEmitter
	logger  *slog.Logger
	tracked bool
}

func defaultOptions() options {
	return options{
		clock:   time.Now,
		logger:  slog.Default(),
		tracked: true,
	}
}

// WithClock sets the time source. Calendar-day statistics use the location
// of the times it returns.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithEmitter publishes a record.mutated event after every committed change.
func WithEmitter(emitter events.EventEmitter) Option {
	return func(o *options) { o.emitter = emitter }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSyncTracking controls whether changes are added to the mutation queue.
func WithSyncTracking(tracked bool) Option {
	return func(o *options) { o.tracked = tracked }
}
