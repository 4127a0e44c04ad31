package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phrazzld/errbook/internal/connectivity"
	"github.com/phrazzld/errbook/internal/events"
	"github.com/phrazzld/errbook/internal/platform/logger"
	"github.com/phrazzld/errbook/internal/redact"
	"github.com/phrazzld/errbook/internal/store"
)

// DefaultInterval is the periodic flush interval used when Config.Interval is zero.
const DefaultInterval = 30 * time.Second

// Config holds optional Coordinator settings.
type Config struct {
	Interval time.Duration
	Clock    func() time.Time
	Logger   *slog.Logger
	Emitter  events.EventEmitter
}

// Coordinator owns the replication status and drives flushes.
type Coordinator struct {
	queue     store.MutationQueue
	meta      store.MetaStore
	transport Transport
	notifier  ConnectivityNotifier
	interval  time.Duration
	clock     func() time.Time
	emitter   events.EventEmitter
	logger    *slog.Logger

	// flushing is the single-flight guard; running is held for the
	// duration of a flush so Stop can wait for it.
	flushing atomic.Bool
	running  sync.Mutex

	mu          sync.Mutex
	state       State
	started     bool
	stopped     bool
	baseCtx     context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup
}

// NewCoordinator creates a Coordinator in StatusIdle. notifier may be nil,
// in which case the remote is always assumed reachable.
func NewCoordinator(
	queue store.MutationQueue,
	meta store.MetaStore,
	transport Transport,
	notifier ConnectivityNotifier,
	cfg Config,
) *Coordinator {
	if queue == nil || meta == nil || transport == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("queue, meta and transport are required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Coordinator{
		queue:     queue,
		meta:      meta,
		transport: transport,
		notifier:  notifier,
		interval:  cfg.Interval,
		clock:     cfg.Clock,
		emitter:   cfg.Emitter,
		logger:    cfg.Logger.With(slog.String("component", "sync_coordinator")),
		state:     State{Status: StatusIdle},
		baseCtx:   context.Background(),
	}
}

// State returns a snapshot of the current state.
func (c *Coordinator) State() State {
	conn := c.connectivity()

	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snapshotLocked()
	s.Connectivity = conn
	return s
}

// Pending returns the number of queued mutations.
func (c *Coordinator) Pending(ctx context.Context) (int, error) {
	return c.queue.Count(ctx)
}

// Start restores lastSyncAt, subscribes to connectivity changes and starts
// the periodic flush.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	tickCtx, cancel := context.WithCancel(ctx)
	c.started = true
	c.baseCtx = context.WithoutCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	if err := c.restoreLastSync(ctx); err != nil {
		c.logger.Warn("could not restore last sync time", slog.String("error", err.Error()))
	}

	if c.offline() {
		c.goOffline()
	}

	c.mu.Lock()
	if c.notifier != nil && !c.stopped {
		c.unsubscribe = c.notifier.Subscribe(c.onConnectivity)
	}
	c.mu.Unlock()

	go c.tick(tickCtx)

	c.logger.Info("sync coordinator started", slog.Duration("interval", c.interval))
	return nil
}

// Stop unsubscribes, stops the ticker and waits for any in-flight flush.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	unsubscribe, cancel := c.unsubscribe, c.cancel
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	c.running.Lock()
	defer c.running.Unlock()

	c.logger.Info("sync coordinator stopped")
}

// Flush pushes every pending mutation. It returns Result{Skipped: true}
// without doing anything if a flush is already running, and ErrOffline when
// connectivity is lost.
func (c *Coordinator) Flush(ctx context.Context) (Result, error) {
	if c.offline() {
		c.goOffline()
		return Result{Status: StatusOffline}, ErrOffline
	}

	if !c.flushing.CompareAndSwap(false, true) {
		return Result{Skipped: true, Status: c.State().Status}, nil
	}
	defer c.flushing.Store(false)

	c.running.Lock()
	defer c.running.Unlock()

	// a flush is never cancelled half-way; the transport bounds each push
	return c.flush(context.WithoutCancel(ctx))
}

func (c *Coordinator) flush(ctx context.Context) (Result, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)
	prev := c.State()
	c.setState(StatusSyncing, prev.FailedCount, prev.Error, nil)

	items, err := c.queue.List(ctx)
	if err != nil {
		err = fmt.Errorf("failed to read mutation queue: %w", err)
		c.setState(StatusError, prev.FailedCount, redact.Error(err), nil)
		return Result{Status: StatusError}, err
	}

	var (
		res         Result
		wentOffline bool
		pushErr     error
	)
	for _, p := range partitionByEntity(items) {
		if c.offline() {
			wentOffline = true
			break
		}

		if err := c.transport.Push(ctx, p.batch()); err != nil {
			res.Failed += len(p.items)
			pushErr = fmt.Errorf("push of %d %s items failed: %w", len(p.items), p.entity, err)
			log.Warn("partition push failed",
				slog.String("entity_type", string(p.entity)),
				slog.Int("items", len(p.items)),
				slog.String("error", redact.Error(err)))
			if err := c.queue.MarkAttempted(ctx, p.ids()...); err != nil {
				log.Error("failed to record push attempt", slog.String("error", err.Error()))
			}
			continue
		}

		if err := c.queue.Remove(ctx, p.ids()...); err != nil {
			// the items stay queued and are delivered again
			res.Failed += len(p.items)
			pushErr = fmt.Errorf("failed to remove pushed %s items: %w", p.entity, err)
			log.Error("failed to remove pushed items",
				slog.String("entity_type", string(p.entity)),
				slog.String("error", err.Error()))
			continue
		}
		res.Pushed += len(p.items)
	}

	if !wentOffline && c.offline() {
		wentOffline = true
	}

	switch {
	case wentOffline:
		res.Status = StatusOffline
		c.setState(StatusOffline, res.Failed, ErrOffline.Error(), nil)
	case res.Failed > 0:
		res.Status = StatusError
		c.setState(StatusError, res.Failed, redact.Error(pushErr), nil)
	default:
		res.Status = StatusIdle
		now := c.clock()
		if err := c.meta.Set(ctx, store.MetaLastSyncAt, now.UTC().Format(time.RFC3339Nano)); err != nil {
			log.Error("failed to persist last sync time", slog.String("error", err.Error()))
		}
		c.setState(StatusIdle, 0, "", &now)
	}

	log.Info("flush finished",
		slog.String("status", string(res.Status)),
		slog.Int("pushed", res.Pushed),
		slog.Int("failed", res.Failed))
	return res, nil
}

func (c *Coordinator) tick(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.offline() || c.flushing.Load() {
				continue
			}
			if _, err := c.Flush(ctx); err != nil {
				c.logger.Warn("periodic flush failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (c *Coordinator) onConnectivity(s connectivity.State) {
	switch s {
	case connectivity.StateOffline:
		c.goOffline()
	case connectivity.StateOnline:
		if s := c.State(); s.Status == StatusOffline {
			c.setState(StatusIdle, s.FailedCount, "", nil)
		}
		c.flushAsync()
	}
}

// flushAsync starts a flush in the background once any running flush has
// finished.
func (c *Coordinator) flushAsync() {
	c.mu.Lock()
	if !c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	ctx := c.baseCtx
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.running.Lock()
		c.running.Unlock() //nolint:staticcheck // waits for an in-flight flush

		if c.isStopped() {
			return
		}
		if _, err := c.Flush(ctx); err != nil {
			c.logger.Warn("flush after reconnect failed", slog.String("error", err.Error()))
		}
	}()
}

func (c *Coordinator) offline() bool {
	return c.connectivity() == connectivity.StateOffline
}

func (c *Coordinator) connectivity() connectivity.State {
	if c.notifier == nil {
		return connectivity.StateUnknown
	}
	return c.notifier.Current()
}

func (c *Coordinator) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func (c *Coordinator) goOffline() {
	c.setState(StatusOffline, c.State().FailedCount, ErrOffline.Error(), nil)
}

func (c *Coordinator) restoreLastSync(ctx context.Context) error {
	value, ok, err := c.meta.Get(ctx, store.MetaLastSyncAt)
	if err != nil || !ok {
		return err
	}
	at, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return fmt.Errorf("invalid stored last sync time %q: %w", value, err)
	}

	c.mu.Lock()
	c.state.LastSyncAt = &at
	c.mu.Unlock()
	return nil
}

// setState updates the status, failed count and error message, and
// lastSyncAt when given. A sync.state_changed event is published when
// anything changed.
func (c *Coordinator) setState(status Status, failed int, errMsg string, lastSyncAt *time.Time) {
	conn := c.connectivity()

	c.mu.Lock()
	prev := c.state.Status
	changed := prev != status ||
		c.state.FailedCount != failed ||
		c.state.Error != errMsg ||
		lastSyncAt != nil
	c.state.Status = status
	c.state.FailedCount = failed
	c.state.Error = errMsg
	if lastSyncAt != nil {
		at := *lastSyncAt
		c.state.LastSyncAt = &at
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if !changed {
		return
	}

	c.logger.Debug("sync state changed",
		slog.String("from", string(prev)),
		slog.String("to", string(status)),
		slog.Int("failed_count", failed))

	err := events.Emit(context.Background(), c.emitter, events.TypeSyncStateChanged, events.SyncStateChanged{
		From:         string(prev),
		To:           string(status),
		LastSyncAt:   snap.LastSyncAt,
		FailedCount:  snap.FailedCount,
		Connectivity: string(conn),
		Error:        snap.Error,
	})
	if err != nil {
		c.logger.Warn("sync state handler failed", slog.String("error", err.Error()))
	}
}

func (c *Coordinator) snapshotLocked() State {
	s := c.state
	if s.LastSyncAt != nil {
		at := *s.LastSyncAt
		s.LastSyncAt = &at
	}
	return s
}
