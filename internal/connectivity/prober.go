package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// Prober polls a health URL and feeds the result into a Monitor. Any HTTP
// response below 500 counts as online; transport errors and 5xx count as
// offline.
type Prober struct {
	client   *http.Client
	url      string
	interval time.Duration
	monitor  *Monitor
	logger   *slog.Logger
}

// NewProber creates a Prober. timeout bounds each probe request.
func NewProber(url string, interval, timeout time.Duration, monitor *Monitor, logger *slog.Logger) *Prober {
	if monitor == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("monitor cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := cleanhttp.DefaultPooledClient()
	client.Timeout = timeout

	return &Prober{
		client:   client,
		url:      url,
		interval: interval,
		monitor:  monitor,
		logger:   logger.With(slog.String("component", "connectivity_prober")),
	}
}

// Probe performs one check, records it on the monitor and returns it.
func (p *Prober) Probe(ctx context.Context) State {
	state := p.check(ctx)
	p.monitor.Set(state)
	return state
}

func (p *Prober) check(ctx context.Context) State {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.logger.Error("invalid health url", slog.String("url", p.url), slog.String("error", err.Error()))
		return StateOffline
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("health probe failed", slog.String("error", err.Error()))
		return StateOffline
	}
	_ = resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		p.logger.Debug("health probe returned server error", slog.Int("status", resp.StatusCode))
		return StateOffline
	}
	return StateOnline
}

// Run probes immediately and then every interval until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}
