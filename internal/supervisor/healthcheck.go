package supervisor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Pinger probes the prediction API.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f(ctx).
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthStatus is a point-in-time view of the backend health.
type HealthStatus struct {
	Healthy   bool      `json:"healthy"`
	LastCheck time.Time `json:"last_check"`
	LastError string    `json:"last_error,omitempty"`
}

// HealthChecker periodically checks prediction API health.
type HealthChecker struct {
	pinger        Pinger
	checkInterval time.Duration
	timeout       time.Duration
	healthy       atomic.Bool
	lastCheck     atomic.Value // time.Time
	lastError     atomic.Value // string
	metrics       *Metrics
	logger        *slog.Logger
	stopCh        chan struct{}
	stopOnce      sync.Once
}

// NewHealthChecker creates a health checker and starts probing in the background.
func NewHealthChecker(pinger Pinger, checkInterval, timeout time.Duration, metrics *Metrics, logger *slog.Logger) *HealthChecker {
	if logger == nil {
		logger = slog.Default()
	}
	hc := &HealthChecker{
		pinger:        pinger,
		checkInterval: checkInterval,
		timeout:       timeout,
		metrics:       metrics,
		logger:        logger,
		stopCh:        make(chan struct{}),
	}

	// Unhealthy until the first probe answers.
	hc.healthy.Store(false)

	go hc.run()

	return hc
}

func (hc *HealthChecker) run() {
	hc.check()

	ticker := time.NewTicker(hc.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			hc.check()
		case <-hc.stopCh:
			return
		}
	}
}

func (hc *HealthChecker) check() {
	ctx, cancel := context.WithTimeout(context.Background(), hc.timeout)
	defer cancel()

	if err := hc.pinger.Ping(ctx); err != nil {
		hc.updateHealth(false, err.Error())
		return
	}
	hc.updateHealth(true, "")
}

func (hc *HealthChecker) updateHealth(healthy bool, errMsg string) {
	was := hc.healthy.Swap(healthy)
	hc.lastCheck.Store(time.Now())
	hc.lastError.Store(errMsg)

	switch {
	case errMsg != "" && was:
		hc.logger.Warn("backend became unhealthy", "err", errMsg)
	case errMsg != "":
		hc.logger.Debug("backend health check failed", "err", errMsg)
	case !was:
		hc.logger.Info("backend healthy")
	}

	hc.metrics.UpdateBackendHealth(healthy)
}

// Healthy returns whether the backend answered the last probe.
func (hc *HealthChecker) Healthy() bool {
	return hc.healthy.Load()
}

// LastCheck returns the time of the last health check.
func (hc *HealthChecker) LastCheck() time.Time {
	if v := hc.lastCheck.Load(); v != nil {
		return v.(time.Time)
	}
	return time.Time{}
}

// LastError returns the last error message, if any.
func (hc *HealthChecker) LastError() string {
	if v := hc.lastError.Load(); v != nil {
		return v.(string)
	}
	return ""
}

// Status returns a snapshot suitable for a JSON health endpoint.
func (hc *HealthChecker) Status() HealthStatus {
	return HealthStatus{
		Healthy:   hc.Healthy(),
		LastCheck: hc.LastCheck(),
		LastError: hc.LastError(),
	}
}

// Shutdown stops the health checker. It is safe to call more than once.
func (hc *HealthChecker) Shutdown() {
	hc.stopOnce.Do(func() { close(hc.stopCh) })
}
