package usecases

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/lliebig/opencelldroid/internal/core/domain"
	"github.com/lliebig/opencelldroid/internal/core/ports"
	"github.com/lliebig/opencelldroid/internal/pkg/metrics"
)

// GpsState is the state of a GpsController.
type GpsState int

const (
	GpsIdle GpsState = iota
	GpsAwaitingFix
)

func (s GpsState) String() string {
	if s == GpsAwaitingFix {
		return "awaiting_fix"
	}
	return "idle"
}

// GpsConfig tunes a GpsController. Zero values select the defaults.
type GpsConfig struct {
	MaxFixAge time.Duration
	Timeout   time.Duration
	Now       func() time.Time
}

// episode is one outstanding provider registration.
type episode struct {
	reg       ports.Registration
	timer     *time.Timer
	observers []ports.FixObserver
}

// GpsController produces one location fix per acquisition: a fresh last
// known fix is reused, otherwise one update is awaited with a timeout.
type GpsController struct {
	provider ports.LocationProvider
	exec     ports.Executor
	cfg      GpsConfig

	mu      sync.Mutex
	current *episode
}

// NewGpsController creates a GpsController.
func NewGpsController(provider ports.LocationProvider, exec ports.Executor, cfg GpsConfig) *GpsController {
	if cfg.MaxFixAge <= 0 {
		cfg.MaxFixAge = domain.DefaultMaxFixAge
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = domain.DefaultFixTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &GpsController{provider: provider, exec: exec, cfg: cfg}
}

// MaxFixAge returns the freshness window in use.
func (c *GpsController) MaxFixAge() time.Duration { return c.cfg.MaxFixAge }

// State reports whether an acquisition is outstanding.
func (c *GpsController) State() GpsState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		return GpsAwaitingFix
	}
	return GpsIdle
}

// Acquire obtains a fix for obs. While an acquisition is outstanding, obs
// joins it instead of registering again; an observer already waiting is
// notified once. It returns domain.ErrProviderUnavailable synchronously when
// positioning is disabled.
func (c *GpsController) Acquire(obs ports.FixObserver) error {
	c.mu.Lock()

	if ep := c.current; ep != nil {
		if !slices.Contains(ep.observers, obs) {
			ep.observers = append(ep.observers, obs)
		}
		c.mu.Unlock()
		metrics.GpsAcquisitions.WithLabelValues("joined").Inc()
		return nil
	}

	if fix, ok := c.provider.LastKnown(); ok && fix.FreshAt(c.cfg.Now(), c.cfg.MaxFixAge) {
		c.mu.Unlock()
		metrics.GpsAcquisitions.WithLabelValues("reused").Inc()
		c.exec.Post(func() { obs.OnFix(fix) })
		return nil
	}

	if !c.provider.Enabled() {
		c.mu.Unlock()
		metrics.GpsAcquisitions.WithLabelValues("unavailable").Inc()
		return domain.ErrProviderUnavailable
	}

	ep := &episode{observers: []ports.FixObserver{obs}}
	c.current = ep
	ep.timer = time.AfterFunc(c.cfg.Timeout, func() {
		c.exec.Post(func() { c.expire(ep) })
	})
	ep.reg = c.provider.RequestSingleUpdate(func(fix domain.LocationFix) {
		c.exec.Post(func() { c.deliver(ep, fix) })
	})
	c.mu.Unlock()

	slog.Debug("awaiting location fix", "timeout", c.cfg.Timeout)
	return nil
}

// Cancel abandons the outstanding acquisition without notifying anyone. It
// returns false when nothing was outstanding.
func (c *GpsController) Cancel() bool {
	ep := c.finish(nil)
	if ep == nil {
		return false
	}
	metrics.GpsAcquisitions.WithLabelValues("cancelled").Inc()
	return true
}

func (c *GpsController) deliver(ep *episode, fix domain.LocationFix) {
	if c.finish(ep) == nil {
		return
	}
	metrics.GpsAcquisitions.WithLabelValues("fix").Inc()
	for _, obs := range ep.observers {
		obs.OnFix(fix)
	}
}

func (c *GpsController) expire(ep *episode) {
	if c.finish(ep) == nil {
		return
	}
	metrics.GpsAcquisitions.WithLabelValues("timeout").Inc()
	slog.Warn("location fix timed out", "timeout", c.cfg.Timeout)
	for _, obs := range ep.observers {
		obs.OnFixTimeout()
	}
}

// finish ends the outstanding episode, or only ep when ep is non-nil, and
// releases its timer and registration. It returns the ended episode.
func (c *GpsController) finish(ep *episode) *episode {
	c.mu.Lock()
	cur := c.current
	if cur == nil || (ep != nil && cur != ep) {
		c.mu.Unlock()
		return nil
	}
	c.current = nil
	c.mu.Unlock()

	cur.timer.Stop()
	if cur.reg != nil {
		cur.reg.Remove()
	}
	return cur
}
