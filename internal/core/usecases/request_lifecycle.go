package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lliebig/opencelldroid/internal/core/domain"
	"github.com/lliebig/opencelldroid/internal/core/ports"
	"github.com/lliebig/opencelldroid/internal/pkg/metrics"
)

const (
	statePending int32 = iota
	stateCompleted
	stateCancelled
)

// Outcome is the terminal result of one exchange. Err is nil on success and
// wraps domain.ErrCancelled when the request was cancelled.
type Outcome struct {
	Body     string
	Err      error
	Cached   bool
	Duration time.Duration
}

// Cancelled reports whether the request ended through Cancel.
func (o Outcome) Cancelled() bool {
	return errors.Is(o.Err, domain.ErrCancelled)
}

// Handle is a started request. Exactly one terminal outcome is delivered for
// it: whichever of completion or Cancel happens first wins.
type Handle struct {
	id      string
	channel domain.Channel
	state   atomic.Int32
	cancel  context.CancelFunc
	done    chan struct{}
	exec    ports.Executor
	onDone  func(*Handle, Outcome)
	started time.Time
}

// ID identifies the request in callbacks and logs.
func (h *Handle) ID() string { return h.id }

// Channel returns the logical channel the request runs on.
func (h *Handle) Channel() domain.Channel { return h.channel }

// Done is closed after the terminal outcome has been delivered.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Cancel aborts the exchange. It returns false when the request had already
// completed; in that case the completion outcome is still delivered.
func (h *Handle) Cancel() bool {
	if !h.state.CompareAndSwap(statePending, stateCancelled) {
		return false
	}
	h.cancel()
	out := Outcome{Err: fmt.Errorf("%s %s: %w", h.channel, h.id, domain.ErrCancelled), Duration: time.Since(h.started)}
	if !h.exec.Post(func() { h.deliver(out) }) {
		close(h.done)
	}
	return true
}

func (h *Handle) complete(out Outcome) {
	if !h.state.CompareAndSwap(statePending, stateCompleted) {
		return
	}
	h.deliver(out)
}

func (h *Handle) deliver(out Outcome) {
	defer close(h.done)
	metrics.SyncRequests.WithLabelValues(string(h.channel), resultLabel(out)).Inc()
	metrics.SyncRequestDuration.WithLabelValues(string(h.channel)).Observe(out.Duration.Seconds())
	if h.onDone != nil {
		h.onDone(h, out)
	}
}

func resultLabel(out Outcome) string {
	switch {
	case out.Cancelled():
		return "cancelled"
	case out.Err != nil:
		return "failure"
	case out.Cached:
		return "cached"
	default:
		return "success"
	}
}

// LifecycleConfig tunes the background execution of requests.
type LifecycleConfig struct {
	MaxConcurrent int
	CacheTTL      int // seconds
}

// RequestLifecycle runs outbound exchanges on background goroutines and
// delivers their outcomes on the executor.
type RequestLifecycle struct {
	fetcher  ports.Fetcher
	conn     ports.ConnectivityChecker
	exec     ports.Executor
	cache    ports.CacheService
	sem      chan struct{}
	cacheTTL int
}

// NewRequestLifecycle creates a RequestLifecycle. cache may be nil.
func NewRequestLifecycle(fetcher ports.Fetcher, conn ports.ConnectivityChecker, exec ports.Executor, cache ports.CacheService, cfg LifecycleConfig) *RequestLifecycle {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 300
	}
	return &RequestLifecycle{
		fetcher:  fetcher,
		conn:     conn,
		exec:     exec,
		cache:    cache,
		sem:      make(chan struct{}, cfg.MaxConcurrent),
		cacheTTL: cfg.CacheTTL,
	}
}

// Online reports whether the device currently has connectivity.
func (l *RequestLifecycle) Online(ctx context.Context) bool {
	return l.conn.IsConnected(ctx)
}

// Start launches desc. It fails with domain.ErrNoConnectivity, without any
// network attempt, when the device is offline.
func (l *RequestLifecycle) Start(ctx context.Context, desc domain.RequestDescriptor, onDone func(*Handle, Outcome)) (*Handle, error) {
	if !l.Online(ctx) {
		return nil, domain.ErrNoConnectivity
	}
	return l.launch(ctx, desc, onDone, nil), nil
}

// launch starts desc. register, when set, sees the handle before the
// exchange begins.
func (l *RequestLifecycle) launch(ctx context.Context, desc domain.RequestDescriptor, onDone func(*Handle, Outcome), register func(*Handle)) *Handle {
	// The exchange outlives the caller's request scope but keeps its values.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h := &Handle{
		id:      uuid.NewString(),
		channel: desc.Channel,
		cancel:  cancel,
		done:    make(chan struct{}),
		exec:    l.exec,
		onDone:  onDone,
		started: time.Now(),
	}
	if register != nil {
		register(h)
	}
	go l.run(runCtx, h, desc)
	return h
}

func (l *RequestLifecycle) run(ctx context.Context, h *Handle, desc domain.RequestDescriptor) {
	defer h.cancel()

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-l.sem }()

	body, cached, err := l.exchange(ctx, desc)
	if ctx.Err() != nil && h.state.Load() == stateCancelled {
		return
	}
	out := Outcome{Body: body, Err: err, Cached: cached, Duration: time.Since(h.started)}
	if !l.exec.Post(func() { h.complete(out) }) {
		slog.Debug("outcome dropped, executor stopped", "channel", h.channel, "request_id", h.id)
		if h.state.CompareAndSwap(statePending, stateCompleted) {
			close(h.done)
		}
	}
}

func (l *RequestLifecycle) exchange(ctx context.Context, desc domain.RequestDescriptor) (string, bool, error) {
	if desc.CacheKey != "" && l.cache != nil {
		if data, err := l.cache.Get(ctx, desc.CacheKey); err == nil && len(data) > 0 {
			metrics.CacheHits.WithLabelValues(string(desc.Channel)).Inc()
			return string(data), true, nil
		}
		metrics.CacheMisses.WithLabelValues(string(desc.Channel)).Inc()
	}

	body, err := l.fetcher.Fetch(ctx, desc.Endpoint)
	if err != nil {
		return "", false, err
	}
	return body, false, nil
}

// Remember stores a body that decoded successfully under desc's cache key.
func (l *RequestLifecycle) Remember(desc domain.RequestDescriptor, body string) {
	if desc.CacheKey == "" || l.cache == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.cache.Set(ctx, desc.CacheKey, []byte(body), l.cacheTTL); err != nil {
			slog.Warn("cache store failed", "key", desc.CacheKey, "error", err)
		}
	}()
}
