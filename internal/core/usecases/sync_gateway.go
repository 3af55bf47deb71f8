package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lliebig/opencelldroid/internal/core/domain"
	"github.com/lliebig/opencelldroid/internal/core/ports"
	"github.com/lliebig/opencelldroid/internal/pkg/metrics"
)

// ClampAreaLimit maps limits outside [1, 200] to 200.
func ClampAreaLimit(limit int) int {
	if limit <= 0 || limit > domain.MaxAreaLimit {
		return domain.MaxAreaLimit
	}
	return limit
}

// SyncGateway builds the submit and area operations and keeps at most one
// request in flight per channel.
type SyncGateway struct {
	lifecycle *RequestLifecycle
	protocol  ports.CellProtocol
	router    *CallbackRouter
	params    domain.RequestParams
	events    ports.EventPublisher
	journal   ports.OutcomeRepository

	startMu  sync.Mutex // serialises cancel-then-launch
	mu       sync.Mutex
	inflight map[domain.Channel]*Handle
}

// NewSyncGateway creates a SyncGateway. events and journal may be nil.
func NewSyncGateway(
	lifecycle *RequestLifecycle,
	protocol ports.CellProtocol,
	router *CallbackRouter,
	params domain.RequestParams,
	events ports.EventPublisher,
	journal ports.OutcomeRepository,
) *SyncGateway {
	return &SyncGateway{
		lifecycle: lifecycle,
		protocol:  protocol,
		router:    router,
		params:    params,
		events:    events,
		journal:   journal,
		inflight:  make(map[domain.Channel]*Handle),
	}
}

// SubmitCell uploads one report. The terminal SubmitResult reaches the
// router's observers; a cancelled submit reaches nobody.
func (g *SyncGateway) SubmitCell(ctx context.Context, report domain.CellReport) (*Handle, error) {
	if !g.lifecycle.Online(ctx) {
		return nil, domain.ErrNoConnectivity
	}
	desc := domain.RequestDescriptor{
		Channel:  domain.ChannelSubmit,
		Endpoint: g.protocol.SubmitEndpoint(report, g.params),
	}
	return g.replace(ctx, desc, func(h *Handle, out Outcome) {
		g.submitDone(h, report, out)
	}), nil
}

// QueryArea looks up known cells inside q.Box. It supersedes any area query
// still in flight.
func (g *SyncGateway) QueryArea(ctx context.Context, q domain.AreaQuery) (*Handle, error) {
	q.Limit = ClampAreaLimit(q.Limit)
	if !g.lifecycle.Online(ctx) {
		return nil, domain.ErrNoConnectivity
	}
	desc := domain.RequestDescriptor{
		Channel:  domain.ChannelQueryArea,
		Endpoint: g.protocol.AreaEndpoint(q),
		CacheKey: fmt.Sprintf("cells:area:%.6f:%.6f:%.6f:%.6f:%d:%d:%d",
			q.Box.LonMin, q.Box.LatMin, q.Box.LonMax, q.Box.LatMax, q.Limit, q.MCC, q.MNC),
	}
	return g.replace(ctx, desc, func(h *Handle, out Outcome) {
		g.areaDone(h, desc, q, out)
	}), nil
}

// CancelAll cancels every outstanding request.
func (g *SyncGateway) CancelAll() {
	g.startMu.Lock()
	defer g.startMu.Unlock()

	g.mu.Lock()
	pending := make([]*Handle, 0, len(g.inflight))
	for ch, h := range g.inflight {
		pending = append(pending, h)
		delete(g.inflight, ch)
	}
	g.mu.Unlock()

	for _, h := range pending {
		if h.Cancel() {
			slog.Debug("request cancelled", "channel", h.Channel(), "request_id", h.ID())
		}
	}
}

// InFlight returns the outstanding request on ch, if any.
func (g *SyncGateway) InFlight(ch domain.Channel) (*Handle, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	h, ok := g.inflight[ch]
	return h, ok
}

// replace cancels the prior request on desc.Channel before the new one is
// launched.
func (g *SyncGateway) replace(ctx context.Context, desc domain.RequestDescriptor, onDone func(*Handle, Outcome)) *Handle {
	g.startMu.Lock()
	defer g.startMu.Unlock()

	g.mu.Lock()
	prior, ok := g.inflight[desc.Channel]
	delete(g.inflight, desc.Channel)
	g.mu.Unlock()

	if ok && prior.Cancel() {
		metrics.SyncSuperseded.WithLabelValues(string(desc.Channel)).Inc()
		slog.Debug("request superseded", "channel", desc.Channel, "request_id", prior.ID())
	}

	return g.lifecycle.launch(ctx, desc,
		func(h *Handle, out Outcome) {
			g.release(h)
			onDone(h, out)
		},
		func(h *Handle) {
			g.mu.Lock()
			g.inflight[desc.Channel] = h
			g.mu.Unlock()
		},
	)
}

func (g *SyncGateway) release(h *Handle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cur, ok := g.inflight[h.Channel()]; ok && cur == h {
		delete(g.inflight, h.Channel())
	}
}

func (g *SyncGateway) submitDone(h *Handle, report domain.CellReport, out Outcome) {
	if out.Cancelled() {
		return
	}

	result := domain.SubmitResult{RequestID: h.ID(), Status: domain.StatusNotOK, Report: report}
	if out.Err != nil {
		result.Err = out.Err
	} else if ok, err := g.protocol.ParseAddCell(out.Body); ok {
		result.Status = domain.StatusOK
	} else {
		result.Err = err
	}
	if result.Err != nil {
		slog.Warn("cell submission failed", "request_id", h.ID(), "error", result.Err)
	}

	g.router.deliverSubmitted(result)
	g.record(&domain.SyncOutcome{
		ID:       h.ID(),
		Channel:  domain.ChannelSubmit,
		Status:   result.Status,
		Error:    errString(result.Err),
		Cell:     &report,
		Duration: out.Duration.Seconds(),
	})
}

func (g *SyncGateway) areaDone(h *Handle, desc domain.RequestDescriptor, q domain.AreaQuery, out Outcome) {
	if out.Cancelled() {
		return
	}

	result := domain.AreaQueryResult{RequestID: h.ID(), Status: domain.StatusNotOK}
	if out.Err != nil {
		result.Err = out.Err
	} else if cells, err := g.protocol.ParseArea(out.Body); err != nil {
		result.Err = err
	} else {
		result.Status = domain.StatusOK
		result.Cells = cells
		if !out.Cached {
			g.lifecycle.Remember(desc, out.Body)
		}
	}
	if result.Err != nil {
		slog.Info("area query failed", "request_id", h.ID(), "error", result.Err)
	}

	g.router.deliverArea(result)
	g.record(&domain.SyncOutcome{
		ID:       h.ID(),
		Channel:  domain.ChannelQueryArea,
		Status:   result.Status,
		Cells:    len(result.Cells),
		Cached:   out.Cached,
		Error:    errString(result.Err),
		Box:      &q.Box,
		Duration: out.Duration.Seconds(),
	})
}

// record publishes and journals an outcome off the executor.
func (g *SyncGateway) record(outcome *domain.SyncOutcome) {
	if g.events == nil && g.journal == nil {
		return
	}
	outcome.CreatedAt = time.Now().UTC()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if g.events != nil {
			if err := g.events.PublishOutcome(ctx, outcome); err != nil {
				slog.Warn("publish outcome failed", "request_id", outcome.ID, "error", err)
			}
		}
		if g.journal != nil {
			if err := g.journal.Insert(ctx, outcome); err != nil {
				slog.Warn("journal outcome failed", "request_id", outcome.ID, "error", err)
			}
		}
	}()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
