package usecases

import (
	"context"
	"sync"

	"github.com/lliebig/opencelldroid/internal/core/domain"
	"github.com/lliebig/opencelldroid/internal/pkg/geospatial"
)

// DefaultViewportLimit is the page size used for map viewport queries.
const DefaultViewportLimit = 50

// ViewportTracker turns map viewport changes into area queries, skipping
// changes that cannot reveal new cells.
type ViewportTracker struct {
	gateway *SyncGateway
	limit   int

	mu   sync.Mutex
	last *domain.BoundingBox
}

// NewViewportTracker creates a ViewportTracker.
func NewViewportTracker(gateway *SyncGateway, limit int) *ViewportTracker {
	if limit <= 0 {
		limit = DefaultViewportLimit
	}
	return &ViewportTracker{gateway: gateway, limit: limit}
}

// Update queries box unless it is unset or lies inside the last queried
// viewport. The returned handle is nil when the update was skipped.
func (v *ViewportTracker) Update(ctx context.Context, box domain.BoundingBox) (*Handle, error) {
	if box.IsZero() {
		return nil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.last != nil && geospatial.Covers(*v.last, box) {
		return nil, nil
	}

	h, err := v.gateway.QueryArea(ctx, domain.AreaQuery{Box: box, Limit: v.limit})
	if err != nil {
		return nil, err
	}
	v.last = &box
	return h, nil
}

// Reset forgets the last viewport so the next update always queries.
func (v *ViewportTracker) Reset() {
	v.mu.Lock()
	v.last = nil
	v.mu.Unlock()
}
