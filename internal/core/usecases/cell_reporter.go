package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/lliebig/opencelldroid/internal/core/domain"
	"github.com/lliebig/opencelldroid/internal/core/ports"
)

// CellReporter combines a location fix with the current cell and submits it.
type CellReporter struct {
	cells     ports.CellIdentityReader
	gateway   *SyncGateway
	maxFixAge time.Duration
	now       func() time.Time
}

// NewCellReporter creates a CellReporter. now may be nil.
func NewCellReporter(cells ports.CellIdentityReader, gateway *SyncGateway, maxFixAge time.Duration, now func() time.Time) *CellReporter {
	if maxFixAge <= 0 {
		maxFixAge = domain.DefaultMaxFixAge
	}
	if now == nil {
		now = time.Now
	}
	return &CellReporter{cells: cells, gateway: gateway, maxFixAge: maxFixAge, now: now}
}

// Report submits the current cell at fix. A fix older than the freshness
// window is refused with domain.ErrStaleFix.
func (r *CellReporter) Report(ctx context.Context, fix domain.LocationFix) (*Handle, error) {
	now := r.now()
	if !fix.FreshAt(now, r.maxFixAge) {
		return nil, domain.ErrStaleFix
	}

	cell, err := r.cells.CurrentCell(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cell: %w", err)
	}
	if !cell.HasCellInfo() {
		return nil, domain.ErrNoService
	}

	return r.gateway.SubmitCell(ctx, domain.NewCellReport(cell, fix.Point(), now))
}
