package ports

import (
	"context"

	"github.com/lliebig/opencelldroid/internal/core/domain"
)

// ConnectivityChecker reports whether the device has an active network.
type ConnectivityChecker interface {
	IsConnected(ctx context.Context) bool
}

// Registration is a pending single-update request at the location provider.
type Registration interface {
	// Remove deregisters the listener.
	Remove()
}

// LocationProvider is the platform positioning service.
type LocationProvider interface {
	Enabled() bool
	LastKnown() (domain.LocationFix, bool)
	// RequestSingleUpdate calls listener at most once with the next fix.
	RequestSingleUpdate(listener func(domain.LocationFix)) Registration
}

// CellIdentityReader reads the cell the radio is attached to. It returns
// domain.ErrNoService or domain.ErrUnsupportedNetwork when no GSM cell is
// available.
type CellIdentityReader interface {
	CurrentCell(ctx context.Context) (domain.CellIdentity, error)
}

// Fetcher performs one outbound GET and returns the full body as text.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string) (string, error)
}

// CellProtocol encodes requests for and decodes answers from the remote
// cell database.
type CellProtocol interface {
	SubmitEndpoint(report domain.CellReport, params domain.RequestParams) string
	AreaEndpoint(query domain.AreaQuery) string
	ParseAddCell(body string) (bool, error)
	ParseArea(body string) ([]domain.CellReport, error)
}

// Executor runs functions on the interactive context, in posting order.
type Executor interface {
	Post(fn func()) bool
}

// SyncObserver receives terminal results of gateway operations.
type SyncObserver interface {
	OnCellSubmitted(result domain.SubmitResult)
	OnAreaQueried(result domain.AreaQueryResult)
}

// FixObserver receives the outcome of one location acquisition.
type FixObserver interface {
	OnFix(fix domain.LocationFix)
	OnFixTimeout()
}

// EventPublisher publishes terminal sync outcomes to a message broker.
type EventPublisher interface {
	PublishOutcome(ctx context.Context, outcome *domain.SyncOutcome) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
