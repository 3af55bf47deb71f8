package device

import (
	"sync"
	"sync/atomic"

	"github.com/lliebig/opencelldroid/internal/core/domain"
	"github.com/lliebig/opencelldroid/internal/core/ports"
)

// FeedProvider implements ports.LocationProvider over fixes pushed from
// outside, e.g. a NATS subscription or the HTTP facade.
type FeedProvider struct {
	enabled atomic.Bool

	mu        sync.Mutex
	last      *domain.LocationFix
	nextID    int
	listeners map[int]func(domain.LocationFix)
}

// NewFeedProvider creates an enabled FeedProvider with no fix.
func NewFeedProvider() *FeedProvider {
	p := &FeedProvider{listeners: make(map[int]func(domain.LocationFix))}
	p.enabled.Store(true)
	return p
}

// SetEnabled switches the provider on or off.
func (p *FeedProvider) SetEnabled(on bool) { p.enabled.Store(on) }

func (p *FeedProvider) Enabled() bool { return p.enabled.Load() }

func (p *FeedProvider) LastKnown() (domain.LocationFix, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return domain.LocationFix{}, false
	}
	return *p.last, true
}

// Push records fix as the last known fix and hands it to every pending
// listener, each of which is then removed. Pushes are ignored while the
// provider is disabled.
func (p *FeedProvider) Push(fix domain.LocationFix) {
	if !p.Enabled() {
		return
	}
	p.mu.Lock()
	p.last = &fix
	pending := p.listeners
	p.listeners = make(map[int]func(domain.LocationFix))
	p.mu.Unlock()

	for _, l := range pending {
		l(fix)
	}
}

// Pending returns the number of registered listeners.
func (p *FeedProvider) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}

func (p *FeedProvider) RequestSingleUpdate(listener func(domain.LocationFix)) ports.Registration {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = listener
	p.mu.Unlock()
	return &feedRegistration{p: p, id: id}
}

type feedRegistration struct {
	p  *FeedProvider
	id int
}

func (r *feedRegistration) Remove() {
	r.p.mu.Lock()
	delete(r.p.listeners, r.id)
	r.p.mu.Unlock()
}
