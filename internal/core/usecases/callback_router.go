package usecases

import (
	"sync"

	"github.com/lliebig/opencelldroid/internal/core/domain"
	"github.com/lliebig/opencelldroid/internal/core/ports"
)

// CallbackRouter delivers gateway results to registered observers, always
// on the executor regardless of the producing goroutine. The gateway's
// terminal callbacks already run there and deliver inline.
type CallbackRouter struct {
	exec ports.Executor

	mu        sync.RWMutex
	nextID    int
	observers []registration
}

type registration struct {
	id  int
	obs ports.SyncObserver
}

// NewCallbackRouter creates a CallbackRouter.
func NewCallbackRouter(exec ports.Executor) *CallbackRouter {
	return &CallbackRouter{exec: exec}
}

// Register adds obs and returns a function removing it again.
func (r *CallbackRouter) Register(obs ports.SyncObserver) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.observers = append(r.observers, registration{id: id, obs: obs})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, reg := range r.observers {
			if reg.id == id {
				r.observers = append(r.observers[:i:i], r.observers[i+1:]...)
				return
			}
		}
	}
}

// CellSubmitted routes a submit result from any goroutine.
func (r *CallbackRouter) CellSubmitted(result domain.SubmitResult) {
	r.exec.Post(func() { r.deliverSubmitted(result) })
}

// AreaQueried routes an area query result from any goroutine.
func (r *CallbackRouter) AreaQueried(result domain.AreaQueryResult) {
	r.exec.Post(func() { r.deliverArea(result) })
}

// deliverSubmitted notifies observers inline; callers must be on the executor.
func (r *CallbackRouter) deliverSubmitted(result domain.SubmitResult) {
	for _, obs := range r.snapshot() {
		obs.OnCellSubmitted(result)
	}
}

// deliverArea notifies observers inline; callers must be on the executor.
func (r *CallbackRouter) deliverArea(result domain.AreaQueryResult) {
	for _, obs := range r.snapshot() {
		obs.OnAreaQueried(result)
	}
}

func (r *CallbackRouter) snapshot() []ports.SyncObserver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ports.SyncObserver, len(r.observers))
	for i, reg := range r.observers {
		out[i] = reg.obs
	}
	return out
}
