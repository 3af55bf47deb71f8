// Package mainloop provides the single interactive execution context that
// every observer callback runs on.
package mainloop

import (
	"context"
	"log/slog"
	"sync"
)

// Loop executes posted functions one at a time on the goroutine that calls
// Run. Post never blocks, so callbacks running on the loop may post again.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// New creates a loop with room for size queued functions before the queue
// grows.
func New(size int) *Loop {
	if size <= 0 {
		size = 64
	}
	return &Loop{
		pending: make([]func(), 0, size),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Post enqueues fn. It returns false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run drains the queue until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return
		case <-l.done:
			return
		case <-l.wake:
			if !l.drain(ctx) {
				return
			}
		}
	}
}

// drain runs queued functions in posting order. It returns false when the
// loop stopped meanwhile.
func (l *Loop) drain(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return false
		case <-l.done:
			return false
		default:
		}

		fn := l.next()
		if fn == nil {
			return true
		}
		l.invoke(fn)
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return nil
	}
	fn := l.pending[0]
	l.pending[0] = nil
	l.pending = l.pending[1:]
	return fn
}

// Len returns the number of functions waiting to run.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Stop terminates Run. Functions still queued are dropped.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.done) })
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("main loop callback panicked", "panic", r)
		}
	}()
	fn()
}
