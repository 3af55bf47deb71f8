package usecases_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lliebig/opencelldroid/internal/core/domain"
	"github.com/lliebig/opencelldroid/internal/pkg/mainloop"
)

// --- Mock ConnectivityChecker ---

type mockConnectivity struct {
	online atomic.Bool
}

func online() *mockConnectivity {
	c := &mockConnectivity{}
	c.online.Store(true)
	return c
}

func (m *mockConnectivity) IsConnected(ctx context.Context) bool { return m.online.Load() }

// --- Mock Fetcher ---

type mockFetcher struct {
	fetchFn func(ctx context.Context, endpoint string) (string, error)
	calls   atomic.Int32
}

func (m *mockFetcher) Fetch(ctx context.Context, endpoint string) (string, error) {
	m.calls.Add(1)
	if m.fetchFn != nil {
		return m.fetchFn(ctx, endpoint)
	}
	return "", nil
}

func staticFetcher(body string) *mockFetcher {
	return &mockFetcher{fetchFn: func(ctx context.Context, endpoint string) (string, error) {
		return body, nil
	}}
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets chan string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte), sets: make(chan string, 8)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	m.sets <- key
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// --- Mock EventPublisher / OutcomeRepository ---

type mockPublisher struct {
	published chan *domain.SyncOutcome
}

func (m *mockPublisher) PublishOutcome(ctx context.Context, o *domain.SyncOutcome) error {
	m.published <- o
	return nil
}

type mockJournal struct {
	inserted chan *domain.SyncOutcome
}

func (m *mockJournal) Insert(ctx context.Context, o *domain.SyncOutcome) error {
	m.inserted <- o
	return nil
}

func (m *mockJournal) Recent(ctx context.Context, ch domain.Channel, limit int) ([]domain.SyncOutcome, error) {
	return nil, nil
}

// --- Recording SyncObserver ---

type recordingObserver struct {
	submits chan domain.SubmitResult
	areas   chan domain.AreaQueryResult
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		submits: make(chan domain.SubmitResult, 8),
		areas:   make(chan domain.AreaQueryResult, 8),
	}
}

func (o *recordingObserver) OnCellSubmitted(r domain.SubmitResult) { o.submits <- r }
func (o *recordingObserver) OnAreaQueried(r domain.AreaQueryResult) { o.areas <- r }

// --- Recording FixObserver ---

type fixObserver struct {
	fixes    chan domain.LocationFix
	timeouts chan struct{}
}

func newFixObserver() *fixObserver {
	return &fixObserver{fixes: make(chan domain.LocationFix, 4), timeouts: make(chan struct{}, 4)}
}

func (o *fixObserver) OnFix(f domain.LocationFix) { o.fixes <- f }
func (o *fixObserver) OnFixTimeout()              { o.timeouts <- struct{}{} }

// --- Helpers ---

func startLoop(t *testing.T) *mainloop.Loop {
	t.Helper()
	loop := mainloop.New(32)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(cancel)
	return loop
}

// countingExecutor runs functions inline and counts them.
type countingExecutor struct {
	posts atomic.Int32
}

func (e *countingExecutor) Post(fn func()) bool {
	e.posts.Add(1)
	fn()
	return true
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	var zero T
	return zero
}

func expectNone[T any](t *testing.T, ch <-chan T, wait time.Duration) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected callback: %+v", v)
	case <-time.After(wait):
	}
}
