package usecases_test

import (
	"context"
	"strings"
	"testing"

	"github.com/lliebig/opencelldroid/internal/core/domain"
	"github.com/lliebig/opencelldroid/internal/core/usecases"
)

func TestViewportTracker(t *testing.T) {
	endpoints := make(chan string, 4)
	fetcher := &mockFetcher{fetchFn: func(ctx context.Context, e string) (string, error) {
		endpoints <- e
		return okArea, nil
	}}
	f := newGateway(t, fetcher, nil, nil, nil)
	v := usecases.NewViewportTracker(f.gateway, 0)
	ctx := context.Background()

	if h, err := v.Update(ctx, domain.BoundingBox{}); h != nil || err != nil {
		t.Fatalf("zero viewport should be ignored, got %v %v", h, err)
	}

	wide := domain.BoundingBox{LonMin: 13.0, LatMin: 52.0, LonMax: 14.0, LatMax: 53.0}
	h, err := v.Update(ctx, wide)
	if err != nil || h == nil {
		t.Fatalf("expected query, got %v %v", h, err)
	}
	if e := receive(t, endpoints); !strings.Contains(e, "BBOX=13,52,14,53&limit=50&") {
		t.Errorf("unexpected endpoint %s", e)
	}
	receive(t, f.observer.areas)

	zoomed := domain.BoundingBox{LonMin: 13.2, LatMin: 52.2, LonMax: 13.8, LatMax: 52.8}
	if h, _ := v.Update(ctx, zoomed); h != nil {
		t.Error("zoom-in should be skipped")
	}

	panned := domain.BoundingBox{LonMin: 13.5, LatMin: 52.0, LonMax: 14.5, LatMax: 53.0}
	if h, _ := v.Update(ctx, panned); h == nil {
		t.Error("pan should query")
	}
	receive(t, endpoints)

	v.Reset()
	if h, _ := v.Update(ctx, zoomed); h == nil {
		t.Error("reset should allow any viewport")
	}
}
