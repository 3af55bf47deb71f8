package geospatial_test

import (
	"math"
	"testing"

	"github.com/lliebig/opencelldroid/internal/core/domain"
	"github.com/lliebig/opencelldroid/internal/pkg/geospatial"
)

func TestAroundPoint(t *testing.T) {
	box := geospatial.AroundPoint(0, 10, 111320)
	if math.Abs(box.LatMin+1) > 1e-9 || math.Abs(box.LatMax-1) > 1e-9 {
		t.Errorf("expected one degree of latitude each way, got %+v", box)
	}
	if math.Abs(box.LonMin-9) > 1e-9 || math.Abs(box.LonMax-11) > 1e-9 {
		t.Errorf("expected one degree of longitude each way at the equator, got %+v", box)
	}
	if box.LonMin > box.LonMax || box.LatMin > box.LatMax {
		t.Error("box edges out of order")
	}
}

func TestCovers(t *testing.T) {
	outer := domain.BoundingBox{LonMin: 13.0, LatMin: 52.0, LonMax: 14.0, LatMax: 53.0}

	tests := []struct {
		name  string
		inner domain.BoundingBox
		want  bool
	}{
		{"zoom in", domain.BoundingBox{LonMin: 13.2, LatMin: 52.2, LonMax: 13.8, LatMax: 52.8}, true},
		{"same", outer, true},
		{"pan east", domain.BoundingBox{LonMin: 13.5, LatMin: 52.2, LonMax: 14.5, LatMax: 52.8}, false},
		{"zoom out", domain.BoundingBox{LonMin: 12.0, LatMin: 51.0, LonMax: 15.0, LatMax: 54.0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := geospatial.Covers(outer, tt.inner); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAroundPoint_Clamped(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     domain.BoundingBox
	}{
		{"north pole", 90, 10, domain.BoundingBox{LonMin: -180, LatMin: 90 - 1000/111320.0, LonMax: 180, LatMax: 90}},
		{"south pole", -90, 10, domain.BoundingBox{LonMin: -180, LatMin: -90, LonMax: 180, LatMax: -90 + 1000/111320.0}},
		{"antimeridian", 0, 179.999, domain.BoundingBox{LonMin: 179.999 - 1000/111320.0, LatMin: -1000 / 111320.0, LonMax: 180, LatMax: 1000 / 111320.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := geospatial.AroundPoint(tt.lat, tt.lon, 1000)
			for _, v := range []float64{got.LonMin, got.LatMin, got.LonMax, got.LatMax} {
				if math.IsInf(v, 0) || math.IsNaN(v) {
					t.Fatalf("non-finite edge in %+v", got)
				}
			}
			if math.Abs(got.LonMin-tt.want.LonMin) > 1e-6 || math.Abs(got.LonMax-tt.want.LonMax) > 1e-6 ||
				math.Abs(got.LatMin-tt.want.LatMin) > 1e-6 || math.Abs(got.LatMax-tt.want.LatMax) > 1e-6 {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
