package geospatial

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/lliebig/opencelldroid/internal/core/domain"
)

const metersPerDegreeLat = 111320.0

// AroundPoint returns a bounding box around a point with the given radius in
// meters, clamped to valid coordinates. Near the poles the box spans every
// longitude.
func AroundPoint(lat, lon, radiusMeters float64) domain.BoundingBox {
	latDelta := radiusMeters / metersPerDegreeLat
	box := domain.BoundingBox{
		LonMin: -180,
		LatMin: math.Max(lat-latDelta, -90),
		LonMax: 180,
		LatMax: math.Min(lat+latDelta, 90),
	}

	cos := math.Cos(toRad(lat))
	if cos < 1e-9 {
		return box
	}
	lonDelta := radiusMeters / (metersPerDegreeLat * cos)
	if lonDelta < 180 {
		box.LonMin = math.Max(lon-lonDelta, -180)
		box.LonMax = math.Min(lon+lonDelta, 180)
	}
	return box
}

// Covers reports whether inner lies entirely within outer.
func Covers(outer, inner domain.BoundingBox) bool {
	return rect(outer).Contains(rect(inner))
}

func rect(b domain.BoundingBox) s2.Rect {
	return s2.Rect{
		Lat: r1.Interval{Lo: toRad(b.LatMin), Hi: toRad(b.LatMax)},
		Lng: s1.IntervalFromEndpoints(toRad(b.LonMin), toRad(b.LonMax)),
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
