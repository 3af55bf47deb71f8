package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundingBox is a rectangular viewport. Callers guarantee LonMin <= LonMax
// and LatMin <= LatMax.
type BoundingBox struct {
	LonMin float64 `json:"lon_min"`
	LatMin float64 `json:"lat_min"`
	LonMax float64 `json:"lon_max"`
	LatMax float64 `json:"lat_max"`
}

// IsZero reports whether all four edges are zero, which is what a map
// returns before its first layout.
func (b BoundingBox) IsZero() bool {
	return b.LonMin == 0 && b.LatMin == 0 && b.LonMax == 0 && b.LatMax == 0
}
