package domain

import "time"

// DefaultMaxFixAge is how long a satellite fix stays usable. The same value
// gates both skipping a new GPS request and allowing a manual submission.
const DefaultMaxFixAge = 120 * time.Second

// DefaultFixTimeout bounds one wait for a fresh fix.
const DefaultFixTimeout = 45 * time.Second

// LocationFix is a single reading from the positioning provider.
type LocationFix struct {
	Lat                   float64 `json:"lat"`
	Lon                   float64 `json:"lon"`
	CapturedAtEpochMillis int64   `json:"captured_at"`
}

// Point returns the position of the fix.
func (f LocationFix) Point() GeoPoint {
	return GeoPoint{Lat: f.Lat, Lon: f.Lon}
}

// CapturedAt returns the capture time.
func (f LocationFix) CapturedAt() time.Time {
	return time.UnixMilli(f.CapturedAtEpochMillis)
}

// IsFresh reports whether fix is younger than maxAgeMillis at nowMillis.
// A fix exactly maxAgeMillis old is stale.
func IsFresh(fix LocationFix, nowMillis, maxAgeMillis int64) bool {
	return nowMillis-fix.CapturedAtEpochMillis < maxAgeMillis
}

// FreshAt is IsFresh with time values.
func (f LocationFix) FreshAt(now time.Time, maxAge time.Duration) bool {
	return IsFresh(f, now.UnixMilli(), maxAge.Milliseconds())
}
