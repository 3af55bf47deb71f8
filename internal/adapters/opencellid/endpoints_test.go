package opencellid_test

import (
	"strings"
	"testing"
	"time"

	"github.com/lliebig/opencelldroid/internal/adapters/opencellid"
	"github.com/lliebig/opencelldroid/internal/core/domain"
)

func berlinReport() domain.CellReport {
	return domain.NewCellReport(
		domain.CellIdentity{MCC: 262, MNC: 1, LAC: 4711, CellID: 99},
		domain.GeoPoint{Lat: 52.5, Lon: 13.4},
		time.Now(),
	)
}

func TestSubmitEndpoint_FieldOrder(t *testing.T) {
	p := opencellid.NewProtocol("http://cells.example.org")
	got := p.SubmitEndpoint(berlinReport(), domain.RequestParams{APIKey: "abc"})

	want := "http://cells.example.org/measure/add?key=abc&mnc=1&mcc=262&lac=4711&cellid=99&lat=52.5&lon=13.4"
	if got != want {
		t.Errorf("unexpected endpoint\n got: %s\nwant: %s", got, want)
	}
	if !strings.Contains(got, "mnc=1&mcc=262&lac=4711&cellid=99&lat=52.5&lon=13.4") {
		t.Error("parameter order broken")
	}
}

func TestSubmitEndpoint_TestMode(t *testing.T) {
	p := opencellid.NewProtocol("")
	got := p.SubmitEndpoint(berlinReport(), domain.RequestParams{APIKey: "k y", TestMode: true})

	if !strings.HasPrefix(got, opencellid.DefaultBaseURL+"measure/add?key=k+y&mnc=1&mcc=1&") {
		t.Errorf("expected test codes and escaped key, got %s", got)
	}
}

func TestAreaEndpoint_LongitudeFirst(t *testing.T) {
	p := opencellid.NewProtocol("http://cells.example.org/")
	got := p.AreaEndpoint(domain.AreaQuery{
		Box:   domain.BoundingBox{LonMin: 13.3, LatMin: 52.4, LonMax: 13.5, LatMax: 52.6},
		Limit: 150,
	})

	want := "http://cells.example.org/cell/getInArea?BBOX=13.3,52.4,13.5,52.6&limit=150&fmt=xml"
	if got != want {
		t.Errorf("unexpected endpoint\n got: %s\nwant: %s", got, want)
	}
}

func TestAreaEndpoint_Filters(t *testing.T) {
	p := opencellid.NewProtocol("http://cells.example.org/")

	tests := []struct {
		name     string
		mcc, mnc int
		want     string
	}{
		{"none", 0, 0, "&limit=50&fmt=xml"},
		{"country only", 262, 0, "&limit=50&mcc=262&fmt=xml"},
		{"both", 262, 2, "&limit=50&mnc=2&mcc=262&fmt=xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.AreaEndpoint(domain.AreaQuery{Limit: 50, MCC: tt.mcc, MNC: tt.mnc})
			if !strings.HasSuffix(got, tt.want) {
				t.Errorf("expected suffix %s, got %s", tt.want, got)
			}
		})
	}
}
