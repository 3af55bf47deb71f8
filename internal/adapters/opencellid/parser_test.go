package opencellid_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/lliebig/opencelldroid/internal/adapters/opencellid"
	"github.com/lliebig/opencelldroid/internal/core/domain"
)

func TestParseAddCell(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    bool
		wantErr error
	}{
		{"ok", `<?xml version="1.0" encoding="UTF-8"?><rsp stat="ok"><res>Cell inserted</res></rsp>`, true, nil},
		{"fail", `<rsp stat="fail"><err info="no key" code="21"/></rsp>`, false, nil},
		{"missing stat", `<rsp><res/></rsp>`, false, domain.ErrParse},
		{"unknown stat", `<rsp stat="maybe"/>`, false, domain.ErrParse},
		{"not xml", `Service Unavailable`, false, domain.ErrParse},
		{"empty", ``, false, domain.ErrParse},
		{"truncated", `<rsp stat="ok"><res>`, false, domain.ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := opencellid.ParseAddCell(strings.NewReader(tt.body))
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseAddCell_FailCapturesCodeAndInfo(t *testing.T) {
	ok, err := opencellid.ParseAddCell(strings.NewReader(`<rsp stat="fail"><err info="no key" code="21"/></rsp>`))
	if ok {
		t.Fatal("expected false")
	}
	var serr *domain.ServerError
	if !errors.As(err, &serr) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if serr.Code != "21" || serr.Info != "no key" {
		t.Errorf("unexpected code/info: %q/%q", serr.Code, serr.Info)
	}
}

func TestParseAddCell_MissingStatIsTyped(t *testing.T) {
	_, err := opencellid.ParseAddCell(strings.NewReader(`<rsp/>`))
	var perr *domain.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParseArea_TwoCellsInOrder(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<rsp stat="ok">
  <cell mcc="262" mnc="1" lac="4711" cellId="99" lat="52.5" lon="13.4" nbSamples="3"/>
  <cell mcc="262" mnc="2" lac="815" cellId="12345" lat="52.51" lon="-13.25"/>
</rsp>`

	cells, err := opencellid.ParseArea(strings.NewReader(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(cells))
	}

	first := cells[0]
	if first.Cell != (domain.CellIdentity{MCC: 262, MNC: 1, LAC: 4711, CellID: 99}) {
		t.Errorf("unexpected first cell: %+v", first.Cell)
	}
	if first.Position.Lat != 52.5 || first.Position.Lon != 13.4 {
		t.Errorf("unexpected first position: %+v", first.Position)
	}
	second := cells[1]
	if second.Cell.CellID != 12345 || second.Cell.MNC != 2 || second.Position.Lon != -13.25 {
		t.Errorf("unexpected second cell: %+v", second)
	}
}

func TestParseArea_EmptyOkIsFailure(t *testing.T) {
	cells, err := opencellid.ParseArea(strings.NewReader(`<rsp stat="ok"></rsp>`))
	if cells != nil {
		t.Errorf("expected nil cells, got %v", cells)
	}
	if !errors.Is(err, domain.ErrEmptyArea) {
		t.Errorf("expected ErrEmptyArea, got %v", err)
	}
}

func TestParseArea_Fail(t *testing.T) {
	cells, err := opencellid.ParseArea(strings.NewReader(`<rsp stat="fail"><err code="1" info="bad bbox"/></rsp>`))
	if cells != nil {
		t.Errorf("expected nil cells, got %v", cells)
	}
	var serr *domain.ServerError
	if !errors.As(err, &serr) || serr.Info != "bad bbox" {
		t.Errorf("expected ServerError with info, got %v", err)
	}
}

func TestParseArea_MalformedCellAbortsParse(t *testing.T) {
	body := `<rsp stat="ok">
  <cell mcc="262" mnc="1" lac="4711" cellId="99" lat="52.5" lon="13.4"/>
  <cell mcc="262" mnc="1" lac="x" cellId="100" lat="52.5"/>
</rsp>`

	cells, err := opencellid.ParseArea(strings.NewReader(body))
	if cells != nil {
		t.Errorf("expected no cells, got %d", len(cells))
	}
	var perr *domain.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !strings.Contains(err.Error(), "lac") || !strings.Contains(err.Error(), "missing lon") {
		t.Errorf("expected both attribute problems reported, got %v", err)
	}
}

func TestParseArea_MissingStat(t *testing.T) {
	_, err := opencellid.ParseArea(strings.NewReader(`<rsp><cell mcc="1" mnc="1" lac="1" cellId="1" lat="1" lon="1"/></rsp>`))
	if !errors.Is(err, domain.ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

func TestProtocol_ParseRoundTrip(t *testing.T) {
	p := opencellid.NewProtocol("")
	ok, err := p.ParseAddCell(`<rsp stat="ok"/>`)
	if err != nil || !ok {
		t.Errorf("expected ok, got %v %v", ok, err)
	}
}
