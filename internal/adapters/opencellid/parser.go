package opencellid

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"golang.org/x/net/html/charset"

	"github.com/lliebig/opencelldroid/internal/core/domain"
)

const (
	tagResponse = "rsp"
	tagError    = "err"
	tagCell     = "cell"

	statOK   = "ok"
	statFail = "fail"
)

// document is the state accumulated while walking the token stream.
type document struct {
	stat    string
	hasStat bool
	errCode string
	errInfo string
	cells   []domain.CellReport
}

// ParseAddCell returns true iff the root carries stat="ok". A stat="fail"
// answer yields false and a *domain.ServerError; anything else yields a
// *domain.ParseError.
func ParseAddCell(r io.Reader) (bool, error) {
	doc, err := walk(r, false)
	if err != nil {
		return false, err
	}
	switch {
	case !doc.hasStat:
		return false, &domain.ParseError{Reason: "missing stat attribute"}
	case doc.stat == statOK:
		return true, nil
	case doc.stat == statFail:
		slog.Warn("add cell rejected", "code", doc.errCode, "info", doc.errInfo)
		return false, &domain.ServerError{Code: doc.errCode, Info: doc.errInfo}
	default:
		return false, &domain.ParseError{Reason: fmt.Sprintf("unexpected stat %q", doc.stat)}
	}
}

// ParseArea returns the cells of a stat="ok" answer in document order. An ok
// answer without cells is reported as domain.ErrEmptyArea. A cell with a
// missing or non-numeric attribute aborts the whole parse.
func ParseArea(r io.Reader) ([]domain.CellReport, error) {
	doc, err := walk(r, true)
	if err != nil {
		return nil, err
	}
	switch {
	case !doc.hasStat:
		return nil, &domain.ParseError{Reason: "missing stat attribute"}
	case doc.stat == statOK:
		if len(doc.cells) == 0 {
			return nil, domain.ErrEmptyArea
		}
		return doc.cells, nil
	case doc.stat == statFail:
		slog.Warn("area query rejected", "code", doc.errCode, "info", doc.errInfo)
		return nil, &domain.ServerError{Code: doc.errCode, Info: doc.errInfo}
	default:
		return nil, &domain.ParseError{Reason: fmt.Sprintf("unexpected stat %q", doc.stat)}
	}
}

func walk(r io.Reader, collectCells bool) (*document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	doc := &document{}
	sawRoot := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.ParseError{Reason: "invalid xml", Err: err}
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true

		switch start.Name.Local {
		case tagResponse:
			doc.stat, doc.hasStat = attr(start, "stat")
		case tagError:
			doc.errCode, _ = attr(start, "code")
			doc.errInfo, _ = attr(start, "info")
		case tagCell:
			if !collectCells {
				continue
			}
			cell, err := decodeCell(start)
			if err != nil {
				return nil, err
			}
			doc.cells = append(doc.cells, cell)
		}
	}

	if !sawRoot {
		return nil, &domain.ParseError{Reason: "empty document"}
	}
	return doc, nil
}

func decodeCell(start xml.StartElement) (domain.CellReport, error) {
	var (
		c    domain.CellIdentity
		p    domain.GeoPoint
		errs []error
	)
	c.MCC, errs = intAttr(start, "mcc", errs)
	c.MNC, errs = intAttr(start, "mnc", errs)
	c.LAC, errs = intAttr(start, "lac", errs)
	c.CellID, errs = intAttr(start, "cellId", errs)
	p.Lat, errs = floatAttr(start, "lat", errs)
	p.Lon, errs = floatAttr(start, "lon", errs)
	if len(errs) > 0 {
		return domain.CellReport{}, &domain.ParseError{Reason: "invalid cell record", Err: errors.Join(errs...)}
	}
	return domain.CellReport{Cell: c, Position: p}, nil
}

func attr(start xml.StartElement, name string) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func intAttr(start xml.StartElement, name string, errs []error) (int, []error) {
	raw, ok := attr(start, name)
	if !ok {
		return 0, append(errs, fmt.Errorf("missing %s", name))
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return v, errs
}

func floatAttr(start xml.StartElement, name string, errs []error) (float64, []error) {
	raw, ok := attr(start, name)
	if !ok {
		return 0, append(errs, fmt.Errorf("missing %s", name))
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return v, errs
}
