// Package opencellid speaks the OpenCellID measurement API: it builds the
// submit and area endpoints, fetches them, and decodes the XML answers.
package opencellid

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/lliebig/opencelldroid/internal/core/domain"
)

// DefaultBaseURL is the public OpenCellID service.
const DefaultBaseURL = "http://www.opencellid.org/"

const (
	submitPath = "measure/add"
	areaPath   = "cell/getInArea"
	testCode   = 1
)

// Protocol implements ports.CellProtocol for one service base URL.
type Protocol struct {
	baseURL string
}

// NewProtocol creates a Protocol. An empty baseURL selects DefaultBaseURL.
func NewProtocol(baseURL string) *Protocol {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Protocol{baseURL: baseURL}
}

// SubmitEndpoint encodes key, mnc, mcc, lac, cellid, lat, lon in that order.
// url.Values would sort the keys.
func (p *Protocol) SubmitEndpoint(report domain.CellReport, params domain.RequestParams) string {
	mcc, mnc := report.Cell.MCC, report.Cell.MNC
	if params.TestMode {
		mcc, mnc = testCode, testCode
	}

	var b strings.Builder
	b.WriteString(p.baseURL)
	b.WriteString(submitPath)
	b.WriteString("?key=")
	b.WriteString(url.QueryEscape(params.APIKey))
	writeInt(&b, "mnc", mnc)
	writeInt(&b, "mcc", mcc)
	writeInt(&b, "lac", report.Cell.LAC)
	writeInt(&b, "cellid", report.Cell.CellID)
	writeFloat(&b, "lat", report.Position.Lat)
	writeFloat(&b, "lon", report.Position.Lon)
	return b.String()
}

// AreaEndpoint encodes the bounding box longitude first:
// BBOX=lonmin,latmin,lonmax,latmax.
func (p *Protocol) AreaEndpoint(q domain.AreaQuery) string {
	var b strings.Builder
	b.WriteString(p.baseURL)
	b.WriteString(areaPath)
	b.WriteString("?BBOX=")
	b.WriteString(strings.Join([]string{
		formatFloat(q.Box.LonMin),
		formatFloat(q.Box.LatMin),
		formatFloat(q.Box.LonMax),
		formatFloat(q.Box.LatMax),
	}, ","))
	writeInt(&b, "limit", q.Limit)
	if q.MNC != 0 {
		writeInt(&b, "mnc", q.MNC)
	}
	if q.MCC != 0 {
		writeInt(&b, "mcc", q.MCC)
	}
	b.WriteString("&fmt=xml")
	return b.String()
}

// ParseAddCell decodes a measure/add answer.
func (p *Protocol) ParseAddCell(body string) (bool, error) {
	return ParseAddCell(strings.NewReader(body))
}

// ParseArea decodes a cell/getInArea answer.
func (p *Protocol) ParseArea(body string) ([]domain.CellReport, error) {
	return ParseArea(strings.NewReader(body))
}

func writeInt(b *strings.Builder, name string, v int) {
	b.WriteByte('&')
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(strconv.Itoa(v))
}

func writeFloat(b *strings.Builder, name string, v float64) {
	b.WriteByte('&')
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(formatFloat(v))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
