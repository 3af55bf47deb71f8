package device

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/lliebig/opencelldroid/internal/core/domain"
)

// Network types as reported by the modem.
const (
	NetworkUnknown = "unknown"
	NetworkGSM     = "gsm"
)

// ParseOperator builds a cell identity from the raw radio readings. operator
// is the MCCMNC string: three digits of country code followed by the network
// code. Only GSM cells are supported.
func ParseOperator(operator, networkType string, lac, cid int) (domain.CellIdentity, error) {
	networkType = strings.ToLower(strings.TrimSpace(networkType))
	if networkType == "" || networkType == NetworkUnknown {
		return domain.UnsetCell(), domain.ErrNoService
	}
	if len(operator) < 3 {
		return domain.UnsetCell(), domain.ErrNoService
	}

	mcc, err1 := strconv.Atoi(operator[:3])
	mnc, err2 := strconv.Atoi(operator[3:])
	if err1 != nil || err2 != nil {
		slog.Warn("invalid network operator", "operator", operator)
		return domain.UnsetCell(), domain.ErrUnsupportedNetwork
	}

	if networkType != NetworkGSM {
		slog.Warn("not a gsm network", "network_type", networkType)
		return domain.UnsetCell(), domain.ErrUnsupportedNetwork
	}
	if lac == domain.Unset || cid == domain.Unset {
		return domain.UnsetCell(), domain.ErrNoService
	}

	return domain.CellIdentity{MCC: mcc, MNC: mnc, LAC: lac, CellID: cid}, nil
}

// RadioReading is one raw snapshot of the serving cell.
type RadioReading struct {
	Operator    string `json:"network_operator"`
	NetworkType string `json:"network_type"`
	LAC         int    `json:"lac"`
	CellID      int    `json:"cell_id"`
}

// CellReader implements ports.CellIdentityReader over the latest radio
// reading, which may be replaced at any time.
type CellReader struct {
	mu      sync.RWMutex
	reading RadioReading
}

// NewCellReader creates a CellReader starting from initial.
func NewCellReader(initial RadioReading) *CellReader {
	return &CellReader{reading: initial}
}

// Update replaces the current reading.
func (r *CellReader) Update(reading RadioReading) {
	r.mu.Lock()
	r.reading = reading
	r.mu.Unlock()
}

// CurrentCell parses the current reading.
func (r *CellReader) CurrentCell(ctx context.Context) (domain.CellIdentity, error) {
	r.mu.RLock()
	rd := r.reading
	r.mu.RUnlock()
	return ParseOperator(rd.Operator, rd.NetworkType, rd.LAC, rd.CellID)
}
