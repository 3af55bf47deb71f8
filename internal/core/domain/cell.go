package domain

import "time"

// Unset marks a cell identity field that has not been read yet.
const Unset = -1

// CellIdentity identifies one cell tower sector.
type CellIdentity struct {
	MCC    int `json:"mcc"`
	MNC    int `json:"mnc"`
	LAC    int `json:"lac"`
	CellID int `json:"cell_id"`
}

// UnsetCell returns an identity with every field set to Unset.
func UnsetCell() CellIdentity {
	return CellIdentity{MCC: Unset, MNC: Unset, LAC: Unset, CellID: Unset}
}

// HasCellInfo is false when the radio reported no area or cell.
func (c CellIdentity) HasCellInfo() bool {
	return c.LAC != Unset && c.CellID != Unset
}

// CellReport pairs a cell with the position it was observed at.
type CellReport struct {
	Cell       CellIdentity `json:"cell"`
	Position   GeoPoint     `json:"position"`
	CapturedAt time.Time    `json:"captured_at,omitempty"`
}

// NewCellReport stamps the report with the submission time.
func NewCellReport(cell CellIdentity, pos GeoPoint, now time.Time) CellReport {
	return CellReport{Cell: cell, Position: pos, CapturedAt: now}
}
