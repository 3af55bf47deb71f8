package domain

import "time"

// Channel names a logical request stream. At most one request per channel
// is in flight.
type Channel string

const (
	ChannelSubmit    Channel = "submit"
	ChannelQueryArea Channel = "query-area"
)

// Status is the terminal status of a remote operation.
type Status string

const (
	StatusOK    Status = "OK"
	StatusNotOK Status = "NOT_OK"
)

// MaxAreaLimit is the largest page the area endpoint accepts.
const MaxAreaLimit = 200

// SubmitResult is the terminal result of a submit operation.
type SubmitResult struct {
	RequestID string     `json:"request_id"`
	Status    Status     `json:"status"`
	Report    CellReport `json:"report"`
	Err       error      `json:"-"`
}

// AreaQueryResult is the terminal result of an area query. Cells is nil
// unless Status is OK.
type AreaQueryResult struct {
	RequestID string       `json:"request_id"`
	Status    Status       `json:"status"`
	Cells     []CellReport `json:"cells,omitempty"`
	Err       error        `json:"-"`
}

// AreaQuery describes one area lookup. MCC and MNC filter only when nonzero.
type AreaQuery struct {
	Box   BoundingBox `json:"box"`
	Limit int         `json:"limit"`
	MCC   int         `json:"mcc,omitempty"`
	MNC   int         `json:"mnc,omitempty"`
}

// RequestParams are per-operation settings handed to the protocol layer.
// In test mode submissions go out with mcc=1 and mnc=1.
type RequestParams struct {
	APIKey   string
	TestMode bool
}

// RequestDescriptor is one outbound exchange.
type RequestDescriptor struct {
	Channel  Channel
	Endpoint string
	// CacheKey enables the response cache when non-empty.
	CacheKey string
}

// SyncOutcome is the record of a terminal outcome, published and journaled
// after the observer has been notified.
type SyncOutcome struct {
	ID        string       `json:"id"`
	Channel   Channel      `json:"channel"`
	Status    Status       `json:"status"`
	Cells     int          `json:"cells"`
	Cached    bool         `json:"cached"`
	Error     string       `json:"error,omitempty"`
	Cell      *CellReport  `json:"cell,omitempty"`
	Box       *BoundingBox `json:"box,omitempty"`
	Duration  float64      `json:"duration_seconds"`
	CreatedAt time.Time    `json:"created_at"`
}
