package domain

import (
	"errors"
	"fmt"
)

// Precondition errors are returned synchronously, before any I/O starts.
var (
	ErrNoConnectivity      = errors.New("no active network connection")
	ErrProviderUnavailable = errors.New("positioning provider unavailable")
	ErrNoService           = errors.New("no mobile network service")
	ErrUnsupportedNetwork  = errors.New("unsupported network type")
	ErrStaleFix            = errors.New("location fix is outdated")
)

// In-flight errors only ever reach the terminal callback.
var (
	ErrNetworkIO = errors.New("network i/o failure")
	ErrParse     = errors.New("malformed response")
	ErrEmptyArea = errors.New("area query returned no cells")
	ErrCancelled = errors.New("request cancelled")
)

// ParseError reports a response body that did not decode to a valid shape.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse response: %s: %v", e.Reason, e.Err)
	}
	return "parse response: " + e.Reason
}

// Unwrap lets errors.Is match both ErrParse and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrParse, e.Err}
	}
	return []error{ErrParse}
}

// ServerError is a well-formed failure answer from the remote database.
type ServerError struct {
	Code string
	Info string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server rejected request: code=%s info=%s", e.Code, e.Info)
}
