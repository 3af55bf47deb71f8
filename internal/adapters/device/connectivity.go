package device

import (
	"context"
	"net"
	"time"
)

// Probe implements ports.ConnectivityChecker by dialing a TCP address. An
// empty address always reports connected.
type Probe struct {
	addr    string
	timeout time.Duration
	dialer  net.Dialer
}

// NewProbe creates a Probe for addr ("host:port").
func NewProbe(addr string, timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Probe{addr: addr, timeout: timeout}
}

// IsConnected reports whether addr accepts a connection within the timeout.
func (p *Probe) IsConnected(ctx context.Context) bool {
	if p.addr == "" {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
