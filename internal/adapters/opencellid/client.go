package opencellid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lliebig/opencelldroid/internal/core/domain"
)

// DefaultTimeout is used for both the connect and the read timeout.
const DefaultTimeout = 10 * time.Second

// Client implements ports.Fetcher over net/http.
type Client struct {
	http        *http.Client
	readTimeout time.Duration
	tracer      trace.Tracer
}

// NewClient builds a client whose dials give up after connectTimeout and
// whose reads give up after readTimeout without data.
func NewClient(connectTimeout, readTimeout time.Duration) *Client {
	if connectTimeout <= 0 {
		connectTimeout = DefaultTimeout
	}
	if readTimeout <= 0 {
		readTimeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: readTimeout,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Client{
		http:        &http.Client{Transport: transport},
		readTimeout: readTimeout,
		tracer:      otel.Tracer("github.com/lliebig/opencelldroid/opencellid"),
	}
}

// Fetch GETs endpoint and returns the body as text. Every failure is wrapped
// in domain.ErrNetworkIO, except cancellation which wraps ctx.Err().
func (c *Client) Fetch(parent context.Context, endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: malformed endpoint %q", domain.ErrNetworkIO, redact(endpoint))
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "opencellid.fetch", trace.WithAttributes(
		attribute.String("http.method", http.MethodGet),
		attribute.String("http.path", u.Path),
	))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", c.fail(parent, span, err)
	}
	req.Header.Set("Accept", "text/xml, application/xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.fail(parent, span, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return "", c.fail(parent, span, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	body, err := readAllIdle(resp.Body, c.readTimeout, cancel)
	if err != nil {
		return "", c.fail(parent, span, fmt.Errorf("read body: %w", err))
	}
	span.SetAttributes(attribute.Int("http.response_size", len(body)))
	return body, nil
}

// fail classifies err. Only cancellation of the caller's context counts as
// cancellation; the idle read timer cancels a derived context.
func (c *Client) fail(parent context.Context, span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if ctxErr := parent.Err(); ctxErr != nil {
		return fmt.Errorf("fetch: %w", ctxErr)
	}
	return fmt.Errorf("%w: %v", domain.ErrNetworkIO, err)
}

// readAllIdle reads r to the end, aborting through abort when no data
// arrives for idle.
func readAllIdle(r io.Reader, idle time.Duration, abort context.CancelFunc) (string, error) {
	var (
		mu       sync.Mutex
		timedOut bool
	)
	timer := time.AfterFunc(idle, func() {
		mu.Lock()
		timedOut = true
		mu.Unlock()
		abort()
	})
	defer timer.Stop()

	var b strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			timer.Reset(idle)
			b.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			mu.Lock()
			defer mu.Unlock()
			if timedOut {
				return "", fmt.Errorf("read timeout after %s: %w", idle, err)
			}
			return "", err
		}
	}
}

// redact drops the query string, which carries the API key.
func redact(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}
