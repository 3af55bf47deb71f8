package natsadapter

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/lliebig/opencelldroid/internal/core/domain"
)

// FixSubscriber receives location fixes published on a plain subject, e.g.
// by the fixrelay command.
type FixSubscriber struct {
	sub *nats.Subscription
}

// SubscribeFixes decodes each message on subject as a domain.LocationFix
// and hands it to handler. Undecodable messages are dropped.
func SubscribeFixes(conn *nats.Conn, subject string, handler func(domain.LocationFix)) (*FixSubscriber, error) {
	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		fix, err := DecodeFix(msg.Data)
		if err != nil {
			slog.Warn("drop location fix", "subject", msg.Subject, "error", err)
			return
		}
		handler(fix)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return &FixSubscriber{sub: sub}, nil
}

// DecodeFix parses a JSON location fix.
func DecodeFix(data []byte) (domain.LocationFix, error) {
	var fix domain.LocationFix
	if err := json.Unmarshal(data, &fix); err != nil {
		return fix, fmt.Errorf("decode fix: %w", err)
	}
	if fix.Lat < -90 || fix.Lat > 90 || fix.Lon < -180 || fix.Lon > 180 {
		return fix, fmt.Errorf("decode fix: coordinates out of range (%g, %g)", fix.Lat, fix.Lon)
	}
	return fix, nil
}

// PublishFix publishes fix as JSON on subject.
func PublishFix(conn *nats.Conn, subject string, fix domain.LocationFix) error {
	data, err := json.Marshal(fix)
	if err != nil {
		return err
	}
	return conn.Publish(subject, data)
}

// Close unsubscribes.
func (s *FixSubscriber) Close() {
	_ = s.sub.Unsubscribe()
}
