package natsadapter_test

import (
	"testing"

	natsadapter "github.com/lliebig/opencelldroid/internal/adapters/nats"
	"github.com/lliebig/opencelldroid/internal/core/domain"
)

func TestDecodeFix(t *testing.T) {
	fix, err := natsadapter.DecodeFix([]byte(`{"lat":43.26,"lon":-2.93,"captured_at":1700000000000}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fix.Lat != 43.26 || fix.Lon != -2.93 || fix.CapturedAtEpochMillis != 1700000000000 {
		t.Errorf("unexpected fix %+v", fix)
	}

	for _, bad := range []string{`not json`, `{"lat":91,"lon":0}`, `{"lat":0,"lon":-181}`} {
		if _, err := natsadapter.DecodeFix([]byte(bad)); err == nil {
			t.Errorf("expected error for %s", bad)
		}
	}
}

func TestOutcomeSubject(t *testing.T) {
	if got := natsadapter.OutcomeSubject(domain.ChannelQueryArea); got != "cells.outcome.query_area" {
		t.Errorf("unexpected subject %s", got)
	}
	if got := natsadapter.OutcomeSubject(domain.ChannelSubmit); got != "cells.outcome.submit" {
		t.Errorf("unexpected subject %s", got)
	}
}
