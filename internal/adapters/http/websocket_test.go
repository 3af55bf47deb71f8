package http_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	handler "github.com/lliebig/opencelldroid/internal/adapters/http"
	"github.com/lliebig/opencelldroid/internal/core/domain"
)

func nextEvent(t *testing.T, ch <-chan []byte) map[string]any {
	t.Helper()
	select {
	case data := <-ch:
		var ev map[string]any
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("invalid event: %v", err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
	return nil
}

func TestHub_Broadcast(t *testing.T) {
	hub := handler.NewHub()
	events, unsubscribe := hub.Subscribe()

	hub.OnAreaQueried(domain.AreaQueryResult{RequestID: "r1", Status: domain.StatusNotOK, Err: errors.New("empty")})
	ev := nextEvent(t, events)
	if ev["type"] != handler.EventAreaQueried {
		t.Errorf("unexpected type %v", ev["type"])
	}
	data := ev["data"].(map[string]any)
	if data["status"] != "NOT_OK" || data["error"] != "empty" {
		t.Errorf("unexpected payload %v", data)
	}

	hub.OnFix(domain.LocationFix{Lat: 1, Lon: 2})
	if ev := nextEvent(t, events); ev["type"] != handler.EventFix {
		t.Errorf("unexpected type %v", ev["type"])
	}
	if fix, ok := hub.LastFix(); !ok || fix.Lon != 2 {
		t.Errorf("unexpected last fix %+v", fix)
	}

	unsubscribe()
	hub.OnFixTimeout()
	select {
	case <-events:
		t.Error("event after unsubscribe")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	hub := handler.NewHub()
	_, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.OnFixTimeout()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full client queue")
	}
}
