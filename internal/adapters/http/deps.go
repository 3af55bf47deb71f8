package http

import (
	"github.com/nats-io/nats.go"

	"github.com/lliebig/opencelldroid/internal/adapters/device"
	"github.com/lliebig/opencelldroid/internal/adapters/postgres"
	"github.com/lliebig/opencelldroid/internal/adapters/valkey"
	"github.com/lliebig/opencelldroid/internal/core/ports"
	"github.com/lliebig/opencelldroid/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers. Everything below
// Hub is optional.
type Dependencies struct {
	Gateway  *usecases.SyncGateway
	Reporter *usecases.CellReporter
	Viewport *usecases.ViewportTracker
	GPS      *usecases.GpsController
	Hub      *Hub

	Feed         *device.FeedProvider
	Radio        *device.CellReader
	Connectivity ports.ConnectivityChecker
	Outcomes     ports.OutcomeRepository
	NATS         *nats.Conn
	Publisher    HealthReporter
	DB           *postgres.DB
	Cache        *valkey.Cache
}

// HealthReporter is a backend that knows whether its connection is up.
type HealthReporter interface {
	Healthy() bool
}
