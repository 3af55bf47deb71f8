package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	flag "github.com/spf13/pflag"

	"github.com/lliebig/opencelldroid/internal/adapters/device"
	"github.com/lliebig/opencelldroid/internal/adapters/http"
	natsadapter "github.com/lliebig/opencelldroid/internal/adapters/nats"
	"github.com/lliebig/opencelldroid/internal/adapters/opencellid"
	"github.com/lliebig/opencelldroid/internal/adapters/postgres"
	"github.com/lliebig/opencelldroid/internal/adapters/valkey"
	"github.com/lliebig/opencelldroid/internal/core/domain"
	"github.com/lliebig/opencelldroid/internal/core/ports"
	"github.com/lliebig/opencelldroid/internal/core/usecases"
	"github.com/lliebig/opencelldroid/internal/pkg/config"
	"github.com/lliebig/opencelldroid/internal/pkg/logging"
	"github.com/lliebig/opencelldroid/internal/pkg/mainloop"
	"github.com/lliebig/opencelldroid/internal/pkg/telemetry"
)

func main() {
	config.RegisterFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := config.Load("celldroid", flag.CommandLine)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Executor: every callback runs on this loop.
	loop := mainloop.New(256)
	go loop.Run(ctx)
	defer loop.Stop()

	deps := &http.Dependencies{}

	// Journal (optional)
	var journal ports.OutcomeRepository
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		repo := postgres.NewOutcomeRepo(db)
		journal, deps.DB, deps.Outcomes = repo, db, repo
	}

	// Area cache (optional)
	var cache ports.CacheService
	if cfg.Valkey.Addr != "" {
		c, err := valkey.New(cfg.Valkey.Addr, "celldroid:")
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer c.Close()
			cache, deps.Cache = c, c
		}
	}

	// Location feed and NATS
	feed := device.NewFeedProvider()
	var events ports.EventPublisher
	if cfg.NATS.URL != "" {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			events = pub
			deps.Publisher = pub
		}

		nc, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats fix feed unavailable", "error", err)
		} else {
			defer nc.Drain()
			sub, err := natsadapter.SubscribeFixes(nc, cfg.NATS.FixSubject, feed.Push)
			if err != nil {
				slog.Warn("fix subscription failed", "error", err)
			} else {
				defer sub.Close()
			}
			deps.NATS = nc
		}
	}

	// Engine
	probe := device.NewProbe(cfg.Connectivity.ProbeAddr, cfg.Connectivity.ProbeTimeout())
	radio := device.NewCellReader(device.RadioReading{
		Operator:    cfg.Cell.NetworkOperator,
		NetworkType: cfg.Cell.NetworkType,
		LAC:         cfg.Cell.LAC,
		CellID:      cfg.Cell.CellID,
	})
	client := opencellid.NewClient(cfg.OpenCellID.ConnectTimeout(), cfg.OpenCellID.ReadTimeout())
	lifecycle := usecases.NewRequestLifecycle(client, probe, loop, cache, usecases.LifecycleConfig{
		MaxConcurrent: cfg.OpenCellID.MaxConcurrent,
		CacheTTL:      cfg.Cache.AreaTTLSeconds,
	})

	hub := http.NewHub()
	router := usecases.NewCallbackRouter(loop)
	router.Register(hub)

	gateway := usecases.NewSyncGateway(lifecycle, opencellid.NewProtocol(cfg.OpenCellID.BaseURL), router,
		domain.RequestParams{APIKey: cfg.OpenCellID.APIKey, TestMode: cfg.OpenCellID.TestMode},
		events, journal)
	gps := usecases.NewGpsController(feed, loop, usecases.GpsConfig{
		MaxFixAge: cfg.GPS.MaxFixAge(),
		Timeout:   cfg.GPS.Timeout(),
	})

	deps.Gateway = gateway
	deps.Reporter = usecases.NewCellReporter(radio, gateway, cfg.GPS.MaxFixAge(), nil)
	deps.Viewport = usecases.NewViewportTracker(gateway, cfg.Viewport.Limit)
	deps.GPS = gps
	deps.Hub = hub
	deps.Feed = feed
	deps.Radio = radio
	deps.Connectivity = probe

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:           time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:             64 * 1024,
		AppName:               "OpenCellDroid",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("celldroid starting", "addr", addr, "test_mode", cfg.OpenCellID.TestMode)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received", "signal", sig.String())

	gateway.CancelAll()
	gps.Cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
