package main

import (
	"context"
	"log"
	"log/slog"

	flag "github.com/spf13/pflag"

	"github.com/lliebig/opencelldroid/internal/adapters/postgres"
	"github.com/lliebig/opencelldroid/internal/pkg/config"
	"github.com/lliebig/opencelldroid/internal/pkg/logging"
)

func main() {
	config.RegisterFlags(flag.CommandLine)
	flag.Parse()
	if flag.NArg() < 1 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("celldroid-migrate", flag.CommandLine)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, "text")

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch flag.Arg(0) {
	case "up":
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		slog.Info("all migrations applied")
	case "down":
		if _, err := db.Pool.Exec(ctx, `DROP TABLE IF EXISTS sync_outcomes`); err != nil {
			log.Fatalf("down: %v", err)
		}
		slog.Info("journal dropped")
	default:
		log.Fatalf("unknown command: %s", flag.Arg(0))
	}
}
