// Command fixrelay replays location fixes from a JSON-lines file (or stdin)
// onto the NATS subject the celldroid daemon listens on.
package main

import (
	"bufio"
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	natsadapter "github.com/lliebig/opencelldroid/internal/adapters/nats"
	"github.com/lliebig/opencelldroid/internal/pkg/config"
	"github.com/lliebig/opencelldroid/internal/pkg/logging"
)

func main() {
	config.RegisterFlags(flag.CommandLine)
	input := flag.String("input", "-", "JSON-lines file of fixes, - for stdin")
	interval := flag.Duration("interval", time.Second, "delay between fixes")
	restamp := flag.Bool("restamp", true, "replace captured_at with the publish time")
	flag.Parse()

	cfg, err := config.Load("celldroid-fixrelay", flag.CommandLine)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	nc, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer nc.Drain()

	var r io.Reader = os.Stdin
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			log.Fatalf("open %s: %v", *input, err)
		}
		defer f.Close()
		r = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sent, skipped := 0, 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		fix, err := natsadapter.DecodeFix(line)
		if err != nil {
			slog.Warn("skip line", "error", err)
			skipped++
			continue
		}
		if *restamp {
			fix.CapturedAtEpochMillis = time.Now().UnixMilli()
		}
		if err := natsadapter.PublishFix(nc, cfg.NATS.FixSubject, fix); err != nil {
			log.Fatalf("publish: %v", err)
		}
		sent++
		slog.Debug("fix published", "lat", fix.Lat, "lon", fix.Lon)

		select {
		case <-ctx.Done():
			slog.Info("interrupted", "sent", sent, "skipped", skipped)
			return
		case <-time.After(*interval):
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("read input: %v", err)
	}
	slog.Info("relay finished", "sent", sent, "skipped", skipped, "subject", cfg.NATS.FixSubject)
}
