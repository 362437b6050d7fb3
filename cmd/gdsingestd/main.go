// Ingest daemon: consumes GDS dumps from NATS, parses them and stores the
// results. Configuration comes from the environment (see internal/config).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gds_parser/internal/config"
	"gds_parser/internal/ingest"
	_ "gds_parser/internal/parsers" // register all parsers via init()
	"gds_parser/internal/registry"
	"gds_parser/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	logger, err := zap.NewProduction()
	must(err)
	defer logger.Sync()
	log := logger.Sugar()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc := &ingest.Service{
		Log: log,
		Reg: registry.Default(),
	}

	if cfg.StoreSQLite {
		archive, err := storage.OpenArchive(cfg.ArchivePath)
		must(err)
		defer archive.Close()
		svc.Archive = archive
		log.Infow("archive open", "path", cfg.ArchivePath)
	}

	if cfg.StoreBackend {
		db, err := storage.Open(ctx, cfg.Storage)
		must(err)
		defer db.Close()
		must(db.CreateSchemas(ctx))
		svc.Backend = db
		log.Infow("backend stores open",
			"postgres", cfg.Storage.Postgres.Host,
			"clickhouse", cfg.Storage.ClickHouse.Host,
		)
		go svc.StatsLoop(ctx, cfg.StatsInterval)
	}

	nc, err := nats.Connect(cfg.NATSURL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	must(err)
	defer nc.Drain()
	log.Infow("connected", "url", cfg.NATSURL)

	sub, err := svc.Subscribe(ctx, nc, cfg.SubjectRoot, cfg.QueueGroup)
	must(err)
	defer sub.Unsubscribe()

	<-ctx.Done()
	log.Info("shutting down")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
