// Package main provides the vitalsink CLI entrypoint.
//
// Usage:
//
//	vitalsink replay [--config <path>] [--limit N] [--dry-run]
//	vitalsink config validate --config <path>
//
// Exit codes:
//   - 0: success
//   - 1: operational failure (store unreachable, replay errors)
//   - 2: invalid configuration or usage
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/urfave/cli/v2"

	"github.com/vitalsink/vitalsink/adapter"
	adapterredis "github.com/vitalsink/vitalsink/adapter/redis"
	"github.com/vitalsink/vitalsink/adapter/webhook"
	"github.com/vitalsink/vitalsink/config"
	"github.com/vitalsink/vitalsink/dedup"
	"github.com/vitalsink/vitalsink/pipeline"
	"github.com/vitalsink/vitalsink/store"
	"github.com/vitalsink/vitalsink/types"
)

const (
	exitSuccess     = 0
	exitOperational = 1
	exitUsage       = 2
)

func main() {
	app := &cli.App{
		Name:    "vitalsink",
		Usage:   "Health-metric ingestion pipeline tooling",
		Version: types.Version,
		Commands: []*cli.Command{
			replayCommand(),
			configCommand(),
		},
		ExitErrHandler: exitErrHandler,
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(exitOperational)
	}
}

// exitErrHandler handles errors from the CLI, respecting cli.ExitCoder.
func exitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitOperational)
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "config",
		Usage: "Path to vitalsink.yaml",
		Value: "vitalsink.yaml",
	}
}

func replayCommand() *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "Reprocess archived payloads that never completed",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum records to replay",
				Value: 100,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "List matching records without reprocessing",
			},
		},
		Action: replayAction,
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration tooling",
		Subcommands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "Parse and validate a config file",
				Flags:  []cli.Flag{configFlag()},
				Action: validateAction,
			},
		},
	}
}

func validateAction(c *cli.Context) error {
	path := c.String("config")
	if _, err := config.Load(path); err != nil {
		return cli.Exit(fmt.Sprintf("invalid: %v", err), exitUsage)
	}
	fmt.Printf("%s: ok\n", path)
	return nil
}

func replayAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid config: %v", err), exitUsage)
	}
	if cfg.Database.DSN == "" {
		return cli.Exit("database.dsn is required for replay", exitUsage)
	}

	ctx, cancel := signalContext()
	defer cancel()

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	archive := store.NewPostgresArchive(db)
	records, err := archive.ListUnfinished(ctx, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("list unfinished archives: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("nothing to replay")
		return nil
	}

	if c.Bool("dry-run") {
		for _, rec := range records {
			fmt.Printf("%s  user=%s  status=%-10s  %d bytes  received %s\n",
				rec.ID, rec.UserID, rec.Status, rec.SizeBytes,
				rec.ReceivedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	}

	p, closers, err := buildPipeline(cfg, db)
	if err != nil {
		return fmt.Errorf("assemble pipeline: %w", err)
	}
	defer closers()

	var failed int
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return cli.Exit("interrupted", exitOperational)
		}
		if err := replayOne(ctx, p, archive, rec); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "replay %s: %v\n", rec.ID, err)
		}
	}

	fmt.Printf("replayed %d records, %d failed\n", len(records)-failed, failed)
	if failed > 0 {
		return cli.Exit("", exitOperational)
	}
	return nil
}

func replayOne(ctx context.Context, p *pipeline.Pipeline, archive store.Archive, rec types.RawIngestionRecord) error {
	raw, err := archive.Payload(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("load payload: %w", err)
	}
	payload, err := types.ParsePayload(raw)
	if err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}

	report, err := p.Ingest(ctx, rec.UserID, payload)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s (accepted=%d rejected=%d duplicated=%d failed=%d)\n",
		rec.ID, report.Status(), report.Accepted, report.Rejected,
		report.Duplicated, report.Failed)
	return nil
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if cfg.Database.ConnMaxLifetime.Duration > 0 {
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime.Duration)
	}
	return db, db.Ping()
}

// buildPipeline assembles the full pipeline from config. The returned closer
// releases the dedup cache and publisher.
func buildPipeline(cfg *config.Config, db *sql.DB) (*pipeline.Pipeline, func(), error) {
	metricStore := store.NewPostgresStore(db, store.WithMaxParameters(cfg.Batch.MaxParameters))
	archive := store.NewPostgresArchive(db)

	var cache dedup.Cache = dedup.NopCache{}
	if cfg.Dedup.RedisURL != "" {
		rc, err := dedup.NewRedisCache(dedup.RedisConfig{
			URL:       cfg.Dedup.RedisURL,
			KeyPrefix: cfg.Dedup.KeyPrefix,
			TTL:       cfg.Dedup.TTL.Duration,
			Timeout:   cfg.Dedup.Timeout.Duration,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("dedup cache: %w", err)
		}
		cache = rc
	}

	publisher, err := buildPublisher(cfg)
	if err != nil {
		return nil, nil, err
	}

	p := pipeline.New(cfg, metricStore, archive, cache, pipeline.WithPublisher(publisher))
	closers := func() {
		_ = cache.Close()
		_ = publisher.Close()
	}
	return p, closers, nil
}

func buildPublisher(cfg *config.Config) (adapter.Adapter, error) {
	switch cfg.Adapter.Type {
	case "", "none":
		return adapter.Nop{}, nil
	case "redis":
		return adapterredis.New(adapterredis.Config{
			URL:     cfg.Adapter.URL,
			Channel: cfg.Adapter.Channel,
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: adapterredis.DefaultRetries,
		})
	case "webhook":
		return webhook.New(webhook.Config{
			URL:     cfg.Adapter.URL,
			Headers: cfg.Adapter.Headers,
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: webhook.DefaultRetries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter type %q", cfg.Adapter.Type)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}
