package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/catalogkit/attrimport/internal/catalog/pg"
	"github.com/catalogkit/attrimport/internal/config"
	"github.com/catalogkit/attrimport/internal/csvfile"
	"github.com/catalogkit/attrimport/internal/importer"
	"github.com/catalogkit/attrimport/internal/logging"
)

var (
	flagType     string
	flagBehavior string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "attrimport <file.csv>",
	Short: "Import catalog attribute definitions from CSV",
	Long: `attrimport reconciles CSV attribute definitions against the catalog
metadata store: it creates, updates, or deletes attributes (with options,
store-scoped labels, and attribute-set assignment) and bulk-deletes
attribute sets.

Relative CSV paths resolve against IMPORT_VAR_DIR.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runImport,
}

func init() {
	rootCmd.Flags().StringVar(&flagType, "type", string(importer.TypeAttribute),
		"what the rows describe: attribute or attribute-set")
	rootCmd.Flags().StringVar(&flagBehavior, "behavior", string(importer.BehaviorAdd),
		"row behavior: add, update, or delete")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"emit per-row diagnostics (merges, fallbacks, store-mapping misses)")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return err
	}

	level := cfg.Logging.Level
	if flagVerbose {
		level = "debug"
	}
	logging.Setup(level, cfg.Logging.Format)

	// Reject bad flag combinations before touching the file or the
	// database.
	opts := importer.Options{
		Type:     importer.ImportType(flagType),
		Behavior: importer.Behavior(flagBehavior),
	}
	if err := opts.Validate(); err != nil {
		slog.Error("invalid import options", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, runID := logging.WithRun(ctx)
	log := logging.FromContext(ctx)

	path := args[0]
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.Import.VarDir, path)
	}
	if _, err := os.Stat(path); err != nil {
		log.Error("cannot read import file", "path", path, "error", err)
		return err
	}

	csvfile.MaxFileSize = cfg.Import.MaxFileSize
	tbl, err := csvfile.Load(path)
	if err != nil {
		log.Error("csv validation failed", "path", path, "error", err)
		return err
	}

	pool, err := connect(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return err
	}
	defer pool.Close()

	runner, err := importer.New(pg.New(pool), opts, log)
	if err != nil {
		log.Error("invalid import options", "error", err)
		return err
	}

	log.Info("import starting",
		"path", path,
		"type", flagType,
		"behavior", flagBehavior,
		"rows", len(tbl.Rows()),
	)

	start := time.Now()
	res, err := runner.Run(ctx, tbl)
	if err != nil {
		log.Error("import aborted", "error", err)
		return err
	}

	logSummary(log, opts, res, runID, time.Since(start))

	if res.Failed() {
		return fmt.Errorf("import completed with %d errors", res.Errors)
	}
	return nil
}

func connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// logSummary reports only the counters the behavior can change.
func logSummary(log *slog.Logger, opts importer.Options, res *importer.Result, runID string, dur time.Duration) {
	attrs := []any{"run_id", runID, "duration", dur.Round(time.Millisecond), "errors", res.Errors}

	switch {
	case opts.Type == importer.TypeAttributeSet:
		attrs = append(attrs, "deleted", res.Deleted, "skipped", res.Skipped)
	case opts.Behavior == importer.BehaviorDelete:
		attrs = append(attrs, "deleted", res.Deleted, "skipped", res.Skipped)
	case opts.Behavior == importer.BehaviorUpdate:
		attrs = append(attrs, "added", res.Added, "updated", res.Updated)
	default:
		attrs = append(attrs, "added", res.Added, "skipped", res.Skipped)
	}

	if res.Failed() {
		log.Error("import finished with errors", attrs...)
	} else {
		log.Info("import complete", attrs...)
	}
}
