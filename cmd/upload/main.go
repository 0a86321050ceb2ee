package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/freeeve/gamefeatures/internal/logx"
	"github.com/freeeve/gamefeatures/internal/warehouse"
)

func main() {
	defaultDSN := os.Getenv("WAREHOUSE_DSN")

	var (
		csvDir  = flag.String("csv-dir", ".", "Directory holding reconciled CSVs")
		table   = flag.String("table", "", "Warehouse table to load into")
		dsn     = flag.String("dsn", defaultDSN, "Postgres connection string (default $WAREHOUSE_DSN)")
		verbose = flag.Bool("verbose", true, "Progress logging")
	)
	flag.Parse()

	if *table == "" || *dsn == "" {
		fmt.Fprintln(os.Stderr, "Usage: upload --table <name> [--csv-dir <dir>] [--dsn <conninfo>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger := logx.NewLogger(*verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	paths, err := filepath.Glob(filepath.Join(*csvDir, "*_batch*.csv"))
	if err != nil || len(paths) == 0 {
		logger.Fatal().Err(err).Str("dir", *csvDir).Msg("no reconciled CSVs found")
	}
	sort.Strings(paths)

	loader, err := warehouse.NewLoader(ctx, *dsn, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect warehouse")
	}
	defer loader.Close()

	if err := loader.EnsureTable(ctx, *table); err != nil {
		logger.Fatal().Err(err).Msg("ensure table")
	}

	var total int64
	for _, path := range paths {
		n, err := loader.LoadCSV(ctx, *table, path)
		if err != nil {
			logger.Error().Err(err).Str("file", path).Msg("load failed")
			os.Exit(1)
		}
		total += n
	}

	logger.Info().Int64("rows", total).Str("table", *table).Msg("load complete")
}
