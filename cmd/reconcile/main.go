package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/freeeve/gamefeatures/internal/logx"
	"github.com/freeeve/gamefeatures/internal/reconcile"
)

func main() {
	var (
		csvDir    = flag.String("csv-dir", ".", "Directory holding batch CSVs")
		outputDir = flag.String("output-dir", "", "Directory for reconciled CSVs (default: csv-dir)")
		bucket    = flag.String("bucket", "", "Object storage bucket for reconciled CSVs (optional)")
		prefix    = flag.String("path", "", "Object key prefix inside the bucket")
		verbose   = flag.Bool("verbose", true, "Progress logging")
	)
	flag.Parse()

	logger := logx.NewLogger(*verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := reconcile.Config{
		InputDir:  *csvDir,
		OutputDir: *outputDir,
		Bucket:    *bucket,
		Prefix:    *prefix,
		Logger:    logger,
	}

	if *bucket != "" {
		store, err := reconcile.NewS3Store(
			os.Getenv("OBJECT_STORE_ENDPOINT"),
			os.Getenv("OBJECT_STORE_ACCESS_KEY"),
			os.Getenv("OBJECT_STORE_SECRET_KEY"),
			os.Getenv("OBJECT_STORE_USE_SSL") == "true",
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("object storage client")
		}
		if err := store.EnsureBucket(ctx, *bucket); err != nil {
			logger.Fatal().Err(err).Msg("ensure bucket")
		}
		cfg.Store = store
	}

	res, err := reconcile.Run(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("reconciliation failed")
		os.Exit(1)
	}
	logger.Info().
		Int("files", res.Files).
		Int("rows", res.Rows).
		Int("columns", res.Columns).
		Msg("done")
}
