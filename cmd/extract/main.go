package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/klauspost/compress/zstd"

	"github.com/freeeve/gamefeatures/internal/config"
	"github.com/freeeve/gamefeatures/internal/logx"
	"github.com/freeeve/gamefeatures/internal/pipeline"
)

func main() {
	defaults := config.DefaultExtract()

	var (
		configPath = flag.String("config", "", "Optional YAML config file")
		inputPath  = flag.String("pgn", "", "Path to PGN file (supports .zst); defaults to stdin")
		outputPath = flag.String("output-path", defaults.OutputPath, "Directory for batch CSVs")
		outputName = flag.String("output-name", defaults.OutputName, "Base name for batch CSVs")
		maxPly     = flag.Int("max-ply", defaults.MaxPly, "Max plies to extract move-level features for")
		batchSize  = flag.Int("batch-size", defaults.BatchSize, "Rows per batch CSV")
		skipLines  = flag.Int("skip-lines", defaults.SkipLines, "Leading stream lines to skip before parsing")
		strict     = flag.Bool("strict", defaults.Strict, "Abort on malformed records instead of skipping")
		verbose    = flag.Bool("verbose", defaults.Verbose, "Per-batch progress logging")
	)
	flag.Parse()

	cfg := defaults
	if *configPath != "" {
		loaded, err := config.LoadExtract(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	// flags passed explicitly override the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output-path":
			cfg.OutputPath = *outputPath
		case "output-name":
			cfg.OutputName = *outputName
		case "max-ply":
			cfg.MaxPly = *maxPly
		case "batch-size":
			cfg.BatchSize = *batchSize
		case "skip-lines":
			cfg.SkipLines = *skipLines
		case "strict":
			cfg.Strict = *strict
		case "verbose":
			cfg.Verbose = *verbose
		}
	})

	logger := logx.NewLogger(cfg.Verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	in, closeIn, err := openInput(*inputPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open input")
	}
	defer closeIn()

	p := pipeline.New(pipeline.Config{
		Extract: cfg,
		Logger:  logger,
	})

	stats, err := p.Run(ctx, in)
	if err != nil {
		logger.Error().Err(err).
			Int64("games", stats.Games).
			Int("lines", stats.Lines).
			Msg("run failed")
		os.Exit(1)
	}
	logger.Info().
		Int64("games", stats.Games).
		Int64("skipped", stats.Skipped).
		Int64("rows", stats.Rows).
		Msg("done")
}

// openInput returns the line stream, transparently decompressing .zst input.
func openInput(path string) (io.Reader, func(), error) {
	if path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		return dec, func() { dec.Close(); f.Close() }, nil
	}
	return f, func() { f.Close() }, nil
}
