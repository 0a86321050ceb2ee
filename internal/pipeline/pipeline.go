// Package pipeline wires the record assembler, feature extractor, and batch
// accumulator into the single sequential processing loop.
package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/freeeve/gamefeatures/internal/assemble"
	"github.com/freeeve/gamefeatures/internal/batch"
	"github.com/freeeve/gamefeatures/internal/config"
	"github.com/freeeve/gamefeatures/internal/extract"
	"github.com/freeeve/gamefeatures/internal/rules"
)

// maxLineSize bounds a single movetext line. Annotated bullet games run a
// few tens of KB; 16MB leaves plenty of headroom.
const maxLineSize = 16 * 1024 * 1024

// Config configures one pipeline run.
type Config struct {
	Extract config.Extract
	Engine  rules.Engine   // rules engine; defaults to the pgn-backed one
	Logger  zerolog.Logger // logger
}

// Stats summarizes a completed run.
type Stats struct {
	Games   int64 // records extracted into batches
	Skipped int64 // records dropped for malformed headers or movetext
	Rows    int64 // total rows across all emitted artifacts
	Lines   int   // stream lines consumed, including skipped and blank
}

// Pipeline consumes a line stream and emits CSV batch artifacts plus the
// schema manifest. Single-threaded: each record is fully extracted and folded
// into the current batch before the next line is read.
type Pipeline struct {
	cfg Config
	log zerolog.Logger
}

func New(cfg Config) *Pipeline {
	if cfg.Engine == nil {
		cfg.Engine = rules.NewPGNEngine()
	}
	log := cfg.Logger.With().Str("run_id", uuid.NewString()).Logger()
	return &Pipeline{cfg: cfg, log: log}
}

// Run processes the stream front to back. Malformed records are skipped and
// logged unless Strict is set; artifact write failures are always fatal. A
// stream ending mid-record reports a truncated trailing record error after
// the emitted artifacts and manifest are safely on disk.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (Stats, error) {
	ec := p.cfg.Extract
	asm := assemble.New(ec.SkipLines)
	ext := extract.New(p.cfg.Engine, ec.MaxPly)
	acc := batch.NewAccumulator(batch.Config{
		OutputPath: ec.OutputPath,
		OutputName: ec.OutputName,
		BatchSize:  ec.BatchSize,
		Logger:     p.log,
	})

	p.log.Info().
		Int("max_ply", ec.MaxPly).
		Int("batch_size", ec.BatchSize).
		Int("skip_lines", ec.SkipLines).
		Bool("strict", ec.Strict).
		Msg("starting extraction run")

	var stats Stats
	stopped := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		rec, ok := asm.Feed(scanner.Text())
		if !ok {
			continue
		}

		feats, err := ext.Extract(rec)
		if err != nil {
			if ec.Strict || !recoverable(err) {
				stats.Lines = asm.LineCount()
				return stats, err
			}
			stats.Skipped++
			p.log.Warn().Err(err).Msg("skipping malformed record")
			continue
		}

		if err := acc.Accept(feats); err != nil {
			stats.Lines = asm.LineCount()
			return stats, err
		}
		stats.Games++

		// Closing the input is the normal stop signal; cancellation just
		// stops reading early and finalizes what we have.
		select {
		case <-ctx.Done():
			stopped = true
		default:
		}
		if stopped {
			p.log.Info().Msg("cancelled, finalizing early")
			break
		}
	}
	stats.Lines = asm.LineCount()

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read stream: %w", err)
	}

	rows, err := acc.Finalize()
	if err != nil {
		return stats, err
	}
	stats.Rows = rows

	if err := acc.WriteSchema(); err != nil {
		return stats, err
	}

	p.log.Info().
		Int64("games", stats.Games).
		Int64("skipped", stats.Skipped).
		Int64("rows", stats.Rows).
		Int("lines", stats.Lines).
		Msg("extraction run complete")

	if stopped {
		return stats, ctx.Err()
	}
	if err := asm.Finish(); err != nil {
		return stats, err
	}
	return stats, nil
}

// recoverable reports whether a record-level error may be skipped under the
// default policy.
func recoverable(err error) bool {
	return errors.Is(err, extract.ErrMalformedHeader) || errors.Is(err, extract.ErrMalformedMovetext)
}
