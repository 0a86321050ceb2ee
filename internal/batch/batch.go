// Package batch accumulates feature mappings into bounded batches, writes
// each batch out as a CSV artifact, and tracks the running column-name union
// for the schema manifest.
package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/freeeve/gamefeatures/internal/extract"
)

// ErrArtifactWrite is reported when persisting a batch or the manifest
// fails. Always fatal; previously emitted artifacts are left in place.
var ErrArtifactWrite = errors.New("artifact write failed")

// Config configures the accumulator.
type Config struct {
	OutputPath string // directory for artifacts, default "."
	OutputName string // base filename, default "lichess_games"
	BatchSize  int    // rows per batch, default 100000
	Logger     zerolog.Logger
}

// Accumulator collects feature mappings and emits fixed-size CSV batches.
// The last batch of a run may be smaller, or empty.
type Accumulator struct {
	cfg     Config
	ordinal int
	rows    []*extract.Features
	schema  SchemaSet
	log     zerolog.Logger
}

func NewAccumulator(cfg Config) *Accumulator {
	if cfg.OutputPath == "" {
		cfg.OutputPath = "."
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "lichess_games"
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100000
	}
	return &Accumulator{
		cfg:     cfg,
		ordinal: 1,
		schema:  NewSchemaSet(),
		log:     cfg.Logger,
	}
}

// Accept appends one game's features to the current batch, emitting the
// batch when it reaches capacity. Emission blocks until the artifact is on
// disk.
func (a *Accumulator) Accept(f *extract.Features) error {
	a.rows = append(a.rows, f)
	if len(a.rows) == a.cfg.BatchSize {
		return a.emit()
	}
	return nil
}

// Finalize flushes the trailing batch (even when empty, so every run emits
// at least one artifact) and returns the total row count of the run.
func (a *Accumulator) Finalize() (int64, error) {
	lastSize := len(a.rows)
	if err := a.emit(); err != nil {
		return 0, err
	}
	// ordinal has advanced past the final batch by now
	total := int64(a.ordinal-2)*int64(a.cfg.BatchSize) + int64(lastSize)
	return total, nil
}

// WriteSchema persists the column-name union observed across all emitted
// batches.
func (a *Accumulator) WriteSchema() error {
	path := filepath.Join(a.cfg.OutputPath, a.cfg.OutputName+"_schema.txt")
	return WriteManifest(path, a.schema)
}

// Schema returns the running column-name union.
func (a *Accumulator) Schema() SchemaSet {
	return a.schema
}

func (a *Accumulator) emit() error {
	path := filepath.Join(a.cfg.OutputPath, fmt.Sprintf("%s_batch%d.csv", a.cfg.OutputName, a.ordinal))

	// Column order is first-observed across the batch's rows, so identical
	// inputs produce byte-identical artifacts.
	var cols []string
	seen := make(map[string]int)
	for _, row := range a.rows {
		for _, name := range row.Names() {
			if _, ok := seen[name]; !ok {
				seen[name] = len(cols)
				cols = append(cols, name)
			}
		}
	}

	if err := a.writeCSV(path, cols); err != nil {
		return err
	}

	for _, name := range cols {
		a.schema.Add(name)
	}

	a.log.Info().
		Int("batch", a.ordinal).
		Int("rows", len(a.rows)).
		Int("columns", len(cols)).
		Str("path", path).
		Msg("batch exported")

	a.ordinal++
	a.rows = a.rows[:0]
	return nil
}

func (a *Accumulator) writeCSV(path string, cols []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrArtifactWrite, path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(cols) > 0 {
		if err := w.Write(cols); err != nil {
			return fmt.Errorf("%w: header %s: %v", ErrArtifactWrite, path, err)
		}
	}

	record := make([]string, len(cols))
	for _, row := range a.rows {
		for i, name := range cols {
			v, ok := row.Get(name)
			if !ok {
				record[i] = ""
				continue
			}
			record[i] = formatValue(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("%w: row %s: %v", ErrArtifactWrite, path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flush %s: %v", ErrArtifactWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrArtifactWrite, path, err)
	}
	return nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
