// Package reconcile turns the per-batch CSV artifacts, whose schemas
// legitimately drift with game length, into warehouse-ready CSVs sharing one
// global column set: dates normalized, numeric and boolean columns cast,
// derived time-control features added, and every file padded to the column
// union.
package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Config configures a reconciliation run.
type Config struct {
	InputDir  string // directory holding batch CSVs
	OutputDir string // destination for rewritten CSVs, default InputDir
	Bucket    string // object storage bucket; empty disables upload
	Prefix    string // object key prefix inside the bucket
	Store     ObjectStore
	Logger    zerolog.Logger
}

// ObjectStore uploads reconciled artifacts to object storage.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, data []byte) error
}

// Result summarizes a reconciliation run.
type Result struct {
	Files   int
	Rows    int
	Columns int
}

// engineered columns get seeded into the union up front so padding covers
// them even when a file's source columns cannot derive them
var engineeredColumns = []string{"UTCDateTime", "StartTime", "Increment"}

// Run reconciles every batch CSV under cfg.InputDir and writes the merged
// schema manifest. Files are processed in name order for deterministic
// output.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = cfg.InputDir
	}
	log := cfg.Logger

	paths, err := filepath.Glob(filepath.Join(cfg.InputDir, "*.csv"))
	if err != nil {
		return Result{}, err
	}
	if len(paths) == 0 {
		return Result{}, fmt.Errorf("no batch CSVs under %s", cfg.InputDir)
	}
	sort.Strings(paths)

	// pass 1: global column union
	union := make(map[string]struct{})
	for _, c := range engineeredColumns {
		union[c] = struct{}{}
	}
	for _, path := range paths {
		header, err := readHeader(path)
		if err != nil {
			return Result{}, err
		}
		for _, c := range header {
			union[c] = struct{}{}
		}
	}
	allCols := make([]string, 0, len(union))
	for c := range union {
		allCols = append(allCols, c)
	}
	sort.Strings(allCols)

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return Result{}, err
	}

	// pass 2: rewrite each file against the union
	res := Result{Columns: len(allCols)}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		t, err := readTable(path)
		if err != nil {
			return res, err
		}

		fixDatesTimes(t)
		gametimeFeatures(t)
		castTypes(t, log)

		data, err := t.encode(allCols)
		if err != nil {
			return res, fmt.Errorf("encode %s: %w", path, err)
		}

		name := filepath.Base(path)
		outPath := filepath.Join(cfg.OutputDir, name)
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return res, fmt.Errorf("write %s: %w", outPath, err)
		}

		if cfg.Bucket != "" && cfg.Store != nil {
			key := name
			if cfg.Prefix != "" {
				key = strings.TrimSuffix(cfg.Prefix, "/") + "/" + name
			}
			if err := cfg.Store.PutObject(ctx, cfg.Bucket, key, data); err != nil {
				return res, fmt.Errorf("upload %s: %w", key, err)
			}
		}

		res.Files++
		res.Rows += len(t.Rows)
		log.Info().Str("file", name).Int("rows", len(t.Rows)).Msg("reconciled")
	}

	// merged manifest for warehouse table building
	manifest := filepath.Join(cfg.OutputDir, "warehouse_schema.txt")
	var b strings.Builder
	for _, c := range allCols {
		b.WriteString(c)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(manifest, []byte(b.String()), 0644); err != nil {
		return res, fmt.Errorf("write manifest: %w", err)
	}

	log.Info().Int("files", res.Files).Int("rows", res.Rows).Int("columns", res.Columns).Msg("reconciliation complete")
	return res, nil
}

// fixDatesTimes rewrites dotted PGN dates to dashed warehouse dates and
// derives the combined UTCDateTime column.
func fixDatesTimes(t *Table) {
	dotted := func(s string) string { return strings.ReplaceAll(s, ".", "-") }
	t.Apply("Date", dotted)
	t.Apply("UTCDate", dotted)

	if t.HasColumn("UTCDate") && t.HasColumn("UTCTime") {
		for i := range t.Rows {
			d, tm := t.Cell(i, "UTCDate"), t.Cell(i, "UTCTime")
			if d != "" && tm != "" {
				t.SetCell(i, "UTCDateTime", d+" "+tm)
			}
		}
	}
}

// gametimeFeatures splits TimeControl ("300+3") into StartTime and Increment.
func gametimeFeatures(t *Table) {
	if !t.HasColumn("TimeControl") {
		return
	}
	for i := range t.Rows {
		base, inc, ok := strings.Cut(t.Cell(i, "TimeControl"), "+")
		if !ok {
			continue
		}
		t.SetCell(i, "StartTime", base)
		t.SetCell(i, "Increment", inc)
	}
}

// castTypes nulls "-" placeholders everywhere and coerces the known numeric
// and boolean column families to canonical forms. Cells that fail to parse
// are nulled with a warning rather than aborting the run.
func castTypes(t *Table, log zerolog.Logger) {
	for _, row := range t.Rows {
		for i, cell := range row {
			if cell == "-" {
				row[i] = ""
			}
		}
	}

	for _, col := range t.Cols {
		switch {
		case strings.Contains(col, "evalaftermove"),
			strings.Contains(col, "timespent"),
			strings.Contains(col, "RatingDiff"),
			col == "StartTime", col == "Increment":
			t.Apply(col, func(s string) string { return castNumeric(col, s, log) })
		case strings.Contains(col, "eval_is_mate"):
			t.Apply(col, func(s string) string { return castBool(col, s, log) })
		}
	}
}

func castNumeric(col, s string, log zerolog.Logger) string {
	if s == "" {
		return ""
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Warn().Str("column", col).Str("value", s).Msg("unparsable numeric, nulled")
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func castBool(col, s string, log zerolog.Logger) string {
	switch strings.ToLower(s) {
	case "":
		return ""
	case "1", "true":
		return "true"
	case "0", "false":
		return "false"
	}
	log.Warn().Str("column", col).Str("value", s).Msg("unparsable bool, nulled")
	return ""
}
