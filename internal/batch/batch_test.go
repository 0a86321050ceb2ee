package batch_test

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/freeeve/gamefeatures/internal/batch"
	"github.com/freeeve/gamefeatures/internal/extract"
)

func features(pairs ...string) *extract.Features {
	f := extract.NewFeatures()
	for i := 0; i+1 < len(pairs); i += 2 {
		f.Set(pairs[i], pairs[i+1])
	}
	return f
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return rows
}

func runFiveRecords(t *testing.T, dir string) {
	t.Helper()
	acc := batch.NewAccumulator(batch.Config{
		OutputPath: dir,
		OutputName: "games",
		BatchSize:  2,
		Logger:     zerolog.Nop(),
	})
	for i := 1; i <= 5; i++ {
		f := features("Event", fmt.Sprintf("game %d", i), "Ply", "10")
		if i == 4 {
			f.Set("ExtraColumn", "only in batch 2")
		}
		if err := acc.Accept(f); err != nil {
			t.Fatalf("Accept %d: %v", i, err)
		}
	}
	total, err := acc.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if total != 5 {
		t.Errorf("total rows = %d, want 5", total)
	}
	if err := acc.WriteSchema(); err != nil {
		t.Fatalf("WriteSchema: %v", err)
	}
}

func TestBatchBoundaries(t *testing.T) {
	dir := t.TempDir()
	runFiveRecords(t, dir)

	wantSizes := map[int]int{1: 2, 2: 2, 3: 1}
	for ordinal, rows := range wantSizes {
		path := filepath.Join(dir, fmt.Sprintf("games_batch%d.csv", ordinal))
		got := readCSV(t, path)
		if len(got) != rows+1 { // header row included
			t.Errorf("batch %d: %d data rows, want %d", ordinal, len(got)-1, rows)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "games_batch4.csv")); err == nil {
		t.Error("unexpected fourth batch artifact")
	}

	// schema drift: ExtraColumn appears only in batch 2
	batch2 := readCSV(t, filepath.Join(dir, "games_batch2.csv"))
	if !contains(batch2[0], "ExtraColumn") {
		t.Error("batch 2 missing ExtraColumn")
	}
	batch1 := readCSV(t, filepath.Join(dir, "games_batch1.csv"))
	if contains(batch1[0], "ExtraColumn") {
		t.Error("batch 1 should not carry ExtraColumn")
	}
}

func TestManifestIsColumnUnionSorted(t *testing.T) {
	dir := t.TempDir()
	runFiveRecords(t, dir)

	data, err := os.ReadFile(filepath.Join(dir, "games_schema.txt"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	got := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	want := []string{"Event", "ExtraColumn", "Ply"}
	if len(got) != len(want) {
		t.Fatalf("manifest = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("manifest[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestIdempotentReruns(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	runFiveRecords(t, dir1)
	runFiveRecords(t, dir2)

	entries, err := os.ReadDir(dir1)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		a, err := os.ReadFile(filepath.Join(dir1, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(filepath.Join(dir2, e.Name()))
		if err != nil {
			t.Fatalf("missing %s on rerun: %v", e.Name(), err)
		}
		if string(a) != string(b) {
			t.Errorf("%s differs between identical runs", e.Name())
		}
	}
}

func TestEmptyRunStillEmitsOneArtifact(t *testing.T) {
	dir := t.TempDir()
	acc := batch.NewAccumulator(batch.Config{
		OutputPath: dir,
		OutputName: "empty",
		BatchSize:  2,
		Logger:     zerolog.Nop(),
	})
	total, err := acc.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
	info, err := os.Stat(filepath.Join(dir, "empty_batch1.csv"))
	if err != nil {
		t.Fatalf("empty artifact missing: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("empty artifact has %d bytes", info.Size())
	}
}

func TestArtifactWriteFailure(t *testing.T) {
	acc := batch.NewAccumulator(batch.Config{
		OutputPath: filepath.Join(t.TempDir(), "missing", "dir"),
		OutputName: "games",
		BatchSize:  1,
		Logger:     zerolog.Nop(),
	})
	err := acc.Accept(features("Event", "x"))
	if !errors.Is(err, batch.ErrArtifactWrite) {
		t.Fatalf("expected ErrArtifactWrite, got %v", err)
	}
}

func contains(row []string, name string) bool {
	for _, c := range row {
		if c == name {
			return true
		}
	}
	return false
}
