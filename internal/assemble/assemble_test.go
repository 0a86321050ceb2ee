package assemble_test

import (
	"errors"
	"testing"

	"github.com/freeeve/gamefeatures/internal/assemble"
)

func feedAll(t *testing.T, a *assemble.Assembler, lines []string) []assemble.RawRecord {
	t.Helper()
	var recs []assemble.RawRecord
	for _, line := range lines {
		if rec, ok := a.Feed(line); ok {
			recs = append(recs, rec)
		}
	}
	return recs
}

func TestGroupsLinesIntoRecords(t *testing.T) {
	a := assemble.New(0)
	recs := feedAll(t, a, []string{
		`[Event "Rated Blitz game"]`,
		`[White "alice"]`,
		"",
		"1. e4 e5 1-0",
		"",
		`[Event "Casual game"]`,
		"1. d4 d5 1/2-1/2",
	})
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if got := len(recs[0].Headers()); got != 2 {
		t.Errorf("record 1: expected 2 header lines, got %d", got)
	}
	if recs[0].Movetext() != "1. e4 e5 1-0" {
		t.Errorf("record 1 movetext = %q", recs[0].Movetext())
	}
	if recs[0].StartLine != 1 {
		t.Errorf("record 1 start line = %d, want 1", recs[0].StartLine)
	}
	if recs[1].StartLine != 6 {
		t.Errorf("record 2 start line = %d, want 6", recs[1].StartLine)
	}
	if err := a.Finish(); err != nil {
		t.Errorf("Finish after clean stream: %v", err)
	}
}

func TestHeaderlessRecord(t *testing.T) {
	a := assemble.New(0)
	recs := feedAll(t, a, []string{"1. e4 e5 *"})
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if got := len(recs[0].Headers()); got != 0 {
		t.Errorf("expected 0 headers, got %d", got)
	}
}

func TestLeadingWhitespaceDigitTerminates(t *testing.T) {
	a := assemble.New(0)
	recs := feedAll(t, a, []string{
		`[Event "x"]`,
		"   1. e4 *",
	})
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Movetext() != "1. e4 *" {
		t.Errorf("movetext not trimmed: %q", recs[0].Movetext())
	}
}

func TestSkipLines(t *testing.T) {
	a := assemble.New(3)
	recs := feedAll(t, a, []string{
		`[Event "skipped"]`,
		"1. e4 *",
		"",
		`[Event "kept"]`,
		"1. d4 *",
	})
	if len(recs) != 1 {
		t.Fatalf("expected 1 record after skip, got %d", len(recs))
	}
	if recs[0].Headers()[0] != `[Event "kept"]` {
		t.Errorf("wrong record survived the skip: %v", recs[0].Lines)
	}
	if recs[0].StartLine != 4 {
		t.Errorf("start line = %d, want 4", recs[0].StartLine)
	}
}

func TestTruncatedTrailingRecord(t *testing.T) {
	a := assemble.New(0)
	feedAll(t, a, []string{
		"1. e4 *",
		`[Event "unfinished"]`,
		`[White "bob"]`,
	})
	err := a.Finish()
	if !errors.Is(err, assemble.ErrTruncatedRecord) {
		t.Fatalf("expected ErrTruncatedRecord, got %v", err)
	}
	// Finish drops the buffer; a second call reports clean
	if err := a.Finish(); err != nil {
		t.Errorf("second Finish: %v", err)
	}
}
