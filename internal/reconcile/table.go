package reconcile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Table is one batch artifact held in memory: a header row and its records.
// Cell access goes through the column index so transforms can work on
// artifacts with differing schemas.
type Table struct {
	Cols []string
	Rows [][]string

	index map[string]int
}

func newTable(cols []string, rows [][]string) *Table {
	t := &Table{Cols: cols, Rows: rows}
	t.index = make(map[string]int, len(cols))
	for i, c := range cols {
		t.index[c] = i
	}
	return t
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Cell returns the value of a column in row i, or "" when the column is
// absent.
func (t *Table) Cell(i int, name string) string {
	j, ok := t.index[name]
	if !ok || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

// SetCell writes the value of a column in row i, adding the column to every
// row when it does not exist yet.
func (t *Table) SetCell(i int, name, value string) {
	j, ok := t.index[name]
	if !ok {
		j = t.addColumn(name)
	}
	t.Rows[i][j] = value
}

func (t *Table) addColumn(name string) int {
	j := len(t.Cols)
	t.Cols = append(t.Cols, name)
	t.index[name] = j
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
	return j
}

// Apply runs fn over every cell of the named column, when present.
func (t *Table) Apply(name string, fn func(string) string) {
	j, ok := t.index[name]
	if !ok {
		return
	}
	for i := range t.Rows {
		t.Rows[i][j] = fn(t.Rows[i][j])
	}
}

// readTable loads one batch CSV. An empty artifact (the legitimate empty
// trailing batch) yields an empty table.
func readTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return newTable(nil, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		// ragged rows pad out to the header width
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		rows = append(rows, rec)
	}
	return newTable(header, rows), nil
}

// readHeader returns just the column names of a batch CSV.
func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	return header, nil
}

// encode renders the table with its columns reordered to the given order.
// Columns missing from the table come out empty.
func (t *Table) encode(order []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(order); err != nil {
		return nil, err
	}
	out := make([]string, len(order))
	for i := range t.Rows {
		for j, name := range order {
			out[j] = t.Cell(i, name)
		}
		if err := w.Write(out); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
