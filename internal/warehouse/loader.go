package warehouse

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Loader bulk-loads reconciled CSVs into a Postgres table via COPY.
type Loader struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewLoader(ctx context.Context, dsn string, log zerolog.Logger) (*Loader, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect warehouse: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping warehouse: %w", err)
	}
	return &Loader{pool: pool, log: log}, nil
}

func (l *Loader) Close() {
	l.pool.Close()
}

// EnsureTable creates the target table from the fixed schema when absent.
func (l *Loader) EnsureTable(ctx context.Context, table string) error {
	cols := make([]string, len(Schema))
	for i, c := range Schema {
		cols[i] = pgx.Identifier{c.Name}.Sanitize() + " " + c.Type.sqlType()
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		pgx.Identifier{table}.Sanitize(), strings.Join(cols, ", "))
	if _, err := l.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// LoadCSV copies one reconciled CSV into the table and returns the number of
// rows loaded. CSV columns not in the fixed schema are ignored; schema
// columns missing from the CSV load as NULL.
func (l *Loader) LoadCSV(ctx context.Context, table, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read header %s: %w", path, err)
	}

	// csv position of each schema column, -1 when absent
	pos := make([]int, len(Schema))
	for i, c := range Schema {
		pos[i] = -1
		for j, h := range header {
			if h == c.Name {
				pos[i] = j
				break
			}
		}
	}

	var rows [][]any
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", path, err)
		}
		line++

		row := make([]any, len(Schema))
		for i, c := range Schema {
			cell := ""
			if pos[i] >= 0 && pos[i] < len(rec) {
				cell = rec[pos[i]]
			}
			v, err := convert(cell, c.Type)
			if err != nil {
				return 0, fmt.Errorf("%s line %d column %s: %w", path, line, c.Name, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}

	colNames := make([]string, len(Schema))
	for i, c := range Schema {
		colNames[i] = c.Name
	}

	n, err := l.pool.CopyFrom(ctx, pgx.Identifier{table}, colNames, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy %s into %s: %w", path, table, err)
	}
	l.log.Info().Str("file", path).Int64("rows", n).Msg("loaded")
	return n, nil
}

// convert parses one CSV cell into the driver value for its column type.
// Empty cells load as NULL.
func convert(cell string, t ColumnType) (any, error) {
	if cell == "" {
		return nil, nil
	}
	switch t {
	case TypeFloat:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("parse float %q: %w", cell, err)
		}
		return f, nil
	case TypeBool:
		b, err := strconv.ParseBool(cell)
		if err != nil {
			return nil, fmt.Errorf("parse bool %q: %w", cell, err)
		}
		return b, nil
	case TypeDate:
		d, err := time.Parse("2006-01-02", cell)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", cell, err)
		}
		return d, nil
	case TypeDateTime:
		ts, err := time.Parse("2006-01-02 15:04:05", cell)
		if err != nil {
			return nil, fmt.Errorf("parse datetime %q: %w", cell, err)
		}
		return ts, nil
	case TypeTime:
		tm, err := time.Parse("15:04:05", cell)
		if err != nil {
			return nil, fmt.Errorf("parse time %q: %w", cell, err)
		}
		us := int64(tm.Hour())*3600*1e6 + int64(tm.Minute())*60*1e6 + int64(tm.Second())*1e6
		return pgtype.Time{Microseconds: us, Valid: true}, nil
	default:
		return cell, nil
	}
}
