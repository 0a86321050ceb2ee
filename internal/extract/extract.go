// Package extract turns one raw game record into a flat feature mapping:
// all header tags, the total ply count, and per-ply move/clock/eval features
// up to a configured depth.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/freeeve/gamefeatures/internal/assemble"
	"github.com/freeeve/gamefeatures/internal/rules"
)

var (
	// ErrMalformedHeader is reported when a header line violates the
	// [Key "Value"] bracket/quote structure.
	ErrMalformedHeader = errors.New("malformed header line")
	// ErrMalformedMovetext is reported when the rules engine rejects the
	// movetext line.
	ErrMalformedMovetext = errors.New("malformed movetext")
)

// Extractor computes GameFeatures from raw records.
type Extractor struct {
	engine rules.Engine
	maxPly int
}

func New(engine rules.Engine, maxPly int) *Extractor {
	return &Extractor{engine: engine, maxPly: maxPly}
}

// Extract parses the record's header tags and movetext and produces one
// feature mapping.
//
// Per-ply features cover plies 1..min(maxPly, Ply-1). The final ply of a
// game is never analyzed even when it fits under the cap; the published
// schemas were built against that bound, so it is kept as-is.
func (e *Extractor) Extract(rec assemble.RawRecord) (*Features, error) {
	f := NewFeatures()

	for _, line := range rec.Headers() {
		key, value, err := parseHeader(line)
		if err != nil {
			return nil, fmt.Errorf("record at line %d: %w", rec.StartLine, err)
		}
		f.Set(key, value)
	}

	game, err := e.engine.Parse(rec.Movetext())
	if err != nil {
		return nil, fmt.Errorf("record at line %d: %w: %v", rec.StartLine, ErrMalformedMovetext, err)
	}
	f.Set("Ply", game.PlyCount)

	limit := e.maxPly
	if game.PlyCount-1 < limit {
		limit = game.PlyCount - 1
	}
	for i := 1; i <= limit; i++ {
		node := game.Moves[i-1]
		player := "white"
		if i%2 == 0 {
			player = "black"
		}
		prefix := fmt.Sprintf("%s_move%d", player, (i+1)/2)

		f.Set(prefix+"_move", node.UCI)
		if node.Clock != nil {
			f.Set(prefix+"_timespent", *node.Clock)
		}
		if node.Mate != nil {
			f.Set(prefix+"_eval_is_mate", true)
		} else if node.Eval != nil {
			f.Set(prefix+"_evalaftermove", *node.Eval)
			f.Set(prefix+"_eval_is_mate", false)
		}
	}

	return f, nil
}

// parseHeader splits one `[Key "Value"]` line into its tag pair. The value
// keeps its internal structure verbatim; only the enclosing quotes go.
func parseHeader(line string) (string, string, error) {
	if len(line) < 2 || line[0] != '[' || line[len(line)-1] != ']' {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedHeader, line)
	}
	inner := line[1 : len(line)-1]
	fields := strings.Fields(inner)
	if len(fields) < 2 {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedHeader, line)
	}
	key := fields[0]
	value := strings.Join(fields[1:], " ")
	if len(value) < 2 || value[0] != '"' || value[len(value)-1] != '"' {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedHeader, line)
	}
	return key, value[1 : len(value)-1], nil
}
