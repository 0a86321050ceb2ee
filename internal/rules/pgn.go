package rules

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/freeeve/pgn/v3"
)

// PGNEngine validates movetext with the pgn library and collects the
// clock/eval annotations embedded in move comments.
type PGNEngine struct{}

func NewPGNEngine() *PGNEngine {
	return &PGNEngine{}
}

var (
	moveNumberRe = regexp.MustCompile(`^\d+\.*$`)
	nagRe        = regexp.MustCompile(`^\$\d+$`)
	clkRe        = regexp.MustCompile(`\[%clk\s+(\d+):(\d{1,2}):(\d{1,2}(?:\.\d+)?)\]`)
	evalRe       = regexp.MustCompile(`\[%eval\s+(#-?\d+|-?\d+(?:\.\d+)?)\]`)
)

// Parse walks the mainline of a single movetext line. Comments are scanned
// for clock/eval annotations and attached to the preceding move; variations
// and NAGs are dropped.
func (e *PGNEngine) Parse(movetext string) (Game, error) {
	game := Game{}
	pos := pgn.NewStartingPosition()

	i := 0
	n := len(movetext)
	for i < n {
		c := movetext[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '{':
			end := strings.IndexByte(movetext[i:], '}')
			if end < 0 {
				return Game{}, fmt.Errorf("unterminated comment at offset %d", i)
			}
			comment := movetext[i+1 : i+end]
			if len(game.Moves) > 0 {
				annotate(&game.Moves[len(game.Moves)-1], comment)
			}
			i += end + 1
		case c == '(':
			depth := 1
			j := i + 1
			for j < n && depth > 0 {
				switch movetext[j] {
				case '(':
					depth++
				case ')':
					depth--
				}
				j++
			}
			if depth != 0 {
				return Game{}, fmt.Errorf("unterminated variation at offset %d", i)
			}
			i = j
		default:
			j := i
			for j < n && movetext[j] != ' ' && movetext[j] != '\t' && movetext[j] != '{' && movetext[j] != '(' {
				j++
			}
			token := movetext[i:j]
			i = j
			if err := e.applyToken(&game, pos, token); err != nil {
				return Game{}, err
			}
		}
	}

	game.PlyCount = len(game.Moves)
	return game, nil
}

func (e *PGNEngine) applyToken(game *Game, pos *pgn.GameState, token string) error {
	if token == "" || isResult(token) || moveNumberRe.MatchString(token) || nagRe.MatchString(token) {
		return nil
	}
	san := strings.TrimRight(token, "+#!?")
	if san == "" {
		return fmt.Errorf("ply %d: bad token %q", len(game.Moves)+1, token)
	}
	mv, err := pgn.ParseSAN(pos, san)
	if err != nil {
		return fmt.Errorf("ply %d: parse %q: %w", len(game.Moves)+1, san, err)
	}
	uci := mvToUCI(mv)
	if err := pgn.ApplyMove(pos, mv); err != nil {
		return fmt.Errorf("ply %d: apply %q: %w", len(game.Moves)+1, san, err)
	}
	game.Moves = append(game.Moves, MoveNode{UCI: uci, SAN: san})
	return nil
}

func isResult(token string) bool {
	switch token {
	case "1-0", "0-1", "1/2-1/2", "*":
		return true
	}
	return false
}

// annotate fills clock/eval fields from a move comment like
// "[%eval 0.17] [%clk 0:00:30]".
func annotate(node *MoveNode, comment string) {
	if m := clkRe.FindStringSubmatch(comment); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		s, _ := strconv.ParseFloat(m[3], 64)
		clock := float64(h)*3600 + float64(mi)*60 + s
		node.Clock = &clock
	}
	if m := evalRe.FindStringSubmatch(comment); m != nil {
		raw := m[1]
		if strings.HasPrefix(raw, "#") {
			if mate, err := strconv.Atoi(raw[1:]); err == nil {
				node.Mate = &mate
			}
			return
		}
		if pawns, err := strconv.ParseFloat(raw, 64); err == nil {
			cp := math.Round(pawns * 100)
			node.Eval = &cp
		}
	}
}

// mvToUCI converts a move to UCI notation
func mvToUCI(mv pgn.Mv) string {
	files := "abcdefgh"
	ranks := "12345678"

	from := string(files[mv.From%8]) + string(ranks[mv.From/8])
	to := string(files[mv.To%8]) + string(ranks[mv.To/8])

	uci := from + to

	// Add promotion piece
	switch mv.Promo {
	case pgn.PromoQueen:
		uci += "q"
	case pgn.PromoRook:
		uci += "r"
	case pgn.PromoBishop:
		uci += "b"
	case pgn.PromoKnight:
		uci += "n"
	}

	return uci
}
