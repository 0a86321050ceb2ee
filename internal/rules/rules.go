// Package rules provides the chess rules engine capability: parsing a
// movetext line into an ordered, annotated move sequence. The concrete
// engine is injected so any compliant implementation can stand in.
package rules

// MoveNode is one half-move with whatever annotations the source carried.
// Nil pointer fields mean the source had no such annotation for the ply.
type MoveNode struct {
	UCI   string
	SAN   string
	Clock *float64 // clock reading in seconds, from [%clk]
	Eval  *float64 // centipawns from white's perspective, from [%eval]
	Mate  *int     // moves until forced mate, white-positive, from [%eval #n]
}

// Game is the parsed mainline of one game.
type Game struct {
	PlyCount int
	Moves    []MoveNode
}

// Engine parses a movetext line into an ordered annotated move list.
type Engine interface {
	Parse(movetext string) (Game, error)
}
