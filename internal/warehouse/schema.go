// Package warehouse loads reconciled CSVs into a Postgres table using a
// fixed, hand-maintained column/type schema.
package warehouse

import "strconv"

// ColumnType is the warehouse-side type of a schema column.
type ColumnType string

const (
	TypeString   ColumnType = "STRING"
	TypeFloat    ColumnType = "FLOAT64"
	TypeBool     ColumnType = "BOOL"
	TypeDate     ColumnType = "DATE"
	TypeTime     ColumnType = "TIME"
	TypeDateTime ColumnType = "DATETIME"
)

// sqlType maps warehouse types to Postgres types.
func (t ColumnType) sqlType() string {
	switch t {
	case TypeFloat:
		return "double precision"
	case TypeBool:
		return "boolean"
	case TypeDate:
		return "date"
	case TypeTime:
		return "time"
	case TypeDateTime:
		return "timestamp"
	default:
		return "text"
	}
}

// Column is one entry of the fixed load schema.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the hand-maintained column/type list the load job targets.
// Maintained by hand rather than derived from the manifest to keep type
// decisions explicit.
var Schema = []Column{
	{"Black", TypeString},
	{"BlackElo", TypeFloat},
	{"BlackRatingDiff", TypeFloat},
	{"BlackTitle", TypeString},
	{"Date", TypeString},
	{"ECO", TypeString},
	{"Event", TypeString},
	{"Increment", TypeFloat},
	{"Opening", TypeString},
	{"Ply", TypeFloat},
	{"Result", TypeString},
	{"Round", TypeFloat},
	{"Site", TypeString},
	{"StartTime", TypeFloat},
	{"Termination", TypeString},
	{"TimeControl", TypeString},
	{"UTCDate", TypeDate},
	{"UTCDateTime", TypeDateTime},
	{"UTCTime", TypeTime},
	{"White", TypeString},
	{"WhiteElo", TypeFloat},
	{"WhiteRatingDiff", TypeFloat},
	{"WhiteTitle", TypeString},
}

func init() {
	// the per-ply block is mechanical; generate it instead of hand-listing
	// 80 entries
	for _, player := range []string{"black", "white"} {
		for n := 1; n <= 10; n++ {
			prefix := playerPrefix(player, n)
			Schema = append(Schema,
				Column{prefix + "_eval_is_mate", TypeBool},
				Column{prefix + "_evalaftermove", TypeFloat},
				Column{prefix + "_move", TypeString},
				Column{prefix + "_timespent", TypeFloat},
			)
		}
	}
}

func playerPrefix(player string, n int) string {
	return player + "_move" + strconv.Itoa(n)
}
