package warehouse

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestSchemaCoversPerPlyBlock(t *testing.T) {
	byName := make(map[string]ColumnType, len(Schema))
	for _, c := range Schema {
		if _, dup := byName[c.Name]; dup {
			t.Errorf("duplicate schema column %s", c.Name)
		}
		byName[c.Name] = c.Type
	}

	if byName["UTCDate"] != TypeDate || byName["UTCTime"] != TypeTime || byName["UTCDateTime"] != TypeDateTime {
		t.Error("UTC columns have wrong types")
	}
	for _, player := range []string{"white", "black"} {
		for _, n := range []string{"1", "10"} {
			prefix := player + "_move" + n
			if byName[prefix+"_move"] != TypeString {
				t.Errorf("%s_move missing or mistyped", prefix)
			}
			if byName[prefix+"_timespent"] != TypeFloat {
				t.Errorf("%s_timespent missing or mistyped", prefix)
			}
			if byName[prefix+"_evalaftermove"] != TypeFloat {
				t.Errorf("%s_evalaftermove missing or mistyped", prefix)
			}
			if byName[prefix+"_eval_is_mate"] != TypeBool {
				t.Errorf("%s_eval_is_mate missing or mistyped", prefix)
			}
		}
	}
}

func TestConvert(t *testing.T) {
	if v, err := convert("", TypeFloat); err != nil || v != nil {
		t.Errorf("empty cell: %v %v", v, err)
	}
	if v, err := convert("-4.5", TypeFloat); err != nil || v != -4.5 {
		t.Errorf("float: %v %v", v, err)
	}
	if v, err := convert("true", TypeBool); err != nil || v != true {
		t.Errorf("bool: %v %v", v, err)
	}
	if v, err := convert("hello", TypeString); err != nil || v != "hello" {
		t.Errorf("string: %v %v", v, err)
	}

	v, err := convert("2022-10-30", TypeDate)
	if err != nil {
		t.Fatalf("date: %v", err)
	}
	if d := v.(time.Time); d.Year() != 2022 || d.Month() != time.October || d.Day() != 30 {
		t.Errorf("date = %v", d)
	}

	v, err = convert("12:30:05", TypeTime)
	if err != nil {
		t.Fatalf("time: %v", err)
	}
	want := int64(12*3600+30*60+5) * 1e6
	if tm := v.(pgtype.Time); tm.Microseconds != want || !tm.Valid {
		t.Errorf("time = %+v, want %d us", tm, want)
	}

	if _, err := convert("not a number", TypeFloat); err == nil {
		t.Error("expected error for bad float")
	}
	if _, err := convert("2022.10.30", TypeDate); err == nil {
		t.Error("expected error for dotted date")
	}
}
