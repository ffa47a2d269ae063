package database

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/trainfuel/internal/core"
)

// Conversions between core types and pgtype values. Absent values map to
// Valid=false and back to nil or the zero value.

const microsPerMinute = 60 * 1_000_000

func toPgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func fromPgText(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

func toPgFloat8(v *float64) pgtype.Float8 {
	if v == nil {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: *v, Valid: true}
}

func fromPgFloat8(f pgtype.Float8) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func toPgDate(d core.Date) pgtype.Date {
	if d.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time(), Valid: true}
}

func fromPgDate(d pgtype.Date) core.Date {
	if !d.Valid {
		return core.Date{}
	}
	return core.DateOf(d.Time)
}

func toPgTime(c core.Clock) pgtype.Time {
	return pgtype.Time{Microseconds: int64(c) * microsPerMinute, Valid: true}
}

func toPgTimePtr(c *core.Clock) pgtype.Time {
	if c == nil {
		return pgtype.Time{}
	}
	return toPgTime(*c)
}

func fromPgTime(t pgtype.Time) core.Clock {
	return core.Clock(t.Microseconds / microsPerMinute)
}

func fromPgTimePtr(t pgtype.Time) *core.Clock {
	if !t.Valid {
		return nil
	}
	c := fromPgTime(t)
	return &c
}
