package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/trainfuel/internal/core"
)

func TestClockConversion(t *testing.T) {
	for _, c := range []core.Clock{core.Midnight, core.ClockOf(5, 30), core.ClockOf(23, 59), core.MinutesPerDay} {
		pg := toPgTime(c)
		require.True(t, pg.Valid)
		assert.Equal(t, c, fromPgTime(pg), "round trip %s", c)
	}

	assert.Nil(t, fromPgTimePtr(toPgTimePtr(nil)))
	c := core.ClockOf(6, 15)
	got := fromPgTimePtr(toPgTimePtr(&c))
	require.NotNil(t, got)
	assert.Equal(t, c, *got)
}

func TestDateConversion(t *testing.T) {
	d := core.Date{Year: 2024, Month: 2, Day: 29}
	pg := toPgDate(d)
	require.True(t, pg.Valid)
	assert.Equal(t, d, fromPgDate(pg))

	assert.False(t, toPgDate(core.Date{}).Valid)
	assert.True(t, fromPgDate(toPgDate(core.Date{})).IsZero())
}

func TestNullableConversion(t *testing.T) {
	assert.False(t, toPgFloat8(nil).Valid)
	assert.Nil(t, fromPgFloat8(toPgFloat8(nil)))

	v := 0.0
	got := fromPgFloat8(toPgFloat8(&v))
	require.NotNil(t, got, "zero is a value, not null")
	assert.Equal(t, 0.0, *got)

	assert.False(t, toPgText("").Valid)
	assert.Equal(t, "file.csv", fromPgText(toPgText("file.csv")))
}
