package datefmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDateCanonicalFastPath(t *testing.T) {
	assert.Equal(t, "2024-03-05", NormalizeDate("2024-03-05"))
}

func TestNormalizeDateEmpty(t *testing.T) {
	assert.Equal(t, "", NormalizeDate(""))
}

func TestNormalizeDateShiftsIntoBangkokCivilDate(t *testing.T) {
	// UTC 20:30 plus seven hours crosses midnight into the next civil day.
	assert.Equal(t, "2024-03-06", NormalizeDate("2024-03-05T20:30:00.000Z"))
	assert.Equal(t, "2024-03-05", NormalizeDate("2024-03-05T10:00:00.000Z"))
}

func TestNormalizeDateYearBoundary(t *testing.T) {
	assert.Equal(t, "2025-01-01", NormalizeDate("2024-12-31T18:00:00.000Z"))
}

func TestNormalizeDateUnparseableReturnsRaw(t *testing.T) {
	assert.Equal(t, "next tuesday", NormalizeDate("next tuesday"))
	assert.Equal(t, "05/03/2024", NormalizeDate("05/03/2024"))
}

func TestNormalizeDateIdempotentOnCanonicalOutput(t *testing.T) {
	inputs := []string{"2024-03-05", "2024-03-05T20:30:00.000Z", "2024-02-29T01:00:00.000Z"}
	for _, in := range inputs {
		once := NormalizeDate(in)
		assert.Equal(t, once, NormalizeDate(once), "input %q", in)
	}
}

func TestNormalizeTimeForEditing(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"epoch anchored datetime", "1899-12-30T08:30:00.000Z", "08:30"},
		{"no civil shift applied", "1899-12-30T20:45:00.000Z", "20:45"},
		{"bare time with seconds", "14:05:00", "14:05"},
		{"bare time", "14:05", "14:05"},
		{"garbage", "soon", ""},
		{"unparseable datetime", "Txyz", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeTimeForEditing(tc.in))
		})
	}
}

func TestFormatTimeForDisplay(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty shows placeholder", "", "-"},
		{"epoch anchored datetime", "1899-12-30T08:30:00.000Z", "08:30"},
		{"bare time with seconds", "09:15:30", "09:15"},
		{"unparseable datetime shows placeholder", "Txyz", "-"},
		{"plain text falls through", "morning", "morning"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatTimeForDisplay(tc.in))
		})
	}
}

func TestPeriodMatches(t *testing.T) {
	ref := time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC)

	assert.True(t, PeriodDaily.Matches("2024-05-15", ref))
	assert.False(t, PeriodDaily.Matches("2024-05-14", ref))

	assert.True(t, PeriodMonthly.Matches("2024-05-01", ref))
	assert.False(t, PeriodMonthly.Matches("2024-04-30", ref))

	assert.True(t, PeriodQuarterly.Matches("2024-04-01", ref))
	assert.True(t, PeriodQuarterly.Matches("2024-06-30", ref))
	assert.False(t, PeriodQuarterly.Matches("2024-07-01", ref))

	assert.True(t, PeriodYearly.Matches("2024-12-31", ref))
	assert.False(t, PeriodYearly.Matches("2023-12-31", ref))

	assert.False(t, PeriodMonthly.Matches("not-a-date", ref))
}

func TestParsePeriod(t *testing.T) {
	p, ok := ParsePeriod("quarterly")
	assert.True(t, ok)
	assert.Equal(t, PeriodQuarterly, p)

	_, ok = ParsePeriod("weekly")
	assert.False(t, ok)

	_, ok = ParsePeriod("")
	assert.False(t, ok)
}
