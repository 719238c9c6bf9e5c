package datefmt

import "time"

// Period selects how wide a window a list filter covers relative to a
// reference date.
type Period string

const (
	PeriodDaily     Period = "daily"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
)

// ParsePeriod returns the period for a query value; unknown or empty input
// reports false so callers skip filtering.
func ParsePeriod(raw string) (Period, bool) {
	switch Period(raw) {
	case PeriodDaily, PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return Period(raw), true
	default:
		return "", false
	}
}

// Matches reports whether a canonical YYYY-MM-DD key falls inside the
// period containing the reference date. Non-canonical keys never match.
func (p Period) Matches(dateKey string, ref time.Time) bool {
	t, err := time.Parse(DateKey, dateKey)
	if err != nil {
		return false
	}
	switch p {
	case PeriodDaily:
		return t.Year() == ref.Year() && t.YearDay() == ref.YearDay()
	case PeriodMonthly:
		return t.Year() == ref.Year() && t.Month() == ref.Month()
	case PeriodQuarterly:
		return t.Year() == ref.Year() && quarterOf(t.Month()) == quarterOf(ref.Month())
	case PeriodYearly:
		return t.Year() == ref.Year()
	default:
		return false
	}
}

func quarterOf(m time.Month) int {
	return (int(m) - 1) / 3
}
