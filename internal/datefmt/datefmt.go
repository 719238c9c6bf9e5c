// Package datefmt normalizes the date and time shapes the sheet backend
// produces. Sheet cells arrive either as canonical YYYY-MM-DD strings, as
// full ISO date-times representing Bangkok civil time stored as UTC
// instants, or as epoch-anchored time-only values (a full date-time whose
// date portion is the spreadsheet epoch, e.g. 1899-12-30T08:30:00.000Z).
package datefmt

import (
	"regexp"
	"strings"
	"time"
)

// The sheet backend stores timestamps as UTC instants that actually mean
// Bangkok (UTC+7) civil time.
const civilOffset = 7 * time.Hour

// DateKey is the canonical civil-date layout used for grid bucketing.
const DateKey = "2006-01-02"

var canonicalDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// upstream emits a few date-time variants depending on how the cell was
// entered; try them in order of likelihood.
var dateTimeLayouts = []string{
	"2006-01-02T15:04:05.000Z07:00",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// NormalizeDate converts an upstream date value into a canonical YYYY-MM-DD
// string. Already-canonical input is returned unchanged without any timezone
// reinterpretation. Date-time input is shifted by the fixed +7h civil offset
// and the UTC calendar date of the shifted instant is returned. Values that
// cannot be parsed come back unchanged so callers can treat them as opaque;
// they will simply never match a grid bucket key.
func NormalizeDate(raw string) string {
	if raw == "" {
		return ""
	}
	if canonicalDateRe.MatchString(raw) {
		return raw
	}
	t, ok := parseDateTime(raw)
	if !ok {
		return raw
	}
	return t.UTC().Add(civilOffset).Format(DateKey)
}

// IsCanonicalDate reports whether the value is an exact YYYY-MM-DD key.
func IsCanonicalDate(value string) bool {
	return canonicalDateRe.MatchString(value)
}

// NormalizeTimeForEditing extracts an HH:MM value suitable for populating an
// editable time input. Empty input yields an empty string so the form field
// behaves as unset.
//
// Full date-time input (the epoch-anchored time-only shape) is parsed and
// the clock fields are taken exactly as written, without the +7h shift
// NormalizeDate applies. The asymmetry is inherited from the original
// system and kept for compatibility.
func NormalizeTimeForEditing(raw string) string {
	switch {
	case raw == "":
		return ""
	case strings.Contains(raw, "T"):
		t, ok := parseDateTime(raw)
		if !ok {
			return ""
		}
		return t.Format("15:04")
	case strings.Contains(raw, ":"):
		return firstFive(raw)
	default:
		return ""
	}
}

// FormatTimeForDisplay renders an upstream time value for read-only views.
// The branches mirror NormalizeTimeForEditing, but missing or unparseable
// values render as a visible dash placeholder, and anything unrecognised
// falls back to the raw value.
func FormatTimeForDisplay(raw string) string {
	switch {
	case raw == "":
		return "-"
	case strings.Contains(raw, "T"):
		t, ok := parseDateTime(raw)
		if !ok {
			return "-"
		}
		return t.Format("15:04")
	case strings.Contains(raw, ":"):
		return firstFive(raw)
	default:
		return raw
	}
}

func parseDateTime(raw string) (time.Time, bool) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstFive(raw string) string {
	if len(raw) <= 5 {
		return raw
	}
	return raw[:5]
}
