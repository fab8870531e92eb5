// Package dates parses the assorted date representations found in
// collection exports and formats them as short dates.
package dates

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// ShortLayout is the month/day/4-digit-year format of every output date.
	ShortLayout = "01/02/2006"
	// AlignmentLayout drops the month's leading zero (alignment tool output).
	AlignmentLayout = "1/02/2006"
	// ISOLayout is used for run dates on the command line.
	ISOLayout = "2006-01-02"

	maxSerial = 2958465 // 9999-12-31
)

// serialEpoch is day zero of spreadsheet serial dates.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var layouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	"2006/01/02",
	"01-02-2006",
	"1-2-2006",
	"01/02/06",
	"1/2/06",
	"20060102",
	"02-Jan-2006",
	"02-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"1/2/06 15:04",
}

var sentinels = map[string]struct{}{
	"":           {},
	"0":          {},
	"0.0":        {},
	"0/00/0000":  {},
	"00/00/00":   {},
	"00/00/0000": {},
	"NAT":        {},
	"NAN":        {},
	"NONE":       {},
	"NULL":       {},
	"1970-01-01": {},
	"01/01/1970": {},
	"1/1/1970":   {},
}

// ErrEmpty is returned by Parse for blank input.
var ErrEmpty = errors.New("empty date")

// Parse reads a date written in one of the accepted layouts or as a
// spreadsheet serial day count. The result carries no time-of-day.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrEmpty
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return dateOnly(parsed), nil
		}
	}
	if parsed, err := FromSerial(value); err == nil {
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %s", value)
}

// FromSerial converts a spreadsheet serial (days since 1899-12-30, possibly
// fractional) to a date.
func FromSerial(value string) (time.Time, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(f) || f < 1 || f > maxSerial {
		return time.Time{}, fmt.Errorf("serial out of range: %s", value)
	}
	return serialEpoch.AddDate(0, 0, int(f)), nil
}

// ParseOrZero is Parse with failures mapped to the zero time.
func ParseOrZero(value string) time.Time {
	parsed, err := Parse(value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// Format renders t as a short date; the zero time renders as "".
func Format(t time.Time) string {
	return FormatLayout(t, ShortLayout)
}

// FormatLayout renders t with layout; the zero time renders as "".
func FormatLayout(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

// Reformat parses value and renders it as a short date, or "" when it
// cannot be parsed.
func Reformat(value string) string {
	return Format(ParseOrZero(value))
}

// AddMonths shifts t by n calendar months keeping the day of month, clamped
// to the last day of the target month.
func AddMonths(t time.Time, n int) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// Later returns the later of two dates, treating the zero time as absent.
func Later(a, b time.Time) time.Time {
	if a.IsZero() {
		return b
	}
	if b.IsZero() || !b.After(a) {
		return a
	}
	return b
}

// IsSentinel reports whether value is an empty, zero or epoch placeholder
// that must be treated as "no date".
func IsSentinel(value string) bool {
	v := strings.ToUpper(strings.TrimSpace(value))
	if _, ok := sentinels[v]; ok {
		return true
	}
	parsed, err := Parse(v)
	if err != nil {
		return false
	}
	return parsed.Equal(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC))
}

// Valid returns the short-date form of value, or "" when value is a
// sentinel or unparseable.
func Valid(value string) string {
	if IsSentinel(value) {
		return ""
	}
	return Reformat(value)
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	return dateOnly(t)
}

func dateOnly(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
