// Package duedate derives DUE DATE and NEXT DUE DATE from the oldest due date.
package duedate

import (
	"strconv"
	"time"

	"curing-worklist/internal/dates"
	"curing-worklist/internal/schema"
	"curing-worklist/internal/table"
)

// Derived holds the due-date fields for one record. Empty strings mean the
// anchor was missing or unparseable.
type Derived struct {
	OldestDueDate string
	DueDate       string
	NextDueDate   string
}

// From derives due-date fields from an anchor date. The zero time yields
// all-empty fields.
func From(oldest time.Time) Derived {
	if oldest.IsZero() {
		return Derived{}
	}
	return Derived{
		OldestDueDate: dates.Format(oldest),
		DueDate:       strconv.Itoa(oldest.Day()),
		NextDueDate:   dates.Format(dates.AddMonths(oldest, 1)),
	}
}

// Compute parses an oldest-due-date cell and derives the other fields.
func Compute(oldest string) Derived {
	return From(dates.ParseOrZero(oldest))
}

// Latest picks the later of two competing anchors before deriving; either
// may be blank, unparseable, or a spreadsheet serial.
func Latest(current, historical string) Derived {
	return From(dates.Later(dates.ParseOrZero(current), dates.ParseOrZero(historical)))
}

// Apply writes OLDEST DUE DATE, DUE DATE and NEXT DUE DATE on every row of
// t. It returns the number of rows whose anchor could not be parsed.
func Apply(t *table.Table) int {
	unparsed := 0
	for i := 0; i < t.Len(); i++ {
		d := Compute(t.Get(i, schema.OldestDueDate))
		if d.OldestDueDate == "" {
			unparsed++
		}
		Set(t, i, d)
	}
	return unparsed
}

func Set(t *table.Table, i int, d Derived) {
	t.Set(i, schema.OldestDueDate, d.OldestDueDate)
	t.Set(i, schema.DueDate, d.DueDate)
	t.Set(i, schema.NextDueDate, d.NextDueDate)
}
