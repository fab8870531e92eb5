package schema

import (
	"fmt"

	"curing-worklist/internal/dates"
	"curing-worklist/internal/table"
)

// MissingColumnError is a fatal schema error: a required column is absent
// from a required input table.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: required column %q is missing", e.Table, e.Column)
}

// Require returns a *MissingColumnError when t lacks any of columns.
func Require(t *table.Table, name string, columns ...string) error {
	for _, column := range columns {
		if !t.Has(column) {
			return &MissingColumnError{Table: name, Column: column}
		}
	}
	return nil
}

// Prepare returns a copy of t with normalised headers, normalised keys, and
// rows lacking a key removed. It reports how many keyless rows were dropped.
func Prepare(t *table.Table) (*table.Table, int) {
	out := t.Clone()
	out.RenameColumns(NormalizeHeader)
	if !out.Has(LAN) {
		return out, 0
	}
	out.MapColumn(LAN, NormalizeKey)
	kept := out.Filter(func(i int) bool { return out.Get(i, LAN) != "" })
	return kept, out.Len() - kept.Len()
}

// ApplyRenames copies each present source column onto its target name.
// A target that already exists in t is left untouched.
func ApplyRenames(t *table.Table, renames []Rename) {
	for _, r := range renames {
		if r.Source == r.Target || !t.Has(r.Source) || t.Has(r.Target) {
			continue
		}
		t.Rename(r.Source, r.Target)
	}
}

// FormatDates rewrites every present date column as short dates; values
// that cannot be parsed become "".
func FormatDates(t *table.Table) {
	for _, column := range DateColumns {
		t.MapColumn(column, dates.Reformat)
	}
}

// Standardize projects t onto the worklist schema with dates formatted.
func Standardize(t *table.Table) *table.Table {
	out := t.Project(Worklist)
	FormatDates(out)
	return out
}
