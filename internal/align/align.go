// Package align maps tables with arbitrary headers onto a fixed canonical
// column set using a static synonym table.
package align

import (
	"sort"

	"github.com/schollz/closestmatch"

	"curing-worklist/internal/dates"
	"curing-worklist/internal/schema"
	"curing-worklist/internal/table"
)

// Aligner resolves input columns onto Columns via Aliases.
type Aligner struct {
	Columns []string
	Aliases schema.Aliases
	// DateLayout formats the DATE REFERRED column; empty means dates.AlignmentLayout.
	DateLayout string
}

// New returns an aligner over columns using the default synonym table.
func New(columns []string) *Aligner {
	return &Aligner{Columns: columns, Aliases: schema.DefaultAliases}
}

// Resolve returns the input column that feeds canonical column, if any.
// When several synonyms are present the last one in synonym order wins.
func (a *Aligner) Resolve(t *table.Table, column string) (string, bool) {
	found := ""
	for _, name := range a.Aliases.Synonyms(column) {
		name = schema.NormalizeHeader(name)
		if t.Has(name) {
			found = name
		}
	}
	return found, found != ""
}

// Align returns a table with exactly a.Columns in order. It never fails:
// unmatched canonical columns are filled with empty strings.
func (a *Aligner) Align(in *table.Table) *table.Table {
	src := in.Clone()
	src.RenameColumns(schema.NormalizeHeader)

	out := table.New(a.Columns...)
	for i := 0; i < src.Len(); i++ {
		out.AppendRow(nil)
	}
	for _, column := range a.Columns {
		input, ok := a.Resolve(src, column)
		if !ok {
			continue
		}
		for i := 0; i < src.Len(); i++ {
			out.Set(i, column, src.Get(i, input))
		}
	}

	layout := a.DateLayout
	if layout == "" {
		layout = dates.AlignmentLayout
	}
	out.MapColumn(schema.DateReferred, func(v string) string {
		return dates.FormatLayout(dates.ParseOrZero(v), layout)
	})
	return out
}

// Report describes how an input table maps onto the canonical columns.
type Report struct {
	Found        map[string]string `json:"found_mappings"`
	Missing      []string          `json:"missing_columns"`
	InputColumns []string          `json:"input_columns"`
	Standard     []string          `json:"standard_columns"`
	Unrecognized []string          `json:"unrecognized_columns"`
	Suggestions  map[string]string `json:"suggestions,omitempty"`
}

// Report inspects in without copying data.
func (a *Aligner) Report(in *table.Table) Report {
	src := table.New(in.Header()...)
	src.RenameColumns(schema.NormalizeHeader)

	rep := Report{
		Found:        map[string]string{},
		InputColumns: src.Header(),
		Standard:     append([]string{}, a.Columns...),
		Suggestions:  map[string]string{},
	}
	used := map[string]struct{}{}
	for _, column := range a.Columns {
		if input, ok := a.Resolve(src, column); ok {
			rep.Found[column] = input
			used[input] = struct{}{}
		} else {
			rep.Missing = append(rep.Missing, column)
		}
	}
	for _, input := range rep.InputColumns {
		if _, ok := used[input]; !ok {
			rep.Unrecognized = append(rep.Unrecognized, input)
		}
	}
	sort.Strings(rep.Unrecognized)

	if len(rep.Missing) > 0 && len(rep.Unrecognized) > 0 {
		cm := closestmatch.New(rep.Missing, []int{2, 3})
		for _, input := range rep.Unrecognized {
			if match := cm.Closest(input); match != "" {
				rep.Suggestions[input] = match
			}
		}
	}
	return rep
}
