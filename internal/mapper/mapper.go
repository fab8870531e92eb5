// Package mapper merges a secondary export into a primary table by account
// key and copies selected secondary fields onto canonical columns.
package mapper

import (
	"strings"

	"curing-worklist/internal/schema"
	"curing-worklist/internal/table"
)

// Precedence decides whether secondary values replace primary values.
type Precedence int

const (
	// Overwrite replaces the canonical field with the secondary value for
	// every matched record.
	Overwrite Precedence = iota
	// FillIfEmpty keeps the primary value unless it is blank.
	FillIfEmpty
)

func (p Precedence) String() string {
	switch p {
	case Overwrite:
		return "overwrite"
	case FillIfEmpty:
		return "fill-if-empty"
	default:
		return "unknown"
	}
}

// ParsePrecedence reads "overwrite" or "fill-if-empty".
func ParsePrecedence(s string) (Precedence, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "overwrite":
		return Overwrite, true
	case "fill-if-empty", "fill_if_empty", "fill":
		return FillIfEmpty, true
	default:
		return Overwrite, false
	}
}

// Stats counts what a merge did.
type Stats struct {
	Matched   int
	Unmatched int
	Filled    int
}

// Merge left-joins secondary onto primary by key and applies renames. Every
// primary row appears exactly once in the result, in its original order;
// secondary rows are deduplicated by key keeping the last. Key values are
// trimmed in both tables before matching.
func Merge(primary, secondary *table.Table, key string, renames []schema.Rename, policy Precedence) (*table.Table, Stats) {
	out := primary.Clone()
	out.MapColumn(key, strings.TrimSpace)

	sec := secondary.Clone()
	sec.MapColumn(key, strings.TrimSpace)
	lookup := sec.KeyIndex(key)

	var stats Stats
	for _, r := range renames {
		if !out.Has(r.Target) {
			out.AddColumn(r.Target)
		}
	}
	for i := 0; i < out.Len(); i++ {
		j, ok := lookup[out.Get(i, key)]
		if !ok {
			stats.Unmatched++
			continue
		}
		stats.Matched++
		for _, r := range renames {
			if !sec.Has(r.Source) {
				continue
			}
			value := sec.Get(j, r.Source)
			switch policy {
			case Overwrite:
				out.Set(i, r.Target, value)
			case FillIfEmpty:
				if strings.TrimSpace(out.Get(i, r.Target)) == "" && value != "" {
					out.Set(i, r.Target, value)
					stats.Filled++
				}
			}
		}
	}
	return out, stats
}
