// Package classify labels worklist records as new or repeat endorsements
// against the masterlist and derives their referral dates.
package classify

import (
	"fmt"
	"strings"
	"time"

	"curing-worklist/internal/dates"
	"curing-worklist/internal/schema"
	"curing-worklist/internal/table"
)

// Label is an endorsement classification.
type Label string

const (
	NewEndo Label = "NEW ENDO"
	ReEndo  Label = "REENDO"
)

// History answers masterlist lookups by account key.
type History struct {
	referred map[string]string
}

// NewHistory indexes a masterlist. Keys are normalised. A duplicated key
// answers with its first valid referral date. A nil masterlist yields an
// empty history.
func NewHistory(masterlist *table.Table) *History {
	h := &History{referred: map[string]string{}}
	for key, i := range FirstReferrals(masterlist) {
		h.referred[key] = masterlist.Get(i, schema.DateReferred)
	}
	return h
}

// FirstReferrals maps each normalised key of masterlist to the row holding
// its first valid DATE REFERRED, or to its first row when no entry has one.
// Blank and sentinel dates never hide an earlier referral.
func FirstReferrals(masterlist *table.Table) map[string]int {
	out := map[string]int{}
	if masterlist == nil {
		return out
	}
	dated := map[string]bool{}
	for i := 0; i < masterlist.Len(); i++ {
		key := schema.NormalizeKey(masterlist.Get(i, schema.LAN))
		if key == "" || dated[key] {
			continue
		}
		valid := dates.Valid(masterlist.Get(i, schema.DateReferred)) != ""
		if _, seen := out[key]; !seen || valid {
			out[key] = i
		}
		dated[key] = valid
	}
	return out
}

func (h *History) Known(key string) bool {
	_, ok := h.referred[schema.NormalizeKey(key)]
	return ok
}

// DateReferred returns the stored referral date for key as a short date,
// or "" when absent, a sentinel, or unparseable.
func (h *History) DateReferred(key string) string {
	return dates.Valid(h.referred[schema.NormalizeKey(key)])
}

func (h *History) Len() int {
	return len(h.referred)
}

// Label classifies a single key. It is total: every key gets exactly one label.
func (h *History) Label(key string) Label {
	if h.Known(key) {
		return ReEndo
	}
	return NewEndo
}

type Result struct {
	NewEndo int
	ReEndo  int
}

// Apply classifies every row of t in place, setting CLASSIFICATION,
// DATE REFERRED and ENDO DATE. The run date is used for ENDO DATE on all
// rows and for DATE REFERRED on new endorsements and on repeat
// endorsements without usable history.
func Apply(t *table.Table, h *History, runDate time.Time) Result {
	today := dates.Format(runDate)
	var res Result
	for i := 0; i < t.Len(); i++ {
		key := t.Get(i, schema.LAN)
		label := h.Label(key)
		t.Set(i, schema.Classification, string(label))
		t.Set(i, schema.EndoDate, today)

		referred := today
		if label == ReEndo {
			res.ReEndo++
			if prev := h.DateReferred(key); prev != "" {
				referred = prev
			}
		} else {
			res.NewEndo++
		}
		t.Set(i, schema.DateReferred, referred)
	}
	return res
}

// Offending is a record that failed validation.
type Offending struct {
	Row            int    `json:"row"`
	LAN            string `json:"lan"`
	Name           string `json:"name"`
	Classification string `json:"classification"`
	DateReferred   string `json:"date_referred"`
	EndoDate       string `json:"endo_date"`
}

// ValidationError reports REENDO records whose referral date equals their
// endorsement date, which means the masterlist lookup found no real history.
type ValidationError struct {
	Records []Offending
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Records))
	for i, r := range e.Records {
		if i == 5 {
			keys = append(keys, "...")
			break
		}
		keys = append(keys, r.LAN)
	}
	return fmt.Sprintf("validation failed: %d REENDO account(s) have DATE REFERRED equal to ENDO DATE (%s); check the masterlist",
		len(e.Records), strings.Join(keys, ", "))
}

// Validate returns a *ValidationError listing every REENDO row of t whose
// DATE REFERRED equals its ENDO DATE, or nil.
func Validate(t *table.Table) error {
	var bad []Offending
	for i := 0; i < t.Len(); i++ {
		if t.Get(i, schema.Classification) != string(ReEndo) {
			continue
		}
		referred := t.Get(i, schema.DateReferred)
		endo := t.Get(i, schema.EndoDate)
		if referred != endo {
			continue
		}
		bad = append(bad, Offending{
			Row:            i,
			LAN:            t.Get(i, schema.LAN),
			Name:           t.Get(i, schema.Name),
			Classification: t.Get(i, schema.Classification),
			DateReferred:   referred,
			EndoDate:       endo,
		})
	}
	if len(bad) > 0 {
		return &ValidationError{Records: bad}
	}
	return nil
}
