// Package delta reconciles yesterday's active worklist against today's
// transaction-activity export: it refreshes balances, pulls out settled
// accounts and revives accounts that reappear with a balance.
package delta

import (
	"fmt"
	"sort"
	"time"

	"curing-worklist/internal/classify"
	"curing-worklist/internal/dates"
	"curing-worklist/internal/duedate"
	"curing-worklist/internal/money"
	"curing-worklist/internal/schema"
	"curing-worklist/internal/table"
)

// Transition is the daily state of one account key.
type Transition string

const (
	// ForUpdate accounts were active yesterday and still carry a balance.
	ForUpdate Transition = "FOR UPDATE"
	// Pullout accounts were active yesterday and are settled today.
	Pullout Transition = "PULLOUT"
	// Revive accounts were not tracked yesterday and carry a balance today.
	Revive Transition = "REVIVE"
	// Untracked accounts were not tracked yesterday and are settled today.
	Untracked Transition = "UNTRACKED"
)

// Decide maps set membership onto a transition. It is total.
func Decide(trackedYesterday, pastDueToday bool) Transition {
	switch {
	case trackedYesterday && pastDueToday:
		return ForUpdate
	case trackedYesterday:
		return Pullout
	case pastDueToday:
		return Revive
	default:
		return Untracked
	}
}

// Input is one daily reconciliation run.
type Input struct {
	Yesterday  *table.Table
	Today      *table.Table
	Masterlist *table.Table // optional
	RunDate    time.Time
}

// Metrics are the run's headline counts.
type Metrics struct {
	TotalTAD           int `json:"total_tad"`
	TADPastDue         int `json:"tad_past_due"`
	ActivePastDue      int `json:"active_past_due"`
	Pullout            int `json:"pullout"`
	Revive             int `json:"revive"`
	ForUpdate          int `json:"for_update"`
	ForUpload          int `json:"for_upload"`
	FinalActive        int `json:"final_active"`
	DroppedKeylessRows int `json:"dropped_keyless_rows"`
}

// Result holds every output partition of a daily run. All partition tables
// expose exactly the worklist schema; Masterlist keeps its own header.
type Result struct {
	FinalActive *table.Table
	Pullout     *table.Table
	ForUpdate   *table.Table
	ForUpload   *table.Table
	Revive      *table.Table
	ReviveRaw   *table.Table
	Masterlist  *table.Table
	Transitions map[string]Transition
	ReviveKeys  []string
	Metrics     Metrics
	Warnings    []string
}

// Reconcile runs the daily delta. It fails only on structural problems: a
// missing key or past-due column, or revived accounts whose referral date
// equals the run date.
func Reconcile(in Input) (*Result, error) {
	if in.Yesterday == nil || in.Today == nil {
		return nil, fmt.Errorf("daily reconcile: yesterday's active list and today's transactions are required")
	}
	yesterday, droppedY := schema.Prepare(in.Yesterday)
	today, droppedT := schema.Prepare(in.Today)
	if err := schema.Require(yesterday, "active list", schema.LAN); err != nil {
		return nil, err
	}
	schema.ApplyRenames(today, schema.DailyRenames)
	if err := schema.Require(today, "transactions", schema.LAN, schema.PastDue); err != nil {
		return nil, err
	}
	yesterday = yesterday.DedupLast(schema.LAN)
	today = today.DedupLast(schema.LAN)

	var history *table.Table
	var masterlist *table.Table
	if in.Masterlist != nil {
		masterlist, _ = schema.Prepare(in.Masterlist)
		if masterlist.Has(schema.LAN) {
			history = masterlist
		}
	}

	cleanNumeric(today)
	cleanNumeric(yesterday)

	res := &Result{Transitions: map[string]Transition{}}
	res.Metrics.DroppedKeylessRows = droppedY + droppedT
	res.Metrics.TotalTAD = today.Len()

	refreshed := refresh(yesterday, today)

	todayPositive := map[string]struct{}{}
	for i := 0; i < today.Len(); i++ {
		if money.Positive(today.Get(i, schema.PastDue)) {
			todayPositive[today.Get(i, schema.LAN)] = struct{}{}
		}
	}
	res.Metrics.TADPastDue = len(todayPositive)

	yesterdayKeys := yesterday.Keys(schema.LAN)
	active := refreshed.Filter(func(i int) bool { return money.Positive(refreshed.Get(i, schema.PastDue)) })
	pullout := refreshed.Filter(func(i int) bool { return !money.Positive(refreshed.Get(i, schema.PastDue)) })
	res.Metrics.ActivePastDue = active.Len()
	res.Metrics.Pullout = pullout.Len()

	for i := 0; i < refreshed.Len(); i++ {
		key := refreshed.Get(i, schema.LAN)
		res.Transitions[key] = Decide(true, money.Positive(refreshed.Get(i, schema.PastDue)))
	}
	reviveSet := map[string]struct{}{}
	for i := 0; i < today.Len(); i++ {
		key := today.Get(i, schema.LAN)
		if _, tracked := yesterdayKeys[key]; tracked {
			continue
		}
		_, positive := todayPositive[key]
		res.Transitions[key] = Decide(false, positive)
		if positive {
			reviveSet[key] = struct{}{}
			res.ReviveKeys = append(res.ReviveKeys, key)
		}
	}
	sort.Strings(res.ReviveKeys)

	rawRevive := today.Filter(func(i int) bool {
		_, ok := reviveSet[today.Get(i, schema.LAN)]
		return ok
	})
	revived, warnings := revive(rawRevive, history, in.RunDate)
	res.Warnings = append(res.Warnings, warnings...)
	if err := classify.Validate(revived); err != nil {
		return nil, err
	}
	res.Metrics.Revive = revived.Len()

	final := active.Project(schema.Worklist)
	final.Concat(revived)
	schema.FormatDates(final)

	newKeys := map[string]struct{}{}
	for key := range today.Keys(schema.LAN) {
		if _, tracked := yesterdayKeys[key]; !tracked {
			newKeys[key] = struct{}{}
		}
	}

	res.FinalActive = final
	res.Pullout = schema.Standardize(pullout)
	res.ForUpdate = final.Filter(func(i int) bool {
		_, revivedKey := reviveSet[final.Get(i, schema.LAN)]
		return !revivedKey
	})
	res.ForUpload = final.Filter(func(i int) bool {
		_, isNew := newKeys[final.Get(i, schema.LAN)]
		return isNew
	})
	res.Revive = revived
	res.ReviveRaw = schema.Standardize(rawRevive)
	res.Masterlist = consolidate(masterlist, revived)

	res.Metrics.ForUpdate = res.ForUpdate.Len()
	res.Metrics.ForUpload = res.ForUpload.Len()
	res.Metrics.FinalActive = res.FinalActive.Len()
	return res, nil
}

func cleanNumeric(t *table.Table) {
	for _, column := range schema.NumericColumns {
		t.MapColumn(column, money.Clean)
	}
}

// refresh overwrites the refresh columns of yesterday's rows with today's
// values. Refresh columns that today's export carries are cleared on rows
// with no match today, so an account missing from today's export reads as
// settled.
func refresh(yesterday, today *table.Table) *table.Table {
	out := yesterday.Clone()
	for _, column := range schema.Worklist {
		out.AddColumn(column)
	}
	var available []string
	for _, column := range schema.RefreshColumns {
		if today.Has(column) {
			available = append(available, column)
		}
	}
	lookup := today.KeyIndex(schema.LAN)
	for i := 0; i < out.Len(); i++ {
		j, matched := lookup[out.Get(i, schema.LAN)]
		for _, column := range available {
			value := ""
			if matched {
				value = today.Get(j, column)
			}
			out.Set(i, column, value)
		}
	}
	out.MapColumn(schema.PastDue, money.Clean)
	return out
}

// revive builds worklist records for revived accounts, backfilling history
// from the masterlist entry that carries the first valid referral date.
// DATE REFERRED is only ever taken through dates.Valid, so sentinels stay
// blank.
func revive(raw *table.Table, history *table.Table, runDate time.Time) (*table.Table, []string) {
	today := dates.Format(runDate)
	out := raw.Project(schema.Worklist)
	lookup := classify.FirstReferrals(history)

	var warnings []string
	for i := 0; i < out.Len(); i++ {
		key := out.Get(i, schema.LAN)
		out.Set(i, schema.Classification, string(classify.ReEndo))
		out.Set(i, schema.EndoDate, today)

		j, found := lookup[key]
		referred := dates.Valid(out.Get(i, schema.DateReferred))
		if referred == "" && found {
			referred = dates.Valid(history.Get(j, schema.DateReferred))
		}
		out.Set(i, schema.DateReferred, referred)

		historical := ""
		if found {
			historical = history.Get(j, schema.OldestDueDate)
		}
		duedate.Set(out, i, duedate.Latest(out.Get(i, schema.OldestDueDate), historical))

		if found {
			for _, column := range schema.Worklist {
				if column == schema.DateReferred {
					continue
				}
				if out.Get(i, column) == "" {
					out.Set(i, column, history.Get(j, column))
				}
			}
		} else {
			warnings = append(warnings, fmt.Sprintf("revived account %s has no masterlist entry", key))
		}
		if out.Get(i, schema.DateReferred) == "" {
			warnings = append(warnings, fmt.Sprintf("revived account %s has no referral date", key))
		}
	}
	schema.FormatDates(out)
	return out, warnings
}

// consolidate appends revived records to the masterlist without removing
// earlier entries.
func consolidate(masterlist, revived *table.Table) *table.Table {
	if masterlist == nil {
		return revived.Clone()
	}
	out := masterlist.Clone()
	out.Concat(revived)
	return out
}
