package pipeline

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"curing-worklist/internal/classify"
	"curing-worklist/internal/dates"
	"curing-worklist/internal/delta"
	"curing-worklist/internal/duedate"
	"curing-worklist/internal/mapper"
	"curing-worklist/internal/money"
	"curing-worklist/internal/schema"
	"curing-worklist/internal/table"
)

// Inputs are the tables of one run. TAD is required by every flow;
// Endorsement by the endorsement flows and Active by the daily flow.
type Inputs struct {
	TAD         *table.Table
	Endorsement *table.Table
	Active      *table.Table
	Masterlist  *table.Table
}

type Partition struct {
	Name  string
	Table *table.Table
}

// Counts summarise an endorsement run.
type Counts struct {
	Total       int `json:"total"`
	NewEndo     int `json:"new_endo"`
	ReEndo      int `json:"reendo"`
	WithPastDue int `json:"with_past_due"`
	ZeroPastDue int `json:"zero_past_due"`
	Masterlist  int `json:"masterlist"`
	Unmatched   int `json:"unmatched_endorsement"`
	Dropped     int `json:"dropped_keyless_rows"`
	NoDueDate   int `json:"no_due_date"`
}

// Output is everything a run produces.
type Output struct {
	Flow       string
	RunDate    time.Time
	Partitions []Partition
	Masterlist *table.Table
	// Appended holds the rows this run added to the masterlist.
	Appended *table.Table
	Counts   Counts
	Daily    *delta.Metrics
	Warnings []string
}

func (o *Output) Partition(name string) *table.Table {
	for _, p := range o.Partitions {
		if p.Name == name {
			return p.Table
		}
	}
	return nil
}

// Run executes flow over in. Fatal errors return no output.
func Run(flow Flow, in Inputs, runDate time.Time) (*Output, error) {
	runDate = dates.DateOnly(runDate)
	logger := log.WithFields(log.Fields{"flow": flow.Name, "as_of": dates.Format(runDate)})
	if in.TAD == nil {
		return nil, fmt.Errorf("%s flow: transactions: %w", flow.Name, ErrMissingInput)
	}
	if flow.RequireHistory && in.Masterlist == nil {
		return nil, fmt.Errorf("%s flow: masterlist: %w", flow.Name, ErrMissingInput)
	}

	var (
		out *Output
		err error
	)
	if flow.Delta {
		out, err = runDaily(in, runDate)
	} else {
		out, err = runEndorsement(flow, in, runDate, logger)
	}
	if err != nil {
		return nil, err
	}
	out.Flow = flow.Name
	out.RunDate = runDate
	for _, w := range out.Warnings {
		logger.Warn(w)
	}
	for _, p := range out.Partitions {
		logger.WithFields(log.Fields{"partition": p.Name, "rows": p.Table.Len()}).Debug("partition ready")
	}
	logger.WithField("partitions", len(out.Partitions)).Info("run complete")
	return out, nil
}

func runEndorsement(flow Flow, in Inputs, runDate time.Time, logger *log.Entry) (*Output, error) {
	if in.Endorsement == nil {
		return nil, fmt.Errorf("%s flow: endorsement: %w", flow.Name, ErrMissingInput)
	}
	out := &Output{}

	tad, dropped := schema.Prepare(in.TAD)
	if err := schema.Require(tad, "transactions", schema.LAN); err != nil {
		return nil, err
	}
	schema.ApplyRenames(tad, schema.TADRenames)
	active := tad.DedupLast(schema.LAN).Project(schema.Worklist)

	endorsement := in.Endorsement.Clone()
	endorsement.RenameColumns(schema.NormalizeHeader)
	schema.ApplyRenames(endorsement, []schema.Rename{{Source: schema.EndorsementAcctNo, Target: schema.LAN}})
	endorsement, droppedEndo := schema.Prepare(endorsement)
	if err := schema.Require(endorsement, "endorsement", schema.LAN); err != nil {
		return nil, err
	}
	out.Counts.Dropped = dropped + droppedEndo

	merged, stats := mapper.Merge(active, endorsement, schema.LAN, flow.EndorsementRenames, flow.Precedence)
	out.Counts.Unmatched = stats.Unmatched
	logger.WithFields(log.Fields{
		"rows":      merged.Len(),
		"matched":   stats.Matched,
		"unmatched": stats.Unmatched,
		"policy":    flow.Precedence.String(),
	}).Info("endorsement merged")

	var masterlist *table.Table
	var history *classify.History
	if in.Masterlist != nil && flow.CheckHistory {
		masterlist, _ = schema.Prepare(in.Masterlist)
		if err := schema.Require(masterlist, "masterlist", schema.LAN); err != nil {
			if flow.RequireHistory {
				return nil, err
			}
			out.Warnings = append(out.Warnings, "masterlist has no LAN column; every account is classified NEW ENDO")
			masterlist = nil
		} else {
			history = classify.NewHistory(masterlist)
		}
	}
	if history == nil {
		history = classify.NewHistory(nil)
	}

	res := classify.Apply(merged, history, runDate)
	if history.Len() > 0 {
		if err := classify.Validate(merged); err != nil {
			return nil, err
		}
	}
	out.Counts.NoDueDate = duedate.Apply(merged)
	if out.Counts.NoDueDate > 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%d account(s) have no usable oldest due date", out.Counts.NoDueDate))
	}

	final := schema.Standardize(merged)
	reendo := final.Filter(func(i int) bool {
		return final.Get(i, schema.Classification) == string(classify.ReEndo)
	})
	newEndo := final.Filter(func(i int) bool {
		return final.Get(i, schema.Classification) == string(classify.NewEndo)
	})
	consolidated := table.New(schema.Worklist...)
	if masterlist != nil {
		consolidated = masterlist.Clone()
	}
	consolidated.Concat(newEndo)

	out.Counts.Total = final.Len()
	out.Counts.NewEndo = res.NewEndo
	out.Counts.ReEndo = res.ReEndo
	for i := 0; i < final.Len(); i++ {
		if money.Positive(final.Get(i, schema.PastDue)) {
			out.Counts.WithPastDue++
		} else {
			out.Counts.ZeroPastDue++
		}
	}
	out.Counts.Masterlist = consolidated.Len()
	out.Masterlist = consolidated
	out.Appended = newEndo
	out.Partitions = []Partition{
		{ActiveFile, final},
		{ForUpload, final.Clone()},
		{ReEndoAccounts, reendo},
		{ConsolidatedMasterlist, consolidated},
	}
	return out, nil
}

func runDaily(in Inputs, runDate time.Time) (*Output, error) {
	if in.Active == nil {
		return nil, fmt.Errorf("daily flow: active list: %w", ErrMissingInput)
	}
	res, err := delta.Reconcile(delta.Input{
		Yesterday:  in.Active,
		Today:      in.TAD,
		Masterlist: in.Masterlist,
		RunDate:    runDate,
	})
	if err != nil {
		return nil, err
	}
	metrics := res.Metrics
	return &Output{
		Daily:      &metrics,
		Masterlist: res.Masterlist,
		Appended:   res.Revive,
		Warnings:   res.Warnings,
		Counts: Counts{
			Total:      res.FinalActive.Len(),
			ReEndo:     res.Revive.Len(),
			Masterlist: res.Masterlist.Len(),
			Dropped:    res.Metrics.DroppedKeylessRows,
		},
		Partitions: []Partition{
			{ActiveWorklist, res.FinalActive},
			{PulledOut, res.Pullout},
			{ReviveAccountsRaw, res.ReviveRaw},
			{ForUpdate, res.ForUpdate},
			{ForUpload, res.ForUpload},
			{ConsolidatedMasterlist, res.Masterlist},
		},
	}, nil
}
