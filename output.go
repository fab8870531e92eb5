package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"curing-worklist/internal/align"
	"curing-worklist/internal/classify"
	"curing-worklist/internal/dates"
	"curing-worklist/internal/delta"
	"curing-worklist/internal/pipeline"
	"curing-worklist/internal/store"
)

// maxListed caps warnings and offending records printed to the terminal.
// The JSON output always carries all of them.
const maxListed = 20

type outputFile struct {
	Partition string `json:"partition"`
	Path      string `json:"path"`
	Rows      int    `json:"rows"`
}

type runSummary struct {
	Flow     string          `json:"flow"`
	AsOf     string          `json:"as_of"`
	Counts   pipeline.Counts `json:"counts"`
	Daily    *delta.Metrics  `json:"daily,omitempty"`
	Outputs  []outputFile    `json:"outputs"`
	Warnings []string        `json:"warnings,omitempty"`
	RunID    string          `json:"run_id,omitempty"`
}

func newSummary(out *pipeline.Output) runSummary {
	return runSummary{
		Flow:     out.Flow,
		AsOf:     out.RunDate.Format(dates.ISOLayout),
		Counts:   out.Counts,
		Daily:    out.Daily,
		Warnings: out.Warnings,
	}
}

type failureReport struct {
	Error     string               `json:"error"`
	Offending []classify.Offending `json:"offending,omitempty"`
}

func newFailure(err error) failureReport {
	report := failureReport{Error: err.Error()}
	var verr *pipeline.ValidationError
	if errors.As(err, &verr) {
		report.Offending = verr.Records
	}
	return report
}

func storeRun(out *pipeline.Output) store.Run {
	run := store.Run{
		Flow:    out.Flow,
		AsOf:    out.RunDate,
		Total:   out.Counts.Total,
		NewEndo: out.Counts.NewEndo,
		ReEndo:  out.Counts.ReEndo,
	}
	if out.Masterlist != nil {
		run.MasterlistSize = out.Masterlist.Len()
	}
	if d := out.Daily; d != nil {
		run.Pullout = d.Pullout
		run.Revive = d.Revive
		run.ForUpdate = d.ForUpdate
		run.ForUpload = d.ForUpload
	} else if p := out.Partition(pipeline.ForUpload); p != nil {
		run.ForUpload = p.Len()
	}
	return run
}

func printSummary(w io.Writer, s runSummary) {
	title := fmt.Sprintf("Curing Worklist: %s run", s.Flow)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", len(title)))
	fmt.Fprintf(w, "As of: %s\n", s.AsOf)
	if d := s.Daily; d != nil {
		fmt.Fprintf(w, "Transactions: %d (with past due %d)\n", d.TotalTAD, d.TADPastDue)
		fmt.Fprintf(w, "Active with past due: %d | Pulled out: %d | Revived: %d\n", d.ActivePastDue, d.Pullout, d.Revive)
		fmt.Fprintf(w, "For update: %d | For upload: %d | Final active: %d\n", d.ForUpdate, d.ForUpload, d.FinalActive)
	} else {
		c := s.Counts
		fmt.Fprintf(w, "Accounts: %d | NEW ENDO: %d | REENDO: %d\n", c.Total, c.NewEndo, c.ReEndo)
		fmt.Fprintf(w, "With past due: %d | Zero past due: %d\n", c.WithPastDue, c.ZeroPastDue)
		if c.Unmatched > 0 {
			fmt.Fprintf(w, "Not in endorsement: %d\n", c.Unmatched)
		}
	}
	fmt.Fprintf(w, "Masterlist size: %d\n", s.Counts.Masterlist)
	if s.Counts.Dropped > 0 {
		fmt.Fprintf(w, "Rows without LAN skipped: %d\n", s.Counts.Dropped)
	}
	if s.RunID != "" {
		fmt.Fprintf(w, "Stored run: %s\n", s.RunID)
	}

	if len(s.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings")
		fmt.Fprintln(w, strings.Repeat("-", 38))
		for i, warning := range s.Warnings {
			if i == maxListed {
				fmt.Fprintf(w, "... and %d more\n", len(s.Warnings)-maxListed)
				break
			}
			fmt.Fprintln(w, warning)
		}
	}

	fmt.Fprintln(w, "\nOutputs")
	fmt.Fprintln(w, strings.Repeat("-", 38))
	for _, f := range s.Outputs {
		fmt.Fprintf(w, "%s | %d rows | %s\n", f.Partition, f.Rows, f.Path)
	}
}

func printAlignReport(w io.Writer, rep align.Report) {
	fmt.Fprintln(w, "Column mapping")
	fmt.Fprintln(w, strings.Repeat("=", 38))
	for _, column := range rep.Standard {
		if input, ok := rep.Found[column]; ok {
			fmt.Fprintf(w, "%s <- %s\n", column, input)
		} else {
			fmt.Fprintf(w, "%s <- (missing)\n", column)
		}
	}
	if len(rep.Unrecognized) > 0 {
		fmt.Fprintln(w, "\nUnrecognized input columns")
		fmt.Fprintln(w, strings.Repeat("-", 38))
		for _, input := range rep.Unrecognized {
			if suggestion := rep.Suggestions[input]; suggestion != "" {
				fmt.Fprintf(w, "%s (did you mean %s?)\n", input, suggestion)
			} else {
				fmt.Fprintln(w, input)
			}
		}
	}
	fmt.Fprintln(w)
}

// printFailure lists the records behind a validation failure.
func printFailure(w io.Writer, err error) {
	var verr *pipeline.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	fmt.Fprintln(w, "Offending REENDO accounts")
	fmt.Fprintln(w, strings.Repeat("-", 38))
	for i, r := range verr.Records {
		if i == maxListed {
			fmt.Fprintf(w, "... and %d more\n", len(verr.Records)-maxListed)
			break
		}
		fmt.Fprintf(w, "%s | %s | %s | referred %s | endorsed %s\n", r.LAN, r.Name, r.Classification, r.DateReferred, r.EndoDate)
	}
}

func writeJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
