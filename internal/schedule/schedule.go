// Package schedule runs the daily flow on a cron schedule against the
// newest files dropped into a directory.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"curing-worklist/internal/tabular"
)

// ErrNoInput is returned when the drop directory lacks a required file.
var ErrNoInput = errors.New("no matching input file")

// Files are the inputs picked for one scheduled run.
type Files struct {
	Active     string
	TAD        string
	Masterlist string // optional
}

type Job func(ctx context.Context, files Files) error

// Newest returns, per role, the most recently modified file in dir whose
// name satisfies that role's file name pattern.
func Newest(dir string) (Files, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Files{}, err
	}
	newest := map[string]time.Time{}
	picked := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		for _, role := range []string{"active", "tad", "masterlist"} {
			if !tabular.MatchesRole(role, entry.Name()) {
				continue
			}
			if info.ModTime().After(newest[role]) {
				newest[role] = info.ModTime()
				picked[role] = filepath.Join(dir, entry.Name())
			}
		}
	}
	files := Files{Active: picked["active"], TAD: picked["tad"], Masterlist: picked["masterlist"]}
	if files.Active == "" {
		return files, fmt.Errorf("active list in %s: %w", dir, ErrNoInput)
	}
	if files.TAD == "" {
		return files, fmt.Errorf("transactions in %s: %w", dir, ErrNoInput)
	}
	return files, nil
}

// Runner owns the cron scheduler.
type Runner struct {
	cron *cron.Cron
	dir  string
	job  Job
}

// New schedules job on the cron expression expr. Overlapping ticks are
// skipped while a run is still in progress.
func New(expr, dir string, loc *time.Location, job Job) (*Runner, error) {
	if loc == nil {
		loc = time.Local
	}
	logger := cron.PrintfLogger(log.StandardLogger())
	r := &Runner{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		dir: dir,
		job: job,
	}
	if _, err := r.cron.AddFunc(expr, r.Tick); err != nil {
		return nil, fmt.Errorf("unable to schedule daily run: %w", err)
	}
	return r, nil
}

// Tick performs one run. Failures are logged; the schedule continues.
func (r *Runner) Tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	files, err := Newest(r.dir)
	if err != nil {
		log.WithError(err).Warn("scheduled run skipped")
		return
	}
	logger := log.WithFields(log.Fields{"active": files.Active, "tad": files.TAD, "masterlist": files.Masterlist})
	logger.Info("scheduled run started")
	if err := r.job(ctx, files); err != nil {
		logger.WithError(err).Error("scheduled run failed")
		return
	}
	logger.Info("scheduled run finished")
}

func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts the schedule; the returned context is done once a running
// job has finished.
func (r *Runner) Stop() context.Context {
	return r.cron.Stop()
}

func (r *Runner) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(time.Now())
}
