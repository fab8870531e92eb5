package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"curing-worklist/internal/align"
	"curing-worklist/internal/config"
	"curing-worklist/internal/dates"
	"curing-worklist/internal/pipeline"
	"curing-worklist/internal/schedule"
	"curing-worklist/internal/schema"
	"curing-worklist/internal/store"
	"curing-worklist/internal/tabular"
)

const roleAlign = "align"

type commonFlags struct {
	asOf       string
	format     string
	jsonPath   string
	configPath string
	db         bool
	dbTag      string
	verbose    bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.asOf, "as-of", "", "Run date (YYYY-MM-DD); default today")
	fs.StringVar(&c.format, "format", "xlsx", "Output format (xlsx, csv)")
	fs.StringVar(&c.jsonPath, "json", "", "Optional JSON summary output path")
	fs.StringVar(&c.configPath, "config", "", "Optional YAML configuration file")
	fs.BoolVar(&c.db, "db", false, "Load and store the masterlist in Postgres (requires CURING_WORKLIST_DB_URL or DATABASE_URL)")
	fs.StringVar(&c.dbTag, "db-tag", "", "Optional label for this run")
	fs.BoolVar(&c.verbose, "verbose", false, "Enable debug logging")
}

// runEnv is the resolved state shared by every command.
type runEnv struct {
	cfg     config.Config
	runDate time.Time
	format  tabular.Format
}

func (c *commonFlags) resolve() (runEnv, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return runEnv{}, err
	}
	if err := config.SetupLogging(cfg.LogLevel, c.verbose); err != nil {
		return runEnv{}, err
	}
	format, err := tabular.ParseFormat(c.format)
	if err != nil {
		return runEnv{}, usagef("invalid --format: %v", err)
	}
	runDate := time.Now()
	if c.asOf != "" {
		parsed, err := dates.Parse(c.asOf)
		if err != nil {
			return runEnv{}, usagef("invalid --as-of date: %v", err)
		}
		runDate = parsed
	}
	return runEnv{cfg: cfg, runDate: dates.DateOnly(runDate), format: format}, nil
}

// parseFlags parses args, allowing at most maxArgs positional arguments.
func parseFlags(fs *flag.FlagSet, args []string, maxArgs int) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usagef("%v", err)
	}
	if fs.NArg() > maxArgs {
		return usagef("unexpected argument %q", fs.Arg(maxArgs))
	}
	return nil
}

func runAlign(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("align", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	input := fs.String("input", "", "Path to the export to align")
	out := fs.String("out", "", "Output path; default is named after the input's purpose")
	sheet := fs.String("sheet", "", "Sheet name or zero-based index")
	headerRow := fs.Int("header-row", -1, "Zero-based header row (default 0)")
	report := fs.Bool("report", false, "Print how input columns map onto the schema")
	if err := parseFlags(fs, args, 0); err != nil {
		return err
	}
	if *input == "" {
		return usagef("--input is required")
	}
	env, err := common.resolve()
	if err != nil {
		return err
	}

	env.cfg.Override(roleAlign, *sheet, *headerRow)
	src, err := tabular.Reader{}.ReadFile(*input, env.cfg.Options(roleAlign))
	if err != nil {
		return &pipeline.InputError{Role: roleAlign, Path: *input, Err: err}
	}

	aligner := align.New(schema.Alignment)
	aligner.Aliases = env.cfg.Aliases
	aligner.DateLayout = env.cfg.DateFormat
	aligned := aligner.Align(src)
	rep := aligner.Report(src)
	log.WithFields(log.Fields{
		"input":        *input,
		"rows":         aligned.Len(),
		"mapped":       len(rep.Found),
		"missing":      len(rep.Missing),
		"unrecognized": len(rep.Unrecognized),
	}).Info("aligned")

	path, format := *out, env.format
	if path == "" {
		path = filepath.Join(filepath.Dir(*input), align.OutputStem(*input, env.runDate)+format.Ext())
	} else if f, err := tabular.ParseFormat(filepath.Ext(path)); err == nil {
		format = f
	}
	written, err := tabular.WriteFile(filepath.Dir(path), filepath.Base(path), aligned, format)
	if err != nil {
		return err
	}

	if *report {
		printAlignReport(stdout, rep)
	}
	fmt.Fprintf(stdout, "Aligned %d rows from %s to %s\n", aligned.Len(), filepath.Base(*input), written)
	if common.jsonPath != "" {
		if err := writeJSON(rep, common.jsonPath); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "JSON report saved to %s\n", common.jsonPath)
	}
	return nil
}

func runEndorse(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("endorse", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	flowName := fs.String("flow", "monthly", "Endorsement flow (monthly, weekly)")
	tad := fs.String("tad", "", "Path to the transaction activity export")
	endorsement := fs.String("endorsement", "", "Path to the endorsement export")
	masterlist := fs.String("masterlist", "", "Path to the masterlist; with --db the stored masterlist is used when omitted")
	outDir := fs.String("out-dir", ".", "Directory for output files")
	if err := parseFlags(fs, args, 0); err != nil {
		return err
	}
	flow, err := pipeline.FlowByName(*flowName)
	if err != nil {
		return usagef("%v", err)
	}
	if flow.Delta {
		return usagef("the %s flow runs through the daily command", flow.Name)
	}
	if *tad == "" || *endorsement == "" {
		return usagef("--tad and --endorsement are required")
	}
	env, err := common.resolve()
	if err != nil {
		return err
	}

	sources := []pipeline.Source{
		{Role: pipeline.RoleTAD, Path: *tad, Options: env.cfg.Options(pipeline.RoleTAD)},
		{Role: pipeline.RoleEndorsement, Path: *endorsement, Options: env.cfg.Options(pipeline.RoleEndorsement)},
		{Role: pipeline.RoleMasterlist, Path: *masterlist, Options: env.cfg.Options(pipeline.RoleMasterlist)},
	}
	return execute(context.Background(), runRequest{
		flow:    flow,
		sources: sources,
		outDir:  *outDir,
		common:  common,
		env:     env,
	}, stdout)
}

func runDailyCommand(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("daily", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	active := fs.String("active", "", "Path to yesterday's active worklist")
	tad := fs.String("tad", "", "Path to today's transaction activity export")
	masterlist := fs.String("masterlist", "", "Path to the masterlist; with --db the stored masterlist is used when omitted")
	outDir := fs.String("out-dir", ".", "Directory for output files")
	skipCheck := fs.Bool("skip-filename-check", false, "Accept input files whose names do not follow the naming contract")
	if err := parseFlags(fs, args, 0); err != nil {
		return err
	}
	if *active == "" || *tad == "" {
		return usagef("--active and --tad are required")
	}
	env, err := common.resolve()
	if err != nil {
		return err
	}

	sources := dailySources(env.cfg, schedule.Files{Active: *active, TAD: *tad, Masterlist: *masterlist})
	if !*skipCheck {
		if err := checkFilenames(sources); err != nil {
			return err
		}
	}
	return execute(context.Background(), runRequest{
		flow:    pipeline.Daily,
		sources: sources,
		outDir:  *outDir,
		common:  common,
		env:     env,
	}, stdout)
}

func runSchedule(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("schedule", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	cronExpr := fs.String("cron", "0 6 * * *", "Cron schedule (minute hour day-of-month month day-of-week)")
	dropDir := fs.String("drop-dir", "", "Directory receiving the daily input files")
	outDir := fs.String("out-dir", "", "Directory for output files (default <drop-dir>/output)")
	once := fs.Bool("once", false, "Process the newest files once and exit")
	if err := parseFlags(fs, args, 0); err != nil {
		return err
	}
	if *dropDir == "" {
		return usagef("--drop-dir is required")
	}
	env, err := common.resolve()
	if err != nil {
		return err
	}
	if *outDir == "" {
		*outDir = filepath.Join(*dropDir, "output")
	}

	job := func(ctx context.Context, files schedule.Files) error {
		jobEnv := env
		if common.asOf == "" {
			jobEnv.runDate = dates.DateOnly(time.Now())
		}
		return execute(ctx, runRequest{
			flow:    pipeline.Daily,
			sources: dailySources(env.cfg, files),
			outDir:  *outDir,
			common:  common,
			env:     jobEnv,
		}, stdout)
	}
	runner, err := schedule.New(*cronExpr, *dropDir, time.Local, job)
	if err != nil {
		return usagef("%v", err)
	}
	if *once {
		files, err := schedule.Newest(*dropDir)
		if err != nil {
			return err
		}
		return job(context.Background(), files)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runner.Start()
	log.WithFields(log.Fields{"cron": *cronExpr, "drop_dir": *dropDir, "next": runner.Next()}).Info("scheduler started")
	<-ctx.Done()
	log.Info("stopping scheduler")
	<-runner.Stop().Done()
	return nil
}

func runMigrate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	configPath := fs.String("config", "", "Optional YAML configuration file")
	verbose := fs.Bool("verbose", false, "Enable debug logging")
	if err := parseFlags(fs, args, 2); err != nil {
		return err
	}

	action := fs.Arg(0)
	steps := 1
	switch action {
	case "up", "status":
		if fs.NArg() > 1 {
			return usagef("migrate %s takes no arguments", action)
		}
	case "down":
		if fs.NArg() == 2 {
			n, err := strconv.Atoi(fs.Arg(1))
			if err != nil || n <= 0 {
				return usagef("invalid step count %q", fs.Arg(1))
			}
			steps = n
		}
	default:
		return usagef("migrate expects up, down [n] or status")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := config.SetupLogging(cfg.LogLevel, *verbose); err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("database URL missing; set CURING_WORKLIST_DB_URL or DATABASE_URL")
	}

	switch action {
	case "up":
		return store.MigrateUp(cfg.DatabaseURL)
	case "down":
		return store.MigrateDown(cfg.DatabaseURL, steps)
	default:
		status, err := store.MigrateStatus(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if !status.Applied {
			fmt.Fprintln(stdout, "No migrations applied")
			return nil
		}
		fmt.Fprintf(stdout, "Version: %d\nDirty: %t\n", status.Version, status.Dirty)
		return nil
	}
}

func dailySources(cfg config.Config, files schedule.Files) []pipeline.Source {
	return []pipeline.Source{
		{Role: pipeline.RoleActive, Path: files.Active, Options: cfg.Options(pipeline.RoleActive)},
		{Role: pipeline.RoleTAD, Path: files.TAD, Options: cfg.Options(pipeline.RoleTAD)},
		{Role: pipeline.RoleMasterlist, Path: files.Masterlist, Options: cfg.Options(pipeline.RoleMasterlist)},
	}
}

func checkFilenames(sources []pipeline.Source) error {
	var errs []error
	for _, src := range sources {
		if src.Path == "" {
			continue
		}
		if err := tabular.CheckFilename(src.Role, src.Path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type runRequest struct {
	flow    pipeline.Flow
	sources []pipeline.Source
	outDir  string
	common  commonFlags
	env     runEnv
}

// execute loads the inputs, runs the flow, writes every partition and,
// with --db, records the run.
func execute(ctx context.Context, req runRequest, stdout io.Writer) error {
	in, err := pipeline.Load(tabular.Reader{}, req.sources)
	if err != nil {
		return err
	}

	var st *store.Store
	if req.common.db {
		st, err = store.Open(ctx, store.Config{URL: req.env.cfg.DatabaseURL, Tag: req.common.dbTag})
		if err != nil {
			return err
		}
		defer st.Close()
		if in.Masterlist == nil {
			stored, err := st.LoadMasterlist(ctx)
			if err != nil {
				return fmt.Errorf("load stored masterlist: %w", err)
			}
			log.WithField("entries", stored.Len()).Info("loaded stored masterlist")
			if stored.Len() > 0 {
				in.Masterlist = stored
			}
		} else if _, err := st.Seed(ctx, in.Masterlist, req.env.runDate); err != nil {
			return fmt.Errorf("seed masterlist: %w", err)
		}
	}

	out, err := pipeline.Run(req.flow, in, req.env.runDate)
	if err != nil {
		if req.common.jsonPath != "" {
			if jerr := writeJSON(newFailure(err), req.common.jsonPath); jerr != nil {
				log.WithError(jerr).Warn("unable to write JSON failure report")
			}
		}
		return err
	}

	summary := newSummary(out)
	for _, p := range out.Partitions {
		name := tabular.FileName(p.Name, out.RunDate, req.env.format)
		path, err := tabular.WriteFile(req.outDir, name, p.Table, req.env.format)
		if err != nil {
			return fmt.Errorf("write %s: %w", p.Name, err)
		}
		summary.Outputs = append(summary.Outputs, outputFile{Partition: p.Name, Path: path, Rows: p.Table.Len()})
	}

	if st != nil {
		runID, err := st.SaveRun(ctx, storeRun(out), out.Appended)
		if err != nil {
			return fmt.Errorf("store run: %w", err)
		}
		summary.RunID = runID
	}

	printSummary(stdout, summary)
	if req.common.jsonPath != "" {
		if err := writeJSON(summary, req.common.jsonPath); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "\nJSON summary saved to %s\n", req.common.jsonPath)
	}
	return nil
}
