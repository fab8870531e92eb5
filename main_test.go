package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curing-worklist/internal/dates"
	"curing-worklist/internal/pipeline"
	"curing-worklist/internal/schema"
	"curing-worklist/internal/table"
	"curing-worklist/internal/tabular"
)

const tadPreamble = "TRANSACTION ACTIVITY\nSPM M1\nAS OF 03/05/2024\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readOutput(t *testing.T, path string) *table.Table {
	t.Helper()
	out, err := tabular.Reader{}.ReadFile(path, tabular.Options{})
	require.NoError(t, err)
	return out
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := dates.Parse(value)
	require.NoError(t, err)
	return parsed
}

func quietLogs(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("CURING_WORKLIST_DB_URL", "")
	t.Setenv("DATABASE_URL", "")
}

func endorsementFiles(t *testing.T, referred string) (dir, tad, endorsement, masterlist string) {
	dir = t.TempDir()
	tad = writeFile(t, dir, "tad.csv", tadPreamble+
		"LAN,NAME,PAST DUE,CU PAYMENT AMT\n"+
		"L1,Ana,100,5\n"+
		"L2,Ben,0,\n"+
		"L3,Cruz,50,\n")
	endorsement = writeFile(t, dir, "endorsement.csv",
		"ACCTNUM,OLDEST_DUE_DATE,EMAIL_ALS\n"+
			"L1,01/31/2024,ana@example.com\n")
	masterlist = writeFile(t, dir, "masterlist.csv",
		"LAN,DATE REFERRED\n"+
			"L1,"+referred+"\n")
	return dir, tad, endorsement, masterlist
}

func TestRunEndorse(t *testing.T) {
	quietLogs(t)
	dir, tad, endorsement, masterlist := endorsementFiles(t, "12/01/2023")
	outDir := filepath.Join(dir, "out")
	jsonPath := filepath.Join(dir, "summary.json")

	var stdout bytes.Buffer
	err := runEndorse([]string{
		"--flow", "monthly",
		"--tad", tad,
		"--endorsement", endorsement,
		"--masterlist", masterlist,
		"--out-dir", outDir,
		"--format", "csv",
		"--as-of", "2024-03-05",
		"--json", jsonPath,
	}, &stdout)
	require.NoError(t, err)

	t.Run("partitions written", func(t *testing.T) {
		for _, name := range []string{"ACTIVE FILE", "FOR UPLOAD", "REENDO ACCOUNTS", "CONSOLIDATED MASTERLIST"} {
			assert.FileExists(t, filepath.Join(outDir, name+" 030524.csv"))
		}
		active := readOutput(t, filepath.Join(outDir, "ACTIVE FILE 030524.csv"))
		assert.Equal(t, schema.Worklist, active.Header())
		assert.Equal(t, "REENDO", active.Get(0, schema.Classification))
		assert.Equal(t, "12/01/2023", active.Get(0, schema.DateReferred))
		assert.Equal(t, "02/29/2024", active.Get(0, schema.NextDueDate))

		consolidated := readOutput(t, filepath.Join(outDir, "CONSOLIDATED MASTERLIST 030524.csv"))
		assert.Equal(t, []string{"L1", "L2", "L3"}, consolidated.Column(schema.LAN))
	})

	t.Run("summary", func(t *testing.T) {
		assert.Contains(t, stdout.String(), "Accounts: 3 | NEW ENDO: 2 | REENDO: 1")
		assert.Contains(t, stdout.String(), "Masterlist size: 3")

		data, err := os.ReadFile(jsonPath)
		require.NoError(t, err)
		var summary runSummary
		require.NoError(t, json.Unmarshal(data, &summary))
		assert.Equal(t, "monthly", summary.Flow)
		assert.Equal(t, "2024-03-05", summary.AsOf)
		assert.Equal(t, 2, summary.Counts.NewEndo)
		assert.Len(t, summary.Outputs, 4)
		assert.Nil(t, summary.Daily)
	})
}

func TestRunEndorseValidationFailure(t *testing.T) {
	quietLogs(t)
	dir, tad, endorsement, masterlist := endorsementFiles(t, "NaT")
	outDir := filepath.Join(dir, "out")
	jsonPath := filepath.Join(dir, "failure.json")

	err := runEndorse([]string{
		"--tad", tad,
		"--endorsement", endorsement,
		"--masterlist", masterlist,
		"--out-dir", outDir,
		"--as-of", "2024-03-05",
		"--json", jsonPath,
	}, &bytes.Buffer{})

	var verr *pipeline.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.NoDirExists(t, outDir)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var report failureReport
	require.NoError(t, json.Unmarshal(data, &report))
	require.Len(t, report.Offending, 1)
	assert.Equal(t, "L1", report.Offending[0].LAN)

	var stderr bytes.Buffer
	printFailure(&stderr, verr)
	assert.Contains(t, stderr.String(), "L1 | Ana | REENDO | referred 03/05/2024 | endorsed 03/05/2024")
}

func dailyFiles(t *testing.T, dir string) (active, tad, masterlist string) {
	active = writeFile(t, dir, "ACTIVE WORKLIST 030424.csv",
		"LAN,NAME,PAST DUE\n"+
			"L1,Ana,100\n"+
			"L2,Ben,100\n")
	tad = writeFile(t, dir, "TAD_SPM M1_03.05.2024.csv", tadPreamble+
		"LAN,PAST DUE\n"+
		"L1,200\n"+
		"L3,300\n")
	masterlist = writeFile(t, dir, "MASTERLIST 03042024.csv",
		"LAN,DATE REFERRED,OLDEST DUE DATE\n"+
			"L3,01/15/2024,01/20/2024\n")
	return active, tad, masterlist
}

func TestRunDaily(t *testing.T) {
	quietLogs(t)
	dir := t.TempDir()
	active, tad, masterlist := dailyFiles(t, dir)
	outDir := filepath.Join(dir, "out")

	var stdout bytes.Buffer
	err := runDailyCommand([]string{
		"--active", active,
		"--tad", tad,
		"--masterlist", masterlist,
		"--out-dir", outDir,
		"--format", "csv",
		"--as-of", "2024-03-05",
	}, &stdout)
	require.NoError(t, err)

	worklist := readOutput(t, filepath.Join(outDir, "ACTIVE WORKLIST 030524.csv"))
	assert.Equal(t, []string{"L1", "L3"}, worklist.Column(schema.LAN))
	assert.Equal(t, "01/15/2024", worklist.Get(1, schema.DateReferred))
	assert.Equal(t, "REENDO", worklist.Get(1, schema.Classification))

	pulled := readOutput(t, filepath.Join(outDir, "PULLED OUT 030524.csv"))
	assert.Equal(t, []string{"L2"}, pulled.Column(schema.LAN))

	forUpdate := readOutput(t, filepath.Join(outDir, "FOR UPDATE 030524.csv"))
	assert.Equal(t, []string{"L1"}, forUpdate.Column(schema.LAN))

	consolidated := readOutput(t, filepath.Join(outDir, "CONSOLIDATED MASTERLIST 030524.csv"))
	assert.Equal(t, []string{"L3", "L3"}, consolidated.Column(schema.LAN))

	assert.Contains(t, stdout.String(), "Active with past due: 1 | Pulled out: 1 | Revived: 1")
}

func TestRunDailyFilenameContract(t *testing.T) {
	quietLogs(t)
	dir := t.TempDir()
	active := writeFile(t, dir, "yesterday.csv", "LAN,PAST DUE\nL1,1\n")
	tad := writeFile(t, dir, "today.csv", tadPreamble+"LAN,PAST DUE\nL1,1\n")
	args := []string{"--active", active, "--tad", tad, "--out-dir", filepath.Join(dir, "out"), "--format", "csv"}

	err := runDailyCommand(args, &bytes.Buffer{})
	assert.ErrorIs(t, err, tabular.ErrFilenameContract)
	assert.Contains(t, err.Error(), "yesterday.csv")
	assert.Contains(t, err.Error(), "today.csv")

	require.NoError(t, runDailyCommand(append(args, "--skip-filename-check"), &bytes.Buffer{}))
}

func TestRunScheduleOnce(t *testing.T) {
	quietLogs(t)
	dir := t.TempDir()
	dailyFiles(t, dir)

	var stdout bytes.Buffer
	err := runSchedule([]string{"--drop-dir", dir, "--once", "--format", "csv", "--as-of", "2024-03-05"}, &stdout)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "output", "ACTIVE WORKLIST 030524.csv"))
	assert.Contains(t, stdout.String(), "daily run")
}

func TestRunAlign(t *testing.T) {
	quietLogs(t)
	dir := t.TempDir()
	input := writeFile(t, dir, "FOR UPLOAD batch.csv",
		"Account Number,Debtor Name,Overdue Amount,Referral Date,Past Dues\n"+
			"L1,Ana,\"1,000\",2024-01-05,x\n")

	var stdout bytes.Buffer
	err := runAlign([]string{"--input", input, "--format", "csv", "--as-of", "2024-03-05", "--report"}, &stdout)
	require.NoError(t, err)

	aligned := readOutput(t, filepath.Join(dir, "BPI_AUTOCURING_FORUPLOADS_03052024.csv"))
	assert.Equal(t, schema.Alignment, aligned.Header())
	assert.Equal(t, "L1", aligned.Get(0, schema.LAN))
	assert.Equal(t, "1,000", aligned.Get(0, schema.PastDue))
	assert.Equal(t, "1/05/2024", aligned.Get(0, schema.DateReferred))

	assert.Contains(t, stdout.String(), "PAST DUE <- OVERDUE AMOUNT")
	assert.Contains(t, stdout.String(), "PAST DUES")

	t.Run("explicit output path", func(t *testing.T) {
		out := filepath.Join(dir, "aligned.csv")
		require.NoError(t, runAlign([]string{"--input", input, "--out", out}, &bytes.Buffer{}))
		assert.Equal(t, 1, readOutput(t, out).Len())
	})
}

func TestUsageErrors(t *testing.T) {
	quietLogs(t)
	tests := map[string]func() error{
		"align without input":    func() error { return runAlign(nil, &bytes.Buffer{}) },
		"endorse without files":  func() error { return runEndorse(nil, &bytes.Buffer{}) },
		"endorse daily flow":     func() error { return runEndorse([]string{"--flow", "daily"}, &bytes.Buffer{}) },
		"endorse unknown flow":   func() error { return runEndorse([]string{"--flow", "hourly"}, &bytes.Buffer{}) },
		"daily without files":    func() error { return runDailyCommand(nil, &bytes.Buffer{}) },
		"unknown flag":           func() error { return runDailyCommand([]string{"--nope"}, &bytes.Buffer{}) },
		"stray argument":         func() error { return runAlign([]string{"extra"}, &bytes.Buffer{}) },
		"schedule without dir":   func() error { return runSchedule(nil, &bytes.Buffer{}) },
		"migrate without action": func() error { return runMigrate(nil, &bytes.Buffer{}) },
		"migrate bad steps":      func() error { return runMigrate([]string{"down", "x"}, &bytes.Buffer{}) },
		"migrate extra argument": func() error { return runMigrate([]string{"up", "1"}, &bytes.Buffer{}) },
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, fn(), errUsage)
		})
	}
}

func TestRunMigrateRequiresDatabase(t *testing.T) {
	quietLogs(t)
	err := runMigrate([]string{"status"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, errUsage)
	assert.Contains(t, err.Error(), "database URL missing")
}

func TestStoreRun(t *testing.T) {
	out, err := pipeline.Run(pipeline.Daily, pipeline.Inputs{
		Active: table.FromRows([]string{"LAN", "PAST DUE"}, [][]string{{"L1", "1"}, {"L2", "1"}}),
		TAD:    table.FromRows([]string{"LAN", "PAST DUE"}, [][]string{{"L1", "2"}, {"L3", "3"}}),
	}, mustDate(t, "2024-03-05"))
	require.NoError(t, err)

	run := storeRun(out)
	assert.Equal(t, "daily", run.Flow)
	assert.Equal(t, 1, run.Pullout)
	assert.Equal(t, 1, run.Revive)
	assert.Equal(t, 1, run.ForUpdate)
	assert.Equal(t, 1, run.ForUpload)
	assert.Equal(t, 1, run.MasterlistSize)
}
