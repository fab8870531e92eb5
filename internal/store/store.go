// Package store persists the consolidated masterlist and a ledger of runs
// in Postgres. Masterlist entries are append-only.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"curing-worklist/internal/dates"
	"curing-worklist/internal/schema"
	"curing-worklist/internal/table"
)

const queryTimeout = 30 * time.Second

type Config struct {
	URL string
	Tag string
}

type Store struct {
	db  *sql.DB
	tag string
}

// Open connects and pings the database.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL missing; set CURING_WORKLIST_DB_URL or DATABASE_URL")
	}
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db, tag: cfg.Tag}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Run is one reconciliation run to record.
type Run struct {
	Flow           string
	AsOf           time.Time
	Total          int
	NewEndo        int
	ReEndo         int
	Pullout        int
	Revive         int
	ForUpdate      int
	ForUpload      int
	MasterlistSize int
}

// LoadMasterlist returns every stored entry in insertion order. Columns are
// the worklist schema followed by any extra stored fields, sorted.
func (s *Store) LoadMasterlist(ctx context.Context) (*table.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT record FROM masterlist_entries
		ORDER BY created_at, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []map[string]string
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var record map[string]string
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("decode masterlist entry: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recordsTable(records), nil
}

func (s *Store) CountMasterlist(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM masterlist_entries`).Scan(&count)
	return count, err
}

// SaveRun records run and appends entries to the masterlist in a single
// transaction. It returns the run id.
func (s *Store) SaveRun(ctx context.Context, run Run, entries *table.Table) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	runID := uuid.New()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, flow, as_of, total_accounts, new_endo_count, reendo_count,
			pullout_count, revive_count, for_update_count, for_upload_count,
			masterlist_size, run_tag
		) VALUES (
			$1,$2,$3,$4,$5,$6,
			$7,$8,$9,$10,
			$11,$12
		)`,
		runID,
		run.Flow,
		dates.DateOnly(run.AsOf),
		run.Total,
		run.NewEndo,
		run.ReEndo,
		run.Pullout,
		run.Revive,
		run.ForUpdate,
		run.ForUpload,
		run.MasterlistSize,
		nullString(s.tag),
	)
	if err != nil {
		return "", err
	}
	if err = appendEntries(ctx, tx, runID, entries); err != nil {
		return "", err
	}
	if err = tx.Commit(); err != nil {
		return "", err
	}
	log.WithFields(log.Fields{"run_id": runID, "flow": run.Flow, "appended": lenOf(entries)}).Info("stored run")
	return runID.String(), nil
}

// Seed imports a masterlist when the store holds none yet. It returns the
// run id, or "" when entries already exist.
func (s *Store) Seed(ctx context.Context, masterlist *table.Table, asOf time.Time) (string, error) {
	count, err := s.CountMasterlist(ctx)
	if err != nil {
		return "", err
	}
	if count > 0 {
		log.WithField("entries", count).Info("masterlist already present; skipping seed")
		return "", nil
	}
	return s.SaveRun(ctx, Run{Flow: "import", AsOf: asOf, Total: masterlist.Len(), MasterlistSize: masterlist.Len()}, masterlist)
}

func appendEntries(ctx context.Context, tx *sql.Tx, runID uuid.UUID, entries *table.Table) error {
	if entries == nil {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO masterlist_entries (id, run_id, position, lan, record)
		VALUES ($1,$2,$3,$4,$5)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < entries.Len(); i++ {
		record := entries.Record(i)
		lan := schema.NormalizeKey(record[schema.LAN])
		if lan == "" {
			continue
		}
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, uuid.New(), runID, i, lan, data); err != nil {
			return err
		}
	}
	return nil
}

// recordsTable builds a table from stored records: worklist columns first,
// then any other keys in sorted order.
func recordsTable(records []map[string]string) *table.Table {
	extra := map[string]struct{}{}
	for _, record := range records {
		for column := range record {
			if !schema.Contains(schema.Worklist, column) {
				extra[column] = struct{}{}
			}
		}
	}
	header := append([]string{}, schema.Worklist...)
	extras := make([]string, 0, len(extra))
	for column := range extra {
		extras = append(extras, column)
	}
	sort.Strings(extras)
	header = append(header, extras...)

	t := table.New(header...)
	for _, record := range records {
		row := make([]string, len(header))
		for i, column := range header {
			row[i] = record[column]
		}
		t.AppendRow(row)
	}
	return t
}

func lenOf(t *table.Table) int {
	if t == nil {
		return 0
	}
	return t.Len()
}

func nullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
