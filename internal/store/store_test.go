package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"curing-worklist/internal/schema"
	"curing-worklist/internal/table"
)

func TestRecordsTable(t *testing.T) {
	got := recordsTable([]map[string]string{
		{"LAN": "L1", "NAME": "Ana", "SOURCE FILE": "a.xlsx"},
		{"LAN": "L2", "BATCH": "7"},
	})
	header := got.Header()
	require.Len(t, header, len(schema.Worklist)+2)
	assert.Equal(t, schema.Worklist, header[:len(schema.Worklist)])
	assert.Equal(t, []string{"BATCH", "SOURCE FILE"}, header[len(schema.Worklist):])
	assert.Equal(t, "Ana", got.Get(0, "NAME"))
	assert.Equal(t, "7", got.Get(1, "BATCH"))
	assert.Equal(t, "", got.Get(1, "NAME"))
}

func setupDatabase(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("worklist_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{"test": "curing-worklist-store"}),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, MigrateUp(url))
	return url
}

func TestStore(t *testing.T) {
	url := setupDatabase(t)
	ctx := context.Background()

	s, err := Open(ctx, Config{URL: url, Tag: "nightly"})
	require.NoError(t, err)
	defer s.Close()

	asOf := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	t.Run("seed imports once", func(t *testing.T) {
		initial := table.FromRows([]string{"LAN", "DATE REFERRED"}, [][]string{
			{"L1", "01/15/2024"},
			{"", "skipped"},
		})
		runID, err := s.Seed(ctx, initial, asOf)
		require.NoError(t, err)
		assert.NotEmpty(t, runID)

		again, err := s.Seed(ctx, initial, asOf)
		require.NoError(t, err)
		assert.Empty(t, again)

		count, err := s.CountMasterlist(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("runs append entries", func(t *testing.T) {
		revived := table.FromRows([]string{"LAN", "CLASSIFICATION"}, [][]string{
			{"L1", "REENDO"},
			{"L3", "REENDO"},
		})
		_, err := s.SaveRun(ctx, Run{Flow: "daily", AsOf: asOf, Revive: 2, MasterlistSize: 3}, revived)
		require.NoError(t, err)

		got, err := s.LoadMasterlist(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"L1", "L1", "L3"}, got.Column(schema.LAN))
		assert.Equal(t, "01/15/2024", got.Get(0, schema.DateReferred))
		assert.Equal(t, "REENDO", got.Get(2, schema.Classification))
	})

	t.Run("status reports latest version", func(t *testing.T) {
		status, err := MigrateStatus(url)
		require.NoError(t, err)
		assert.True(t, status.Applied)
		assert.Equal(t, uint(2), status.Version)
		assert.False(t, status.Dirty)
	})
}
