package classify

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curing-worklist/internal/schema"
	"curing-worklist/internal/table"
)

var runDate = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func masterlist() *table.Table {
	return table.FromRows([]string{schema.LAN, schema.DateReferred}, [][]string{
		{"a100", "01/15/2024"},
		{"A200", "00/00/00"},
		{"A300", "2023-12-01"},
		{"A300", "45306"},
	})
}

func TestHistory(t *testing.T) {
	h := NewHistory(masterlist())
	assert.Equal(t, 3, h.Len())
	assert.True(t, h.Known(" A100 "))
	assert.False(t, h.Known("B1"))
	assert.Equal(t, "01/15/2024", h.DateReferred("A100"))
	assert.Equal(t, "", h.DateReferred("A200"))
	assert.Equal(t, "12/01/2023", h.DateReferred("A300"))

	assert.Equal(t, 0, NewHistory(nil).Len())
	assert.Equal(t, NewEndo, NewHistory(nil).Label("A100"))
}

func TestHistoryDuplicateKeys(t *testing.T) {
	h := NewHistory(table.FromRows([]string{schema.LAN, schema.DateReferred}, [][]string{
		{"L1", "01/15/2024"},
		{"L1", ""},
		{"L2", ""},
		{"L2", "1970-01-01"},
		{"L2", "11/30/2023"},
		{"L2", "02/01/2024"},
		{"L3", "NaT"},
		{"L3", "25569"},
	}))
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, "01/15/2024", h.DateReferred("L1"))
	assert.Equal(t, "11/30/2023", h.DateReferred("L2"))
	assert.Equal(t, "", h.DateReferred("L3"))
	assert.True(t, h.Known("L3"))

	t.Run("later blank entry does not halt validation", func(t *testing.T) {
		worklist := table.FromRows([]string{schema.LAN}, [][]string{{"L1"}})
		Apply(worklist, h, runDate)
		assert.Equal(t, "01/15/2024", worklist.Get(0, schema.DateReferred))
		assert.NoError(t, Validate(worklist))
	})
}

func TestFirstReferrals(t *testing.T) {
	m := table.FromRows([]string{schema.LAN, schema.DateReferred}, [][]string{
		{" l1", ""},
		{"L1", "01/15/2024"},
		{"L1", "02/15/2024"},
		{"L2", "00/00/00"},
		{"L2", ""},
		{"", "01/01/2024"},
	})
	assert.Equal(t, map[string]int{"L1": 1, "L2": 3}, FirstReferrals(m))
	assert.Empty(t, FirstReferrals(nil))
}

func TestApply(t *testing.T) {
	worklist := table.FromRows([]string{schema.LAN, schema.Name}, [][]string{
		{"A100", "prior"},
		{"B999", "fresh"},
		{"A200", "sentinel"},
	})
	res := Apply(worklist, NewHistory(masterlist()), runDate)
	assert.Equal(t, Result{NewEndo: 1, ReEndo: 2}, res)

	t.Run("repeat endorsement keeps history date", func(t *testing.T) {
		assert.Equal(t, string(ReEndo), worklist.Get(0, schema.Classification))
		assert.Equal(t, "01/15/2024", worklist.Get(0, schema.DateReferred))
		assert.Equal(t, "03/05/2024", worklist.Get(0, schema.EndoDate))
	})
	t.Run("new endorsement referred today", func(t *testing.T) {
		assert.Equal(t, string(NewEndo), worklist.Get(1, schema.Classification))
		assert.Equal(t, "03/05/2024", worklist.Get(1, schema.DateReferred))
	})
	t.Run("sentinel history falls back to today", func(t *testing.T) {
		assert.Equal(t, string(ReEndo), worklist.Get(2, schema.Classification))
		assert.Equal(t, "03/05/2024", worklist.Get(2, schema.DateReferred))
	})

	err := Validate(worklist)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Records, 1)
	assert.Equal(t, "A200", verr.Records[0].LAN)
	assert.Equal(t, 2, verr.Records[0].Row)
	assert.Contains(t, err.Error(), "A200")
}

func TestLabelIsTotal(t *testing.T) {
	h := NewHistory(masterlist())
	for _, key := range []string{"", "A100", "a100", "zzz", " "} {
		label := h.Label(key)
		assert.True(t, label == NewEndo || label == ReEndo, key)
	}
}

func TestValidatePasses(t *testing.T) {
	worklist := table.FromRows(
		[]string{schema.LAN, schema.Classification, schema.DateReferred, schema.EndoDate},
		[][]string{
			{"A1", string(ReEndo), "01/15/2024", "03/05/2024"},
			{"A2", string(NewEndo), "03/05/2024", "03/05/2024"},
		},
	)
	assert.NoError(t, Validate(worklist))
}

func TestValidationErrorTruncatesKeys(t *testing.T) {
	err := &ValidationError{}
	for i := 0; i < 7; i++ {
		err.Records = append(err.Records, Offending{LAN: "K"})
	}
	assert.Contains(t, err.Error(), "7 REENDO")
	assert.Contains(t, err.Error(), "...")
}
