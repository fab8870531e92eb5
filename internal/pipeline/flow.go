// Package pipeline runs one worklist flow end to end: it aligns the source
// exports, joins them, classifies and derives due dates, and for the daily
// cadence reconciles against yesterday's active list.
package pipeline

import (
	"fmt"
	"strings"

	"curing-worklist/internal/mapper"
	"curing-worklist/internal/schema"
)

// Flow parameterises the single pipeline.
type Flow struct {
	Name string
	// EndorsementRenames copies endorsement export fields onto the worklist.
	EndorsementRenames []schema.Rename
	Precedence         mapper.Precedence
	// CheckHistory classifies against the masterlist when one is supplied.
	CheckHistory bool
	// RequireHistory fails the run when no masterlist is supplied.
	RequireHistory bool
	// Delta runs daily reconciliation instead of endorsement merging.
	Delta bool
}

var (
	Monthly = Flow{
		Name:               "monthly",
		EndorsementRenames: schema.MonthlyEndorsementRenames,
		Precedence:         mapper.Overwrite,
		CheckHistory:       true,
	}
	Weekly = Flow{
		Name:               "weekly",
		EndorsementRenames: schema.EndorsementRenames,
		Precedence:         mapper.FillIfEmpty,
		CheckHistory:       true,
		RequireHistory:     true,
	}
	Daily = Flow{
		Name:         "daily",
		CheckHistory: true,
		Delta:        true,
	}
)

func FlowByName(name string) (Flow, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "monthly", "new", "new-endorsement":
		return Monthly, nil
	case "weekly":
		return Weekly, nil
	case "daily":
		return Daily, nil
	default:
		return Flow{}, fmt.Errorf("unknown flow %q (expected monthly, weekly or daily)", name)
	}
}

// Partition names, used as output file stems.
const (
	ActiveFile             = "ACTIVE FILE"
	ForUpload              = "FOR UPLOAD"
	ReEndoAccounts         = "REENDO ACCOUNTS"
	ConsolidatedMasterlist = "CONSOLIDATED MASTERLIST"
	ActiveWorklist         = "ACTIVE WORKLIST"
	PulledOut              = "PULLED OUT"
	ReviveAccountsRaw      = "REVIVE ACCOUNTS RAW"
	ForUpdate              = "FOR UPDATE"
)
