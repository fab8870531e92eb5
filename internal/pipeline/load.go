package pipeline

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"curing-worklist/internal/table"
	"curing-worklist/internal/tabular"
)

// File roles.
const (
	RoleTAD         = "tad"
	RoleEndorsement = "endorsement"
	RoleActive      = "active"
	RoleMasterlist  = "masterlist"
)

type Source struct {
	Role    string
	Path    string
	Options tabular.Options
}

type Reader interface {
	ReadFile(path string, opts tabular.Options) (*table.Table, error)
}

// Load reads every source. A failing file does not stop the others; all
// failures come back joined as *InputError values alongside the tables
// that did load.
func Load(r Reader, sources []Source) (Inputs, error) {
	var in Inputs
	var errs []error
	for _, src := range sources {
		if src.Path == "" {
			continue
		}
		t, err := r.ReadFile(src.Path, src.Options)
		if err != nil {
			errs = append(errs, &InputError{Role: src.Role, Path: src.Path, Err: err})
			continue
		}
		log.WithFields(log.Fields{
			"role":    src.Role,
			"path":    src.Path,
			"rows":    t.Len(),
			"columns": len(t.Header()),
		}).Info("loaded input")
		switch src.Role {
		case RoleTAD:
			in.TAD = t
		case RoleEndorsement:
			in.Endorsement = t
		case RoleActive:
			in.Active = t
		case RoleMasterlist:
			in.Masterlist = t
		}
	}
	return in, errors.Join(errs...)
}
