package pipeline

import (
	"errors"
	"fmt"

	"curing-worklist/internal/classify"
	"curing-worklist/internal/schema"
)

// InputError is a per-file load failure. Other files keep loading.
type InputError struct {
	Role string
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s file %s: %v", e.Role, e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// SchemaError is a required column missing from a required table.
type SchemaError = schema.MissingColumnError

// ValidationError lists REENDO records that failed the referral-date check.
type ValidationError = classify.ValidationError

// ErrMissingInput is returned when a flow's required table was not supplied.
var ErrMissingInput = errors.New("required input missing")

// IsFatal reports whether err must stop a run without writing output.
func IsFatal(err error) bool {
	var serr *SchemaError
	var verr *ValidationError
	return errors.As(err, &serr) || errors.As(err, &verr) || errors.Is(err, ErrMissingInput)
}
