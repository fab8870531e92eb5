package tabular

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
)

// ErrFilenameContract is returned when an input file name does not match
// the pattern expected for its role.
var ErrFilenameContract = errors.New("file name does not match expected pattern")

var filenamePatterns = map[string]*regexp.Regexp{
	"active":     regexp.MustCompile(`(?i)^ACTIVE (FILES|WORKLIST) \d{6}`),
	"tad":        regexp.MustCompile(`(?i)^TAD_SPM M1_\d{2}\.\d{2}\.\d{4}`),
	"masterlist": regexp.MustCompile(`(?i)^MASTERLIST \d{8}`),
}

// CheckFilename validates the base name of path against the pattern for
// role. Roles without a pattern always pass.
func CheckFilename(role, path string) error {
	re, ok := filenamePatterns[role]
	if !ok {
		return nil
	}
	base := filepath.Base(path)
	if !re.MatchString(base) {
		return fmt.Errorf("%s %q: %w %s", role, base, ErrFilenameContract, re.String())
	}
	return nil
}

// MatchesRole reports whether the base name of path fits role's pattern.
func MatchesRole(role, path string) bool {
	re, ok := filenamePatterns[role]
	return ok && re.MatchString(filepath.Base(path))
}
