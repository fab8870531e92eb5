package align

import (
	"path/filepath"
	"strings"
	"time"
)

// Kind is the purpose of a file being aligned, read from its name.
type Kind string

const (
	KindForUpload Kind = "FOR UPLOAD"
	KindForUpdate Kind = "FOR UPDATE"
	KindUnknown   Kind = "UNKNOWN"
)

// DetectKind classifies a file name as a for-upload or for-update batch.
func DetectKind(filename string) Kind {
	name := strings.ToUpper(filepath.Base(filename))
	switch {
	case strings.Contains(name, "FOR UPLOAD"), strings.Contains(name, "FORUPLOAD"):
		return KindForUpload
	case strings.Contains(name, "FOR UPDATE"), strings.Contains(name, "FORUPDATE"):
		return KindForUpdate
	default:
		return KindUnknown
	}
}

// OutputStem names the aligned output of filename, without extension.
func OutputStem(filename string, now time.Time) string {
	stamp := now.Format("01022006")
	switch DetectKind(filename) {
	case KindForUpload:
		return "BPI_AUTOCURING_FORUPLOADS_" + stamp
	case KindForUpdate:
		return "BPI_AUTOCURING_FORUPDATES_" + stamp
	default:
		return "BPI_AUTOCURING_ALIGNED_" + stamp
	}
}
