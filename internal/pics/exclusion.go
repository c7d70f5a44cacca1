package pics

import (
	"slices"
	"strings"
)

// TempPrefix marks in-flight encoder output. Files with this prefix are never sources and are
// swept at the start of every batch.
const TempPrefix = "temp_"

// ExclusionReason explains why an enumerated file is not a source.
type ExclusionReason string

const (
	// NotExcluded means the file is a source.
	NotExcluded ExclusionReason = ""
	// ExcludedDenylist means the file name is on the do-not-touch list.
	ExcludedDenylist ExclusionReason = "denylist"
	// ExcludedDerivative means the file follows the derivative naming convention.
	ExcludedDerivative ExclusionReason = "derivative"
	// ExcludedTemp means the file is a leftover temporary file.
	ExcludedTemp ExclusionReason = "temp"
)

// Exclusion decides, once per enumerated file, whether it must be left alone.
type Exclusion struct {
	denylist []string
	planner  Planner
}

// NewExclusion creates an exclusion predicate from a denylist of file names (matched
// case-insensitively) and the planner's derivative naming convention.
func NewExclusion(denylist []string, planner Planner) *Exclusion {
	lower := make([]string, 0, len(denylist))
	for _, name := range denylist {
		lower = append(lower, strings.ToLower(name))
	}
	return &Exclusion{denylist: lower, planner: planner}
}

// Reason returns why name is excluded, or NotExcluded.
func (e *Exclusion) Reason(name string) ExclusionReason {
	switch {
	case slices.Contains(e.denylist, strings.ToLower(name)):
		return ExcludedDenylist
	case IsTempName(name):
		return ExcludedTemp
	case e.planner != nil && e.planner.IsDerivativeName(name):
		return ExcludedDerivative
	}
	return NotExcluded
}

// Excluded reports whether name must not be treated as a source.
func (e *Exclusion) Excluded(name string) bool {
	return e.Reason(name) != NotExcluded
}

// IsTempName reports whether name starts with TempPrefix. Such files are never sources; only
// those matching IsCodecTempName are deleted by the sweep.
func IsTempName(name string) bool {
	return strings.HasPrefix(name, TempPrefix)
}
