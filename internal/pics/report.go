package pics

import "fmt"

// FileState is the position of a source file in the batch state machine:
// Pending -> Processing -> {Committed, Discarded, Failed}.
type FileState int

const (
	StatePending FileState = iota
	StateProcessing
	StateCommitted
	StateDiscarded
	StateFailed
)

func (s FileState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateProcessing:
		return "processing"
	case StateCommitted:
		return "committed"
	case StateDiscarded:
		return "discarded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s FileState) Terminal() bool {
	return s == StateCommitted || s == StateDiscarded || s == StateFailed
}

// FileReport is the outcome of one source file.
type FileReport struct {
	Source SourceAsset
	State  FileState
	// KeptSize is the size that remains for the file after the batch: the committed size or the
	// original size in replace mode, the ultra derivative size in responsive mode.
	KeptSize int64
	// Results holds one entry per executed derivative spec (responsive mode).
	Results []DerivativeResult
	// Err is the first failure of the file, if any.
	Err error
}

// Line renders the per-file console line.
func (r FileReport) Line() string {
	switch r.State {
	case StateCommitted:
		return fmt.Sprintf("%s: %d bytes -> %d bytes (%d%%)", r.Source.Name, r.Source.Size, r.KeptSize, sizeRatio(r.Source.Size, r.KeptSize))
	case StateDiscarded:
		return fmt.Sprintf("%s: No compression needed (%d bytes)", r.Source.Name, r.Source.Size)
	case StateFailed:
		return fmt.Sprintf("Error processing %s: %v", r.Source.Name, r.Err)
	}
	return fmt.Sprintf("%s: %s", r.Source.Name, r.State)
}

// Failures returns the failed derivative results.
func (r FileReport) Failures() []DerivativeResult {
	var failed []DerivativeResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Report is the outcome of a batch, with files in source name order.
type Report struct {
	Mode    Mode
	Files   []FileReport
	Summary Summary
}

// Count returns the number of files in the given state.
func (r *Report) Count(state FileState) int {
	n := 0
	for _, f := range r.Files {
		if f.State == state {
			n++
		}
	}
	return n
}
