package pics

import (
	"fmt"
	"sync"
)

// Summary is the aggregate outcome of a batch.
type Summary struct {
	// Files is the number of files recorded.
	Files int
	// Failed is the number of files that failed.
	Failed int
	// TotalOriginal is the sum of recorded source sizes in bytes.
	TotalOriginal int64
	// TotalKept is the sum of recorded kept sizes in bytes.
	TotalKept int64
	// PercentSaved is (1 - TotalKept/TotalOriginal) * 100, or 0 with no input.
	PercentSaved float64
}

const megabyte = 1024 * 1024

// String renders the summary as the final report line.
func (s Summary) String() string {
	return fmt.Sprintf("%.2f MB -> %.2f MB (%.1f%% saved)",
		float64(s.TotalOriginal)/megabyte, float64(s.TotalKept)/megabyte, s.PercentSaved)
}

// Aggregator accumulates byte counts across a batch. It is safe for concurrent use.
type Aggregator struct {
	mu            sync.Mutex
	files         int
	failed        int
	totalOriginal int64
	totalKept     int64
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Record adds one file's source size and kept size.
func (a *Aggregator) Record(sourceSize, resultSize int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files++
	a.totalOriginal += sourceSize
	a.totalKept += resultSize
}

// RecordFailure counts a file that produced nothing to record.
func (a *Aggregator) RecordFailure() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failed++
}

// Summary returns a snapshot of the totals.
func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Summary{
		Files:         a.files,
		Failed:        a.failed,
		TotalOriginal: a.totalOriginal,
		TotalKept:     a.totalKept,
		PercentSaved:  percentSaved(a.totalOriginal, a.totalKept),
	}
}

func percentSaved(original, kept int64) float64 {
	if original == 0 {
		return 0
	}
	return (1 - float64(kept)/float64(original)) * 100
}

// sizeRatio returns kept as a rounded percentage of original.
func sizeRatio(original, kept int64) int {
	if original == 0 {
		return 0
	}
	return int((float64(kept)/float64(original))*100 + 0.5)
}
