package convert

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Aggregator folds the outcome stream into a Report. It is driven by a
// single goroutine; outcome arrival is its only serialization point. All
// numeric updates are associative and commutative, so the final totals do
// not depend on completion order.
type Aggregator struct {
	started time.Time

	converted int
	failed    int

	originalBytes int64
	mainBytes     int64
	thumbBytes    int64

	failures []FailureRecord
}

func newAggregator(started time.Time) *Aggregator {
	return &Aggregator{started: started}
}

// NewAggregator starts an aggregate over an empty outcome set.
func NewAggregator() *Aggregator {
	return newAggregator(time.Now())
}

// Add folds one outcome. Original size always counts; output sizes are
// zero for skipped-and-missing or failed files, a safe additive identity.
func (a *Aggregator) Add(out Outcome) {
	a.originalBytes += out.Sizes.Original
	a.mainBytes += out.Sizes.Main
	a.thumbBytes += out.Sizes.Thumb

	if out.Succeeded() {
		a.converted++
	} else {
		a.failed++
		a.failures = append(a.failures, FailureRecord{FileName: out.FileName, Reason: out.Message})
	}
}

// Report finalizes the aggregate with the elapsed wall time.
func (a *Aggregator) Report() Report {
	return Report{
		Converted:     a.converted,
		Failed:        a.failed,
		OriginalBytes: a.originalBytes,
		MainBytes:     a.mainBytes,
		ThumbBytes:    a.thumbBytes,
		Elapsed:       time.Since(a.started),
		Failures:      a.failures,
	}
}

// WriteFailureList persists the failure records in arrival order, one
// name<TAB>reason line per file.
func WriteFailureList(path string, failures []FailureRecord) error {
	var b strings.Builder
	for _, f := range failures {
		fmt.Fprintf(&b, "%s\t%s\n", f.FileName, f.Reason)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
