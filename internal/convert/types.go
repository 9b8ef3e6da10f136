package convert

import "time"

// Status is the three-way terminal state of one file's pipeline run.
type Status int

const (
	// StatusSuccess: main output and thumbnail both produced or current.
	StatusSuccess Status = iota
	// StatusPartial: main output produced, thumbnail failed. Counts as a
	// success at the run level.
	StatusPartial
	// StatusFailure: nothing usable was produced for this file.
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartial:
		return "partial"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// SourceFile is one conversion candidate. Immutable once listed.
type SourceFile struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Sizes carries the byte counts of one file's run. All-zero output fields
// mean the file was skipped-and-missing or failed before any write.
type Sizes struct {
	Original int64
	Main     int64
	Thumb    int64
}

// Output is the combined size of both written artifacts.
func (s Sizes) Output() int64 {
	return s.Main + s.Thumb
}

// Ratio is output/original as a percentage, 0 when the original is empty.
func (s Sizes) Ratio() float64 {
	if s.Original == 0 {
		return 0
	}
	return float64(s.Output()) / float64(s.Original) * 100
}

// Outcome is the result of one file's pipeline run. Produced exactly once
// per input file; owned by the aggregator after emission.
type Outcome struct {
	FileName string
	Status   Status
	Message  string
	Sizes    Sizes
}

// Succeeded reports file-level success. Partial failures (thumbnail only)
// still count.
func (o Outcome) Succeeded() bool {
	return o.Status != StatusFailure
}

// FailureRecord is one line of the persisted failure list.
type FailureRecord struct {
	FileName string
	Reason   string
}

// ProgressUpdate mirrors one outcome onto the reporter channel as deltas,
// so the renderer never shares state with the aggregator.
type ProgressUpdate struct {
	ProcessedDelta int
	FailedDelta    int
	OriginalDelta  int64
	OutputDelta    int64
	Line           string
}

// Report is the aggregate of a whole run. Totals are fold results of
// associative, commutative updates only, so they are identical under any
// outcome arrival order; Failures keeps arrival order for readability.
type Report struct {
	Converted int
	Failed    int

	OriginalBytes int64
	MainBytes     int64
	ThumbBytes    int64

	Elapsed  time.Duration
	Failures []FailureRecord
}

// OutputBytes is the summed size of everything written.
func (r Report) OutputBytes() int64 {
	return r.MainBytes + r.ThumbBytes
}

// CompressionRatio is total output / total original as a percentage,
// 0 when no original bytes were seen.
func (r Report) CompressionRatio() float64 {
	if r.OriginalBytes == 0 {
		return 0
	}
	return float64(r.OutputBytes()) / float64(r.OriginalBytes) * 100
}

// SpaceSaved is original minus output; negative means the run grew the data.
func (r Report) SpaceSaved() int64 {
	return r.OriginalBytes - r.OutputBytes()
}

// SavingsPercent is SpaceSaved relative to the original total.
func (r Report) SavingsPercent() float64 {
	if r.OriginalBytes == 0 {
		return 0
	}
	return float64(r.SpaceSaved()) / float64(r.OriginalBytes) * 100
}

// FilesPerMinute is the success throughput; defined only for elapsed > 0.
func (r Report) FilesPerMinute() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Converted) / r.Elapsed.Minutes()
}
