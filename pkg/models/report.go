package models

import (
	"time"
)

// Outcome is what happened to a single file during the merge phase
type Outcome string

const (
	// OutcomeMerged indicates the counterpart was fused into the destination
	OutcomeMerged Outcome = "merged"
	// OutcomeFailed indicates the combination tool reported an error
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped indicates the destination already holds the secondary architecture
	OutcomeSkipped Outcome = "skipped"
	// OutcomeUnresolvable indicates no usable counterpart exists under the secondary root
	OutcomeUnresolvable Outcome = "unresolvable"
	// OutcomeNotBinary indicates the destination is not a binary container
	OutcomeNotBinary Outcome = "not_binary"
	// OutcomeInspectionFailed indicates the destination could not be inspected
	OutcomeInspectionFailed Outcome = "inspection_failed"
	// OutcomeExcluded indicates the file matched an exclude pattern
	OutcomeExcluded Outcome = "excluded"
	// OutcomeWouldMerge indicates a merge that dry-run mode did not perform
	OutcomeWouldMerge Outcome = "would_merge"
)

// MergeReport accumulates the results of a merge run
type MergeReport struct {
	RunID         string
	UniversalRoot string
	PrimaryRoot   string
	SecondaryRoot string
	PrimaryArch   Arch
	SecondaryArch Arch
	DryRun        bool

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Stats   Statistics
	Results []FileResult
	Errors  []MergeError

	Status MergeStatus
}

// Statistics holds per-outcome counters
type Statistics struct {
	FilesVisited     int
	Merged           int
	Failed           int
	Skipped          int
	Unresolvable     int
	NotBinary        int
	InspectionFailed int
	Excluded         int
	WouldMerge       int
}

// Record increments the counter matching the outcome
func (s *Statistics) Record(outcome Outcome) {
	s.FilesVisited++
	switch outcome {
	case OutcomeMerged:
		s.Merged++
	case OutcomeFailed:
		s.Failed++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeUnresolvable:
		s.Unresolvable++
	case OutcomeNotBinary:
		s.NotBinary++
	case OutcomeInspectionFailed:
		s.InspectionFailed++
	case OutcomeExcluded:
		s.Excluded++
	case OutcomeWouldMerge:
		s.WouldMerge++
	}
}

// Considered returns the number of binaries that reached a merge decision
func (s *Statistics) Considered() int {
	return s.Merged + s.Failed + s.Skipped
}

// FileResult is the outcome for one candidate file
type FileResult struct {
	RelativePath string
	Outcome      Outcome
	Detail       string
	Duration     time.Duration
}

// MergeError records a failed combination
type MergeError struct {
	FilePath  string
	Error     string
	Timestamp time.Time
}

// MergeStatus represents the overall result
type MergeStatus string

const (
	// StatusSuccess indicates no combination failed
	StatusSuccess MergeStatus = "success"
	// StatusPartial indicates some combinations failed
	StatusPartial MergeStatus = "partial"
	// StatusFailed indicates every attempted combination failed or the run aborted
	StatusFailed MergeStatus = "failed"
	// StatusCancelled indicates the run was interrupted
	StatusCancelled MergeStatus = "cancelled"
)

// ExitCode returns the appropriate exit code for the merge status
func (s MergeStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}

// Finalize stamps the end time and derives the overall status from the counters
func (r *MergeReport) Finalize(end time.Time) {
	r.EndTime = end
	r.Duration = end.Sub(r.StartTime)

	if r.Status == StatusCancelled {
		return
	}
	switch {
	case r.Stats.Failed == 0:
		r.Status = StatusSuccess
	case r.Stats.Merged == 0:
		r.Status = StatusFailed
	default:
		r.Status = StatusPartial
	}
}
