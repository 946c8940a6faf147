// Package merge walks a replicated tree and fuses the secondary architecture
// into every binary that lacks it.
package merge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/makeuniversal/pkg/combine"
	"github.com/sdejongh/makeuniversal/pkg/inspect"
	"github.com/sdejongh/makeuniversal/pkg/logging"
	"github.com/sdejongh/makeuniversal/pkg/models"
	"github.com/sdejongh/makeuniversal/pkg/output"
	"github.com/sdejongh/makeuniversal/pkg/storage"
)

// Candidate is one regular file found under the destination root
type Candidate struct {
	// Path is the absolute destination path
	Path string
	// RelativePath is the path relative to the destination root
	RelativePath string
	// CounterpartPath is the same relative path under the secondary root
	CounterpartPath string
	Size            int64
}

// fileEvent flows from workers to the aggregator
type fileEvent struct {
	index   int
	started bool
	result  models.FileResult
	err     error
}

// Orchestrator runs the merge phase over an already replicated destination
type Orchestrator struct {
	dest       storage.Backend
	classifier inspect.Classifier
	combiner   combine.Combiner
	formatter  output.Formatter
	out        io.Writer
	logger     logging.Logger
	run        *models.MergeRun
	excluder   *Excluder
}

// NewOrchestrator creates a new merge orchestrator.
// formatter may be nil; out receives the formatter output
func NewOrchestrator(
	dest storage.Backend,
	classifier inspect.Classifier,
	combiner combine.Combiner,
	formatter output.Formatter,
	out io.Writer,
	logger logging.Logger,
	run *models.MergeRun,
) *Orchestrator {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Orchestrator{
		dest:       dest,
		classifier: classifier,
		combiner:   combiner,
		formatter:  formatter,
		out:        out,
		logger:     logger.WithFields(logging.Fields{"run_id": run.ID}),
		run:        run,
		excluder:   NewExcluder(run.ExcludePatterns),
	}
}

// Run classifies every regular file under the destination and merges the
// counterparts that carry the secondary architecture. Per-file failures are
// recorded in the report; the returned error is reserved for a failed scan
// or a cancelled context
func (o *Orchestrator) Run(ctx context.Context) (*models.MergeReport, error) {
	if err := o.run.Validate(); err != nil {
		return nil, fmt.Errorf("invalid merge run: %w", err)
	}

	report := &models.MergeReport{
		RunID:         o.run.ID,
		UniversalRoot: o.run.UniversalRoot,
		PrimaryRoot:   o.run.PrimaryRoot,
		SecondaryRoot: o.run.SecondaryRoot,
		PrimaryArch:   o.run.PrimaryArch,
		SecondaryArch: o.run.SecondaryArch,
		DryRun:        o.run.DryRun,
		StartTime:     time.Now(),
		Status:        models.StatusSuccess,
	}

	o.logger.Info(ctx, "Starting merge", logging.Fields{
		"destination":    o.run.UniversalRoot,
		"secondary_root": o.run.SecondaryRoot,
		"secondary_arch": o.run.SecondaryArch.String(),
		"dry_run":        o.run.DryRun,
		"max_workers":    o.run.MaxWorkers,
	})

	candidates, excluded, err := o.scan(ctx)
	if err != nil {
		report.EndTime = time.Now()
		report.Duration = report.EndTime.Sub(report.StartTime)
		report.Status = models.StatusFailed
		o.logger.Error(ctx, "Failed to scan destination", err, nil)
		if o.formatter != nil {
			o.formatter.Error(err)
		}
		return report, fmt.Errorf("failed to scan destination: %w", err)
	}

	o.logger.Info(ctx, "Destination scanned", logging.Fields{
		"candidates": len(candidates),
		"excluded":   len(excluded),
	})

	if o.formatter != nil {
		o.formatter.Start(o.out, o.run, len(candidates))
	}

	for _, rel := range excluded {
		o.record(ctx, report, fileEvent{result: models.FileResult{
			RelativePath: rel,
			Outcome:      models.OutcomeExcluded,
		}})
	}

	o.dispatch(ctx, candidates, report)

	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].RelativePath < report.Results[j].RelativePath
	})
	sort.Slice(report.Errors, func(i, j int) bool {
		return report.Errors[i].FilePath < report.Errors[j].FilePath
	})

	runErr := ctx.Err()
	if runErr != nil {
		report.Status = models.StatusCancelled
	}
	report.Finalize(time.Now())

	if o.formatter != nil {
		o.formatter.Complete(report)
	}

	o.logger.Info(ctx, "Merge completed", logging.Fields{
		"duration":          report.Duration.String(),
		"status":            string(report.Status),
		"files_visited":     report.Stats.FilesVisited,
		"merged":            report.Stats.Merged,
		"skipped":           report.Stats.Skipped,
		"failed":            report.Stats.Failed,
		"unresolvable":      report.Stats.Unresolvable,
		"not_binary":        report.Stats.NotBinary,
		"inspection_failed": report.Stats.InspectionFailed,
	})

	if runErr != nil {
		return report, fmt.Errorf("merge interrupted: %w", runErr)
	}
	return report, nil
}

// scan lists the destination and keeps regular files only.
// Directories and symlinks never become candidates
func (o *Orchestrator) scan(ctx context.Context) ([]Candidate, []string, error) {
	entries, err := o.dest.List(ctx, "")
	if err != nil {
		return nil, nil, err
	}

	var candidates []Candidate
	var excluded []string
	for i := range entries {
		entry := &entries[i]
		if !entry.IsRegular() {
			continue
		}

		if o.excluder.Match(entry.RelativePath) {
			excluded = append(excluded, entry.RelativePath)
			continue
		}

		candidates = append(candidates, Candidate{
			Path:            entry.Path,
			RelativePath:    entry.RelativePath,
			CounterpartPath: filepath.Join(o.run.SecondaryRoot, entry.RelativePath),
			Size:            entry.Size,
		})
	}

	return candidates, excluded, nil
}

// dispatch fans candidates out to at most MaxWorkers workers and funnels
// their results into a single aggregator that owns the report
func (o *Orchestrator) dispatch(ctx context.Context, candidates []Candidate, report *models.MergeReport) {
	events := make(chan fileEvent, o.run.MaxWorkers)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ev := range events {
			o.record(ctx, report, ev)
		}
	}()

	var g errgroup.Group
	g.SetLimit(o.run.MaxWorkers)

	for i, candidate := range candidates {
		if ctx.Err() != nil {
			o.logger.Warn(ctx, "Merge cancelled, not dispatching remaining files", logging.Fields{
				"remaining": len(candidates) - i,
			})
			break
		}

		candidate := candidate
		index := i + 1
		g.Go(func() error {
			events <- fileEvent{index: index, started: true, result: models.FileResult{RelativePath: candidate.RelativePath}}
			events <- o.mergeFile(ctx, index, candidate)
			return nil
		})
	}

	g.Wait()
	close(events)
	<-done
}

// record folds one event into the report. Only the aggregator calls it
func (o *Orchestrator) record(ctx context.Context, report *models.MergeReport, ev fileEvent) {
	result := ev.result

	if ev.started {
		if o.formatter != nil {
			o.formatter.Progress(output.ProgressUpdate{
				Type:        "file_start",
				FilePath:    result.RelativePath,
				CurrentFile: ev.index,
			})
		}
		return
	}

	report.Stats.Record(result.Outcome)
	report.Results = append(report.Results, result)

	fields := logging.Fields{
		"path":    result.RelativePath,
		"outcome": string(result.Outcome),
	}
	if result.Detail != "" {
		fields["detail"] = result.Detail
	}

	switch result.Outcome {
	case models.OutcomeFailed:
		report.Errors = append(report.Errors, models.MergeError{
			FilePath:  result.RelativePath,
			Error:     result.Detail,
			Timestamp: time.Now(),
		})
		o.logger.Error(ctx, "Failed to merge binary", ev.err, fields)
	case models.OutcomeInspectionFailed:
		o.logger.Warn(ctx, "Inspection failed", fields)
	case models.OutcomeMerged, models.OutcomeWouldMerge:
		o.logger.Info(ctx, "Merged binary", fields)
	default:
		o.logger.Debug(ctx, "File classified", fields)
	}

	if o.formatter != nil {
		o.formatter.Progress(output.ProgressUpdate{
			Type:        "file_complete",
			FilePath:    result.RelativePath,
			Outcome:     result.Outcome,
			Detail:      result.Detail,
			CurrentFile: ev.index,
		})
	}
}

// mergeFile decides and applies the outcome for a single candidate
func (o *Orchestrator) mergeFile(ctx context.Context, index int, c Candidate) fileEvent {
	start := time.Now()
	ev := fileEvent{index: index, result: models.FileResult{RelativePath: c.RelativePath}}
	arch := o.run.SecondaryArch

	class, err := o.classifier.Classify(ctx, c.Path, arch)
	switch class {
	case models.HasArchitecture:
		ev.result.Outcome = models.OutcomeSkipped
		ev.result.Detail = "already contains " + arch.String()

	case models.NotBinary:
		ev.result.Outcome = models.OutcomeNotBinary

	case models.MissingArchitecture:
		ev.result.Outcome, ev.result.Detail, ev.err = o.resolve(ctx, c)

	default:
		ev.result.Outcome = models.OutcomeInspectionFailed
		if err != nil {
			ev.result.Detail = err.Error()
		}
		ev.err = err
	}

	ev.result.Duration = time.Since(start)
	return ev
}

// resolve handles a destination binary lacking the secondary architecture
func (o *Orchestrator) resolve(ctx context.Context, c Candidate) (models.Outcome, string, error) {
	arch := o.run.SecondaryArch

	class, err := o.classifier.Classify(ctx, c.CounterpartPath, arch)
	if class != models.HasArchitecture {
		return models.OutcomeUnresolvable, describeCounterpart(class, err, arch), nil
	}

	if o.run.DryRun {
		return models.OutcomeWouldMerge, "", nil
	}

	if err := o.combiner.Combine(ctx, c.Path, c.CounterpartPath); err != nil {
		return models.OutcomeFailed, err.Error(), err
	}
	return models.OutcomeMerged, "", nil
}

func describeCounterpart(class models.Classification, err error, arch models.Arch) string {
	switch class {
	case models.MissingArchitecture:
		return "counterpart lacks " + arch.String()
	case models.NotBinary:
		return "counterpart is not a binary"
	}

	if errors.Is(err, fs.ErrNotExist) {
		return "counterpart not found"
	}
	if err != nil {
		return "counterpart inspection failed: " + err.Error()
	}
	return "counterpart inspection failed"
}
