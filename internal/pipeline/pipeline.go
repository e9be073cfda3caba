// Package pipeline runs one cleaning pass end to end: load the corpus, run
// the engine, write the cleaned corpus and the removal report, and record
// the run in the history ledger when one is configured.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/OliseNS/FinetuneGemma/internal/config"
	"github.com/OliseNS/FinetuneGemma/internal/dataset"
	"github.com/OliseNS/FinetuneGemma/internal/deduplication"
	"github.com/OliseNS/FinetuneGemma/internal/events"
	"github.com/OliseNS/FinetuneGemma/internal/report"
	"github.com/OliseNS/FinetuneGemma/internal/storage/sqlite"
	"github.com/OliseNS/FinetuneGemma/internal/terms"
)

// Summary is what a run produced
type Summary struct {
	RunID        string
	Result       *deduplication.Result
	SkippedLines int
	Before       dataset.Stats
	After        dataset.Stats

	// OutputWritten is false for dry runs
	OutputWritten bool
	ReportPath    string
	// HistoryRecorded is true when the run was stored in the ledger
	HistoryRecorded bool
	Duration        time.Duration
}

// Runner executes runs for a resolved configuration
type Runner struct {
	cfg  config.RunConfig
	sink events.Sink
	now  func() time.Time
	// newID generates run IDs; overridable in tests
	newID func() string
}

// NewRunner validates cfg. A nil sink discards events.
func NewRunner(cfg config.RunConfig, sink events.Sink) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run configuration: %w", err)
	}
	if sink == nil {
		sink = events.Discard
	}
	return &Runner{
		cfg:   cfg,
		sink:  sink,
		now:   time.Now,
		newID: uuid.NewString,
	}, nil
}

// Run performs one cleaning pass. A missing input file returns an error
// wrapping dataset.ErrInputNotFound, and an input without a single usable
// record one wrapping dataset.ErrNoRecords; in both cases nothing is written.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	started := r.now()
	runID := r.newID()

	extractor, err := r.extractor()
	if err != nil {
		return nil, err
	}

	// Events are kept for the ledger as well as forwarded to the caller's sink
	recorder := events.NewRecorder()
	sink := events.Multi(r.sink, recorder)

	emit(sink)(events.NewRunStartedEvent(runID, "Starting cleaning run", events.RunStartedData{
		InputPath:            r.cfg.InputPath,
		OutputPath:           r.cfg.OutputPath,
		ReportPath:           r.cfg.ReportPath,
		SimilarityThreshold:  r.cfg.SimilarityThreshold,
		InstructionThreshold: r.cfg.InstructionThreshold,
		DryRun:               r.cfg.DryRun,
	}))

	loaded, err := dataset.NewLoader(sink, runID).Load(r.cfg.InputPath)
	if err != nil {
		return nil, err
	}
	if len(loaded.Records) == 0 {
		emit(sink)(events.NewDataEvent(events.EventTypeRunAborted, runID, events.SeverityWarning,
			fmt.Sprintf("No records loaded from %s, nothing written", r.cfg.InputPath),
			events.LoadCompletedData{Path: r.cfg.InputPath, SkippedLines: loaded.SkippedLines}))
		return nil, fmt.Errorf("%w: %s", dataset.ErrNoRecords, r.cfg.InputPath)
	}

	engine, err := deduplication.NewEngine(r.cfg.DedupConfig(),
		deduplication.WithSink(sink),
		deduplication.WithRunID(runID),
		deduplication.WithExtractor(extractor),
	)
	if err != nil {
		return nil, err
	}
	result, err := engine.Run(loaded.Records)
	if err != nil {
		return nil, fmt.Errorf("deduplication failed: %w", err)
	}

	kept := result.KeptRecords(loaded.Records)
	summary := &Summary{
		RunID:        runID,
		Result:       result,
		SkippedLines: loaded.SkippedLines,
		Before:       dataset.Analyze(loaded.Records, extractor),
		After:        dataset.Analyze(kept, extractor),
		ReportPath:   r.cfg.ReportPath,
	}

	if !r.cfg.DryRun {
		if err := dataset.Save(r.cfg.OutputPath, kept); err != nil {
			return nil, err
		}
		summary.OutputWritten = true
		emit(sink)(events.NewDataEvent(events.EventTypeOutputWritten, runID, events.SeverityInfo,
			fmt.Sprintf("Saved %d cleaned records to %s", len(kept), r.cfg.OutputPath),
			events.OutputWrittenData{Path: r.cfg.OutputPath, Records: len(kept)}))
	}

	if err := report.Write(r.cfg.ReportPath, result.Entries, r.now()); err != nil {
		return nil, err
	}
	emit(sink)(events.NewDataEvent(events.EventTypeReportWritten, runID, events.SeverityInfo,
		fmt.Sprintf("Removal report saved to %s", r.cfg.ReportPath),
		events.OutputWrittenData{Path: r.cfg.ReportPath, Records: len(result.Entries)}))

	completed := r.now()
	summary.Duration = completed.Sub(started)
	emit(sink)(events.NewRunCompletedEvent(runID,
		fmt.Sprintf("Removed %d of %d records", result.RemovedCount(), result.Total),
		events.RunCompletedData{
			Total:         result.Total,
			Removed:       result.RemovedCount(),
			Remaining:     result.KeptCount(),
			RetentionRate: result.RetentionRate(),
			DurationMs:    summary.Duration.Milliseconds(),
		}))

	if r.cfg.HistoryDB != "" {
		if err := r.record(ctx, summary, started, completed, recorder.Events()); err != nil {
			return summary, err
		}
		summary.HistoryRecorded = true
	}
	return summary, nil
}

func (r *Runner) extractor() (*terms.Extractor, error) {
	if r.cfg.TermRulesPath == "" {
		return terms.Default(), nil
	}
	rules, err := terms.LoadRules(r.cfg.TermRulesPath)
	if err != nil {
		return nil, err
	}
	return terms.NewExtractor(rules)
}

func (r *Runner) record(ctx context.Context, s *Summary, started, completed time.Time, evts []*events.Event) error {
	store, err := sqlite.Open(r.cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("failed to open history %s: %w", r.cfg.HistoryDB, err)
	}
	defer func() { _ = store.Close() }()

	stats := s.Result.Stats
	run := &sqlite.RunRecord{
		ID:                   s.RunID,
		StartedAt:            started,
		CompletedAt:          completed,
		InputPath:            r.cfg.InputPath,
		OutputPath:           r.cfg.OutputPath,
		ReportPath:           r.cfg.ReportPath,
		SimilarityThreshold:  r.cfg.SimilarityThreshold,
		InstructionThreshold: r.cfg.InstructionThreshold,
		DryRun:               r.cfg.DryRun,
		Total:                s.Result.Total,
		Removed:              s.Result.RemovedCount(),
		LowQuality:           stats.LowQualityCount,
		ExactDuplicates:      stats.ExactDuplicateCount,
		NearDuplicates:       stats.NearDuplicateCount,
		Comparisons:          stats.ComparisonsMade,
		SkippedLines:         s.SkippedLines,
		DurationMs:           s.Duration.Milliseconds(),
	}
	if err := store.RecordRun(ctx, run, s.Result.Entries, evts); err != nil {
		return fmt.Errorf("failed to record run in history: %w", err)
	}
	return nil
}

// emit returns a function that forwards successfully built events to sink.
func emit(sink events.Sink) func(*events.Event, error) {
	return func(event *events.Event, err error) {
		if err == nil && event != nil {
			sink.Emit(event)
		}
	}
}
