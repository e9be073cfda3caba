package deduplication

import (
	"fmt"
	"time"

	"github.com/OliseNS/FinetuneGemma/internal/events"
	"github.com/OliseNS/FinetuneGemma/internal/quality"
	"github.com/OliseNS/FinetuneGemma/internal/terms"
	"github.com/OliseNS/FinetuneGemma/internal/types"
)

// Stage names used in stage events.
const (
	StageQuality        = "quality_filter"
	StageExactDuplicate = "exact_duplicates"
	StageNearDuplicate  = "near_duplicates"
)

// previewLength bounds the instruction text copied into events.
const previewLength = 60

// Engine runs quality filtering and duplicate detection over a corpus.
type Engine struct {
	config     Config
	extractor  *terms.Extractor
	gate       *quality.Gate
	scorer     *quality.Scorer
	classifier *Classifier
	sink       events.Sink
	runID      string
	now        func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithSink sends progress events to sink.
func WithSink(sink events.Sink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithRunID tags every emitted event with runID.
func WithRunID(runID string) Option {
	return func(e *Engine) { e.runID = runID }
}

// WithExtractor makes the scorer, the classifier and the default gate share
// extractor.
func WithExtractor(extractor *terms.Extractor) Option {
	return func(e *Engine) { e.extractor = extractor }
}

// WithGate replaces the default quality gate regardless of option order.
func WithGate(gate *quality.Gate) Option {
	return func(e *Engine) {
		if gate != nil {
			e.gate = gate
		}
	}
}

// NewEngine validates cfg and builds an engine with default rules. The
// gate, scorer and classifier are built once all options have applied.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid deduplication config: %w", err)
	}
	e := &Engine{
		config: cfg,
		sink:   events.Discard,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.gate == nil {
		gate, err := quality.NewGate(quality.DefaultRules(), e.extractor)
		if err != nil {
			return nil, fmt.Errorf("failed to build quality gate: %w", err)
		}
		e.gate = gate
	}
	e.scorer = quality.NewScorer(e.extractor)
	e.classifier = NewClassifier(e.extractor)
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// run holds the mutable state of one Run call. Only the engine's single
// control flow touches it.
type run struct {
	records []types.Record
	removed map[int]bool
	entries []types.RemovalEntry
	stats   Stats
}

func (r *run) remove(entry types.RemovalEntry) {
	r.removed[entry.OriginalIndex] = true
	r.entries = append(r.entries, entry)
}

// survivors lists the indices not yet removed, in ascending order.
func (r *run) survivors() []int {
	out := make([]int, 0, len(r.records)-len(r.removed))
	for i := range r.records {
		if !r.removed[i] {
			out = append(out, i)
		}
	}
	return out
}

// Run filters records and returns the removed set with its audit log. The
// records slice is not modified.
func (e *Engine) Run(records []types.Record) (*Result, error) {
	start := e.now()
	st := &run{
		records: records,
		removed: make(map[int]bool),
	}

	e.filterLowQuality(st)
	e.removeExactDuplicates(st)
	e.removeNearDuplicates(st)

	st.stats.ProcessingTimeMs = e.now().Sub(start).Milliseconds()
	result := &Result{
		Total:   len(records),
		Removed: st.removed,
		Entries: st.entries,
		Stats:   st.stats,
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("deduplication produced an inconsistent result: %w", err)
	}
	return result, nil
}

// Stage 1
func (e *Engine) filterLowQuality(st *run) {
	e.stageStarted(StageQuality, len(st.records), 0)

	for i, rec := range st.records {
		verdict := e.gate.Check(rec)
		if verdict.Accepted {
			continue
		}
		st.remove(types.NewLowQualityEntry(i, rec, verdict.Issue))
		st.stats.LowQualityCount++

		severity := events.SeverityInfo
		if st.stats.LowQualityCount > e.config.MaxLoggedLowQuality {
			severity = events.SeverityDebug
		}
		e.emit(events.NewDataEvent(events.EventTypeLowQualityRemoved, e.runID, severity,
			fmt.Sprintf("Removing item %d: %s - '%s'", i, verdict.Issue, types.Truncate(rec.Instruction, previewLength)),
			events.LowQualityRemovedData{
				Index:       i,
				Issue:       string(verdict.Issue),
				Instruction: types.Truncate(rec.Instruction, previewLength),
			}))
	}

	e.stageCompleted(events.StageCompletedData{
		Stage:      StageQuality,
		Candidates: len(st.records),
		Removed:    st.stats.LowQualityCount,
	}, fmt.Sprintf("Found %d low-quality items", st.stats.LowQualityCount))
}

// Stage 2
func (e *Engine) removeExactDuplicates(st *run) {
	candidates := st.survivors()
	e.stageStarted(StageExactDuplicate, len(candidates), 0)

	// Groups are kept in order of first appearance so the log is stable.
	groups := make(map[string][]int)
	var order []string
	for _, idx := range candidates {
		fp := Fingerprint(st.records[idx])
		if _, seen := groups[fp]; !seen {
			order = append(order, fp)
		}
		groups[fp] = append(groups[fp], idx)
	}

	for _, fp := range order {
		indices := groups[fp]
		if len(indices) < 2 {
			continue
		}
		st.stats.ExactDuplicateGroups++
		kept := indices[0]
		e.emit(events.NewDataEvent(events.EventTypeExactDuplicateGroup, e.runID, events.SeverityInfo,
			fmt.Sprintf("Found %d exact duplicates: %v", len(indices), indices),
			events.ExactDuplicateGroupData{KeptIndex: kept, Indices: indices, Fingerprint: fp}))

		for _, idx := range indices[1:] {
			st.remove(types.NewExactDuplicateEntry(idx, st.records[idx], kept, st.records[kept]))
			st.stats.ExactDuplicateCount++
		}
	}

	e.stageCompleted(events.StageCompletedData{
		Stage:      StageExactDuplicate,
		Candidates: len(candidates),
		Removed:    st.stats.ExactDuplicateCount,
		Groups:     st.stats.ExactDuplicateGroups,
	}, fmt.Sprintf("Found %d exact duplicates in %d groups", st.stats.ExactDuplicateCount, st.stats.ExactDuplicateGroups))
}

// Stage 3
func (e *Engine) removeNearDuplicates(st *run) {
	// The candidate list is frozen here; removals during this stage only
	// add tombstones.
	candidates := st.survivors()
	tombstones := make(map[int]bool)
	e.stageStarted(StageNearDuplicate, len(candidates), e.config.SimilarityThreshold)

	found := 0
	for a := 0; a < len(candidates); a++ {
		i := candidates[a]
		if tombstones[i] {
			continue
		}
		for b := a + 1; b < len(candidates); b++ {
			j := candidates[b]
			if tombstones[j] {
				continue
			}
			if tombstones[i] {
				break
			}

			recI, recJ := st.records[i], st.records[j]
			if e.classifier.AreDistinct(recI, recJ) {
				st.stats.DistinctPairs++
				continue
			}

			st.stats.ComparisonsMade++
			overall := OverallSimilarity(recI, recJ)
			if overall < e.config.SimilarityThreshold {
				continue
			}
			instruction := InstructionSimilarity(recI, recJ)
			if instruction < e.config.InstructionThreshold {
				continue
			}

			found++
			scoreI := e.scorer.Score(recI)
			scoreJ := e.scorer.Score(recJ)

			// Ties keep the lower index.
			keep, drop, keepScore, dropScore := i, j, scoreI, scoreJ
			if scoreI < scoreJ {
				keep, drop, keepScore, dropScore = j, i, scoreJ, scoreI
			}

			st.remove(types.NewSimilarEntry(drop, st.records[drop], types.SimilarityInfo{
				SimilarTo:             keep,
				SimilarToData:         st.records[keep],
				SimilarityScore:       overall,
				InstructionSimilarity: instruction,
				QualityScore:          dropScore,
				KeptQualityScore:      keepScore,
			}))
			tombstones[drop] = true
			st.stats.NearDuplicateCount++

			severity := events.SeverityInfo
			if found > e.config.MaxLoggedPairs {
				severity = events.SeverityDebug
			}
			e.emit(events.NewNearDuplicateRemovedEvent(e.runID, severity,
				fmt.Sprintf("Found very similar items %d and %d (overall: %.3f, instruction: %.3f); keeping item %d (quality: %.1f vs %.1f)",
					i, j, overall, instruction, keep, keepScore, dropScore),
				events.NearDuplicateRemovedData{
					RemovedIndex:          drop,
					KeptIndex:             keep,
					Instruction:           types.Truncate(st.records[drop].Instruction, previewLength),
					KeptInstruction:       types.Truncate(st.records[keep].Instruction, previewLength),
					SimilarityScore:       overall,
					InstructionSimilarity: instruction,
					RemovedQualityScore:   dropScore,
					KeptQualityScore:      keepScore,
				}))
		}
	}

	if found > e.config.MaxLoggedPairs {
		unlogged := found - e.config.MaxLoggedPairs
		e.emit(events.NewDataEvent(events.EventTypeNearDuplicateSummary, e.runID, events.SeverityInfo,
			fmt.Sprintf("... and %d more very similar pairs found", unlogged),
			events.NearDuplicateSummaryData{Total: found, Unlogged: unlogged}))
	}

	e.stageCompleted(events.StageCompletedData{
		Stage:       StageNearDuplicate,
		Candidates:  len(candidates),
		Removed:     st.stats.NearDuplicateCount,
		Comparisons: st.stats.ComparisonsMade,
	}, fmt.Sprintf("Found %d very similar items", st.stats.NearDuplicateCount))
}

func (e *Engine) stageStarted(stage string, candidates int, threshold float64) {
	message := fmt.Sprintf("Starting %s over %d records", stage, candidates)
	if stage == StageNearDuplicate {
		message = fmt.Sprintf("Checking %d records for very similar items (similarity threshold: %.2f)", candidates, threshold)
	}
	e.emit(events.NewDataEvent(events.EventTypeStageStarted, e.runID, events.SeverityDebug, message,
		events.StageStartedData{Stage: stage, Candidates: candidates, Threshold: threshold}))
}

func (e *Engine) stageCompleted(data events.StageCompletedData, message string) {
	e.emit(events.NewStageCompletedEvent(e.runID, message, data))
}

// emit forwards a constructed event. Event data is plain structs, so a
// construction error only happens on programmer error and is dropped.
func (e *Engine) emit(event *events.Event, err error) {
	if err != nil || event == nil {
		return
	}
	e.sink.Emit(event)
}
