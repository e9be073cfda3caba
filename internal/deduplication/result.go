package deduplication

import (
	"fmt"
	"sort"

	"github.com/OliseNS/FinetuneGemma/internal/types"
)

// Result is the outcome of one engine run
type Result struct {
	// Total is the number of records the engine was given
	Total int `json:"total"`

	// Removed holds every removed original index
	Removed map[int]bool `json:"removed"`

	// Entries is the removal log: stage 1 entries, then stage 2 entries
	// grouped by fingerprint, then stage 3 entries in discovery order
	Entries []types.RemovalEntry `json:"entries"`

	// Stats about the run
	Stats Stats `json:"stats"`
}

// Stats provides metrics about a run
type Stats struct {
	// LowQualityCount is the number of records rejected by the quality gate
	LowQualityCount int `json:"low_quality_count"`

	// ExactDuplicateCount is the number of exact duplicates removed
	ExactDuplicateCount int `json:"exact_duplicate_count"`

	// ExactDuplicateGroups is the number of fingerprint groups of size > 1
	ExactDuplicateGroups int `json:"exact_duplicate_groups"`

	// NearDuplicateCount is the number of near-duplicates removed
	NearDuplicateCount int `json:"near_duplicate_count"`

	// DistinctPairs is the number of pairs skipped by the distinctness check
	DistinctPairs int `json:"distinct_pairs"`

	// ComparisonsMade is the number of pairs scored for similarity
	ComparisonsMade int `json:"comparisons_made"`

	// ProcessingTimeMs is the time taken for the run in milliseconds
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// RemovedCount is the size of the removed set.
func (r *Result) RemovedCount() int {
	return len(r.Removed)
}

// KeptCount is the size of the keep-set.
func (r *Result) KeptCount() int {
	return r.Total - len(r.Removed)
}

// IsRemoved reports whether index was removed.
func (r *Result) IsRemoved(index int) bool {
	return r.Removed[index]
}

// RemovedIndices returns the removed set in ascending order.
func (r *Result) RemovedIndices() []int {
	out := make([]int, 0, len(r.Removed))
	for idx := range r.Removed {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// KeptIndices returns the keep-set in ascending order.
func (r *Result) KeptIndices() []int {
	out := make([]int, 0, r.KeptCount())
	for i := 0; i < r.Total; i++ {
		if !r.Removed[i] {
			out = append(out, i)
		}
	}
	return out
}

// KeptRecords materializes the keep-set from records, preserving order.
// records must be the slice the result was computed from.
func (r *Result) KeptRecords(records []types.Record) []types.Record {
	out := make([]types.Record, 0, r.KeptCount())
	for i, rec := range records {
		if !r.Removed[i] {
			out = append(out, rec)
		}
	}
	return out
}

// RetentionRate is the kept fraction as a percentage. An empty run
// retains 100%.
func (r *Result) RetentionRate() float64 {
	if r.Total == 0 {
		return 100
	}
	return float64(r.KeptCount()) / float64(r.Total) * 100
}

// Validate checks that the removed set and the log agree and that every
// index lies in exactly one of the keep-set and the removed set
func (r *Result) Validate() error {
	if r.Total < 0 {
		return fmt.Errorf("total cannot be negative (got %d)", r.Total)
	}
	for idx := range r.Removed {
		if idx < 0 || idx >= r.Total {
			return fmt.Errorf("removed set contains invalid index %d (total: %d)", idx, r.Total)
		}
	}

	// Every entry must point at a removed index, and each removed index
	// must be logged exactly once
	logged := make(map[int]bool, len(r.Entries))
	for i := range r.Entries {
		entry := &r.Entries[i]
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if !r.Removed[entry.OriginalIndex] {
			return fmt.Errorf("entry %d references index %d which is not in the removed set", i, entry.OriginalIndex)
		}
		if logged[entry.OriginalIndex] {
			return fmt.Errorf("index %d is logged more than once", entry.OriginalIndex)
		}
		logged[entry.OriginalIndex] = true

		// A group representative is never removed by stage 2. A near-duplicate
		// winner can still lose a later pair, so only exact duplicates are checked.
		if entry.Duplicate != nil && r.Removed[entry.Duplicate.Of] && !r.laterRemoval(entry.Duplicate.Of) {
			return fmt.Errorf("index %d is a duplicate of %d which was also removed", entry.OriginalIndex, entry.Duplicate.Of)
		}
	}
	if len(logged) != len(r.Removed) {
		return fmt.Errorf("removed set has %d indices but log covers %d", len(r.Removed), len(logged))
	}

	total := r.Stats.LowQualityCount + r.Stats.ExactDuplicateCount + r.Stats.NearDuplicateCount
	if total != len(r.Removed) {
		return fmt.Errorf("stats count %d removals but removed set has %d", total, len(r.Removed))
	}

	kept := len(r.KeptIndices())
	if kept+len(r.Removed) != r.Total {
		return fmt.Errorf("kept (%d) + removed (%d) does not equal total (%d)", kept, len(r.Removed), r.Total)
	}
	return nil
}

// laterRemoval reports whether index was removed as a near-duplicate, the
// only stage that runs after exact-duplicate grouping.
func (r *Result) laterRemoval(index int) bool {
	for i := range r.Entries {
		if r.Entries[i].OriginalIndex == index {
			return r.Entries[i].Reason == types.ReasonVerySimilarItem
		}
	}
	return false
}
