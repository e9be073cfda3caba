// Package deduplication filters an instruction-tuning corpus down to the
// records worth training on.
//
// # Overview
//
// The Engine runs three strictly ordered stages over a loaded corpus. A
// record removed by one stage takes no part in any later stage.
//
//  1. Quality filtering: every record goes through the quality gate and
//     rejections are removed as low_quality_<issue>.
//  2. Exact duplicates: surviving records are grouped by a fingerprint of
//     their lowercased, trimmed text. Each group keeps its lowest index.
//  3. Near duplicates: every unordered pair of survivors is compared once.
//     Pairs the Classifier considers distinct are never compared. Pairs
//     whose overall and instruction similarity both reach their thresholds
//     lose the record with the lower quality score; ties keep the lower
//     index.
//
// # Distinctness
//
// Textual similarity cannot tell a hemodialysis instruction from a
// peritoneal dialysis instruction that shares boilerplate. The Classifier
// compares the domain terms of two records and marks them distinct when
// their treatment modalities differ, their conditions differ, or both
// their age groups and audiences differ.
//
// # Scale
//
// Stage 3 is O(n²) in the number of survivors and runs on one goroutine.
// That is fine for hundreds to low thousands of records; larger corpora
// should be sharded before they reach the engine.
//
// # Example
//
//	engine, err := deduplication.NewEngine(deduplication.DefaultConfig(),
//	    deduplication.WithSink(sink))
//	if err != nil {
//	    return err
//	}
//	result, err := engine.Run(records)
//	if err != nil {
//	    return err
//	}
//	kept := result.KeptRecords(records)
package deduplication
