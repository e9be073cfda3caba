package types

import (
	"fmt"
	"strings"
)

// QualityIssue names the first quality check a record failed.
type QualityIssue string

const (
	IssueInstructionTooShort  QualityIssue = "instruction_too_short"
	IssueOutputTooShort       QualityIssue = "output_too_short"
	IssueInappropriateContent QualityIssue = "inappropriate_content"
	IssueGenericRefusal       QualityIssue = "generic_refusal"
	IssueTestContent          QualityIssue = "test_content"
)

// IsValid checks if the quality issue value is valid
func (q QualityIssue) IsValid() bool {
	switch q {
	case IssueInstructionTooShort, IssueOutputTooShort, IssueInappropriateContent,
		IssueGenericRefusal, IssueTestContent:
		return true
	}
	return false
}

// ReasonCode is why a record was removed from the corpus.
type ReasonCode string

const (
	ReasonExactDuplicate  ReasonCode = "exact_duplicate"
	ReasonVerySimilarItem ReasonCode = "very_similar_item"

	lowQualityPrefix = "low_quality_"
)

// LowQualityReason maps a quality issue to its removal reason code.
func LowQualityReason(issue QualityIssue) ReasonCode {
	return ReasonCode(lowQualityPrefix + string(issue))
}

// IsLowQuality reports whether the reason came from the quality gate.
func (r ReasonCode) IsLowQuality() bool {
	return strings.HasPrefix(string(r), lowQualityPrefix)
}

// IsValid checks if the reason code belongs to the closed set
func (r ReasonCode) IsValid() bool {
	switch r {
	case ReasonExactDuplicate, ReasonVerySimilarItem:
		return true
	}
	if r.IsLowQuality() {
		return QualityIssue(strings.TrimPrefix(string(r), lowQualityPrefix)).IsValid()
	}
	return false
}

// DuplicateInfo links an exact duplicate to the record that was kept.
type DuplicateInfo struct {
	Of     int    `json:"duplicate_of"`
	OfData Record `json:"duplicate_of_data"`
}

// SimilarityInfo carries the scores that justified a near-duplicate removal.
type SimilarityInfo struct {
	SimilarTo             int     `json:"similar_to"`
	SimilarToData         Record  `json:"similar_to_data"`
	SimilarityScore       float64 `json:"similarity_score"`
	InstructionSimilarity float64 `json:"instruction_similarity"`
	QualityScore          float64 `json:"quality_score"`
	KeptQualityScore      float64 `json:"kept_quality_score"`
}

// RemovalEntry is the audit record for one removed item. Entries are built
// by the constructors below and are not modified afterwards.
type RemovalEntry struct {
	OriginalIndex int             `json:"original_index"`
	Reason        ReasonCode      `json:"removal_reason"`
	Data          Record          `json:"data"`
	QualityIssue  QualityIssue    `json:"quality_issue,omitempty"`
	Duplicate     *DuplicateInfo  `json:"duplicate,omitempty"`
	Similarity    *SimilarityInfo `json:"similarity,omitempty"`
}

// NewLowQualityEntry records a quality gate rejection.
func NewLowQualityEntry(index int, data Record, issue QualityIssue) RemovalEntry {
	return RemovalEntry{
		OriginalIndex: index,
		Reason:        LowQualityReason(issue),
		Data:          data,
		QualityIssue:  issue,
	}
}

// NewExactDuplicateEntry records an exact duplicate of the kept index.
func NewExactDuplicateEntry(index int, data Record, keptIndex int, kept Record) RemovalEntry {
	return RemovalEntry{
		OriginalIndex: index,
		Reason:        ReasonExactDuplicate,
		Data:          data,
		Duplicate:     &DuplicateInfo{Of: keptIndex, OfData: kept},
	}
}

// NewSimilarEntry records a near-duplicate removal.
func NewSimilarEntry(index int, data Record, info SimilarityInfo) RemovalEntry {
	return RemovalEntry{
		OriginalIndex: index,
		Reason:        ReasonVerySimilarItem,
		Data:          data,
		Similarity:    &info,
	}
}

// Validate checks that the entry's optional parts match its reason
func (e *RemovalEntry) Validate() error {
	if e.OriginalIndex < 0 {
		return fmt.Errorf("original_index cannot be negative (got %d)", e.OriginalIndex)
	}
	if !e.Reason.IsValid() {
		return fmt.Errorf("invalid removal reason: %s", e.Reason)
	}
	switch {
	case e.Reason.IsLowQuality():
		if LowQualityReason(e.QualityIssue) != e.Reason {
			return fmt.Errorf("quality_issue %q does not match reason %s", e.QualityIssue, e.Reason)
		}
	case e.Reason == ReasonExactDuplicate:
		if e.Duplicate == nil {
			return fmt.Errorf("exact_duplicate entry for index %d has no duplicate_of", e.OriginalIndex)
		}
		if e.Duplicate.Of >= e.OriginalIndex {
			return fmt.Errorf("duplicate_of %d must be lower than original_index %d", e.Duplicate.Of, e.OriginalIndex)
		}
	case e.Reason == ReasonVerySimilarItem:
		if e.Similarity == nil {
			return fmt.Errorf("very_similar_item entry for index %d has no similarity data", e.OriginalIndex)
		}
		if e.Similarity.SimilarTo == e.OriginalIndex {
			return fmt.Errorf("index %d cannot be similar to itself", e.OriginalIndex)
		}
	}
	return nil
}
