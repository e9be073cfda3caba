package deduplication

import (
	"github.com/OliseNS/FinetuneGemma/internal/terms"
	"github.com/OliseNS/FinetuneGemma/internal/types"
)

// Classifier decides whether two records are semantically distinct enough
// that they must never be treated as duplicates.
type Classifier struct {
	extractor *terms.Extractor
}

// NewClassifier returns a classifier backed by extractor. A nil extractor
// uses terms.Default().
func NewClassifier(extractor *terms.Extractor) *Classifier {
	if extractor == nil {
		extractor = terms.Default()
	}
	return &Classifier{extractor: extractor}
}

var defaultClassifier = NewClassifier(nil)

// AreDistinct runs the default classifier.
func AreDistinct(a, b types.Record) bool {
	return defaultClassifier.AreDistinct(a, b)
}

// AreDistinct reports whether a and b differ in treatment modality, in
// condition, or in both age group and audience. A category only counts
// when both records mention it.
func (c *Classifier) AreDistinct(a, b types.Record) bool {
	termsA := c.extractor.Extract(a.FullText())
	termsB := c.extractor.Extract(b.FullText())

	if differ(termsA, termsB, terms.CategoryModality) {
		return true
	}
	if differ(termsA, termsB, terms.CategoryCondition) {
		return true
	}
	return differ(termsA, termsB, terms.CategoryAgeGroup) &&
		differ(termsA, termsB, terms.CategoryAudience)
}

func differ(a, b terms.TermSet, category terms.Category) bool {
	inA := a.Category(category)
	inB := b.Category(category)
	return !inA.Empty() && !inB.Empty() && !inA.Equal(inB)
}
