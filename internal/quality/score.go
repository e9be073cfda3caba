package quality

import (
	"math"
	"strings"

	"github.com/OliseNS/FinetuneGemma/internal/terms"
	"github.com/OliseNS/FinetuneGemma/internal/types"
)

// Score weights. Scores only break ties between two near-duplicates, so the
// absolute value carries no meaning.
const (
	lengthWeight        = 0.1
	maxLengthScore      = 50.0
	termWeight          = 10.0
	sentenceWeight      = 5.0
	specificWordWeight  = 0.5
	specificWordMinLen  = 7
	completenessBonus   = 20.0
	shortOutputLength   = 50
	shortOutputPenalty  = 0.5
	truncationMarker    = "..."
	sentenceTerminators = ".!?"
)

// Scorer computes tie-break quality scores.
type Scorer struct {
	extractor *terms.Extractor
}

// NewScorer returns a scorer using extractor for the term contribution.
// A nil extractor uses terms.Default().
func NewScorer(extractor *terms.Extractor) *Scorer {
	if extractor == nil {
		extractor = terms.Default()
	}
	return &Scorer{extractor: extractor}
}

var defaultScorer = NewScorer(nil)

// Score rates r with the default scorer.
func Score(r types.Record) float64 {
	return defaultScorer.Score(r)
}

// Score rates a record. The output field is used as stored.
func (s *Scorer) Score(r types.Record) float64 {
	output := r.Output
	outputLen := types.TextLen(output)

	score := math.Min(float64(outputLen)*lengthWeight, maxLengthScore)
	score += float64(s.extractor.Extract(r.FullText()).Len()) * termWeight

	sentences := 0
	for _, c := range output {
		if strings.ContainsRune(sentenceTerminators, c) {
			sentences++
		}
	}
	score += float64(sentences) * sentenceWeight

	specific := 0
	for _, word := range strings.Fields(output) {
		if types.TextLen(word) >= specificWordMinLen {
			specific++
		}
	}
	score += float64(specific) * specificWordWeight

	if !strings.HasSuffix(output, truncationMarker) {
		score += completenessBonus
	}

	if outputLen < shortOutputLength {
		score *= shortOutputPenalty
	}
	return score
}
