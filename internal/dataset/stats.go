package dataset

import (
	"fmt"
	"io"

	"github.com/OliseNS/FinetuneGemma/internal/terms"
	"github.com/OliseNS/FinetuneGemma/internal/types"
)

// Stats summarizes a corpus. Lengths are in code points.
type Stats struct {
	Total           int `json:"total"`
	InstructionOnly int `json:"instruction_only"`
	WithInput       int `json:"with_input"`

	AvgInstructionLength float64 `json:"avg_instruction_length"`
	AvgInputLength       float64 `json:"avg_input_length"`
	AvgOutputLength      float64 `json:"avg_output_length"`

	// DomainRecords counts records with at least one vocabulary term
	DomainRecords int `json:"domain_records"`
	// AvgTermsPerDomainRecord is zero when DomainRecords is zero
	AvgTermsPerDomainRecord float64 `json:"avg_terms_per_domain_record"`
}

// DomainShare is the percentage of records carrying domain terms.
func (s Stats) DomainShare() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.DomainRecords) / float64(s.Total) * 100
}

// Analyze computes corpus statistics. A nil extractor uses terms.Default().
func Analyze(records []types.Record, extractor *terms.Extractor) Stats {
	if extractor == nil {
		extractor = terms.Default()
	}
	stats := Stats{Total: len(records)}
	if len(records) == 0 {
		return stats
	}

	var instructionLen, inputLen, outputLen, termCount int
	for _, r := range records {
		if r.HasInput() {
			stats.WithInput++
		} else {
			stats.InstructionOnly++
		}
		instructionLen += types.TextLen(r.Instruction)
		inputLen += types.TextLen(r.Input)
		outputLen += types.TextLen(r.Output)

		if found := extractor.Extract(r.FullText()); !found.Empty() {
			stats.DomainRecords++
			termCount += found.Len()
		}
	}

	n := float64(len(records))
	stats.AvgInstructionLength = float64(instructionLen) / n
	stats.AvgInputLength = float64(inputLen) / n
	stats.AvgOutputLength = float64(outputLen) / n
	if stats.DomainRecords > 0 {
		stats.AvgTermsPerDomainRecord = float64(termCount) / float64(stats.DomainRecords)
	}
	return stats
}

// Print writes the statistics as indented lines.
func (s Stats) Print(w io.Writer) {
	fmt.Fprintf(w, "Total items: %d\n", s.Total)
	if s.Total == 0 {
		return
	}
	fmt.Fprintf(w, "Items with instruction only: %d\n", s.InstructionOnly)
	fmt.Fprintf(w, "Items with instruction + input: %d\n", s.WithInput)
	fmt.Fprintf(w, "Average instruction length: %.1f characters\n", s.AvgInstructionLength)
	fmt.Fprintf(w, "Average input length: %.1f characters\n", s.AvgInputLength)
	fmt.Fprintf(w, "Average output length: %.1f characters\n", s.AvgOutputLength)
	fmt.Fprintf(w, "Items with medical content: %d (%.1f%%)\n", s.DomainRecords, s.DomainShare())
	if s.DomainRecords > 0 {
		fmt.Fprintf(w, "Average medical terms per medical item: %.1f\n", s.AvgTermsPerDomainRecord)
	}
}
