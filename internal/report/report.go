// Package report renders the Markdown removal report for a cleaning run.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/OliseNS/FinetuneGemma/internal/types"
)

// keptPreviewLength bounds the kept record's output in the report.
const keptPreviewLength = 150

// ReasonCount is the number of removals for one reason.
type ReasonCount struct {
	Reason types.ReasonCode `json:"reason"`
	Count  int              `json:"count"`
}

// Summarize counts entries per reason, in order of first appearance.
func Summarize(entries []types.RemovalEntry) []ReasonCount {
	var out []ReasonCount
	pos := make(map[types.ReasonCode]int)
	for _, e := range entries {
		i, ok := pos[e.Reason]
		if !ok {
			i = len(out)
			pos[e.Reason] = i
			out = append(out, ReasonCount{Reason: e.Reason})
		}
		out[i].Count++
	}
	return out
}

// group splits entries by reason, keeping the Summarize order.
func group(entries []types.RemovalEntry) ([]ReasonCount, map[types.ReasonCode][]types.RemovalEntry) {
	byReason := make(map[types.ReasonCode][]types.RemovalEntry)
	for _, e := range entries {
		byReason[e.Reason] = append(byReason[e.Reason], e)
	}
	return Summarize(entries), byReason
}

// Render writes the report for entries to w.
func Render(w io.Writer, entries []types.RemovalEntry, generatedAt time.Time) error {
	bw := bufio.NewWriter(w)
	counts, byReason := group(entries)

	fmt.Fprintf(bw, "# Training Data Removal Report\n")
	fmt.Fprintf(bw, "Generated on: %s\n\n", generatedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(bw, "## Summary\n")
	fmt.Fprintf(bw, "Total items removed: %d\n\n", len(entries))
	if len(counts) > 0 {
		fmt.Fprintf(bw, "| Reason | Count |\n")
		fmt.Fprintf(bw, "|--------|-------|\n")
		for _, c := range counts {
			fmt.Fprintf(bw, "| %s | %d |\n", c.Reason, c.Count)
		}
		fmt.Fprintf(bw, "\n")
	}

	for _, c := range counts {
		fmt.Fprintf(bw, "## %s (%d items)\n\n", TitleCase(string(c.Reason)), c.Count)
		for i, e := range byReason[c.Reason] {
			writeEntry(bw, i+1, e)
		}
	}

	return bw.Flush()
}

func writeEntry(w io.Writer, n int, e types.RemovalEntry) {
	fmt.Fprintf(w, "### Item %d\n", n)
	fmt.Fprintf(w, "**Original Index:** %d\n\n", e.OriginalIndex)

	if e.QualityIssue != "" {
		fmt.Fprintf(w, "**Quality Issue:** %s\n\n", e.QualityIssue)
	}
	if e.Duplicate != nil {
		fmt.Fprintf(w, "**Duplicate of Index:** %d\n\n", e.Duplicate.Of)
	}
	if e.Similarity != nil {
		fmt.Fprintf(w, "**Similar to Index:** %d\n", e.Similarity.SimilarTo)
		fmt.Fprintf(w, "**Similarity Score:** %.3f\n", e.Similarity.SimilarityScore)
		fmt.Fprintf(w, "**Instruction Similarity:** %.3f\n\n", e.Similarity.InstructionSimilarity)
	}

	fmt.Fprintf(w, "**Instruction:** %s\n\n", e.Data.Instruction)
	if e.Data.HasInput() {
		fmt.Fprintf(w, "**Input:** %s\n\n", e.Data.Input)
	}
	fmt.Fprintf(w, "**Output:** %s\n\n", e.Data.Output)

	if e.Similarity != nil {
		kept := e.Similarity.SimilarToData
		fmt.Fprintf(w, "**Kept Instead (Similar Item):**\n")
		fmt.Fprintf(w, "- Instruction: %s\n", kept.Instruction)
		if kept.HasInput() {
			fmt.Fprintf(w, "- Input: %s\n", kept.Input)
		}
		fmt.Fprintf(w, "- Output: %s\n\n", types.Truncate(kept.Output, keptPreviewLength))

		fmt.Fprintf(w, "**Quality Comparison:**\n")
		fmt.Fprintf(w, "- Removed item quality score: %.1f\n", e.Similarity.QualityScore)
		fmt.Fprintf(w, "- Kept item quality score: %.1f\n\n", e.Similarity.KeptQualityScore)
	}

	fmt.Fprintf(w, "---\n\n")
}

// Write renders the report to path, creating the parent directory.
func Write(path string, entries []types.RemovalEntry, generatedAt time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", path, err)
	}
	if err := Render(f, entries, generatedAt); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report %s: %w", path, err)
	}
	return nil
}

// TitleCase upper-cases the first letter of every run of letters and
// lower-cases the rest, so "very_similar_item" becomes "Very_Similar_Item".
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
