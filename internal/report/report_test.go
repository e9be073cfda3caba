package report

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OliseNS/FinetuneGemma/internal/types"
)

func sampleEntries() []types.RemovalEntry {
	kept := types.NewRecord("How much fluid can I drink?", "Audience: layperson", strings.Repeat("x", 200))
	return []types.RemovalEntry{
		types.NewLowQualityEntry(1, types.NewRecord("Why", "", "Because the kidneys filter blood."), types.IssueInstructionTooShort),
		types.NewExactDuplicateEntry(2, types.NewRecord("What is CKD?", "", "Chronic kidney disease."), 0,
			types.NewRecord("What is CKD?", "", "Chronic kidney disease.")),
		types.NewSimilarEntry(5, types.NewRecord("How much fluid may I drink?", "", "Limit fluids."), types.SimilarityInfo{
			SimilarTo:             3,
			SimilarToData:         kept,
			SimilarityScore:       0.91234,
			InstructionSimilarity: 0.8,
			QualityScore:          12.34,
			KeptQualityScore:      56.78,
		}),
		types.NewLowQualityEntry(7, types.NewRecord("Test prompt here", "", "Some sample output."), types.IssueTestContent),
		types.NewLowQualityEntry(8, types.NewRecord("Hi", "", "Hello there friend."), types.IssueInstructionTooShort),
	}
}

func TestSummarize(t *testing.T) {
	counts := Summarize(sampleEntries())

	assert.Equal(t, []ReasonCount{
		{Reason: "low_quality_instruction_too_short", Count: 2},
		{Reason: types.ReasonExactDuplicate, Count: 1},
		{Reason: types.ReasonVerySimilarItem, Count: 1},
		{Reason: "low_quality_test_content", Count: 1},
	}, counts)
	assert.Empty(t, Summarize(nil))
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	generated := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	require.NoError(t, Render(&buf, sampleEntries(), generated))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Training Data Removal Report\nGenerated on: 2025-03-04 05:06:07\n\n"))
	assert.Contains(t, out, "Total items removed: 5\n")
	assert.Contains(t, out, "| low_quality_instruction_too_short | 2 |\n")
	assert.Contains(t, out, "## Low_Quality_Instruction_Too_Short (2 items)\n")
	assert.Contains(t, out, "## Exact_Duplicate (1 items)\n")
	assert.Contains(t, out, "**Duplicate of Index:** 0\n")
	assert.Contains(t, out, "**Similar to Index:** 3\n**Similarity Score:** 0.912\n**Instruction Similarity:** 0.800\n")
	assert.Contains(t, out, "- Input: Audience: layperson\n")
	assert.Contains(t, out, "- Output: "+strings.Repeat("x", 150)+"...\n")
	assert.Contains(t, out, "- Removed item quality score: 12.3\n- Kept item quality score: 56.8\n")
	assert.NotContains(t, out, "**Input:**", "blank inputs are omitted")

	// Items are numbered per section.
	section := out[strings.Index(out, "## Low_Quality_Instruction_Too_Short"):strings.Index(out, "## Exact_Duplicate")]
	assert.Contains(t, section, "### Item 1\n**Original Index:** 1\n")
	assert.Contains(t, section, "### Item 2\n**Original Index:** 8\n")
	assert.Equal(t, 5, strings.Count(out, "---\n"))
}

func TestRenderSummaryCountsSumToTotal(t *testing.T) {
	var buf bytes.Buffer
	entries := sampleEntries()
	require.NoError(t, Render(&buf, entries, time.Now()))

	row := regexp.MustCompile(`(?m)^\| [a-z_]+ \| (\d+) \|$`)
	sum := 0
	for _, m := range row.FindAllStringSubmatch(buf.String(), -1) {
		n, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		sum += n
	}
	assert.Equal(t, len(entries), sum)
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil, time.Now()))
	assert.Contains(t, buf.String(), "Total items removed: 0\n")
	assert.NotContains(t, buf.String(), "| Reason |")
}

func TestWriteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "nested", "removal_report.md")
	require.NoError(t, Write(path, sampleEntries(), time.Now()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Very_Similar_Item (1 items)")
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"exact_duplicate":                   "Exact_Duplicate",
		"low_quality_generic_refusal":       "Low_Quality_Generic_Refusal",
		"ALREADY_UPPER":                     "Already_Upper",
		"x2y":                               "X2Y",
		"":                                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, TitleCase(in), in)
	}
}
