package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OliseNS/FinetuneGemma/internal/events"
	"github.com/OliseNS/FinetuneGemma/internal/types"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.jsonl")
	content := strings.Join([]string{
		`{"instruction": "What is CKD?", "input": "", "output": "Chronic kidney disease.", "source": "faq"}`,
		``,
		`not json at all`,
		`{"instruction": "Explain PD", "output": "Peritoneal dialysis uses the abdomen."}`,
		`{"instruction": 5, "output": "numeric instruction"}`,
		`["an", "array"]`,
		`   {"instruction": "Trailing spaces", "output": "are fine"}   `,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	recorder := events.NewRecorder()
	result, err := NewLoader(recorder, "run-1").Load(path)
	require.NoError(t, err)

	require.Len(t, result.Records, 3)
	assert.Equal(t, 3, result.SkippedLines)
	assert.Equal(t, "What is CKD?", result.Records[0].Instruction)
	assert.Equal(t, "", result.Records[1].Input)
	assert.Equal(t, "Trailing spaces", result.Records[2].Instruction)

	skipped := recorder.OfType(events.EventTypeLineSkipped)
	require.Len(t, skipped, 3)
	lines := make([]int, 0, len(skipped))
	for _, e := range skipped {
		assert.Equal(t, events.SeverityWarning, e.Severity)
		data, err := e.GetLineSkippedData()
		require.NoError(t, err)
		lines = append(lines, data.Line)
	}
	assert.Equal(t, []int{3, 5, 6}, lines)

	loaded := recorder.OfType(events.EventTypeLoadCompleted)
	require.Len(t, loaded, 1)
	assert.Equal(t, float64(3), loaded[0].Data["records"])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInputNotFound))
}

func TestSavePreservesOriginalShape(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.jsonl")
	out := filepath.Join(dir, "nested", "deeper", "out.jsonl")
	original := `{"instruction":"Dose <5mg?","input":"","output":"Ask your nephrologist & pharmacist.","tags":["pd"]}`
	require.NoError(t, os.WriteFile(in, []byte(original+"\n"), 0644))

	result, err := Load(in)
	require.NoError(t, err)

	records := append(result.Records, types.NewRecord("New <item>", "", "Created in code & saved."))
	require.NoError(t, Save(out, records))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, original, lines[0])
	assert.Equal(t, `{"instruction":"New <item>","input":"","output":"Created in code & saved."}`, lines[1])

	reloaded, err := Load(out)
	require.NoError(t, err)
	assert.Len(t, reloaded.Records, 2)
}

func TestSaveEmpty(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.jsonl")
	require.NoError(t, Save(out, nil))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestAnalyze(t *testing.T) {
	records := []types.Record{
		types.NewRecord("abcd", "", "hemodialysis at home"),
		types.NewRecord("ab", "Audience: nurse", "no terms here"),
		types.NewRecord("abcdef", "  ", "nothing"),
	}

	stats := Analyze(records, nil)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.InstructionOnly)
	assert.Equal(t, 1, stats.WithInput)
	assert.InDelta(t, 4.0, stats.AvgInstructionLength, 1e-9)
	assert.InDelta(t, 17.0/3, stats.AvgInputLength, 1e-9)
	assert.Equal(t, 2, stats.DomainRecords)
	assert.InDelta(t, 1.0, stats.AvgTermsPerDomainRecord, 1e-9)
	assert.InDelta(t, 200.0/3, stats.DomainShare(), 1e-9)

	var buf bytes.Buffer
	stats.Print(&buf)
	assert.Contains(t, buf.String(), "Items with medical content: 2 (66.7%)")
}

func TestAnalyzeEmpty(t *testing.T) {
	stats := Analyze(nil, nil)
	assert.Equal(t, Stats{}, stats)

	var buf bytes.Buffer
	stats.Print(&buf)
	assert.Equal(t, "Total items: 0\n", buf.String())
}
