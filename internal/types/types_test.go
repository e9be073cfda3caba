package types

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKeepsOriginalEncoding(t *testing.T) {
	line := `{"instruction":"What is PD?","input":"","output":"Dialysis <at> home.","source":"nurse-faq"}`

	var r Record
	require.NoError(t, json.Unmarshal([]byte(line), &r))
	assert.Equal(t, "What is PD?", r.Instruction)
	assert.Equal(t, "Dialysis <at> home.", r.Output)
	assert.True(t, r.HasRaw())

	assert.Equal(t, line, encode(t, r), "unknown keys and key order survive a round trip")
}

func encode(t *testing.T, r Record) string {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(r))
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

func TestRecordMarshalWithoutRaw(t *testing.T) {
	out := encode(t, NewRecord("Explain <HD>", "", "Blood & filters."))
	assert.Equal(t, `{"instruction":"Explain <HD>","input":"","output":"Blood & filters."}`, out)
}

func TestRecordUnmarshalRejectsNonString(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"instruction":42,"input":"","output":"x"}`), &r)
	assert.Error(t, err)
}

func TestRecordHelpers(t *testing.T) {
	r := NewRecord("  Why?  ", " \t ", " Because. ")
	assert.Equal(t, "  Why?    \t   Because. ", r.FullText())
	assert.False(t, r.HasInput())

	trimmed := r.Trimmed()
	assert.Equal(t, NewRecord("Why?", "", "Because."), trimmed)
	assert.False(t, trimmed.HasRaw())
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "short", in: "kidney", n: 10, want: "kidney"},
		{name: "exact", in: "kidney", n: 6, want: "kidney"},
		{name: "cut", in: "kidney stones", n: 6, want: "kidney..."},
		{name: "multibyte", in: "néphrologie", n: 3, want: "nép..."},
		{name: "negative keeps all", in: "renal", n: -1, want: "renal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.n))
		})
	}
	assert.Equal(t, 11, TextLen("néphrologie"))
}

func TestReasonCodes(t *testing.T) {
	reason := LowQualityReason(IssueGenericRefusal)
	assert.Equal(t, ReasonCode("low_quality_generic_refusal"), reason)
	assert.True(t, reason.IsLowQuality())
	assert.True(t, reason.IsValid())

	assert.True(t, ReasonExactDuplicate.IsValid())
	assert.False(t, ReasonExactDuplicate.IsLowQuality())
	assert.False(t, ReasonCode("low_quality_bad_vibes").IsValid())
	assert.False(t, ReasonCode("stale").IsValid())
	assert.False(t, QualityIssue("").IsValid())
}

func TestRemovalEntryValidate(t *testing.T) {
	kept := NewRecord("What is PD?", "", "Dialysis at home.")
	removed := NewRecord("What is PD", "", "Dialysis at home")

	tests := []struct {
		name    string
		entry   RemovalEntry
		wantErr string
	}{
		{name: "low quality", entry: NewLowQualityEntry(3, removed, IssueOutputTooShort)},
		{name: "exact", entry: NewExactDuplicateEntry(4, removed, 1, kept)},
		{name: "similar", entry: NewSimilarEntry(2, removed, SimilarityInfo{SimilarTo: 5, SimilarToData: kept})},
		{
			name:    "negative index",
			entry:   NewLowQualityEntry(-1, removed, IssueOutputTooShort),
			wantErr: "cannot be negative",
		},
		{
			name:    "unknown reason",
			entry:   RemovalEntry{OriginalIndex: 1, Reason: "stale"},
			wantErr: "invalid removal reason",
		},
		{
			name:    "issue mismatch",
			entry:   RemovalEntry{OriginalIndex: 1, Reason: LowQualityReason(IssueTestContent), QualityIssue: IssueOutputTooShort},
			wantErr: "does not match",
		},
		{
			name:    "exact without link",
			entry:   RemovalEntry{OriginalIndex: 1, Reason: ReasonExactDuplicate},
			wantErr: "no duplicate_of",
		},
		{
			name:    "exact pointing forward",
			entry:   NewExactDuplicateEntry(1, removed, 2, kept),
			wantErr: "must be lower",
		},
		{
			name:    "similar without scores",
			entry:   RemovalEntry{OriginalIndex: 1, Reason: ReasonVerySimilarItem},
			wantErr: "no similarity data",
		},
		{
			name:    "similar to itself",
			entry:   NewSimilarEntry(2, removed, SimilarityInfo{SimilarTo: 2}),
			wantErr: "similar to itself",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRemovalEntryJSON(t *testing.T) {
	entry := NewExactDuplicateEntry(4, NewRecord("a", "", "b"), 1, NewRecord("a", "", "b"))
	out, err := json.Marshal(entry)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "exact_duplicate", decoded["removal_reason"])
	assert.NotContains(t, decoded, "quality_issue")
	assert.NotContains(t, decoded, "similarity")
	dup, ok := decoded["duplicate"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, dup["duplicate_of"])
}
