package deduplication

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OliseNS/FinetuneGemma/internal/types"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "kidney care", b: "kidney care", want: 1.0},
		{name: "case and surrounding space ignored", a: "  Kidney Care ", b: "kidney care", want: 1.0},
		{name: "both empty", a: "", b: "", want: 1.0},
		{name: "one empty", a: "abc", b: "", want: 0.0},
		{name: "shifted window", a: "abcd", b: "bcde", want: 0.75},
		{name: "nothing shared", a: "abc", b: "xyz", want: 0.0},
		{name: "code points not bytes", a: "naïve", b: "naive", want: 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.want, Similarity(tt.b, tt.a), 1e-9)
		})
	}
}

func TestFingerprint(t *testing.T) {
	base := types.NewRecord("What is CKD?", "", "Chronic kidney disease.")

	assert.Equal(t, Fingerprint(base), Fingerprint(types.NewRecord("  what is ckd?", " ", "CHRONIC KIDNEY DISEASE.  ")))
	assert.NotEqual(t, Fingerprint(base), Fingerprint(types.NewRecord("What is CKD?", "", "Chronic kidney disease!")))
	assert.Len(t, Fingerprint(base), 32)

	// Fields are joined without separators, so text may move between them.
	assert.Equal(t,
		Fingerprint(types.NewRecord("ab", "", "cd")),
		Fingerprint(types.NewRecord("a", "b", "cd")))
}

func TestOverallAndInstructionSimilarity(t *testing.T) {
	a := types.NewRecord("Explain fluid limits", "", "Keep fluid gain small.")
	b := types.NewRecord("Explain fluid limits", "", "Keep your fluid gain small.")

	assert.Equal(t, 1.0, InstructionSimilarity(a, b))
	overall := OverallSimilarity(a, b)
	assert.Greater(t, overall, 0.9)
	assert.Less(t, overall, 1.0)
}
