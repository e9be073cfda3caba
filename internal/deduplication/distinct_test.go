package deduplication

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OliseNS/FinetuneGemma/internal/terms"
	"github.com/OliseNS/FinetuneGemma/internal/types"
)

func TestAreDistinct(t *testing.T) {
	tests := []struct {
		name string
		a, b types.Record
		want bool
	}{
		{
			name: "different modalities",
			a:    types.NewRecord("Care for a hemodialysis catheter", "", "Keep it dry."),
			b:    types.NewRecord("Care for a peritoneal dialysis catheter", "", "Keep it dry."),
			want: true,
		},
		{
			name: "same modality",
			a:    types.NewRecord("What is CRRT?", "", "Continuous therapy."),
			b:    types.NewRecord("Explain crrt", "", "A slow continuous therapy."),
			want: false,
		},
		{
			name: "only one side names a modality",
			a:    types.NewRecord("What is CRRT?", "", "Continuous therapy."),
			b:    types.NewRecord("What is this therapy?", "", "Continuous therapy."),
			want: false,
		},
		{
			name: "different conditions",
			a:    types.NewRecord("Signs of peritonitis", "", "Cloudy fluid."),
			b:    types.NewRecord("Signs of pneumonia", "", "Cough."),
			want: true,
		},
		{
			name: "different age group and audience",
			a:    types.NewRecord("Explain dialysis", "Age group: pediatric. Audience: layperson", "Simple words."),
			b:    types.NewRecord("Explain dialysis", "Age group: elderly. Audience: physician", "Clinical words."),
			want: true,
		},
		{
			name: "different age group same audience",
			a:    types.NewRecord("Explain dialysis", "Age group: pediatric. Audience: nurse", "Simple words."),
			b:    types.NewRecord("Explain dialysis", "Age group: elderly. Audience: nurse", "Simple words."),
			want: false,
		},
		{
			name: "different audience without age groups",
			a:    types.NewRecord("Explain dialysis", "Audience: layperson", "Simple words."),
			b:    types.NewRecord("Explain dialysis", "Audience: physician", "Clinical words."),
			want: false,
		},
		{
			name: "no domain terms",
			a:    types.NewRecord("Tell me a joke", "", "Why did the chicken cross the road?"),
			b:    types.NewRecord("Tell me a joke", "", "Why did the chicken cross the road?"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AreDistinct(tt.a, tt.b))
			assert.Equal(t, tt.want, AreDistinct(tt.b, tt.a), "must be symmetric")
		})
	}
}

func TestClassifierCustomExtractor(t *testing.T) {
	extractor := terms.MustNewExtractor(terms.Rules{
		{Category: terms.CategoryModality, Patterns: []string{`home hd|in-centre hd`}},
	})
	c := NewClassifier(extractor)

	a := types.NewRecord("Scheduling home hd", "", "Three nights a week.")
	b := types.NewRecord("Scheduling in-centre hd", "", "Three sessions a week.")
	assert.True(t, c.AreDistinct(a, b))
	assert.False(t, AreDistinct(a, b), "default rules see hd on both sides")
}
