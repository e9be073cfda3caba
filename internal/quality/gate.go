package quality

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/OliseNS/FinetuneGemma/internal/terms"
	"github.com/OliseNS/FinetuneGemma/internal/types"
)

// Rules holds the thresholds and content tables used by the Gate.
type Rules struct {
	MinInstructionLength int
	MinOutputLength      int

	// InappropriatePatterns are matched against the lowercased full text.
	InappropriatePatterns []string

	// RefusalPhrases flag a generic refusal when the output is shorter than
	// MaxRefusalLength and the text carries no domain terms.
	RefusalPhrases   []string
	MaxRefusalLength int

	// PlaceholderPrefixes mark an instruction as test content.
	PlaceholderPrefixes []string
}

// DefaultRules returns the production rule set.
func DefaultRules() Rules {
	return Rules{
		MinInstructionLength: 10,
		MinOutputLength:      15,
		InappropriatePatterns: []string{
			`\bhack\b.*\bemail\b`,
			`\bhitler\b`,
			`\bnazi\b`,
			`\bkill\b.*\bpeople\b`,
			`\bhow to.*\bmurder\b`,
		},
		RefusalPhrases: []string{
			"sorry, i can't assist with that",
			"i cannot assist",
			"i'm not able to",
		},
		MaxRefusalLength:    50,
		PlaceholderPrefixes: []string{"test", "example", "sample", "dummy"},
	}
}

// Verdict is the outcome of checking one record.
type Verdict struct {
	Accepted bool
	Issue    types.QualityIssue
}

func accept() Verdict { return Verdict{Accepted: true} }

func reject(issue types.QualityIssue) Verdict { return Verdict{Issue: issue} }

// Gate classifies single records as acceptable or low quality.
type Gate struct {
	rules         Rules
	inappropriate []*regexp.Regexp
	extractor     *terms.Extractor
}

// NewGate compiles the rule set. A nil extractor uses terms.Default().
func NewGate(rules Rules, extractor *terms.Extractor) (*Gate, error) {
	if extractor == nil {
		extractor = terms.Default()
	}
	g := &Gate{rules: rules, extractor: extractor}
	for _, pattern := range rules.InappropriatePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid inappropriate-content pattern %q: %w", pattern, err)
		}
		g.inappropriate = append(g.inappropriate, re)
	}
	return g, nil
}

var defaultGate = mustNewGate(DefaultRules(), nil)

func mustNewGate(rules Rules, extractor *terms.Extractor) *Gate {
	g, err := NewGate(rules, extractor)
	if err != nil {
		panic(err)
	}
	return g
}

// Check runs the default gate.
func Check(r types.Record) Verdict {
	return defaultGate.Check(r)
}

// Check applies the checks in order; the first failure decides the issue.
func (g *Gate) Check(r types.Record) Verdict {
	t := r.Trimmed()
	fullText := strings.ToLower(t.FullText())

	checks := []struct {
		issue  types.QualityIssue
		failed func() bool
	}{
		{types.IssueInstructionTooShort, func() bool {
			return types.TextLen(t.Instruction) < g.rules.MinInstructionLength
		}},
		{types.IssueOutputTooShort, func() bool {
			return types.TextLen(t.Output) < g.rules.MinOutputLength
		}},
		{types.IssueInappropriateContent, func() bool {
			return g.matchesInappropriate(fullText)
		}},
		{types.IssueGenericRefusal, func() bool {
			return g.isGenericRefusal(t.Output, fullText)
		}},
		{types.IssueTestContent, func() bool {
			return g.isPlaceholder(t.Instruction)
		}},
	}

	for _, check := range checks {
		if check.failed() {
			return reject(check.issue)
		}
	}
	return accept()
}

func (g *Gate) matchesInappropriate(lowered string) bool {
	for _, re := range g.inappropriate {
		if re.MatchString(lowered) {
			return true
		}
	}
	return false
}

func (g *Gate) isGenericRefusal(output, fullText string) bool {
	lowered := strings.ToLower(output)
	refusal := false
	for _, phrase := range g.rules.RefusalPhrases {
		if strings.Contains(lowered, phrase) {
			refusal = true
			break
		}
	}
	if !refusal || types.TextLen(output) >= g.rules.MaxRefusalLength {
		return false
	}
	return g.extractor.Extract(fullText).Empty()
}

func (g *Gate) isPlaceholder(instruction string) bool {
	lowered := strings.ToLower(instruction)
	for _, prefix := range g.rules.PlaceholderPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return true
		}
	}
	return false
}
