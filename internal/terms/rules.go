package terms

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category names one domain vocabulary.
type Category string

const (
	CategoryModality    Category = "modality"
	CategoryOrgan       Category = "organ"
	CategoryCondition   Category = "condition"
	CategoryAccess      Category = "access"
	CategoryElectrolyte Category = "electrolyte"
	CategoryAgeGroup    Category = "age_group"
	CategoryAudience    Category = "audience"
)

// Rule lists the patterns for one category. Each pattern is a regular
// expression body; the extractor anchors it on word boundaries and matches
// it against lowercased text.
type Rule struct {
	Category Category `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// Rules is an ordered rule table. Order only affects iteration, not the
// resulting term set.
type Rules []Rule

// DefaultRules returns the built-in nephrology vocabulary.
func DefaultRules() Rules {
	return Rules{
		{Category: CategoryModality, Patterns: []string{`hemodialysis|peritoneal dialysis|crrt|apd|capd|hd|pd`}},
		{Category: CategoryOrgan, Patterns: []string{`kidney|renal|dialysis|transplant|nephrology`}},
		{Category: CategoryCondition, Patterns: []string{`peritonitis|pneumonia|infection|fever|cramps|vomiting`}},
		{Category: CategoryAccess, Patterns: []string{`catheter|access|fistula|graft`}},
		{Category: CategoryElectrolyte, Patterns: []string{`fluid|electrolyte|sodium|potassium|calcium`}},
		{Category: CategoryAgeGroup, Patterns: []string{`pediatric|adult|elderly|young_adult|middle_aged|older_adult`}},
		{Category: CategoryAudience, Patterns: []string{`layperson|expert|nurse|doctor|physician`}},
	}
}

// Validate checks that every rule is named, unique and has at least one
// compilable pattern.
func (r Rules) Validate() error {
	seen := make(map[Category]bool, len(r))
	for i, rule := range r {
		name := strings.TrimSpace(string(rule.Category))
		if name == "" {
			return fmt.Errorf("rule %d has no category name", i)
		}
		if seen[rule.Category] {
			return fmt.Errorf("category %q defined more than once", rule.Category)
		}
		seen[rule.Category] = true
		if len(rule.Patterns) == 0 {
			return fmt.Errorf("category %q has no patterns", rule.Category)
		}
		for _, pattern := range rule.Patterns {
			if _, err := compilePattern(pattern); err != nil {
				return fmt.Errorf("category %q: %w", rule.Category, err)
			}
		}
	}
	return nil
}

// Merge returns a copy of r where categories named in overrides replace the
// existing rule and unknown categories are appended.
func (r Rules) Merge(overrides Rules) Rules {
	merged := make(Rules, len(r))
	copy(merged, r)
	for _, override := range overrides {
		replaced := false
		for i := range merged {
			if merged[i].Category == override.Category {
				merged[i] = override
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, override)
		}
	}
	return merged
}

// RulesFile is the on-disk YAML layout for a term rule table.
type RulesFile struct {
	// Replace drops the built-in table instead of merging into it.
	Replace    bool  `yaml:"replace"`
	Categories Rules `yaml:"categories"`
}

// LoadRules reads a YAML rule file and layers it over DefaultRules.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading term rules %s: %w", path, err)
	}

	var file RulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing term rules %s: %w", path, err)
	}

	rules := file.Categories
	if !file.Replace {
		rules = DefaultRules().Merge(file.Categories)
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid term rules %s: %w", path, err)
	}
	return rules, nil
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	re, err := regexp.Compile(`\b(?:` + pattern + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}
