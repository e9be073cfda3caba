package terms

import (
	"regexp"
	"sort"
	"strings"
)

// Extractor matches text against a compiled rule table. It is safe for
// concurrent use once built.
type Extractor struct {
	rules []compiledRule
}

type compiledRule struct {
	category Category
	patterns []*regexp.Regexp
}

// NewExtractor compiles a rule table.
func NewExtractor(rules Rules) (*Extractor, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	e := &Extractor{rules: make([]compiledRule, 0, len(rules))}
	for _, rule := range rules {
		cr := compiledRule{category: rule.Category}
		for _, pattern := range rule.Patterns {
			re, err := compilePattern(pattern)
			if err != nil {
				return nil, err
			}
			cr.patterns = append(cr.patterns, re)
		}
		e.rules = append(e.rules, cr)
	}
	return e, nil
}

// MustNewExtractor is like NewExtractor but panics on an invalid table.
func MustNewExtractor(rules Rules) *Extractor {
	e, err := NewExtractor(rules)
	if err != nil {
		panic(err)
	}
	return e
}

var defaultExtractor = MustNewExtractor(DefaultRules())

// Default returns the extractor for DefaultRules.
func Default() *Extractor {
	return defaultExtractor
}

// Extract runs the default extractor over text.
func Extract(text string) TermSet {
	return defaultExtractor.Extract(text)
}

// Extract lowercases text and collects every pattern match, grouped by
// category.
func (e *Extractor) Extract(text string) TermSet {
	lowered := strings.ToLower(text)
	set := TermSet{}
	for _, rule := range e.rules {
		for _, re := range rule.patterns {
			for _, match := range re.FindAllString(lowered, -1) {
				set.add(rule.category, match)
			}
		}
	}
	return set
}

// Categories lists the category names in table order.
func (e *Extractor) Categories() []Category {
	out := make([]Category, len(e.rules))
	for i, rule := range e.rules {
		out[i] = rule.category
	}
	return out
}

// TermSet is the set of vocabulary terms found in a piece of text. The zero
// value is an empty set.
type TermSet struct {
	byCategory map[Category]map[string]struct{}
	all        map[string]struct{}
}

func (s *TermSet) add(category Category, term string) {
	if s.all == nil {
		s.all = make(map[string]struct{})
		s.byCategory = make(map[Category]map[string]struct{})
	}
	s.all[term] = struct{}{}
	terms, ok := s.byCategory[category]
	if !ok {
		terms = make(map[string]struct{})
		s.byCategory[category] = terms
	}
	terms[term] = struct{}{}
}

// Len is the number of distinct terms across all categories.
func (s TermSet) Len() int {
	return len(s.all)
}

// Empty reports whether no term was found.
func (s TermSet) Empty() bool {
	return len(s.all) == 0
}

// Has reports whether term was found in any category.
func (s TermSet) Has(term string) bool {
	_, ok := s.all[term]
	return ok
}

// Category returns the subset of terms attributed to one category.
func (s TermSet) Category(category Category) TermSet {
	out := TermSet{}
	for term := range s.byCategory[category] {
		out.add(category, term)
	}
	return out
}

// Sorted returns the terms in lexical order.
func (s TermSet) Sorted() []string {
	out := make([]string, 0, len(s.all))
	for term := range s.all {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// Equal compares membership only.
func (s TermSet) Equal(other TermSet) bool {
	if len(s.all) != len(other.all) {
		return false
	}
	for term := range s.all {
		if _, ok := other.all[term]; !ok {
			return false
		}
	}
	return true
}
