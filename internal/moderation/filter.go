// Package moderation classifies outgoing chat text against a configured
// denylist. Pure and stateless: no stemming, no unicode normalization beyond
// lowercase folding.
package moderation

import "strings"

type Filter struct {
	terms []string
}

// NewFilter builds a filter from the configured denylist. Terms are folded
// to lowercase once at construction; empty terms are dropped.
func NewFilter(terms []string) *Filter {
	f := &Filter{terms: make([]string, 0, len(terms))}
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			f.terms = append(f.terms, t)
		}
	}
	return f
}

// IsBlocked reports whether text contains any denylisted term,
// case-insensitively.
func (f *Filter) IsBlocked(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range f.terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
