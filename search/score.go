package search

import "github.com/agnivade/levenshtein"

// Scorer rates the similarity of two strings on a 0-100 scale.
type Scorer interface {
	Score(a, b string) int
}

var _ Scorer = (*LevenshteinScorer)(nil)

// LevenshteinScorer scores strings by normalized edit distance: 100 for
// identical strings, 0 for strings with nothing in common. Distances are
// measured in runes, so multi-byte kana and kanji count as single edits.
type LevenshteinScorer struct{}

func (LevenshteinScorer) Score(a, b string) int {
	if a == b {
		return 100
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return (longest - d) * 100 / longest
}
