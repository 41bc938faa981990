package plagiarism

import (
	"github.com/pmezard/go-difflib/difflib"
)

// SequenceSimilarity calculates 2*M / (lenA + lenB) over the characters of
// the normalized texts, where M is the size of the matching blocks found by
// longest-common-substring alignment. Empty input on either side yields 0.
func SequenceSimilarity(textA, textB string) float64 {
	a := Normalize(textA)
	b := Normalize(textB)

	if a == "" || b == "" {
		return 0.0
	}

	// Block alignment breaks ties by position, so fix the argument order to
	// keep the ratio symmetric.
	if b < a {
		a, b = b, a
	}

	matcher := difflib.NewMatcherWithJunk(splitRunes(a), splitRunes(b), false, nil)
	return clampScore(matcher.Ratio())
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func clampScore(score float64) float64 {
	if score < 0.0 {
		return 0.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}
