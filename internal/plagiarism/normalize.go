package plagiarism

import (
	"strings"
	"unicode"
)

// PunctuationMode selects how punctuation is treated during normalization.
type PunctuationMode int

const (
	// PunctuationToSpace replaces punctuation with a word boundary, so
	// "end.start" normalizes to "end start". This is the canonical mode.
	PunctuationToSpace PunctuationMode = iota
	// PunctuationStrip drops punctuation outright, so "don't" becomes "dont".
	// Used by the vector scorer.
	PunctuationStrip
)

// Normalizer lowercases text, removes digits, handles punctuation according
// to its mode and collapses whitespace to single spaces.
type Normalizer struct {
	mode PunctuationMode
}

// NewNormalizer returns a normalizer using the given punctuation mode.
func NewNormalizer(mode PunctuationMode) Normalizer {
	return Normalizer{mode: mode}
}

var defaultNormalizer = NewNormalizer(PunctuationToSpace)

// Normalize applies the canonical normalization (punctuation to space).
func Normalize(text string) string {
	return defaultNormalizer.Normalize(text)
}

// Normalize returns the normalized form of text. The result never has
// leading, trailing or repeated spaces, and Normalize(Normalize(x)) equals
// Normalize(x).
func (n Normalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(text))
	pendingSpace := false

	for _, r := range text {
		switch {
		case unicode.IsDigit(r):
			// removed without introducing a boundary
		case unicode.IsSpace(r):
			pendingSpace = true
		case isPunctuation(r):
			if n.mode == PunctuationToSpace {
				pendingSpace = true
			}
		default:
			if pendingSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			pendingSpace = false
			sb.WriteRune(unicode.ToLower(r))
		}
	}

	return sb.String()
}

func isPunctuation(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// WordCount counts whitespace separated words in the raw text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
