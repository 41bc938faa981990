package plagiarism

import "strings"

// DefaultPhraseWindow is the number of words in each compared phrase.
const DefaultPhraseWindow = 5

// PhraseSet is a deduplicated set of contiguous word windows.
type PhraseSet map[string]struct{}

// ExtractPhrases slides a window of the given size over the words of an
// already normalized text, one word at a time. Texts shorter than the window
// yield an empty set.
func ExtractPhrases(normalized string, window int) PhraseSet {
	phrases := make(PhraseSet)
	if window <= 0 {
		return phrases
	}

	words := strings.Fields(normalized)
	for i := 0; i+window <= len(words); i++ {
		phrases[strings.Join(words[i:i+window], " ")] = struct{}{}
	}

	return phrases
}

// PhraseOverlap compares the 5-word phrases of two texts.
func PhraseOverlap(textA, textB string) float64 {
	return PhraseOverlapWindow(textA, textB, DefaultPhraseWindow)
}

// PhraseOverlapWindow returns shared_phrases / min(phrases_A, phrases_B).
// Dividing by the smaller set lets a short excerpt copied from a long
// document score high. Either set being empty yields 0.
func PhraseOverlapWindow(textA, textB string, window int) float64 {
	phrasesA := ExtractPhrases(Normalize(textA), window)
	phrasesB := ExtractPhrases(Normalize(textB), window)

	if len(phrasesA) == 0 || len(phrasesB) == 0 {
		return 0.0
	}

	smaller, larger := phrasesA, phrasesB
	if len(larger) < len(smaller) {
		smaller, larger = larger, smaller
	}

	shared := 0
	for phrase := range smaller {
		if _, ok := larger[phrase]; ok {
			shared++
		}
	}

	return float64(shared) / float64(len(smaller))
}
