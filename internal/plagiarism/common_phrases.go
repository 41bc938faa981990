package plagiarism

import "strings"

// commonAcademicPhrases are boilerplate openers and connectives that show up
// in templated abstracts. Their presence is a weak signal only.
var commonAcademicPhrases = []string{
	"in this paper we",
	"the purpose of this study",
	"our research shows",
	"the results indicate",
	"in conclusion",
	"this study aims to",
	"the main objective",
	"our findings suggest",
	"previous research has shown",
	"it is important to note",
}

// CommonPhraseRatio returns the fraction of boilerplate phrases that appear
// in the normalized text.
func CommonPhraseRatio(text string) float64 {
	return float64(len(CommonPhrasesFound(text))) / float64(len(commonAcademicPhrases))
}

// CommonPhrasesFound lists the boilerplate phrases present in text, in table order.
func CommonPhrasesFound(text string) []string {
	normalized := Normalize(text)
	found := make([]string, 0)
	if normalized == "" {
		return found
	}

	for _, phrase := range commonAcademicPhrases {
		if strings.Contains(normalized, phrase) {
			found = append(found, phrase)
		}
	}
	return found
}
