package plagiarism

import (
	"fmt"
	"sort"
)

// Peer is a comparison document in peer ranking mode.
type Peer struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// SourceMatch pairs a peer's label with the candidate's similarity to it.
type SourceMatch struct {
	Label string  `json:"source_label"`
	Score float64 `json:"similarity"`
}

// Percent renders the score for display, e.g. "73.45%".
func (m SourceMatch) Percent() string {
	return FormatPercent(m.Score)
}

// FormatPercent renders a [0,1] score as a percentage with two decimals.
func FormatPercent(score float64) string {
	return fmt.Sprintf("%.2f%%", score*100)
}

// CorpusEntry is a comparison document in risk assessment mode.
type CorpusEntry struct {
	Label string `json:"label"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// CorpusMatch identifies the corpus entry with the highest text similarity.
type CorpusMatch struct {
	Label          string  `json:"label"`
	Title          string  `json:"title"`
	TextSimilarity float64 `json:"text_similarity"`
}

// RiskReport is the aggregated verdict of AssessRisk.
type RiskReport struct {
	OverallScore       float64      `json:"overall_score"`
	RiskLevel          RiskLevel    `json:"risk_level"`
	IsSuspicious       bool         `json:"is_suspicious"`
	DatabaseSimilarity float64      `json:"database_similarity"`
	DatabaseSuspicious bool         `json:"database_suspicious"`
	TextSimilarity     float64      `json:"text_similarity"`
	PhraseOverlap      float64      `json:"phrase_overlap"`
	CommonPhrasesRatio float64      `json:"common_phrases_ratio"`
	CommonPhrases      []string     `json:"common_phrases"`
	ShortTextPenalty   float64      `json:"short_text_penalty"`
	WordCount          int          `json:"word_count"`
	ComparedAgainst    int          `json:"compared_against"`
	SimilarSubmission  *CorpusMatch `json:"similar_submission,omitempty"`
	Recommendations    []string     `json:"recommendations"`
}

// RankAgainstPeers scores the candidate against each peer with TF-IDF cosine
// similarity. Matches keep the order of peers; use SortByScore for display.
func RankAgainstPeers(candidate string, peers []Peer) []SourceMatch {
	matches := make([]SourceMatch, 0, len(peers))
	if len(peers) == 0 {
		return matches
	}

	texts := make([]string, len(peers))
	for i, peer := range peers {
		texts[i] = peer.Text
	}

	scores, err := VectorSimilarity(candidate, texts)
	if err != nil || scores == nil {
		return matches
	}

	for i, peer := range peers {
		matches = append(matches, SourceMatch{Label: peer.Label, Score: scores[i]})
	}
	return matches
}

// OverallSimilarity is the highest match score, or 0 without matches.
func OverallSimilarity(matches []SourceMatch) float64 {
	overall := 0.0
	for _, m := range matches {
		if m.Score > overall {
			overall = m.Score
		}
	}
	return overall
}

// SortByScore returns a copy of matches ordered by descending score. Equal
// scores keep their input order.
func SortByScore(matches []SourceMatch) []SourceMatch {
	sorted := make([]SourceMatch, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

// AssessRisk builds the aggregated risk report for a candidate against a
// corpus of titled documents. An empty corpus still applies the boilerplate
// and short text signals.
func AssessRisk(candidate string, corpus []CorpusEntry) RiskReport {
	maxText := 0.0
	maxPhrase := 0.0
	var similar *CorpusMatch

	for _, entry := range corpus {
		titleSimilarity := SequenceSimilarity(candidate, entry.Title)
		textSimilarity := SequenceSimilarity(candidate, entry.Text)
		phraseOverlap := PhraseOverlap(candidate, entry.Text)

		current := max(titleSimilarity, textSimilarity)
		if current > maxText {
			maxText = current
			similar = &CorpusMatch{
				Label:          entry.Label,
				Title:          entry.Title,
				TextSimilarity: current,
			}
		}

		if phraseOverlap > maxPhrase {
			maxPhrase = phraseOverlap
		}
	}

	dbSimilarity := databaseSimilarity(maxText, maxPhrase)
	commonPhrases := CommonPhrasesFound(candidate)
	commonRatio := float64(len(commonPhrases)) / float64(len(commonAcademicPhrases))

	words := WordCount(candidate)
	shortPenalty := 0.0
	if words < ShortTextWordLimit {
		shortPenalty = 1.0
	}

	overall := overallRisk(dbSimilarity, commonRatio, shortPenalty)
	level := ClassifyRisk(overall)

	return RiskReport{
		OverallScore:       overall,
		RiskLevel:          level,
		IsSuspicious:       IsSuspicious(overall),
		DatabaseSimilarity: dbSimilarity,
		DatabaseSuspicious: dbSimilarity > DatabaseSuspicionThreshold,
		TextSimilarity:     maxText,
		PhraseOverlap:      maxPhrase,
		CommonPhrasesRatio: commonRatio,
		CommonPhrases:      commonPhrases,
		ShortTextPenalty:   shortPenalty,
		WordCount:          words,
		ComparedAgainst:    len(corpus),
		SimilarSubmission:  similar,
		Recommendations:    recommendations(level, similar),
	}
}
