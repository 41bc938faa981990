package plagiarism

import "fmt"

// RiskLevel is the discrete classification of an overall risk score.
type RiskLevel string

const (
	RiskMinimal RiskLevel = "MINIMAL"
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
)

const (
	// Weights of the database similarity blend.
	textSimilarityWeight = 0.7
	phraseOverlapWeight  = 0.3

	// Weights of the overall risk score.
	databaseWeight     = 0.6
	commonPhraseWeight = 0.2
	shortTextWeight    = 0.2

	// ShortTextWordLimit is the word count below which a candidate is
	// penalised as too short to judge.
	ShortTextWordLimit = 50

	// DatabaseSuspicionThreshold flags the database similarity on its own.
	DatabaseSuspicionThreshold = 0.7

	highRiskThreshold   = 0.8
	mediumRiskThreshold = 0.5
	lowRiskThreshold    = 0.3

	suspiciousThreshold = 0.5
)

// ClassifyRisk maps a score to a level. Cutoffs are strict: exactly 0.8 is MEDIUM.
func ClassifyRisk(score float64) RiskLevel {
	if score > highRiskThreshold {
		return RiskHigh
	} else if score > mediumRiskThreshold {
		return RiskMedium
	} else if score > lowRiskThreshold {
		return RiskLow
	}
	return RiskMinimal
}

// IsSuspicious reports whether an overall score warrants flagging.
func IsSuspicious(score float64) bool {
	return score > suspiciousThreshold
}

// databaseSimilarity blends the strongest text and phrase signals.
func databaseSimilarity(maxTextSimilarity, maxPhraseOverlap float64) float64 {
	return maxTextSimilarity*textSimilarityWeight + maxPhraseOverlap*phraseOverlapWeight
}

// overallRisk is not clamped; with all inputs in [0,1] it stays in [0,1].
func overallRisk(dbSimilarity, commonRatio, shortPenalty float64) float64 {
	return dbSimilarity*databaseWeight + commonRatio*commonPhraseWeight + shortPenalty*shortTextWeight
}

func recommendations(level RiskLevel, match *CorpusMatch) []string {
	recs := make([]string, 0, 3)

	switch level {
	case RiskHigh:
		recs = append(recs,
			"URGENT: Manual review required - high similarity detected",
			"Consider rejecting or requesting major revision",
		)
	case RiskMedium:
		recs = append(recs,
			"Manual review recommended - moderate similarity detected",
			"Request clarification or minor revision",
		)
	case RiskLow:
		recs = append(recs, "Low risk detected - brief review suggested")
	default:
		recs = append(recs, "Minimal plagiarism risk - safe to approve")
	}

	if match != nil {
		recs = append(recs, fmt.Sprintf("Similar content found in submission: %s", match.Label))
	}

	return recs
}
