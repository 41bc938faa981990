package plagiarism

import "fmt"

// CheckKind selects the report shape produced by Check.
type CheckKind string

const (
	KindPeerRanking    CheckKind = "peer_ranking"
	KindRiskAssessment CheckKind = "risk_assessment"
)

// CheckRequest is the single entry point input. Peers is read for peer
// ranking and Corpus for risk assessment.
type CheckRequest struct {
	Kind      CheckKind     `json:"kind"`
	Candidate string        `json:"candidate"`
	Peers     []Peer        `json:"peers,omitempty"`
	Corpus    []CorpusEntry `json:"corpus,omitempty"`
}

// CheckResult carries exactly one of Matches or Risk, as told by Kind.
type CheckResult struct {
	Kind              CheckKind     `json:"kind"`
	Matches           []SourceMatch `json:"matches,omitempty"`
	OverallSimilarity float64       `json:"overall_similarity"`
	Risk              *RiskReport   `json:"risk,omitempty"`
}

// Check dispatches to RankAgainstPeers or AssessRisk.
func Check(req CheckRequest) (CheckResult, error) {
	switch req.Kind {
	case KindPeerRanking:
		matches := RankAgainstPeers(req.Candidate, req.Peers)
		return CheckResult{
			Kind:              KindPeerRanking,
			Matches:           matches,
			OverallSimilarity: OverallSimilarity(matches),
		}, nil
	case KindRiskAssessment:
		report := AssessRisk(req.Candidate, req.Corpus)
		return CheckResult{
			Kind:              KindRiskAssessment,
			OverallSimilarity: report.OverallScore,
			Risk:              &report,
		}, nil
	default:
		return CheckResult{}, fmt.Errorf("%w: %q", ErrUnknownCheckKind, req.Kind)
	}
}

// CapCorpus keeps at most limit entries. A limit of 0 or less means no cap.
func CapCorpus[T any](corpus []T, limit int) []T {
	if limit <= 0 || len(corpus) <= limit {
		return corpus
	}
	return corpus[:limit]
}
