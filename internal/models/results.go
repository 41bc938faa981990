package models

import (
	"time"

	"github.com/RishiKendai/veritas/internal/plagiarism"
)

type Step string

const (
	StepIdle      Step = "idle"
	StepQueued    Step = "queued"
	StepRunning   Step = "running"
	StepCompleted Step = "completed"
	StepFailed    Step = "failed"
)

// BatchSummary counts the outcomes of the last completed batch of an event.
type BatchSummary struct {
	Checked     int       `json:"checked"`
	Flagged     int       `json:"flagged"`
	Failed      int       `json:"failed"`
	CompletedAt time.Time `json:"completedAt"`
}

// PeerMatch is one peer's similarity to a checked assignment submission
type PeerMatch struct {
	SubmissionID string  `bson:"submissionId" json:"submissionId"`
	StudentName  string  `bson:"studentName" json:"studentName"`
	Similarity   float64 `bson:"similarity" json:"similarity"`
	Percent      string  `bson:"percent" json:"percent"`
}

// PeerReportRecord is a stored assignment peer comparison
type PeerReportRecord struct {
	ID                string      `bson:"_id" json:"id"`
	SubmissionID      string      `bson:"submissionId" json:"submissionId"`
	AssignmentID      string      `bson:"assignmentId" json:"assignmentId"`
	StudentID         string      `bson:"studentId" json:"studentId"`
	Matches           []PeerMatch `bson:"matches" json:"matches"`
	OverallSimilarity float64     `bson:"overallSimilarity" json:"overallSimilarity"`
	Threshold         float64     `bson:"threshold" json:"threshold"`
	Accepted          bool        `bson:"accepted" json:"accepted"`
	CreatedAt         time.Time   `bson:"createdAt" json:"createdAt"`
}

// RiskReportRecord is a stored abstract risk assessment
type RiskReportRecord struct {
	ID               string                `bson:"_id" json:"id"`
	SubmissionID     string                `bson:"submissionId" json:"submissionId"`
	EventID          string                `bson:"eventId" json:"eventId"`
	Report           plagiarism.RiskReport `bson:"report" json:"report"`
	Percent          float64               `bson:"percent" json:"percent"`
	ThresholdPercent float64               `bson:"thresholdPercent" json:"thresholdPercent"`
	Status           string                `bson:"status" json:"status"` // clean, flagged
	Finalized        bool                  `bson:"finalized" json:"finalized"`
	CreatedAt        time.Time             `bson:"createdAt" json:"createdAt"`
}

// PeerInput is a caller supplied peer document
type PeerInput struct {
	Label string `json:"label" binding:"required"`
	Text  string `json:"text"`
}

// CorpusInput is a caller supplied titled document
type CorpusInput struct {
	Label string `json:"label" binding:"required"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// PeerCheckRequest ranks a candidate against supplied peers
type PeerCheckRequest struct {
	Candidate string      `json:"candidate"`
	Peers     []PeerInput `json:"peers" binding:"dive"`
}

// RiskCheckRequest assesses a candidate against a supplied corpus
type RiskCheckRequest struct {
	Candidate string        `json:"candidate"`
	Corpus    []CorpusInput `json:"corpus" binding:"dive"`
}

// PreviewRequest checks an assignment submission before it is stored
type PreviewRequest struct {
	StudentID string `json:"studentId" binding:"required"`
	Content   string `json:"content"`
}

// MatchResponse is a peer match with its display percentage
type MatchResponse struct {
	Label      string  `json:"source_label"`
	Similarity float64 `json:"similarity"`
	Percent    string  `json:"percent"`
}

// PeerCheckResponse is the response of the peer ranking endpoint
type PeerCheckResponse struct {
	Matches           []MatchResponse `json:"matches"`
	OverallSimilarity float64         `json:"overall_similarity"`
	OverallPercent    string          `json:"overall_percent"`
}

// BatchResponse represents the response from the batch endpoint
type BatchResponse struct {
	Step    Step   `json:"step"`
	EventID string `json:"eventId"`
	JobID   string `json:"jobId,omitempty"`

	Summary *BatchSummary `json:"summary,omitempty"`
}
