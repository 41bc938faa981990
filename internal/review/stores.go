package review

import (
	"context"
	"time"

	"github.com/RishiKendai/veritas/internal/models"
)

// Lookups return a nil record and nil error when nothing matches.

type SubmissionStore interface {
	GetSubmission(ctx context.Context, id string) (*models.AssignmentSubmission, error)
	GetPeerSubmissions(ctx context.Context, assignmentID, excludeStudentID string) ([]*models.AssignmentSubmission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]*models.AssignmentSubmission, error)
	UpdatePlagiarismScore(ctx context.Context, id string, score float64) error
}

type AbstractStore interface {
	GetAbstract(ctx context.Context, id string) (*models.AbstractSubmission, error)
	GetLatestByEvent(ctx context.Context, eventID, excludeID string) ([]*models.AbstractSubmission, error)
	ListPendingByEvent(ctx context.Context, eventID string) ([]*models.AbstractSubmission, error)
	UpdatePlagiarism(ctx context.Context, id string, score float64, status string) error
	Finalize(ctx context.Context, id string, score float64, status string) error
}

type EventStore interface {
	GetRequirement(ctx context.Context, eventID string) (*models.EventRequirement, error)
}

type ReportStore interface {
	InsertPeerReport(ctx context.Context, report *models.PeerReportRecord) error
	InsertRiskReport(ctx context.Context, report *models.RiskReportRecord) error
}

type StatusStore interface {
	SetStep(ctx context.Context, eventID string, step models.Step) error
	GetStep(ctx context.Context, eventID string) (models.Step, error)
	SetSummary(ctx context.Context, eventID string, summary models.BatchSummary) error
	GetSummary(ctx context.Context, eventID string) (*models.BatchSummary, error)
	AcquireBatchLock(ctx context.Context, eventID, token string, ttl time.Duration) (bool, error)
	ReleaseBatchLock(ctx context.Context, eventID, token string) error
}
