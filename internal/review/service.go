package review

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/RishiKendai/veritas/internal/metrics"
	"github.com/RishiKendai/veritas/internal/models"
	"github.com/RishiKendai/veritas/internal/plagiarism"
	"github.com/rs/zerolog/log"
)

const (
	defaultAbstractThresholdPercent = 80.0
	defaultPeerSimilarityThreshold  = 0.7
	defaultBatchTimeout             = 30 * time.Minute
)

// Options carries the configurable review policy.
type Options struct {
	// PeerSimilarityThreshold rejects an assignment whose overall similarity
	// is above it.
	PeerSimilarityThreshold float64
	// AbstractThresholdPercent applies when the event has no requirement.
	AbstractThresholdPercent float64
	// MaxCorpusSize caps the comparison corpus; 0 means unlimited.
	MaxCorpusSize int
	BatchTimeout  time.Duration
}

type Service struct {
	submissions SubmissionStore
	abstracts   AbstractStore
	events      EventStore
	reports     ReportStore
	status      StatusStore
	pool        *WorkerPool
	opts        Options
}

// NewService wires the review service. A nil pool runs batch work inline.
func NewService(
	submissions SubmissionStore,
	abstracts AbstractStore,
	events EventStore,
	reports ReportStore,
	status StatusStore,
	pool *WorkerPool,
	opts Options,
) *Service {
	if opts.PeerSimilarityThreshold <= 0 {
		opts.PeerSimilarityThreshold = defaultPeerSimilarityThreshold
	}
	if opts.AbstractThresholdPercent <= 0 {
		opts.AbstractThresholdPercent = defaultAbstractThresholdPercent
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = defaultBatchTimeout
	}
	return &Service{
		submissions: submissions,
		abstracts:   abstracts,
		events:      events,
		reports:     reports,
		status:      status,
		pool:        pool,
		opts:        opts,
	}
}

// AssignmentVerdict is the peer comparison of one assignment submission.
type AssignmentVerdict struct {
	SubmissionID      string             `json:"submissionId,omitempty"`
	AssignmentID      string             `json:"assignmentId"`
	StudentID         string             `json:"studentId"`
	StudentName       string             `json:"studentName,omitempty"`
	Matches           []models.PeerMatch `json:"matches"`
	OverallSimilarity float64            `json:"overallSimilarity"`
	OverallPercent    string             `json:"overallPercent"`
	Threshold         float64            `json:"threshold"`
	Accepted          bool               `json:"accepted"`
}

// AssignmentReport is the faculty view over every submission of an assignment.
type AssignmentReport struct {
	AssignmentID string              `json:"assignmentId"`
	Submissions  []AssignmentVerdict `json:"submissions"`
}

// AbstractVerdict is the outcome of checking one abstract.
type AbstractVerdict struct {
	SubmissionID     string                `json:"submissionId"`
	EventID          string                `json:"eventId"`
	Report           plagiarism.RiskReport `json:"report"`
	Percent          float64               `json:"percent"`
	ThresholdPercent float64               `json:"thresholdPercent"`
	Status           string                `json:"status"`
	Finalized        bool                  `json:"finalized"`
}

// CheckAssignment compares a stored submission with the other students'
// submissions to the same assignment and records the result.
func (s *Service) CheckAssignment(ctx context.Context, submissionID string) (*AssignmentVerdict, error) {
	started := time.Now()

	submission, err := s.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if submission == nil {
		return nil, ErrSubmissionNotFound
	}
	if strings.TrimSpace(submission.Content) == "" {
		return nil, ErrEmptySubmission
	}

	peers, err := s.submissions.GetPeerSubmissions(ctx, submission.AssignmentID, submission.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load peer submissions: %w", err)
	}
	peers = plagiarism.CapCorpus(peers, s.opts.MaxCorpusSize)

	verdict := s.verdict(submission.Content, peers)
	verdict.SubmissionID = submission.ID
	verdict.AssignmentID = submission.AssignmentID
	verdict.StudentID = submission.StudentID
	verdict.StudentName = submission.StudentName

	if err := s.submissions.UpdatePlagiarismScore(ctx, submission.ID, verdict.OverallSimilarity); err != nil {
		return nil, err
	}

	record := &models.PeerReportRecord{
		SubmissionID:      submission.ID,
		AssignmentID:      submission.AssignmentID,
		StudentID:         submission.StudentID,
		Matches:           verdict.Matches,
		OverallSimilarity: verdict.OverallSimilarity,
		Threshold:         verdict.Threshold,
		Accepted:          verdict.Accepted,
	}
	if err := s.reports.InsertPeerReport(ctx, record); err != nil {
		return nil, err
	}

	metrics.ObserveCheck("assignment", acceptanceOutcome(verdict.Accepted), len(peers), started)
	log.Info().
		Str("submissionId", submission.ID).
		Str("assignmentId", submission.AssignmentID).
		Float64("overallSimilarity", verdict.OverallSimilarity).
		Bool("accepted", verdict.Accepted).
		Msg("Assignment submission checked")

	return verdict, nil
}

// PreviewAssignment runs the peer comparison for text that has not been
// stored yet. Nothing is persisted.
func (s *Service) PreviewAssignment(ctx context.Context, assignmentID, studentID, content string) (*AssignmentVerdict, error) {
	started := time.Now()

	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptySubmission
	}

	peers, err := s.submissions.GetPeerSubmissions(ctx, assignmentID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load peer submissions: %w", err)
	}
	peers = plagiarism.CapCorpus(peers, s.opts.MaxCorpusSize)

	verdict := s.verdict(content, peers)
	verdict.AssignmentID = assignmentID
	verdict.StudentID = studentID

	metrics.ObserveCheck("assignment_preview", acceptanceOutcome(verdict.Accepted), len(peers), started)

	return verdict, nil
}

// AssignmentBreakdown compares every submission of an assignment with all the
// others. Matches are sorted by descending similarity.
func (s *Service) AssignmentBreakdown(ctx context.Context, assignmentID string) (*AssignmentReport, error) {
	started := time.Now()

	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}

	verdicts := make([]AssignmentVerdict, len(submissions))
	jobs := make([]Job, len(submissions))
	for i, submission := range submissions {
		jobs[i] = JobFunc(func(context.Context) error {
			others := make([]*models.AssignmentSubmission, 0, len(submissions)-1)
			for _, other := range submissions {
				if other.ID != submission.ID {
					others = append(others, other)
				}
			}
			others = plagiarism.CapCorpus(others, s.opts.MaxCorpusSize)

			verdict := s.verdict(submission.Content, others)
			verdict.SubmissionID = submission.ID
			verdict.AssignmentID = assignmentID
			verdict.StudentID = submission.StudentID
			verdict.StudentName = submission.StudentName
			sort.SliceStable(verdict.Matches, func(a, b int) bool {
				return verdict.Matches[a].Similarity > verdict.Matches[b].Similarity
			})
			verdicts[i] = *verdict
			return nil
		})
	}

	if err := s.run(ctx, jobs); err != nil {
		return nil, fmt.Errorf("failed to build assignment breakdown: %w", err)
	}

	metrics.ObserveCheck("assignment_breakdown", "completed", len(submissions), started)

	return &AssignmentReport{AssignmentID: assignmentID, Submissions: verdicts}, nil
}

// CheckAbstract assesses an abstract against the latest abstracts of its
// event. A draft at or above the event threshold stays a draft and is
// flagged; any other draft is finalized.
func (s *Service) CheckAbstract(ctx context.Context, submissionID string) (*AbstractVerdict, error) {
	started := time.Now()

	abstract, err := s.abstracts.GetAbstract(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load abstract: %w", err)
	}
	if abstract == nil {
		return nil, ErrSubmissionNotFound
	}
	if strings.TrimSpace(abstract.AbstractText) == "" {
		return nil, ErrEmptySubmission
	}

	others, err := s.abstracts.GetLatestByEvent(ctx, abstract.EventID, abstract.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event abstracts: %w", err)
	}
	corpus := abstractCorpus(others, abstract.ID, s.opts.MaxCorpusSize)

	report := plagiarism.AssessRisk(abstract.AbstractText, corpus)
	verdict := &AbstractVerdict{
		SubmissionID:     abstract.ID,
		EventID:          abstract.EventID,
		Report:           report,
		Percent:          scorePercent(report.OverallScore),
		ThresholdPercent: s.thresholdPercent(ctx, abstract.EventID),
	}

	switch {
	case verdict.Percent >= verdict.ThresholdPercent:
		verdict.Status = models.PlagiarismStatusFlagged
		err = s.abstracts.UpdatePlagiarism(ctx, abstract.ID, report.OverallScore, verdict.Status)
	case abstract.Status == models.AbstractStatusDraft:
		verdict.Status = plagiarismStatus(report)
		verdict.Finalized = true
		err = s.abstracts.Finalize(ctx, abstract.ID, report.OverallScore, verdict.Status)
	default:
		verdict.Status = plagiarismStatus(report)
		err = s.abstracts.UpdatePlagiarism(ctx, abstract.ID, report.OverallScore, verdict.Status)
	}
	if err != nil {
		return nil, err
	}

	if err := s.reports.InsertRiskReport(ctx, riskRecord(verdict)); err != nil {
		return nil, err
	}

	metrics.ObserveCheck("abstract", string(report.RiskLevel), len(corpus), started)
	log.Info().
		Str("submissionId", abstract.ID).
		Str("eventId", abstract.EventID).
		Float64("percent", verdict.Percent).
		Float64("thresholdPercent", verdict.ThresholdPercent).
		Str("riskLevel", string(report.RiskLevel)).
		Str("status", verdict.Status).
		Bool("finalized", verdict.Finalized).
		Msg("Abstract checked")

	return verdict, nil
}

func (s *Service) verdict(content string, peers []*models.AssignmentSubmission) *AssignmentVerdict {
	docs := make([]plagiarism.Peer, len(peers))
	for i, peer := range peers {
		docs[i] = plagiarism.Peer{Label: peer.ID, Text: peer.Content}
	}

	scored := plagiarism.RankAgainstPeers(content, docs)
	matches := make([]models.PeerMatch, len(scored))
	for i, match := range scored {
		matches[i] = models.PeerMatch{
			SubmissionID: match.Label,
			StudentName:  peers[i].StudentName,
			Similarity:   match.Score,
			Percent:      match.Percent(),
		}
	}

	overall := plagiarism.OverallSimilarity(scored)
	return &AssignmentVerdict{
		Matches:           matches,
		OverallSimilarity: overall,
		OverallPercent:    plagiarism.FormatPercent(overall),
		Threshold:         s.opts.PeerSimilarityThreshold,
		Accepted:          overall <= s.opts.PeerSimilarityThreshold,
	}
}

// thresholdPercent resolves the flagging threshold of an event: its
// configured threshold, else the default of its event type, else the
// service default.
func (s *Service) thresholdPercent(ctx context.Context, eventID string) float64 {
	requirement, err := s.events.GetRequirement(ctx, eventID)
	if err != nil {
		log.Warn().Err(err).Str("eventId", eventID).Msg("Failed to load event requirement, using default threshold")
		return s.opts.AbstractThresholdPercent
	}
	if requirement == nil {
		return s.opts.AbstractThresholdPercent
	}
	if requirement.PlagiarismThreshold != nil {
		return *requirement.PlagiarismThreshold
	}
	if requirement.EventType != "" {
		return models.DefaultThresholdForEventType(requirement.EventType)
	}
	return s.opts.AbstractThresholdPercent
}

// run executes jobs on the pool, or inline when there is none.
func (s *Service) run(ctx context.Context, jobs []Job) error {
	if s.pool == nil {
		for _, job := range jobs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := job.Execute(ctx); err != nil {
				log.Error().Err(err).Msg("Job failed")
			}
		}
		return nil
	}
	return s.pool.RunAll(jobs)
}

func abstractCorpus(abstracts []*models.AbstractSubmission, excludeID string, limit int) []plagiarism.CorpusEntry {
	corpus := make([]plagiarism.CorpusEntry, 0, len(abstracts))
	for _, abstract := range abstracts {
		if abstract.ID == excludeID {
			continue
		}
		corpus = append(corpus, plagiarism.CorpusEntry{
			Label: abstract.ID,
			Title: abstract.Title,
			Text:  abstract.AbstractText,
		})
	}
	return plagiarism.CapCorpus(corpus, limit)
}

func riskRecord(verdict *AbstractVerdict) *models.RiskReportRecord {
	return &models.RiskReportRecord{
		SubmissionID:     verdict.SubmissionID,
		EventID:          verdict.EventID,
		Report:           verdict.Report,
		Percent:          verdict.Percent,
		ThresholdPercent: verdict.ThresholdPercent,
		Status:           verdict.Status,
		Finalized:        verdict.Finalized,
	}
}

// scorePercent converts a [0,1] score to a percentage with one decimal.
func scorePercent(score float64) float64 {
	return math.Round(score*1000) / 10
}

func plagiarismStatus(report plagiarism.RiskReport) string {
	if report.IsSuspicious {
		return models.PlagiarismStatusFlagged
	}
	return models.PlagiarismStatusClean
}

func acceptanceOutcome(accepted bool) string {
	if accepted {
		return "accepted"
	}
	return "rejected"
}
