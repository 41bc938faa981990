package review

import (
	"context"
	"fmt"
	"time"

	"github.com/RishiKendai/veritas/internal/metrics"
	"github.com/RishiKendai/veritas/internal/models"
	"github.com/RishiKendai/veritas/internal/plagiarism"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// BatchItem is the outcome for one abstract of a batch.
type BatchItem struct {
	SubmissionID string               `json:"submissionId"`
	Score        float64              `json:"score"`
	RiskLevel    plagiarism.RiskLevel `json:"riskLevel,omitempty"`
	Status       string               `json:"status,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// BatchResult summarises an event batch check.
type BatchResult struct {
	EventID string      `json:"eventId"`
	Checked int         `json:"checked"`
	Flagged int         `json:"flagged"`
	Failed  int         `json:"failed"`
	Items   []BatchItem `json:"items"`
}

// BatchCheckEvent assesses every pending abstract of an event and waits for
// the result. Only one batch per event runs at a time.
func (s *Service) BatchCheckEvent(ctx context.Context, eventID string) (*BatchResult, error) {
	token, err := s.lockBatch(ctx, eventID)
	if err != nil {
		return nil, err
	}
	defer s.unlockBatch(eventID, token)

	return s.runBatch(ctx, eventID)
}

// StartBatch takes the event's batch lock and runs the batch in the
// background. The returned job id is the lock token.
func (s *Service) StartBatch(ctx context.Context, eventID string) (string, error) {
	token, err := s.lockBatch(ctx, eventID)
	if err != nil {
		return "", err
	}

	if err := s.status.SetStep(ctx, eventID, models.StepQueued); err != nil {
		s.unlockBatch(eventID, token)
		return "", err
	}

	go func() {
		defer s.unlockBatch(eventID, token)

		batchCtx, cancel := context.WithTimeout(context.Background(), s.opts.BatchTimeout)
		defer cancel()

		if _, err := s.runBatch(batchCtx, eventID); err != nil {
			log.Error().Err(err).Str("eventId", eventID).Str("jobId", token).Msg("Batch check failed")
		}
	}()

	return token, nil
}

// GetBatchStatus reports the last known batch step of an event. The summary
// is only returned once the batch has completed.
func (s *Service) GetBatchStatus(ctx context.Context, eventID string) (models.Step, *models.BatchSummary, error) {
	step, err := s.status.GetStep(ctx, eventID)
	if err != nil {
		return "", nil, err
	}
	if step != models.StepCompleted {
		return step, nil, nil
	}

	summary, err := s.status.GetSummary(ctx, eventID)
	if err != nil {
		return "", nil, err
	}
	return step, summary, nil
}

func (s *Service) runBatch(ctx context.Context, eventID string) (*BatchResult, error) {
	started := time.Now()
	metrics.BatchesInFlight.Inc()
	defer metrics.BatchesInFlight.Dec()

	s.setStep(ctx, eventID, models.StepRunning)

	pending, err := s.abstracts.ListPendingByEvent(ctx, eventID)
	if err != nil {
		s.setStep(ctx, eventID, models.StepFailed)
		return nil, fmt.Errorf("failed to load pending abstracts: %w", err)
	}

	latest, err := s.abstracts.GetLatestByEvent(ctx, eventID, "")
	if err != nil {
		s.setStep(ctx, eventID, models.StepFailed)
		return nil, fmt.Errorf("failed to load event abstracts: %w", err)
	}

	threshold := s.thresholdPercent(ctx, eventID)

	items := make([]BatchItem, len(pending))
	jobs := make([]Job, len(pending))
	for i, abstract := range pending {
		jobs[i] = JobFunc(func(context.Context) error {
			items[i] = s.checkPending(ctx, abstract, latest, threshold)
			return nil
		})
	}

	if err := s.run(ctx, jobs); err != nil {
		s.setStep(ctx, eventID, models.StepFailed)
		return nil, fmt.Errorf("failed to run batch: %w", err)
	}

	result := &BatchResult{EventID: eventID, Items: items}
	for _, item := range items {
		switch {
		case item.Error != "":
			result.Failed++
		case item.Status == models.PlagiarismStatusFlagged:
			result.Checked++
			result.Flagged++
		default:
			result.Checked++
		}
	}

	summary := models.BatchSummary{
		Checked:     result.Checked,
		Flagged:     result.Flagged,
		Failed:      result.Failed,
		CompletedAt: time.Now(),
	}
	if err := s.status.SetSummary(ctx, eventID, summary); err != nil {
		log.Error().Err(err).Str("eventId", eventID).Msg("Failed to store batch summary")
	}

	s.setStep(ctx, eventID, models.StepCompleted)
	metrics.ObserveCheck("batch", "completed", len(latest), started)
	log.Info().
		Str("eventId", eventID).
		Int("checked", result.Checked).
		Int("flagged", result.Flagged).
		Int("failed", result.Failed).
		Dur("duration", time.Since(started)).
		Msg("Batch check completed")

	return result, nil
}

// checkPending assesses one abstract. Failures are logged and reported on
// the item so the rest of the batch carries on.
func (s *Service) checkPending(ctx context.Context, abstract *models.AbstractSubmission, latest []*models.AbstractSubmission, threshold float64) BatchItem {
	item := BatchItem{SubmissionID: abstract.ID}

	report := plagiarism.AssessRisk(abstract.AbstractText, abstractCorpus(latest, abstract.ID, s.opts.MaxCorpusSize))
	status := plagiarismStatus(report)

	verdict := &AbstractVerdict{
		SubmissionID:     abstract.ID,
		EventID:          abstract.EventID,
		Report:           report,
		Percent:          scorePercent(report.OverallScore),
		ThresholdPercent: threshold,
		Status:           status,
	}

	if err := s.abstracts.UpdatePlagiarism(ctx, abstract.ID, report.OverallScore, status); err != nil {
		log.Error().Err(err).Str("submissionId", abstract.ID).Msg("Failed to update abstract plagiarism score")
		item.Error = err.Error()
		return item
	}
	if err := s.reports.InsertRiskReport(ctx, riskRecord(verdict)); err != nil {
		log.Error().Err(err).Str("submissionId", abstract.ID).Msg("Failed to store risk report")
		item.Error = err.Error()
		return item
	}

	item.Score = report.OverallScore
	item.RiskLevel = report.RiskLevel
	item.Status = status
	return item
}

func (s *Service) lockBatch(ctx context.Context, eventID string) (string, error) {
	token := uuid.NewString()
	ok, err := s.status.AcquireBatchLock(ctx, eventID, token, s.opts.BatchTimeout)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrBatchInProgress
	}
	return token, nil
}

func (s *Service) unlockBatch(eventID, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.status.ReleaseBatchLock(ctx, eventID, token); err != nil {
		log.Error().Err(err).Str("eventId", eventID).Msg("Failed to release batch lock")
	}
}

func (s *Service) setStep(ctx context.Context, eventID string, step models.Step) {
	if err := s.status.SetStep(ctx, eventID, step); err != nil {
		log.Error().Err(err).Str("eventId", eventID).Str("step", string(step)).Msg("Failed to update batch status")
	}
}
