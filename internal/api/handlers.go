package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/RishiKendai/veritas/internal/config"
	"github.com/RishiKendai/veritas/internal/metrics"
	"github.com/RishiKendai/veritas/internal/models"
	"github.com/RishiKendai/veritas/internal/plagiarism"
	"github.com/RishiKendai/veritas/internal/review"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ReviewService is the stored submission workflow behind the API.
type ReviewService interface {
	CheckAssignment(ctx context.Context, submissionID string) (*review.AssignmentVerdict, error)
	PreviewAssignment(ctx context.Context, assignmentID, studentID, content string) (*review.AssignmentVerdict, error)
	AssignmentBreakdown(ctx context.Context, assignmentID string) (*review.AssignmentReport, error)
	CheckAbstract(ctx context.Context, submissionID string) (*review.AbstractVerdict, error)
	StartBatch(ctx context.Context, eventID string) (string, error)
	GetBatchStatus(ctx context.Context, eventID string) (models.Step, *models.BatchSummary, error)
}

// Handler holds dependencies for handlers
type Handler struct {
	cfg        *config.Config
	review     ReviewService
	computeSem chan struct{} // Semaphore for bounded concurrency
}

// NewHandler creates a new handler
func NewHandler(cfg *config.Config, reviewSvc ReviewService) *Handler {
	return &Handler{
		cfg:        cfg,
		review:     reviewSvc,
		computeSem: make(chan struct{}, max(1, cfg.MaxConcurrentCompute)),
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// ComparePeers ranks a candidate against caller supplied peers
func (h *Handler) ComparePeers(c *gin.Context) {
	var req models.PeerCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	if !h.acquire(c) {
		return
	}
	defer h.release()

	started := time.Now()
	peers := make([]plagiarism.Peer, len(req.Peers))
	for i, p := range req.Peers {
		peers[i] = plagiarism.Peer{Label: p.Label, Text: p.Text}
	}
	peers = plagiarism.CapCorpus(peers, h.cfg.MaxCorpusSize)

	matches := plagiarism.RankAgainstPeers(req.Candidate, peers)
	overall := plagiarism.OverallSimilarity(matches)
	metrics.ObserveCheck(string(plagiarism.KindPeerRanking), "completed", len(peers), started)

	resp := models.PeerCheckResponse{
		Matches:           make([]models.MatchResponse, len(matches)),
		OverallSimilarity: overall,
		OverallPercent:    plagiarism.FormatPercent(overall),
	}
	for i, m := range matches {
		resp.Matches[i] = models.MatchResponse{Label: m.Label, Similarity: m.Score, Percent: m.Percent()}
	}

	c.JSON(http.StatusOK, resp)
}

// AssessRisk builds a risk report against a caller supplied corpus
func (h *Handler) AssessRisk(c *gin.Context) {
	var req models.RiskCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	if !h.acquire(c) {
		return
	}
	defer h.release()

	started := time.Now()
	corpus := make([]plagiarism.CorpusEntry, len(req.Corpus))
	for i, e := range req.Corpus {
		corpus[i] = plagiarism.CorpusEntry{Label: e.Label, Title: e.Title, Text: e.Text}
	}
	corpus = plagiarism.CapCorpus(corpus, h.cfg.MaxCorpusSize)

	report := plagiarism.AssessRisk(req.Candidate, corpus)
	metrics.ObserveCheck(string(plagiarism.KindRiskAssessment), string(report.RiskLevel), len(corpus), started)

	c.JSON(http.StatusOK, report)
}

// Check runs either check kind from one tagged request
func (h *Handler) Check(c *gin.Context) {
	var req plagiarism.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	if !h.acquire(c) {
		return
	}
	defer h.release()

	started := time.Now()
	req.Peers = plagiarism.CapCorpus(req.Peers, h.cfg.MaxCorpusSize)
	req.Corpus = plagiarism.CapCorpus(req.Corpus, h.cfg.MaxCorpusSize)

	result, err := plagiarism.Check(req)
	if errors.Is(err, plagiarism.ErrUnknownCheckKind) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	metrics.ObserveCheck(string(req.Kind), "completed", len(req.Peers)+len(req.Corpus), started)

	c.JSON(http.StatusOK, result)
}

func (h *Handler) CheckAssignment(c *gin.Context) {
	verdict, err := h.review.CheckAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "submissionId", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, verdict)
}

func (h *Handler) PreviewAssignment(c *gin.Context) {
	var req models.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}

	verdict, err := h.review.PreviewAssignment(c.Request.Context(), c.Param("id"), req.StudentID, req.Content)
	if err != nil {
		writeServiceError(c, err, "assignmentId", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, verdict)
}

func (h *Handler) AssignmentReport(c *gin.Context) {
	report, err := h.review.AssignmentBreakdown(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "assignmentId", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) CheckAbstract(c *gin.Context) {
	verdict, err := h.review.CheckAbstract(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "submissionId", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, verdict)
}

// StartBatch queues a batch check of an event's pending abstracts and
// returns 202 Accepted immediately
func (h *Handler) StartBatch(c *gin.Context) {
	eventID := c.Param("id")

	jobID, err := h.review.StartBatch(c.Request.Context(), eventID)
	if err != nil {
		writeServiceError(c, err, "eventId", eventID)
		return
	}

	c.JSON(http.StatusAccepted, models.BatchResponse{
		Step:    models.StepQueued,
		EventID: eventID,
		JobID:   jobID,
	})
}

func (h *Handler) BatchStatus(c *gin.Context) {
	eventID := c.Param("id")

	step, summary, err := h.review.GetBatchStatus(c.Request.Context(), eventID)
	if err != nil {
		writeServiceError(c, err, "eventId", eventID)
		return
	}

	c.JSON(http.StatusOK, models.BatchResponse{Step: step, EventID: eventID, Summary: summary})
}

// acquire takes a compute slot or writes a timeout response
func (h *Handler) acquire(c *gin.Context) bool {
	select {
	case h.computeSem <- struct{}{}:
		return true
	case <-c.Request.Context().Done():
		c.JSON(http.StatusRequestTimeout, ErrorResponse{
			Error: "Request cancelled",
			Code:  "REQUEST_TIMEOUT",
		})
		return false
	}
}

func (h *Handler) release() {
	<-h.computeSem
}

func invalidRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: "Invalid request body",
		Code:  "INVALID_REQUEST",
	})
}

func writeServiceError(c *gin.Context, err error, idKey, id string) {
	switch {
	case errors.Is(err, review.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "NOT_FOUND",
		})
	case errors.Is(err, review.ErrEmptySubmission):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "EMPTY_SUBMISSION",
		})
	case errors.Is(err, review.ErrBatchInProgress):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: err.Error(),
			Code:  "BATCH_IN_PROGRESS",
		})
	default:
		log.Error().Err(err).Str(idKey, id).Msg("Review request failed")
		_ = c.Error(err)
	}
}
