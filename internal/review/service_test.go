package review

import (
	"context"
	"testing"

	"github.com/RishiKendai/veritas/internal/models"
	"github.com/RishiKendai/veritas/internal/plagiarism"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	essay     = "Binary search halves the sorted array on every step until the target is found"
	otherText = "Photosynthesis converts sunlight water and carbon dioxide into glucose"
)

func assignmentFixture() *fakeSubmissions {
	return newFakeSubmissions(
		&models.AssignmentSubmission{ID: "s1", AssignmentID: "a1", StudentID: "u1", StudentName: "alice", Content: essay},
		&models.AssignmentSubmission{ID: "s2", AssignmentID: "a1", StudentID: "u2", StudentName: "bob", Content: essay},
		&models.AssignmentSubmission{ID: "s3", AssignmentID: "a1", StudentID: "u3", StudentName: "carol", Content: otherText},
		&models.AssignmentSubmission{ID: "s4", AssignmentID: "a2", StudentID: "u4", StudentName: "dave", Content: essay},
	)
}

func newTestService(subs *fakeSubmissions, abstracts *fakeAbstracts, events fakeEvents, reports *fakeReports, status *MemoryStatusStore) *Service {
	if subs == nil {
		subs = newFakeSubmissions()
	}
	if abstracts == nil {
		abstracts = newFakeAbstracts()
	}
	if events == nil {
		events = fakeEvents{}
	}
	if reports == nil {
		reports = &fakeReports{}
	}
	if status == nil {
		status = NewMemoryStatusStore()
	}
	return NewService(subs, abstracts, events, reports, status, nil, Options{})
}

func TestCheckAssignment(t *testing.T) {
	t.Run("copied submission is rejected", func(t *testing.T) {
		subs := assignmentFixture()
		reports := &fakeReports{}
		svc := newTestService(subs, nil, nil, reports, nil)

		verdict, err := svc.CheckAssignment(context.Background(), "s1")
		require.NoError(t, err)

		require.Len(t, verdict.Matches, 2)
		assert.Equal(t, "s2", verdict.Matches[0].SubmissionID)
		assert.Equal(t, "bob", verdict.Matches[0].StudentName)
		assert.InDelta(t, 1.0, verdict.Matches[0].Similarity, 1e-9)
		assert.Equal(t, "100.00%", verdict.Matches[0].Percent)
		assert.Equal(t, "carol", verdict.Matches[1].StudentName)
		assert.InDelta(t, 1.0, verdict.OverallSimilarity, 1e-9)
		assert.False(t, verdict.Accepted)
		assert.Equal(t, 0.7, verdict.Threshold)

		assert.InDelta(t, 1.0, subs.scores["s1"], 1e-9)
		require.Len(t, reports.peer, 1)
		assert.Equal(t, "s1", reports.peer[0].SubmissionID)
		assert.False(t, reports.peer[0].Accepted)
	})

	t.Run("unknown submission", func(t *testing.T) {
		svc := newTestService(assignmentFixture(), nil, nil, nil, nil)
		_, err := svc.CheckAssignment(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrSubmissionNotFound)
	})
}

func TestPreviewAssignment(t *testing.T) {
	svc := newTestService(assignmentFixture(), nil, nil, nil, nil)

	t.Run("original text is accepted", func(t *testing.T) {
		verdict, err := svc.PreviewAssignment(context.Background(), "a1", "u9", "Volcanic ash clouds disrupt aviation across continents")
		require.NoError(t, err)
		assert.Len(t, verdict.Matches, 3)
		assert.Less(t, verdict.OverallSimilarity, 0.7)
		assert.True(t, verdict.Accepted)
	})

	t.Run("own submissions are not peers", func(t *testing.T) {
		verdict, err := svc.PreviewAssignment(context.Background(), "a1", "u1", otherText)
		require.NoError(t, err)
		assert.Len(t, verdict.Matches, 2)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := svc.PreviewAssignment(context.Background(), "a1", "u9", "   ")
		assert.ErrorIs(t, err, ErrEmptySubmission)
	})
}

func TestPreviewAssignmentCapsCorpus(t *testing.T) {
	svc := NewService(assignmentFixture(), newFakeAbstracts(), fakeEvents{}, &fakeReports{}, NewMemoryStatusStore(), nil, Options{MaxCorpusSize: 1})

	verdict, err := svc.PreviewAssignment(context.Background(), "a1", "u9", essay)
	require.NoError(t, err)
	require.Len(t, verdict.Matches, 1)
	assert.Equal(t, "s1", verdict.Matches[0].SubmissionID)
}

func TestAssignmentBreakdown(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 2)
	defer pool.Close()
	svc := NewService(assignmentFixture(), newFakeAbstracts(), fakeEvents{}, &fakeReports{}, NewMemoryStatusStore(), pool, Options{})

	report, err := svc.AssignmentBreakdown(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, report.Submissions, 3)

	for _, verdict := range report.Submissions {
		require.Len(t, verdict.Matches, 2)
		assert.GreaterOrEqual(t, verdict.Matches[0].Similarity, verdict.Matches[1].Similarity)
		for _, match := range verdict.Matches {
			assert.NotEqual(t, verdict.SubmissionID, match.SubmissionID)
		}
	}

	carol := report.Submissions[2]
	assert.Equal(t, "carol", carol.StudentName)
	assert.True(t, carol.Accepted)
	assert.Equal(t, "alice", report.Submissions[0].StudentName)
	assert.Equal(t, "s2", report.Submissions[0].Matches[0].SubmissionID)
}

func threshold(v float64) *float64 { return &v }

func TestCheckAbstract(t *testing.T) {
	// No corpus, no boilerplate and under 50 words: overall score is 0.2.
	const short = "A low cost soil moisture sensor network for village farms"

	tests := []struct {
		name          string
		status        string
		requirement   *models.EventRequirement
		wantThreshold float64
		wantStatus    string
		wantFinalized bool
	}{
		{
			name:          "draft under default threshold is finalized",
			status:        models.AbstractStatusDraft,
			wantThreshold: 80,
			wantStatus:    models.PlagiarismStatusClean,
			wantFinalized: true,
		},
		{
			name:          "event threshold reached keeps the draft",
			status:        models.AbstractStatusDraft,
			requirement:   &models.EventRequirement{EventID: "e1", PlagiarismThreshold: threshold(20)},
			wantThreshold: 20,
			wantStatus:    models.PlagiarismStatusFlagged,
		},
		{
			name:          "event type default applies without a threshold",
			status:        models.AbstractStatusDraft,
			requirement:   &models.EventRequirement{EventID: "e1", EventType: "research"},
			wantThreshold: 15,
			wantStatus:    models.PlagiarismStatusFlagged,
		},
		{
			name:          "submitted abstract is rescored only",
			status:        models.AbstractStatusSubmitted,
			wantThreshold: 80,
			wantStatus:    models.PlagiarismStatusClean,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			abstracts := newFakeAbstracts(&models.AbstractSubmission{
				ID: "x1", EventID: "e1", Title: "Sensors", AbstractText: short,
				Status: tt.status, PlagiarismStatus: models.PlagiarismStatusPending, IsLatestVersion: true,
			})
			events := fakeEvents{}
			if tt.requirement != nil {
				events["e1"] = tt.requirement
			}
			reports := &fakeReports{}
			svc := newTestService(nil, abstracts, events, reports, nil)

			verdict, err := svc.CheckAbstract(context.Background(), "x1")
			require.NoError(t, err)

			assert.InDelta(t, 0.2, verdict.Report.OverallScore, 1e-9)
			assert.Equal(t, 20.0, verdict.Percent)
			assert.Equal(t, tt.wantThreshold, verdict.ThresholdPercent)
			assert.Equal(t, tt.wantStatus, verdict.Status)
			assert.Equal(t, tt.wantFinalized, verdict.Finalized)

			update, ok := abstracts.update("x1")
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, update.status)
			assert.Equal(t, tt.wantFinalized, update.finalized)
			require.Len(t, reports.risk, 1)
			assert.Equal(t, tt.wantFinalized, reports.risk[0].Finalized)
		})
	}
}

func TestCheckAbstractAgainstCopiedAbstract(t *testing.T) {
	const text = "We propose a mesh network of cheap sensors that report soil moisture to farmers over sms"

	abstracts := newFakeAbstracts(
		&models.AbstractSubmission{ID: "x1", EventID: "e1", Title: "Mesh", AbstractText: text, Status: models.AbstractStatusDraft, IsLatestVersion: true},
		&models.AbstractSubmission{ID: "x2", EventID: "e1", Title: "Farm mesh", AbstractText: text, Status: models.AbstractStatusSubmitted, IsLatestVersion: true},
		&models.AbstractSubmission{ID: "x3", EventID: "e2", Title: "Other", AbstractText: text, Status: models.AbstractStatusSubmitted, IsLatestVersion: true},
	)
	svc := newTestService(nil, abstracts, fakeEvents{"e1": {EventID: "e1", PlagiarismThreshold: threshold(50)}}, nil, nil)

	verdict, err := svc.CheckAbstract(context.Background(), "x1")
	require.NoError(t, err)

	assert.Equal(t, 1, verdict.Report.ComparedAgainst)
	require.NotNil(t, verdict.Report.SimilarSubmission)
	assert.Equal(t, "x2", verdict.Report.SimilarSubmission.Label)
	assert.InDelta(t, 0.8, verdict.Report.OverallScore, 1e-9)
	assert.Equal(t, plagiarism.RiskMedium, verdict.Report.RiskLevel)
	assert.Equal(t, models.PlagiarismStatusFlagged, verdict.Status)
	assert.False(t, verdict.Finalized)
}

func TestCheckAbstractErrors(t *testing.T) {
	abstracts := newFakeAbstracts(&models.AbstractSubmission{ID: "blank", EventID: "e1", AbstractText: " "})
	svc := newTestService(nil, abstracts, nil, nil, nil)

	_, err := svc.CheckAbstract(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSubmissionNotFound)

	_, err = svc.CheckAbstract(context.Background(), "blank")
	assert.ErrorIs(t, err, ErrEmptySubmission)
}
