package legacydb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/RishiKendai/veritas/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const portalSchema = `
CREATE TABLE users (id INTEGER PRIMARY KEY, username TEXT NOT NULL);
CREATE TABLE submissions (
    id INTEGER PRIMARY KEY,
    content TEXT NOT NULL,
    student_id INTEGER NOT NULL,
    assignment_id INTEGER NOT NULL,
    submitted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    plagiarism_score REAL DEFAULT 0.0
);
CREATE TABLE events (id INTEGER PRIMARY KEY, title TEXT, event_type TEXT NOT NULL);
CREATE TABLE event_requirements (id INTEGER PRIMARY KEY, event_id INTEGER NOT NULL UNIQUE, plagiarism_threshold REAL);
CREATE TABLE abstract_submissions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id INTEGER NOT NULL,
    team_id INTEGER,
    user_id INTEGER NOT NULL,
    title TEXT NOT NULL,
    abstract_text TEXT NOT NULL,
    status TEXT DEFAULT 'draft',
    plagiarism_score REAL,
    plagiarism_status TEXT DEFAULT 'pending',
    submitted_at TIMESTAMP,
    version INTEGER DEFAULT 1,
    is_latest_version BOOLEAN DEFAULT 1,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO users (id, username) VALUES (1, 'alice'), (2, 'bob'), (3, 'carol');
INSERT INTO submissions (id, content, student_id, assignment_id) VALUES
    (10, 'binary search halves the array', 1, 100),
    (11, 'binary search halves the array', 2, 100),
    (12, 'photosynthesis makes glucose', 3, 100),
    (13, 'unrelated assignment', 2, 200);

INSERT INTO events (id, title, event_type) VALUES (5, 'Hack', 'hackathon'), (6, 'Talk', 'seminar');
INSERT INTO event_requirements (event_id, plagiarism_threshold) VALUES (5, 30.0), (6, NULL);
INSERT INTO abstract_submissions (id, event_id, team_id, user_id, title, abstract_text, status, plagiarism_status, is_latest_version) VALUES
    (20, 5, 7, 1, 'Mesh', 'a mesh network of soil sensors', 'draft', 'pending', 1),
    (21, 5, NULL, 2, 'Reefs', 'coral reef bleaching survey', 'submitted', 'clean', 1),
    (22, 5, NULL, 3, 'Old', 'old version', 'submitted', 'pending', 0),
    (23, 6, NULL, 3, 'Talk', 'seminar abstract', 'submitted', 'pending', 1);
`

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "campus.db")

	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = raw.Exec(portalSchema)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	store, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSubmissions(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	submission, err := store.GetSubmission(ctx, "10")
	require.NoError(t, err)
	require.NotNil(t, submission)
	assert.Equal(t, "100", submission.AssignmentID)
	assert.Equal(t, "1", submission.StudentID)
	assert.Equal(t, "alice", submission.StudentName)

	missing, err := store.GetSubmission(ctx, "99")
	require.NoError(t, err)
	assert.Nil(t, missing)

	peers, err := store.GetPeerSubmissions(ctx, "100", "1")
	require.NoError(t, err)
	require.Len(t, peers, 2)
	assert.Equal(t, "11", peers[0].ID)
	assert.Equal(t, "bob", peers[0].StudentName)
	assert.Equal(t, "12", peers[1].ID)

	all, err := store.ListByAssignment(ctx, "100")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, store.UpdatePlagiarismScore(ctx, "10", 0.91))
	submission, err = store.GetSubmission(ctx, "10")
	require.NoError(t, err)
	assert.Equal(t, 0.91, submission.PlagiarismScore)

	assert.ErrorIs(t, store.UpdatePlagiarismScore(ctx, "99", 0.5), ErrNotFound)
}

func TestAbstracts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	abstract, err := store.GetAbstract(ctx, "20")
	require.NoError(t, err)
	require.NotNil(t, abstract)
	assert.Equal(t, "5", abstract.EventID)
	assert.Equal(t, "7", abstract.TeamID)
	assert.Equal(t, models.AbstractStatusDraft, abstract.Status)
	assert.Nil(t, abstract.PlagiarismScore)
	assert.True(t, abstract.IsLatestVersion)

	latest, err := store.GetLatestByEvent(ctx, "5", "20")
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "21", latest[0].ID)
	assert.Empty(t, latest[0].TeamID)

	latest, err = store.GetLatestByEvent(ctx, "5", "")
	require.NoError(t, err)
	assert.Len(t, latest, 2)

	pending, err := store.ListPendingByEvent(ctx, "5")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "20", pending[0].ID)

	require.NoError(t, store.Finalize(ctx, "20", 0.35, models.PlagiarismStatusClean))
	abstract, err = store.GetAbstract(ctx, "20")
	require.NoError(t, err)
	assert.Equal(t, models.AbstractStatusSubmitted, abstract.Status)
	assert.Equal(t, models.PlagiarismStatusClean, abstract.PlagiarismStatus)
	require.NotNil(t, abstract.PlagiarismScore)
	assert.Equal(t, 0.35, *abstract.PlagiarismScore)

	require.NoError(t, store.UpdatePlagiarism(ctx, "23", 0.9, models.PlagiarismStatusFlagged))
	abstract, err = store.GetAbstract(ctx, "23")
	require.NoError(t, err)
	assert.Equal(t, models.PlagiarismStatusFlagged, abstract.PlagiarismStatus)
	assert.Equal(t, models.AbstractStatusSubmitted, abstract.Status)

	assert.ErrorIs(t, store.Finalize(ctx, "99", 0, models.PlagiarismStatusClean), ErrNotFound)
}

func TestGetRequirement(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	requirement, err := store.GetRequirement(ctx, "5")
	require.NoError(t, err)
	require.NotNil(t, requirement)
	assert.Equal(t, "hackathon", requirement.EventType)
	require.NotNil(t, requirement.PlagiarismThreshold)
	assert.Equal(t, 30.0, *requirement.PlagiarismThreshold)

	requirement, err = store.GetRequirement(ctx, "6")
	require.NoError(t, err)
	require.NotNil(t, requirement)
	assert.Equal(t, "seminar", requirement.EventType)
	assert.Nil(t, requirement.PlagiarismThreshold)

	requirement, err = store.GetRequirement(ctx, "404")
	require.NoError(t, err)
	assert.Nil(t, requirement)
}

func TestReports(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	peer := &models.PeerReportRecord{SubmissionID: "10", OverallSimilarity: 0.9}
	require.NoError(t, store.InsertPeerReport(ctx, peer))
	assert.NotEmpty(t, peer.ID)

	require.NoError(t, store.InsertRiskReport(ctx, &models.RiskReportRecord{SubmissionID: "20", Status: models.PlagiarismStatusClean}))
	require.NoError(t, store.InsertRiskReport(ctx, &models.RiskReportRecord{SubmissionID: "20", Status: models.PlagiarismStatusFlagged}))

	count, err := store.CountReports(ctx, "risk", "20")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.CountReports(ctx, "peer", "10")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
