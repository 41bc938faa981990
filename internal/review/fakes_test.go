package review

import (
	"context"
	"sync"

	"github.com/RishiKendai/veritas/internal/models"
)

type fakeSubmissions struct {
	mu     sync.Mutex
	items  []*models.AssignmentSubmission
	scores map[string]float64
}

func newFakeSubmissions(items ...*models.AssignmentSubmission) *fakeSubmissions {
	return &fakeSubmissions{items: items, scores: map[string]float64{}}
}

func (f *fakeSubmissions) GetSubmission(_ context.Context, id string) (*models.AssignmentSubmission, error) {
	for _, item := range f.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, nil
}

func (f *fakeSubmissions) GetPeerSubmissions(_ context.Context, assignmentID, excludeStudentID string) ([]*models.AssignmentSubmission, error) {
	var peers []*models.AssignmentSubmission
	for _, item := range f.items {
		if item.AssignmentID == assignmentID && item.StudentID != excludeStudentID {
			peers = append(peers, item)
		}
	}
	return peers, nil
}

func (f *fakeSubmissions) ListByAssignment(_ context.Context, assignmentID string) ([]*models.AssignmentSubmission, error) {
	var all []*models.AssignmentSubmission
	for _, item := range f.items {
		if item.AssignmentID == assignmentID {
			all = append(all, item)
		}
	}
	return all, nil
}

func (f *fakeSubmissions) UpdatePlagiarismScore(_ context.Context, id string, score float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[id] = score
	return nil
}

type abstractUpdate struct {
	score     float64
	status    string
	finalized bool
}

type fakeAbstracts struct {
	mu       sync.Mutex
	items    []*models.AbstractSubmission
	updates  map[string]abstractUpdate
	failWith map[string]error
}

func newFakeAbstracts(items ...*models.AbstractSubmission) *fakeAbstracts {
	return &fakeAbstracts{items: items, updates: map[string]abstractUpdate{}, failWith: map[string]error{}}
}

func (f *fakeAbstracts) GetAbstract(_ context.Context, id string) (*models.AbstractSubmission, error) {
	for _, item := range f.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, nil
}

func (f *fakeAbstracts) GetLatestByEvent(_ context.Context, eventID, excludeID string) ([]*models.AbstractSubmission, error) {
	var latest []*models.AbstractSubmission
	for _, item := range f.items {
		if item.EventID == eventID && item.IsLatestVersion && item.ID != excludeID {
			latest = append(latest, item)
		}
	}
	return latest, nil
}

func (f *fakeAbstracts) ListPendingByEvent(_ context.Context, eventID string) ([]*models.AbstractSubmission, error) {
	var pending []*models.AbstractSubmission
	for _, item := range f.items {
		if item.EventID == eventID && item.IsLatestVersion && item.PlagiarismStatus == models.PlagiarismStatusPending {
			pending = append(pending, item)
		}
	}
	return pending, nil
}

func (f *fakeAbstracts) UpdatePlagiarism(_ context.Context, id string, score float64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWith[id]; err != nil {
		return err
	}
	f.updates[id] = abstractUpdate{score: score, status: status}
	return nil
}

func (f *fakeAbstracts) Finalize(_ context.Context, id string, score float64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[id] = abstractUpdate{score: score, status: status, finalized: true}
	return nil
}

func (f *fakeAbstracts) update(id string) (abstractUpdate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.updates[id]
	return u, ok
}

type fakeEvents map[string]*models.EventRequirement

func (f fakeEvents) GetRequirement(_ context.Context, eventID string) (*models.EventRequirement, error) {
	return f[eventID], nil
}

type fakeReports struct {
	mu   sync.Mutex
	peer []*models.PeerReportRecord
	risk []*models.RiskReportRecord
}

func (f *fakeReports) InsertPeerReport(_ context.Context, report *models.PeerReportRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.peer = append(f.peer, report)
	return nil
}

func (f *fakeReports) InsertRiskReport(_ context.Context, report *models.RiskReportRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.risk = append(f.risk, report)
	return nil
}

func (f *fakeReports) riskCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.risk)
}
