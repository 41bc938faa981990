// Package legacydb reads and scores submissions stored in a CampusConnect
// SQLite database. Store implements the review stores so the review service
// can run against a portal database file without MongoDB.
package legacydb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/RishiKendai/veritas/internal/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("record not found")

const reportsSchema = `
CREATE TABLE IF NOT EXISTS plagiarism_reports (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    submission_id TEXT NOT NULL,
    body TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_plagiarism_reports_submission ON plagiarism_reports(submission_id);
`

type Store struct {
	db *sql.DB
}

// Open opens the portal database at path and creates the report table if
// it is missing.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.ExecContext(ctx, reportsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying report schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const submissionColumns = `
    CAST(s.id AS TEXT), CAST(s.assignment_id AS TEXT), CAST(s.student_id AS TEXT),
    COALESCE(u.username, ''), s.content, COALESCE(s.plagiarism_score, 0)
FROM submissions s
LEFT JOIN users u ON u.id = s.student_id`

func (s *Store) GetSubmission(ctx context.Context, id string) (*models.AssignmentSubmission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` WHERE s.id = ?`, id)

	submission, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying submission: %w", err)
	}
	return submission, nil
}

func (s *Store) GetPeerSubmissions(ctx context.Context, assignmentID, excludeStudentID string) ([]*models.AssignmentSubmission, error) {
	return s.querySubmissions(ctx,
		`SELECT `+submissionColumns+` WHERE s.assignment_id = ? AND s.student_id != ? ORDER BY s.submitted_at, s.id`,
		assignmentID, excludeStudentID)
}

func (s *Store) ListByAssignment(ctx context.Context, assignmentID string) ([]*models.AssignmentSubmission, error) {
	return s.querySubmissions(ctx,
		`SELECT `+submissionColumns+` WHERE s.assignment_id = ? ORDER BY s.submitted_at, s.id`,
		assignmentID)
}

func (s *Store) UpdatePlagiarismScore(ctx context.Context, id string, score float64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return execOne(ctx, tx, `UPDATE submissions SET plagiarism_score = ? WHERE id = ?`, score, id)
	})
}

const abstractColumns = `
    CAST(id AS TEXT), CAST(event_id AS TEXT), COALESCE(CAST(team_id AS TEXT), ''), CAST(user_id AS TEXT),
    title, abstract_text, COALESCE(status, 'draft'), plagiarism_score,
    COALESCE(plagiarism_status, 'pending'), COALESCE(version, 1), COALESCE(is_latest_version, 1)
FROM abstract_submissions`

func (s *Store) GetAbstract(ctx context.Context, id string) (*models.AbstractSubmission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+abstractColumns+` WHERE id = ?`, id)

	abstract, err := scanAbstract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying abstract: %w", err)
	}
	return abstract, nil
}

func (s *Store) GetLatestByEvent(ctx context.Context, eventID, excludeID string) ([]*models.AbstractSubmission, error) {
	query := `SELECT ` + abstractColumns + ` WHERE event_id = ? AND is_latest_version = 1`
	args := []any{eventID}
	if excludeID != "" {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}
	return s.queryAbstracts(ctx, query+` ORDER BY id`, args...)
}

func (s *Store) ListPendingByEvent(ctx context.Context, eventID string) ([]*models.AbstractSubmission, error) {
	return s.queryAbstracts(ctx,
		`SELECT `+abstractColumns+` WHERE event_id = ? AND is_latest_version = 1 AND plagiarism_status = 'pending' ORDER BY id`,
		eventID)
}

func (s *Store) UpdatePlagiarism(ctx context.Context, id string, score float64, status string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return execOne(ctx, tx,
			`UPDATE abstract_submissions SET plagiarism_score = ?, plagiarism_status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			score, status, id)
	})
}

func (s *Store) Finalize(ctx context.Context, id string, score float64, status string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return execOne(ctx, tx,
			`UPDATE abstract_submissions
             SET plagiarism_score = ?, plagiarism_status = ?, status = ?,
                 submitted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
             WHERE id = ?`,
			score, status, models.AbstractStatusSubmitted, id)
	})
}

func (s *Store) GetRequirement(ctx context.Context, eventID string) (*models.EventRequirement, error) {
	var (
		requirement models.EventRequirement
		threshold   sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
        SELECT CAST(er.event_id AS TEXT), COALESCE(e.event_type, ''), er.plagiarism_threshold
        FROM event_requirements er
        LEFT JOIN events e ON e.id = er.event_id
        WHERE er.event_id = ?`, eventID).
		Scan(&requirement.EventID, &requirement.EventType, &threshold)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying event requirement: %w", err)
	}
	if threshold.Valid {
		requirement.PlagiarismThreshold = &threshold.Float64
	}
	return &requirement, nil
}

func (s *Store) InsertPeerReport(ctx context.Context, report *models.PeerReportRecord) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	report.CreatedAt = time.Now()
	return s.insertReport(ctx, report.ID, "peer", report.SubmissionID, report)
}

func (s *Store) InsertRiskReport(ctx context.Context, report *models.RiskReportRecord) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	report.CreatedAt = time.Now()
	return s.insertReport(ctx, report.ID, "risk", report.SubmissionID, report)
}

// CountReports returns how many reports of a kind were stored for a submission.
func (s *Store) CountReports(ctx context.Context, kind, submissionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM plagiarism_reports WHERE kind = ? AND submission_id = ?`, kind, submissionID).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting reports: %w", err)
	}
	return count, nil
}

func (s *Store) insertReport(ctx context.Context, id, kind, submissionID string, report any) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding %s report: %w", kind, err)
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO plagiarism_reports (id, kind, submission_id, body) VALUES (?, ?, ?, ?)`,
			id, kind, submissionID, string(body))
		if err != nil {
			return fmt.Errorf("inserting %s report: %w", kind, err)
		}
		return nil
	})
}

func (s *Store) querySubmissions(ctx context.Context, query string, args ...any) ([]*models.AssignmentSubmission, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying submissions: %w", err)
	}
	defer rows.Close()

	var submissions []*models.AssignmentSubmission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		submissions = append(submissions, submission)
	}
	return submissions, rows.Err()
}

func (s *Store) queryAbstracts(ctx context.Context, query string, args ...any) ([]*models.AbstractSubmission, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying abstracts: %w", err)
	}
	defer rows.Close()

	var abstracts []*models.AbstractSubmission
	for rows.Next() {
		abstract, err := scanAbstract(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning abstract: %w", err)
		}
		abstracts = append(abstracts, abstract)
	}
	return abstracts, rows.Err()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// execOne runs an update that must touch exactly one row.
func execOne(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	err := row.Scan(
		&submission.ID,
		&submission.AssignmentID,
		&submission.StudentID,
		&submission.StudentName,
		&submission.Content,
		&submission.PlagiarismScore,
	)
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func scanAbstract(row scanner) (*models.AbstractSubmission, error) {
	var (
		abstract models.AbstractSubmission
		score    sql.NullFloat64
	)
	err := row.Scan(
		&abstract.ID,
		&abstract.EventID,
		&abstract.TeamID,
		&abstract.UserID,
		&abstract.Title,
		&abstract.AbstractText,
		&abstract.Status,
		&score,
		&abstract.PlagiarismStatus,
		&abstract.Version,
		&abstract.IsLatestVersion,
	)
	if err != nil {
		return nil, err
	}
	if score.Valid {
		abstract.PlagiarismScore = &score.Float64
	}
	return &abstract, nil
}
