package models

import "time"

const (
	AbstractStatusDraft     = "draft"
	AbstractStatusSubmitted = "submitted"

	PlagiarismStatusPending = "pending"
	PlagiarismStatusClean   = "clean"
	PlagiarismStatusFlagged = "flagged"
)

// AssignmentSubmission is a student's submission to a course assignment
type AssignmentSubmission struct {
	ID              string    `bson:"_id" json:"id"`
	AssignmentID    string    `bson:"assignmentId" json:"assignmentId"`
	StudentID       string    `bson:"studentId" json:"studentId"`
	StudentName     string    `bson:"studentName" json:"studentName"`
	Content         string    `bson:"content" json:"content"`
	PlagiarismScore float64   `bson:"plagiarismScore" json:"plagiarismScore"`
	SubmittedAt     time.Time `bson:"submittedAt" json:"submittedAt"`
}

// AbstractSubmission is a versioned abstract submitted to an event
type AbstractSubmission struct {
	ID               string     `bson:"_id" json:"id"`
	EventID          string     `bson:"eventId" json:"eventId"`
	TeamID           string     `bson:"teamId,omitempty" json:"teamId,omitempty"`
	UserID           string     `bson:"userId" json:"userId"`
	Title            string     `bson:"title" json:"title"`
	AbstractText     string     `bson:"abstractText" json:"abstractText"`
	Status           string     `bson:"status" json:"status"` // draft, submitted
	PlagiarismScore  *float64   `bson:"plagiarismScore,omitempty" json:"plagiarismScore,omitempty"`
	PlagiarismStatus string     `bson:"plagiarismStatus" json:"plagiarismStatus"` // pending, clean, flagged
	Version          int        `bson:"version" json:"version"`
	IsLatestVersion  bool       `bson:"isLatestVersion" json:"isLatestVersion"`
	SubmittedAt      *time.Time `bson:"submittedAt,omitempty" json:"submittedAt,omitempty"`
	UpdatedAt        time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// AbstractSubmittedMessage is the payload published on the abstracts stream
type AbstractSubmittedMessage struct {
	SubmissionID string `json:"submissionId"`
	EventID      string `json:"eventId"`
}
