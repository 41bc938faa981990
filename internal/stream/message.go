package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/RishiKendai/veritas/internal/models"
)

var ErrInvalidMessage = errors.New("invalid stream message")

// StreamMessage is a stream entry with its string fields.
type StreamMessage struct {
	ID     string
	Fields map[string]string
}

// ParseSubmission reads an abstract submitted message. Producers either set
// submissionId and eventId as fields or put the JSON body in a payload field.
func ParseSubmission(msg *StreamMessage) (*models.AbstractSubmittedMessage, error) {
	submission := &models.AbstractSubmittedMessage{}

	if payload, ok := msg.Fields["payload"]; ok {
		if err := json.Unmarshal([]byte(payload), submission); err != nil {
			return nil, fmt.Errorf("%w: failed to decode payload: %v", ErrInvalidMessage, err)
		}
	} else {
		submission.SubmissionID = msg.Fields["submissionId"]
		submission.EventID = msg.Fields["eventId"]
	}

	submission.SubmissionID = strings.TrimSpace(submission.SubmissionID)
	submission.EventID = strings.TrimSpace(submission.EventID)

	if submission.SubmissionID == "" {
		return nil, fmt.Errorf("%w: missing submissionId in message %s", ErrInvalidMessage, msg.ID)
	}

	return submission, nil
}
