package review

import "errors"

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrEmptySubmission    = errors.New("submission text is empty")
	ErrBatchInProgress    = errors.New("batch check already in progress for event")
)
