package plagiarism

import "errors"

var (
	// ErrEmptyCorpus is returned by VectorSimilarity when there are no
	// source documents to compare against. Callers should skip the
	// comparison rather than fail.
	ErrEmptyCorpus = errors.New("empty comparison corpus")

	// ErrUnknownCheckKind is returned by Check for an unrecognised kind.
	ErrUnknownCheckKind = errors.New("unknown check kind")
)
