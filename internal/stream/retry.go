package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
	defaultMaxDelay    = 30 * time.Second
)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks an error that retrying cannot fix.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// DeadLetter is the entry pushed to the dead letter list.
type DeadLetter struct {
	MessageID string                 `json:"message_id"`
	Fields    map[string]interface{} `json:"fields"`
	Error     string                 `json:"error"`
	Attempts  int                    `json:"attempts"`
	FailedAt  time.Time              `json:"failed_at"`
}

type RetryHandler struct {
	client        redis.Cmdable
	deadLetterKey string
	maxAttempts   int
	baseDelay     time.Duration
	maxDelay      time.Duration
}

func NewRetryHandler(client redis.Cmdable, deadLetterKey string) *RetryHandler {
	return &RetryHandler{
		client:        client,
		deadLetterKey: deadLetterKey,
		maxAttempts:   defaultMaxAttempts,
		baseDelay:     defaultBaseDelay,
		maxDelay:      defaultMaxDelay,
	}
}

// WithBackoff overrides the attempt count and delays.
func (h *RetryHandler) WithBackoff(maxAttempts int, baseDelay, maxDelay time.Duration) *RetryHandler {
	h.maxAttempts = max(1, maxAttempts)
	h.baseDelay = baseDelay
	h.maxDelay = maxDelay
	return h
}

// RetryWithBackoff runs fn until it succeeds, fails permanently or runs out
// of attempts. Failed messages go to the dead letter list. Context
// cancellation returns immediately without dead lettering.
func (h *RetryHandler) RetryWithBackoff(ctx context.Context, fn func() error, messageID string, fields map[string]interface{}) error {
	var lastErr error
	attempts := 0

	for attempts < h.maxAttempts {
		attempts++

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var permanent *permanentError
		if errors.As(lastErr, &permanent) {
			lastErr = permanent.err
			break
		}

		if attempts == h.maxAttempts {
			break
		}

		delay := h.backoff(attempts)
		log.Warn().
			Err(lastErr).
			Str("message_id", messageID).
			Int("attempt", attempts).
			Dur("retry_in", delay).
			Msg("Message processing failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	h.sendToDeadLetter(ctx, messageID, fields, lastErr, attempts)
	return fmt.Errorf("message %s failed after %d attempts: %w", messageID, attempts, lastErr)
}

// backoff returns the delay after the given attempt: baseDelay doubled per
// attempt, capped at maxDelay.
func (h *RetryHandler) backoff(attempt int) time.Duration {
	delay := h.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= h.maxDelay {
			return h.maxDelay
		}
	}
	return min(delay, h.maxDelay)
}

func (h *RetryHandler) sendToDeadLetter(ctx context.Context, messageID string, fields map[string]interface{}, cause error, attempts int) {
	entry := DeadLetter{
		MessageID: messageID,
		Fields:    fields,
		Error:     cause.Error(),
		Attempts:  attempts,
		FailedAt:  time.Now().UTC(),
	}

	body, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to encode dead letter entry")
		return
	}

	if err := h.client.LPush(ctx, h.deadLetterKey, body).Err(); err != nil {
		log.Error().
			Err(err).
			Str("message_id", messageID).
			Str("dead_letter_key", h.deadLetterKey).
			Msg("Failed to push message to dead letter list")
		return
	}

	log.Warn().
		Err(cause).
		Str("message_id", messageID).
		Int("attempts", attempts).
		Msg("Message moved to dead letter list")
}
