package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RishiKendai/veritas/internal/metrics"
	"github.com/RishiKendai/veritas/internal/review"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	readBatchSize    = 10
	readBlock        = time.Second
	pendingScanLimit = 100
)

// AbstractChecker runs the plagiarism check of one submitted abstract.
type AbstractChecker interface {
	CheckAbstract(ctx context.Context, submissionID string) (*review.AbstractVerdict, error)
}

// Consumer reads abstract submitted messages from a Redis stream and checks
// each abstract.
type Consumer struct {
	client        redis.Cmdable
	streamKey     string
	consumerGroup string
	consumerName  string
	checker       AbstractChecker
	retryHandler  *RetryHandler

	retention       time.Duration
	recoverEvery    time.Duration
	pelMinIdle      time.Duration
	cleanupInterval time.Duration
	lastRecovery    time.Time
}

func NewConsumer(
	client redis.Cmdable,
	streamKey string,
	consumerGroup string,
	consumerName string,
	checker AbstractChecker,
	retryHandler *RetryHandler,
	retention time.Duration,
) *Consumer {
	return &Consumer{
		client:          client,
		streamKey:       streamKey,
		consumerGroup:   consumerGroup,
		consumerName:    consumerName,
		checker:         checker,
		retryHandler:    retryHandler,
		retention:       retention,
		recoverEvery:    30 * time.Second,
		pelMinIdle:      time.Minute,
		cleanupInterval: time.Hour,
	}
}

// Start blocks until ctx is cancelled. Messages left pending by a crashed
// consumer are claimed on startup and then every recoverEvery.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		log.Warn().Err(err).Str("group", c.consumerGroup).Msg("Failed to create consumer group")
	}

	if err := c.recoverPending(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to recover pending abstract messages on startup")
	}
	c.lastRecovery = time.Now()

	go c.trimPeriodically(ctx)

	log.Info().
		Str("stream", c.streamKey).
		Str("group", c.consumerGroup).
		Str("consumer", c.consumerName).
		Dur("retention", c.retention).
		Msg("Abstract stream consumer started")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := c.poll(ctx); err != nil {
			log.Error().Err(err).Msg("Error consuming abstract messages")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// ensureGroup creates the group at the stream tail, creating the stream if
// needed. An existing group is not an error.
func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.streamKey, c.consumerGroup, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// recoverPending claims messages other consumers left unacknowledged for at
// least pelMinIdle and checks them.
func (c *Consumer) recoverPending(ctx context.Context) error {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.streamKey,
		Group:  c.consumerGroup,
		Start:  "-",
		End:    "+",
		Count:  pendingScanLimit,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get pending messages: %w", err)
	}

	ids := idleMessageIDs(pending, c.pelMinIdle)
	if len(ids) == 0 {
		return nil
	}

	claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.streamKey,
		Group:    c.consumerGroup,
		Consumer: c.consumerName,
		MinIdle:  c.pelMinIdle,
		Messages: ids,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to claim messages: %w", err)
	}

	log.Info().
		Int("pending", len(pending)).
		Int("claimed", len(claimed)).
		Msg("Recovering pending abstract messages")

	c.handleAll(ctx, claimed)
	return nil
}

func idleMessageIDs(pending []redis.XPendingExt, minIdle time.Duration) []string {
	ids := make([]string, 0, len(pending))
	for _, p := range pending {
		if p.Idle >= minIdle {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// poll reads one batch of new messages, recovering pending ones first when
// due.
func (c *Consumer) poll(ctx context.Context) error {
	if time.Since(c.lastRecovery) > c.recoverEvery {
		if err := c.recoverPending(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to recover pending abstract messages")
		}
		c.lastRecovery = time.Now()
	}

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.consumerGroup,
		Consumer: c.consumerName,
		Streams:  []string{c.streamKey, ">"},
		Count:    readBatchSize,
		Block:    readBlock,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		if stream.Stream == c.streamKey {
			c.handleAll(ctx, stream.Messages)
		}
	}
	return nil
}

// handleAll processes messages in order. Failures are already retried or
// dead lettered by processMessage, so they are only logged here.
func (c *Consumer) handleAll(ctx context.Context, messages []redis.XMessage) {
	for i := range messages {
		if err := c.processMessage(ctx, &messages[i]); err != nil {
			log.Error().Err(err).Str("message_id", messages[i].ID).Msg("Failed to process abstract message")
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg *redis.XMessage) error {
	fields := make(map[string]string, len(msg.Values))
	raw := make(map[string]interface{}, len(msg.Values))
	for key, val := range msg.Values {
		if value, ok := val.(string); ok {
			fields[key] = value
			raw[key] = value
		}
	}

	submission, err := ParseSubmission(&StreamMessage{ID: msg.ID, Fields: fields})
	if err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to parse abstract message")
		metrics.StreamMessages.WithLabelValues("invalid").Inc()
		// Unparseable messages would fail the same way on every retry.
		c.acknowledge(ctx, msg.ID)
		return err
	}

	err = c.retryHandler.RetryWithBackoff(ctx, func() error {
		_, err := c.checker.CheckAbstract(ctx, submission.SubmissionID)
		if errors.Is(err, review.ErrSubmissionNotFound) || errors.Is(err, review.ErrEmptySubmission) {
			return Permanent(err)
		}
		return err
	}, msg.ID, raw)
	if err != nil {
		// Interrupted messages stay pending for recovery.
		if ctx.Err() != nil {
			return err
		}
		metrics.StreamMessages.WithLabelValues("dead_lettered").Inc()
		c.acknowledge(ctx, msg.ID)
		return err
	}

	metrics.StreamMessages.WithLabelValues("checked").Inc()
	log.Debug().
		Str("message_id", msg.ID).
		Str("submissionId", submission.SubmissionID).
		Str("eventId", submission.EventID).
		Msg("Abstract message processed")

	return c.acknowledge(ctx, msg.ID)
}

// trimStream drops entries older than the retention window. Stream ids start
// with their millisecond timestamp, so the cutoff is a minimum id.
func (c *Consumer) trimStream(ctx context.Context, now time.Time) (int64, error) {
	minID := fmt.Sprintf("%d-0", now.Add(-c.retention).UnixMilli())

	trimmed, err := c.client.XTrimMinID(ctx, c.streamKey, minID).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to trim stream: %w", err)
	}
	if trimmed > 0 {
		log.Debug().Int64("trimmed", trimmed).Str("min_id", minID).Msg("Trimmed abstract stream")
	}
	return trimmed, nil
}

func (c *Consumer) trimPeriodically(ctx context.Context) {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		if _, err := c.trimStream(ctx, time.Now()); err != nil {
			log.Error().Err(err).Msg("Failed to trim abstract stream")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Consumer) acknowledge(ctx context.Context, messageID string) error {
	if err := c.client.XAck(ctx, c.streamKey, c.consumerGroup, messageID).Err(); err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to acknowledge message")
		return err
	}
	return nil
}
