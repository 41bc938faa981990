package review

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/RishiKendai/veritas/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	statusKeyPrefix  = "plagiarism_batch_status:"
	lockKeyPrefix    = "plagiarism_batch_lock:"
	summaryKeyPrefix = "plagiarism_batch_summary:"
	statusTTL        = 12 * time.Hour
)

var validSteps = map[models.Step]bool{
	models.StepIdle:      true,
	models.StepQueued:    true,
	models.StepRunning:   true,
	models.StepCompleted: true,
	models.StepFailed:    true,
}

// releaseLock deletes the lock only while it still holds our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStatusStore keeps batch progress and the per-event batch lock in Redis.
type RedisStatusStore struct {
	client redis.Cmdable
}

func NewRedisStatusStore(client redis.Cmdable) *RedisStatusStore {
	return &RedisStatusStore{client: client}
}

func (s *RedisStatusStore) SetStep(ctx context.Context, eventID string, step models.Step) error {
	if !validSteps[step] {
		return fmt.Errorf("unknown step: %s", step)
	}

	rkey := statusKeyPrefix + eventID

	err := s.client.Set(ctx, rkey, string(step), statusTTL).Err()
	if err != nil {
		log.Error().Err(err).
			Str("step", string(step)).
			Str("eventId", eventID).
			Str("redisKey", rkey).
			Msg("Failed to update batch status in Redis")
		return fmt.Errorf("failed to update status in Redis: %w", err)
	}

	log.Trace().
		Str("step", string(step)).
		Str("eventId", eventID).
		Msg("Batch status updated")

	return nil
}

// GetStep returns StepIdle for events that never ran a batch.
func (s *RedisStatusStore) GetStep(ctx context.Context, eventID string) (models.Step, error) {
	value, err := s.client.Get(ctx, statusKeyPrefix+eventID).Result()
	if errors.Is(err, redis.Nil) {
		return models.StepIdle, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read status from Redis: %w", err)
	}
	return models.Step(value), nil
}

// SetSummary stores the batch counts as a hash next to the status key.
func (s *RedisStatusStore) SetSummary(ctx context.Context, eventID string, summary models.BatchSummary) error {
	rkey := summaryKeyPrefix + eventID

	err := s.client.HSet(ctx, rkey,
		"checked", summary.Checked,
		"flagged", summary.Flagged,
		"failed", summary.Failed,
		"completedAt", summary.CompletedAt.UTC().Format(time.RFC3339),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to store batch summary in Redis: %w", err)
	}
	if err := s.client.Expire(ctx, rkey, statusTTL).Err(); err != nil {
		return fmt.Errorf("failed to set batch summary expiry: %w", err)
	}
	return nil
}

// GetSummary returns nil when no batch of the event has completed.
func (s *RedisStatusStore) GetSummary(ctx context.Context, eventID string) (*models.BatchSummary, error) {
	fields, err := s.client.HGetAll(ctx, summaryKeyPrefix+eventID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read batch summary from Redis: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	summary := &models.BatchSummary{}
	counts := map[string]*int{
		"checked": &summary.Checked,
		"flagged": &summary.Flagged,
		"failed":  &summary.Failed,
	}
	for field, dst := range counts {
		n, err := strconv.Atoi(fields[field])
		if err != nil {
			return nil, fmt.Errorf("invalid batch summary field %s: %w", field, err)
		}
		*dst = n
	}
	if completedAt, err := time.Parse(time.RFC3339, fields["completedAt"]); err == nil {
		summary.CompletedAt = completedAt
	}
	return summary, nil
}

func (s *RedisStatusStore) AcquireBatchLock(ctx context.Context, eventID, token string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, lockKeyPrefix+eventID, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire batch lock: %w", err)
	}
	return ok, nil
}

func (s *RedisStatusStore) ReleaseBatchLock(ctx context.Context, eventID, token string) error {
	if err := releaseLock.Run(ctx, s.client, []string{lockKeyPrefix + eventID}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release batch lock: %w", err)
	}
	return nil
}

// MemoryStatusStore keeps batch progress in process memory. It serves single
// process runs such as the offline CLI.
type MemoryStatusStore struct {
	mu        sync.Mutex
	steps     map[string]models.Step
	summaries map[string]models.BatchSummary
	locks     map[string]string
}

func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{
		steps:     make(map[string]models.Step),
		summaries: make(map[string]models.BatchSummary),
		locks:     make(map[string]string),
	}
}

func (s *MemoryStatusStore) SetStep(_ context.Context, eventID string, step models.Step) error {
	if !validSteps[step] {
		return fmt.Errorf("unknown step: %s", step)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps[eventID] = step
	return nil
}

func (s *MemoryStatusStore) GetStep(_ context.Context, eventID string) (models.Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if step, ok := s.steps[eventID]; ok {
		return step, nil
	}
	return models.StepIdle, nil
}

func (s *MemoryStatusStore) SetSummary(_ context.Context, eventID string, summary models.BatchSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[eventID] = summary
	return nil
}

func (s *MemoryStatusStore) GetSummary(_ context.Context, eventID string) (*models.BatchSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary, ok := s.summaries[eventID]
	if !ok {
		return nil, nil
	}
	return &summary, nil
}

// AcquireBatchLock ignores ttl; locks live until released.
func (s *MemoryStatusStore) AcquireBatchLock(_ context.Context, eventID, token string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.locks[eventID]; held {
		return false, nil
	}
	s.locks[eventID] = token
	return true, nil
}

func (s *MemoryStatusStore) ReleaseBatchLock(_ context.Context, eventID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[eventID] == token {
		delete(s.locks, eventID)
	}
	return nil
}

// Locked reports whether a batch lock is held for the event.
func (s *MemoryStatusStore) Locked(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, held := s.locks[eventID]
	return held
}
