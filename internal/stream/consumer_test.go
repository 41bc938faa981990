package stream

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/RishiKendai/veritas/internal/review"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	calls []string
	err   error
}

func (f *fakeChecker) CheckAbstract(_ context.Context, submissionID string) (*review.AbstractVerdict, error) {
	f.calls = append(f.calls, submissionID)
	if f.err != nil {
		return nil, f.err
	}
	return &review.AbstractVerdict{SubmissionID: submissionID}, nil
}

func newTestConsumer(t *testing.T, checker AbstractChecker) *Consumer {
	client := unreachableRedis(t)
	retry := NewRetryHandler(client, "abstracts:dlq").WithBackoff(3, time.Millisecond, time.Millisecond)
	return NewConsumer(client, "abstracts:stream", "abstracts:group", "test", checker, retry, time.Hour)
}

func TestProcessMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid message is not checked", func(t *testing.T) {
		checker := &fakeChecker{}
		c := newTestConsumer(t, checker)

		err := c.processMessage(ctx, &redis.XMessage{ID: "1-0", Values: map[string]interface{}{"eventId": "5"}})
		assert.ErrorIs(t, err, ErrInvalidMessage)
		assert.Empty(t, checker.calls)
	})

	t.Run("valid message runs the check", func(t *testing.T) {
		checker := &fakeChecker{}
		c := newTestConsumer(t, checker)

		// The acknowledgement fails against the unreachable Redis.
		_ = c.processMessage(ctx, &redis.XMessage{ID: "1-0", Values: map[string]interface{}{"submissionId": "42", "eventId": "5"}})
		assert.Equal(t, []string{"42"}, checker.calls)
	})

	t.Run("missing submission is not retried", func(t *testing.T) {
		checker := &fakeChecker{err: review.ErrSubmissionNotFound}
		c := newTestConsumer(t, checker)

		err := c.processMessage(ctx, &redis.XMessage{ID: "1-0", Values: map[string]interface{}{"submissionId": "42"}})
		require.Error(t, err)
		assert.ErrorIs(t, err, review.ErrSubmissionNotFound)
		assert.Len(t, checker.calls, 1)
	})

	t.Run("transient failures are retried", func(t *testing.T) {
		checker := &fakeChecker{err: errors.New("mongo unavailable")}
		c := newTestConsumer(t, checker)

		err := c.processMessage(ctx, &redis.XMessage{ID: "1-0", Values: map[string]interface{}{"submissionId": "42"}})
		require.Error(t, err)
		assert.Len(t, checker.calls, 3)
	})
}

// streamClient records the stream commands the consumer issues. Commands it
// does not override panic through the nil embedded Cmdable.
type streamClient struct {
	redis.Cmdable

	pending    []redis.XPendingExt
	pendingErr error
	messages   map[string]redis.XMessage

	claimArgs *redis.XClaimArgs
	acked     []string
	trimMinID string
	trimmed   int64
}

func (s *streamClient) XPendingExt(ctx context.Context, _ *redis.XPendingExtArgs) *redis.XPendingExtCmd {
	cmd := redis.NewXPendingExtCmd(ctx)
	if s.pendingErr != nil {
		cmd.SetErr(s.pendingErr)
		return cmd
	}
	cmd.SetVal(s.pending)
	return cmd
}

func (s *streamClient) XClaim(_ context.Context, a *redis.XClaimArgs) *redis.XMessageSliceCmd {
	s.claimArgs = a
	claimed := make([]redis.XMessage, 0, len(a.Messages))
	for _, id := range a.Messages {
		claimed = append(claimed, s.messages[id])
	}
	return redis.NewXMessageSliceCmdResult(claimed, nil)
}

func (s *streamClient) XAck(_ context.Context, _, _ string, ids ...string) *redis.IntCmd {
	s.acked = append(s.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func (s *streamClient) XTrimMinID(_ context.Context, _ string, minID string) *redis.IntCmd {
	s.trimMinID = minID
	return redis.NewIntResult(s.trimmed, nil)
}

func newStreamConsumer(client *streamClient, checker AbstractChecker) *Consumer {
	retry := NewRetryHandler(client, "abstracts:dlq").WithBackoff(1, time.Millisecond, time.Millisecond)
	return NewConsumer(client, "abstracts:stream", "abstracts:group", "worker-2", checker, retry, 24*time.Hour)
}

func TestRecoverPending(t *testing.T) {
	ctx := context.Background()

	t.Run("claims idle messages and checks them", func(t *testing.T) {
		client := &streamClient{
			pending: []redis.XPendingExt{
				{ID: "1-0", Consumer: "worker-1", Idle: 5 * time.Minute},
				{ID: "2-0", Consumer: "worker-1", Idle: time.Second},
				{ID: "3-0", Consumer: "worker-1", Idle: time.Minute},
			},
			messages: map[string]redis.XMessage{
				"1-0": {ID: "1-0", Values: map[string]interface{}{"submissionId": "a1", "eventId": "e1"}},
				"3-0": {ID: "3-0", Values: map[string]interface{}{"submissionId": "a3", "eventId": "e1"}},
			},
		}
		checker := &fakeChecker{}
		c := newStreamConsumer(client, checker)

		require.NoError(t, c.recoverPending(ctx))

		require.NotNil(t, client.claimArgs)
		assert.Equal(t, []string{"1-0", "3-0"}, client.claimArgs.Messages)
		assert.Equal(t, "worker-2", client.claimArgs.Consumer)
		assert.Equal(t, time.Minute, client.claimArgs.MinIdle)
		assert.Equal(t, []string{"a1", "a3"}, checker.calls)
		assert.Equal(t, []string{"1-0", "3-0"}, client.acked)
	})

	t.Run("recently delivered messages are left alone", func(t *testing.T) {
		client := &streamClient{
			pending: []redis.XPendingExt{{ID: "2-0", Consumer: "worker-1", Idle: time.Second}},
		}
		checker := &fakeChecker{}
		c := newStreamConsumer(client, checker)

		require.NoError(t, c.recoverPending(ctx))
		assert.Nil(t, client.claimArgs)
		assert.Empty(t, checker.calls)
	})

	t.Run("empty pending list", func(t *testing.T) {
		client := &streamClient{pendingErr: redis.Nil}
		c := newStreamConsumer(client, &fakeChecker{})

		require.NoError(t, c.recoverPending(ctx))
		assert.Nil(t, client.claimArgs)
	})

	t.Run("pending lookup failure", func(t *testing.T) {
		client := &streamClient{pendingErr: errors.New("NOGROUP")}
		c := newStreamConsumer(client, &fakeChecker{})

		err := c.recoverPending(ctx)
		assert.ErrorContains(t, err, "failed to get pending messages")
	})

	t.Run("unparseable claimed messages are acknowledged", func(t *testing.T) {
		client := &streamClient{
			pending:  []redis.XPendingExt{{ID: "4-0", Idle: time.Hour}},
			messages: map[string]redis.XMessage{"4-0": {ID: "4-0", Values: map[string]interface{}{"eventId": "e1"}}},
		}
		checker := &fakeChecker{}
		c := newStreamConsumer(client, checker)

		require.NoError(t, c.recoverPending(ctx))
		assert.Empty(t, checker.calls)
		assert.Equal(t, []string{"4-0"}, client.acked)
	})
}

func TestIdleMessageIDs(t *testing.T) {
	pending := []redis.XPendingExt{
		{ID: "1-0", Idle: 2 * time.Minute},
		{ID: "2-0", Idle: 59 * time.Second},
		{ID: "3-0", Idle: time.Minute},
	}
	assert.Equal(t, []string{"1-0", "3-0"}, idleMessageIDs(pending, time.Minute))
	assert.Empty(t, idleMessageIDs(nil, time.Minute))
}

func TestTrimStream(t *testing.T) {
	client := &streamClient{trimmed: 7}
	c := newStreamConsumer(client, &fakeChecker{})
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	trimmed, err := c.trimStream(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(7), trimmed)

	cutoff := now.Add(-24 * time.Hour).UnixMilli()
	assert.Equal(t, fmt.Sprintf("%d-0", cutoff), client.trimMinID)
}
