package review

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolRunAll(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 3)
	defer pool.Close()
	assert.Equal(t, 3, pool.Size())

	var ran atomic.Int64
	jobs := make([]Job, 20)
	for i := range jobs {
		jobs[i] = JobFunc(func(context.Context) error {
			ran.Add(1)
			if i%5 == 0 {
				return errors.New("job failed")
			}
			return nil
		})
	}

	require.NoError(t, pool.RunAll(jobs))
	assert.Equal(t, int64(20), ran.Load())
}

func TestWorkerPoolDefaultSize(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 0)
	defer pool.Close()
	assert.GreaterOrEqual(t, pool.Size(), 1)
}

func TestWorkerPoolClosed(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1)
	pool.Close()

	err := pool.Submit(JobFunc(func(context.Context) error { return nil }))
	assert.ErrorIs(t, err, context.Canceled)
}
