package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/backlog-forge/internal/common"
	"github.com/joseph-ayodele/backlog-forge/internal/pipeline"
	"github.com/joseph-ayodele/backlog-forge/internal/schema"
)

type stubProcessor struct {
	active, peak atomic.Int32
	delay        time.Duration
}

func (s *stubProcessor) Process(ctx context.Context, in pipeline.Input, _ pipeline.StatusFunc) (*schema.Backlog, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if in.BoardRef == "bad" {
		return nil, errors.New("boom")
	}
	return &schema.Backlog{ProjectSummary: schema.ProjectSummary{Title: common.RunIDFromContext(ctx)}}, nil
}

func TestProcessorQueue_RunsAllJobsWithBoundedWorkers(t *testing.T) {
	proc := &stubProcessor{delay: 20 * time.Millisecond}
	var (
		mu      sync.Mutex
		results []Result
	)
	q := NewProcessorQueue(proc, nil, WithWorkers(2), WithQueueSize(1), WithResultHandler(func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
	}))

	ctx := context.Background()
	for _, ref := range []string{"a", "b", "bad", "c", "d"} {
		require.NoError(t, q.Enqueue(ctx, Job{ID: "run-" + ref, Label: ref, Input: pipeline.Input{BoardRef: ref}}))
	}
	q.Shutdown(ctx)

	require.Len(t, results, 5)
	assert.LessOrEqual(t, proc.peak.Load(), int32(2))

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			assert.Equal(t, "bad", r.Job.Label)
			continue
		}
		assert.Equal(t, r.Job.ID, r.Backlog.ProjectSummary.Title)
		assert.False(t, r.Job.SubmittedAt.IsZero())
	}
	assert.Equal(t, 1, failed)
}

func TestProcessorQueue_TimeoutPerJob(t *testing.T) {
	var got Result
	q := NewProcessorQueue(&stubProcessor{delay: time.Second}, nil,
		WithWorkers(1), WithProcessTimeout(10*time.Millisecond), WithResultHandler(func(r Result) { got = r }))

	require.NoError(t, q.Enqueue(context.Background(), Job{Label: "slow", Input: pipeline.Input{BoardRef: "x"}}))
	q.Shutdown(context.Background())
	assert.ErrorIs(t, got.Err, context.DeadlineExceeded)
}

func TestProcessorQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&stubProcessor{}, nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{Label: "late"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}
