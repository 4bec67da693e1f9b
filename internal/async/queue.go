package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/backlog-forge/internal/pipeline"
	"github.com/joseph-ayodele/backlog-forge/internal/schema"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one independent pipeline run.
type Job struct {
	ID          string // run id; generated by the pipeline when empty
	Label       string // file path or board reference, for logs and results
	Input       pipeline.Input
	SubmittedAt time.Time
}

// Result is delivered once per job.
type Result struct {
	Job     Job
	Backlog *schema.Backlog
	Err     error
	Elapsed time.Duration
}

// Processor is the pipeline entry point a queue drives.
type Processor interface {
	Process(ctx context.Context, in pipeline.Input, fn pipeline.StatusFunc) (*schema.Backlog, error)
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
