// Package async runs document edits through a bounded worker pool. The
// batch CLI feeds it file paths; each worker reads, edits and writes one
// document independently.
package async

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joseph-ayodele/pdf-markup/constants"
	processor "github.com/joseph-ayodele/pdf-markup/internal/pipeline"
)

// Job is one document edit: read Path, apply Instruction, write the result
// to OutPath.
type Job struct {
	Path        string
	OutPath     string
	Instruction string
	APIKey      string
	SubmittedAt time.Time
}

// Outcome records how one job ended. OutPath is empty when nothing was
// written (read failures, pipeline failures, documents without text).
type Outcome struct {
	Path    string
	OutPath string
	Status  constants.JobStatus
	Applied int
	Missed  int
	Err     error
}

// Runner is the slice of the edit pipeline the queue needs.
type Runner interface {
	Process(ctx context.Context, req processor.Request) (*processor.Result, error)
}

// Queue accepts edit jobs until Shutdown drains the workers.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

type EditQueue struct {
	run     Runner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool

	resMu    sync.Mutex
	outcomes []Outcome
}

type Option func(*EditQueue)

func WithWorkers(n int) Option {
	return func(q *EditQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *EditQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithJobTimeout(d time.Duration) Option {
	return func(q *EditQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewEditQueue(run Runner, logger *slog.Logger, opts ...Option) *EditQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &EditQueue{
		run:     run,
		logger:  logger,
		workers: 4,
		timeout: 2 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *EditQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					out := q.runOne(ctx, job)
					cancel()
					q.record(out)

					if out.Err != nil {
						q.logger.Error("edit failed", "worker_id", workerID, "path", job.Path, "error", out.Err)
					} else {
						q.logger.Info("edit done",
							"worker_id", workerID,
							"path", job.Path,
							"status", out.Status,
							"applied", out.Applied,
							"missed", out.Missed,
						)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *EditQueue) runOne(ctx context.Context, job Job) Outcome {
	out := Outcome{Path: job.Path}

	data, err := os.ReadFile(job.Path)
	if err != nil {
		out.Status = constants.JobStatusFailed
		out.Err = err
		return out
	}

	res, err := q.run.Process(ctx, processor.Request{
		Data:        data,
		Filename:    filepath.Base(job.Path),
		Instruction: job.Instruction,
		APIKey:      job.APIKey,
	})
	if err != nil {
		out.Status = constants.JobStatusFailed
		out.Err = err
		return out
	}
	out.Status = res.Status
	if res.Status == constants.JobStatusNoText {
		return out
	}
	out.Applied = len(res.Applied)
	out.Missed = len(res.Missed) + len(res.Skipped)

	if err := os.WriteFile(job.OutPath, res.Output, 0o644); err != nil {
		out.Status = constants.JobStatusFailed
		out.Err = err
		return out
	}
	out.OutPath = job.OutPath
	return out
}

func (q *EditQueue) record(out Outcome) {
	q.resMu.Lock()
	q.outcomes = append(q.outcomes, out)
	q.resMu.Unlock()
}

// Outcomes returns a copy of everything recorded so far. The list is only
// complete once Shutdown has drained the queue.
func (q *EditQueue) Outcomes() []Outcome {
	q.resMu.Lock()
	defer q.resMu.Unlock()
	return append([]Outcome(nil), q.outcomes...)
}

func (q *EditQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued document", "path", job.Path)
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.Path)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (q *EditQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
