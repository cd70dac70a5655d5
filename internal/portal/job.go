package portal

import (
	"context"
	"errors"
	"sync"
)

// JobStatus is the lifecycle state of a download job.
type JobStatus int

const (
	JobNotStarted JobStatus = iota
	JobStarted
	JobSucceeded
	JobFailed
	JobCanceled
)

// String returns a lowercase label for the status.
func (s JobStatus) String() string {
	switch s {
	case JobNotStarted:
		return "not_started"
	case JobStarted:
		return "started"
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	case JobCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed || s == JobCanceled
}

// Job runs a single area download in the background. A job is started at
// most once and settles in exactly one terminal status.
type Job struct {
	run  func(ctx context.Context) error
	once sync.Once
	done chan struct{}

	mu     sync.Mutex
	status JobStatus
	err    error
}

func newJob(run func(ctx context.Context) error) *Job {
	return &Job{run: run, done: make(chan struct{})}
}

// NewJob wraps run in a Job. It is exported for data sources other than
// *Client and for tests.
func NewJob(run func(ctx context.Context) error) *Job {
	return newJob(run)
}

// Start launches the job. Later calls are no-ops.
func (j *Job) Start(ctx context.Context) {
	j.once.Do(func() {
		j.setStatus(JobStarted, nil)
		go func() {
			defer close(j.done)
			err := j.run(ctx)
			switch {
			case err == nil:
				j.setStatus(JobSucceeded, nil)
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				j.setStatus(JobCanceled, err)
			default:
				j.setStatus(JobFailed, err)
			}
		}()
	})
}

// Done is closed once the job reaches a terminal status.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job settles or ctx ends. When ctx ends first the
// current, non-terminal status is returned together with ctx's error.
func (j *Job) Wait(ctx context.Context) (JobStatus, error) {
	select {
	case <-j.done:
		return j.Status(), nil
	case <-ctx.Done():
		return j.Status(), ctx.Err()
	}
}

// Status returns the current status.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Err returns the failure detail of a failed or canceled job.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *Job) setStatus(status JobStatus, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = status
	j.err = err
}
