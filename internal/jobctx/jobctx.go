// Package jobctx carries the crawl job identity through a context.
package jobctx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type key int

const jobKey key = 0

// Job identifies one crawl run
type Job struct {
	ID        string
	StartTime time.Time
}

// WithJob attaches a fresh job to ctx. The ID is a dash-free UUID so it can
// be used directly in directory names.
func WithJob(ctx context.Context) context.Context {
	return context.WithValue(ctx, jobKey, &Job{
		ID:        NewID(),
		StartTime: time.Now(),
	})
}

// Ensure returns ctx unchanged if it already carries a job, otherwise WithJob(ctx)
func Ensure(ctx context.Context) context.Context {
	if _, ok := ctx.Value(jobKey).(*Job); ok {
		return ctx
	}
	return WithJob(ctx)
}

// FromContext returns the job stored in ctx, or a placeholder
func FromContext(ctx context.Context) *Job {
	if j, ok := ctx.Value(jobKey).(*Job); ok {
		return j
	}
	return &Job{
		ID:        "unknown",
		StartTime: time.Now(),
	}
}

// NewID returns a random 32 character hex identifier
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// JobError wraps an error with the job it happened in
type JobError struct {
	JobID string
	Err   error
}

// Error implements the error interface
func (e *JobError) Error() string {
	return fmt.Sprintf("[%s] %v", e.JobID, e.Err)
}

// Unwrap returns the underlying error
func (e *JobError) Unwrap() error {
	return e.Err
}

// NewJobError creates a JobError from the job in ctx
func NewJobError(ctx context.Context, err error) error {
	return &JobError{
		JobID: FromContext(ctx).ID,
		Err:   err,
	}
}
