// Package async provides the bounded worker queue the daemon uses to absorb
// scanner bursts without dropping files.
package async

import (
	"context"
	"time"
)

// Job is the smallest useful unit: one scanned file to run through intake.
type Job struct {
	Path        string
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
