package queue

import (
	"context"
	"errors"
)

// FailureStatus maps a run error to the status the worker persists for the
// job. A run interrupted by cancellation goes back to pending; every other
// error leaves the job failed.
func FailureStatus(err error) Status {
	if errors.Is(err, context.Canceled) {
		return StatusPending
	}
	return StatusFailed
}
