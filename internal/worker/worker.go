package worker

import (
	"context"
)

// Worker is a long-running background component.
type Worker interface {
	// Start runs the worker until Stop is called or ctx is cancelled.
	Start(ctx context.Context) error

	// Stop signals the worker to shut down.
	Stop() error

	// Name identifies the worker in logs.
	Name() string
}
