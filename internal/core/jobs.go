package core

import (
	"context"
)

// JobDispatcher defines the contract for a system that can accept and queue
// push events for asynchronous processing. This interface decouples the event
// source (the webhook handler) from the job execution mechanism.
type JobDispatcher interface {
	// Dispatch accepts a PushEvent and queues it for processing.
	// It returns an error if the job cannot be queued, for example if the
	// queue is full, providing a mechanism for backpressure.
	Dispatch(ctx context.Context, push *PushEvent) error

	// Stop shuts the dispatcher down, waiting for in-flight jobs to finish.
	Stop()
}

// Job represents a single, executable unit of work processed by the
// dispatcher. Each job handles exactly one push from resolution through
// terminal goal states.
type Job interface {
	// Run executes the job's logic. Goal failures are structured results and
	// never surface here; an error return means the job's own infrastructure
	// (snapshot fetch, clone, authentication) failed.
	Run(ctx context.Context, push *PushEvent) error
}
