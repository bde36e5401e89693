// Package jobs defines background tasks that take a push from resolution
// through terminal goal states.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shiplane/shiplane/internal/core"
)

// dispatcher implements core.JobDispatcher and manages a pool of worker
// goroutines for processing push events as delivery jobs.
type dispatcher struct {
	deliveryJob core.Job             // Job implementation executed by each worker.
	jobQueue    chan *core.PushEvent // Queue of incoming push events.
	maxWorkers  int                  // Number of concurrent workers.
	wg          sync.WaitGroup       // Tracks active workers for graceful shutdown.
	logger      *slog.Logger         // Logger instance for the dispatcher.
}

// NewDispatcher initializes a dispatcher with a worker pool.
// If maxWorkers is 0 or negative, it defaults to 1.
func NewDispatcher(deliveryJob core.Job, maxWorkers int, logger *slog.Logger) core.JobDispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	d := &dispatcher{
		deliveryJob: deliveryJob,
		maxWorkers:  maxWorkers,
		jobQueue:    make(chan *core.PushEvent, 100),
		logger:      logger,
	}
	d.startWorkers()
	return d
}

// startWorkers launches maxWorkers goroutines to process jobs from the queue.
func (d *dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

// startWorker processes pushes from the queue until it's closed.
func (d *dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Info("starting delivery worker", "id", workerID)

	for push := range d.jobQueue {
		d.processPush(workerID, push)
	}

	d.logger.Info("shutting down delivery worker", "id", workerID)
}

// processPush logs and runs a delivery job for a push event. Goal failures
// are terminal states reported by the job itself; an error here means the
// job's own infrastructure failed.
func (d *dispatcher) processPush(workerID int, push *core.PushEvent) {
	d.logger.Info("worker processing push",
		"worker_id", workerID,
		"repo", push.RepoFullName,
		"sha", push.ShortSHA(),
	)

	err := d.deliveryJob.Run(context.Background(), push)
	if err != nil {
		d.logger.Error("delivery job failed",
			"repo", push.RepoFullName,
			"sha", push.ShortSHA(),
			"error", err,
		)
	}
}

// Dispatch queues a push event for processing by a worker.
func (d *dispatcher) Dispatch(_ context.Context, push *core.PushEvent) error {
	d.logger.Info("queuing delivery job", "repo", push.RepoFullName, "sha", push.ShortSHA())

	select {
	case d.jobQueue <- push:
		return nil
	default:
		return fmt.Errorf("job queue is full, cannot accept new delivery job")
	}
}

// Stop gracefully shuts down the dispatcher, waiting for all workers to finish.
func (d *dispatcher) Stop() {
	d.logger.Info("stopping dispatcher and waiting for jobs to finish")
	close(d.jobQueue)
	d.wg.Wait()
	d.logger.Info("all delivery jobs have finished")
}
