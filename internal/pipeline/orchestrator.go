package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Orchestrator manages the asynchronous analysis queue.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	worker *Worker
	log    *slog.Logger

	workerCount  int
	maxQueueSize int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Options sizes the worker pool.
type Options struct {
	WorkerCount  int
	MaxQueueSize int
	JobStore     *JobStore
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(opts Options, worker *Worker, log *slog.Logger) *Orchestrator {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 4
	}
	if opts.MaxQueueSize <= 0 {
		opts.MaxQueueSize = 100
	}
	if opts.JobStore == nil {
		opts.JobStore = NewJobStore(0)
	}
	return &Orchestrator{
		jobs:         opts.JobStore,
		queue:        make(chan *Job, opts.MaxQueueSize),
		worker:       worker,
		log:          log,
		workerCount:  opts.WorkerCount,
		maxQueueSize: opts.MaxQueueSize,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.workerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.worker.Process(workerCtx, job)
					// Refresh the TTL from completion time.
					o.jobs.Put(job)
				}
			}
		}()
	}
	o.log.Info("pipeline started", "workers", o.workerCount, "queue_size", o.maxQueueSize)
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		job.SetFileData(nil)
		return fmt.Errorf("job queue is full (%d)", o.maxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Worker returns the worker used for synchronous requests.
func (o *Orchestrator) Worker() *Worker {
	return o.worker
}
