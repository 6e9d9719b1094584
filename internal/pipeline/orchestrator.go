// Package pipeline runs segmentation jobs on background workers,
// delivering progress and results through polled job state.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lexreader/chapterd/internal/segment"
	"github.com/lexreader/chapterd/internal/store"
)

// Orchestrator owns the job queue, the worker pool and the
// per-document in-flight table.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	st    *store.Store
	seg   *segment.Segmenter
	log   *slog.Logger

	workerCount int
	maxQueue    int

	mu       sync.Mutex
	inflight map[string]*Job // document id -> active job

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline.
func NewOrchestrator(st *store.Store, seg *segment.Segmenter, log *slog.Logger, workerCount, maxQueue int, jobTTL time.Duration) *Orchestrator {
	return &Orchestrator{
		jobs:        NewJobStore(jobTTL),
		queue:       make(chan *Job, maxQueue),
		st:          st,
		seg:         seg,
		log:         log,
		workerCount: workerCount,
		maxQueue:    maxQueue,
		inflight:    make(map[string]*Job),
	}
}

// Start launches worker goroutines and the job-store cleanup ticker.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.workerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.st, o.seg, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
					o.release(job.DocumentID)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues segmentation for a document. Only one run per document
// may be active at a time: a second request while one is in flight
// joins the running job instead of racing it into the cache. The
// second return value reports whether an existing job was joined.
func (o *Orchestrator) Submit(documentID string) (*Job, bool, error) {
	o.mu.Lock()
	if active, ok := o.inflight[documentID]; ok {
		o.mu.Unlock()
		return active, true, nil
	}

	now := time.Now()
	job := &Job{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Status:     StatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	o.inflight[documentID] = job
	o.mu.Unlock()

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return job, false, nil
	default:
		o.release(documentID)
		job.SetStatus(StatusFailed)
		job.AddError("job queue is full")
		return nil, false, fmt.Errorf("job queue is full (%d)", o.maxQueue)
	}
}

// GetJob returns a job by id.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns the current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

func (o *Orchestrator) release(documentID string) {
	o.mu.Lock()
	delete(o.inflight, documentID)
	o.mu.Unlock()
}
