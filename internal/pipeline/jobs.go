package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/lexreader/chapterd/internal/book"
)

// JobStatus represents the state of a segmentation job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusSegmenting JobStatus = "segmenting"
	StatusCompleted  JobStatus = "completed"
	StatusCanceled   JobStatus = "canceled"
	StatusFailed     JobStatus = "failed"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	switch s {
	case StatusCompleted, StatusCanceled, StatusFailed:
		return true
	}
	return false
}

// Progress tracks a running segmentation. Percent is monotonically
// non-decreasing: 0–50 covers boundary scanning, 50–100 chapter
// construction.
type Progress struct {
	Percent   int      `json:"percent"`
	ElapsedMS int64    `json:"elapsed_ms"`
	Chapters  int      `json:"chapters"`
	Errors    []string `json:"errors,omitempty"`
}

// Job tracks one document segmentation run.
type Job struct {
	mu sync.Mutex

	ID         string `json:"job_id"`
	DocumentID string `json:"document_id"`

	Status   JobStatus `json:"status"`
	Progress Progress  `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	chapters []book.Chapter
	cancel   context.CancelFunc
}

// SetStatus updates the job status atomically.
func (j *Job) SetStatus(status JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.UpdatedAt = time.Now()
}

// SetProgress records a progress notification. Regressing percentages
// are ignored so the reported stream stays monotonic.
func (j *Job) SetProgress(percent int, elapsed time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if percent < j.Progress.Percent {
		return
	}
	j.Progress.Percent = percent
	j.Progress.ElapsedMS = elapsed.Milliseconds()
	j.UpdatedAt = time.Now()
}

// AddError records a non-fatal error on the job.
func (j *Job) AddError(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Errors = append(j.Progress.Errors, msg)
	j.UpdatedAt = time.Now()
}

// SetChapters stores the final chapter list.
func (j *Job) SetChapters(chapters []book.Chapter) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.chapters = chapters
	j.Progress.Chapters = len(chapters)
	j.UpdatedAt = time.Now()
}

// Chapters returns the final chapter list, or nil while the job runs.
func (j *Job) Chapters() []book.Chapter {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.chapters
}

func (j *Job) setCancel(cancel context.CancelFunc) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancel = cancel
}

// Cancel requests cooperative cancellation. The pipeline still
// finishes with a well-formed (partial or fallback) result.
func (j *Job) Cancel() {
	j.mu.Lock()
	cancel := j.cancel
	j.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (j *Job) touchedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string    `json:"job_id"`
	DocumentID string    `json:"document_id"`
	Status     JobStatus `json:"status"`
	Progress   Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	var errs []string
	if len(j.Progress.Errors) > 0 {
		errs = append(errs, j.Progress.Errors...)
	}
	return JobSnapshot{
		ID:         j.ID,
		DocumentID: j.DocumentID,
		Status:     j.Status,
		Progress: Progress{
			Percent:   j.Progress.Percent,
			ElapsedMS: j.Progress.ElapsedMS,
			Chapters:  j.Progress.Chapters,
			Errors:    errs,
		},
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction
// of finished jobs.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired finished jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if job.Snapshot().Status.Done() && now.Sub(job.touchedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}
