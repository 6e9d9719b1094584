package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexreader/chapterd/internal/segment"
	"github.com/lexreader/chapterd/internal/store"
)

// Worker processes a single segmentation job.
type Worker struct {
	st  *store.Store
	seg *segment.Segmenter
	log *slog.Logger
}

func NewWorker(st *store.Store, seg *segment.Segmenter, log *slog.Logger) *Worker {
	return &Worker{st: st, seg: seg, log: log}
}

// Process runs one job: cache fast path, segmentation, persistence and
// registry write-back.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "document_id", job.DocumentID)
	job.SetStatus(StatusSegmenting)
	start := time.Now()

	// Fast path: a valid non-empty cached list short-circuits the
	// whole pipeline. This is a strict precondition check, not a
	// heuristic.
	cached, err := w.st.LoadChapters(job.DocumentID)
	if err != nil {
		log.Warn("chapter cache read failed, recomputing", "error", err)
	} else if len(cached) > 0 {
		job.SetChapters(cached)
		job.SetProgress(100, time.Since(start))
		job.SetStatus(StatusCompleted)
		log.Info("served chapters from cache", "chapters", len(cached))
		return
	}

	doc, err := w.st.GetDocument(job.DocumentID)
	if err != nil {
		w.fail(job, log, fmt.Sprintf("load document: %s", err))
		return
	}
	if doc == nil {
		w.fail(job, log, "document not found")
		return
	}

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	job.setCancel(cancel)

	chapters, err := w.seg.Segment(jobCtx, doc, func(p segment.Progress) {
		job.SetProgress(p.Percent, p.Elapsed)
	})
	if err != nil {
		// Only unrecoverable conditions reach here; heuristic and
		// timeout paths already degraded to a valid result.
		w.fail(job, log, fmt.Sprintf("segment: %s", err))
		return
	}

	if jobCtx.Err() != nil {
		// Canceled runs return their well-formed partial result but
		// never write it to the cache; the next request recomputes.
		job.SetChapters(chapters)
		job.SetProgress(100, time.Since(start))
		job.SetStatus(StatusCanceled)
		log.Info("segmentation canceled", "chapters", len(chapters))
		return
	}

	persisted, err := w.st.SaveChapters(doc.ID, chapters)
	if err != nil {
		w.fail(job, log, fmt.Sprintf("persist chapters: %s", err))
		return
	}

	// Registry write-back: the document's chapter list and the
	// grouping keyed by the document id.
	ids := make([]string, len(persisted))
	for i, ch := range persisted {
		ids[i] = ch.ID
	}
	doc.ChapterIDs = ids
	if err := w.st.PutDocument(doc); err != nil {
		log.Error("document write-back failed", "error", err)
		job.AddError(fmt.Sprintf("document write-back: %s", err))
	}
	if err := w.st.AddToGroup(doc.ID, ids...); err != nil {
		log.Error("group registration failed", "error", err)
		job.AddError(fmt.Sprintf("group registration: %s", err))
	}

	job.SetChapters(persisted)
	job.SetProgress(100, time.Since(start))
	job.SetStatus(StatusCompleted)
	log.Info("segmentation job finished",
		"chapters", len(persisted),
		"status", job.Snapshot().Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (w *Worker) fail(job *Job, log *slog.Logger, msg string) {
	log.Error("segmentation job failed", "error", msg)
	job.AddError(msg)
	job.SetStatus(StatusFailed)
}
