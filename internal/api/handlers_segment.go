package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleSegment queues segmentation for a document. If a run for the
// same document is already in flight the caller joins it.
func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	doc, err := s.store.GetDocument(docID)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	job, joined, err := s.orchestrator.Submit(docID)
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := job.Snapshot()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   snap.ID,
		"doc_id":   snap.DocumentID,
		"status":   snap.Status,
		"joined":   joined,
		"poll_url": fmt.Sprintf("/api/segment/%s/status", snap.ID),
	})
}

// handleJobStatus reports job progress and, once finished, the chapter
// list.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	snap := job.Snapshot()
	resp := map[string]any{
		"job_id":   snap.ID,
		"doc_id":   snap.DocumentID,
		"status":   snap.Status,
		"progress": snap.Progress,
	}
	if snap.Status.Done() {
		if chapters := job.Chapters(); chapters != nil {
			resp["chapters"] = chapters
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleJobCancel requests cooperative cancellation of a running job.
func (s *Server) handleJobCancel(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	job.Cancel()
	writeJSON(w, http.StatusAccepted, map[string]any{"job_id": jobID, "status": job.Snapshot().Status})
}

// handleGetChapters is the cache-only lookup: it returns the stored
// chapter list without ever triggering computation.
func (s *Server) handleGetChapters(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	chapters, err := s.store.LoadChapters(docID)
	if err != nil {
		jsonError(w, "load chapters: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if chapters == nil {
		jsonError(w, "no chapters cached for document", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":   docID,
		"chapters": chapters,
	})
}

// handleClearChapters drops the cached chapter list for a document.
func (s *Server) handleClearChapters(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := s.store.ClearChapters(docID); err != nil {
		jsonError(w, "clear chapters: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Drop the back-reference on the document as well.
	doc, err := s.store.GetDocument(docID)
	if err == nil && doc != nil && len(doc.ChapterIDs) > 0 {
		doc.ChapterIDs = nil
		if err := s.store.PutDocument(doc); err != nil {
			s.log.Warn("failed to clear chapter back-reference", "document_id", docID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"cleared": docID})
}
