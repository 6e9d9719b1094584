package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lexreader/chapterd/internal/book"
	"github.com/lexreader/chapterd/internal/importer"
	"github.com/lexreader/chapterd/internal/pipeline"
)

// handleImport accepts one uploaded file, decodes it and stores the
// resulting document.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	doc, errMsg, code := s.importOne(file, header.Filename, r.FormValue("title"), r.FormValue("doc_id"))
	if errMsg != "" {
		jsonError(w, errMsg, code)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"doc_id":   doc.ID,
		"title":    doc.Title,
		"filename": doc.Filename,
		"length":   doc.Length(),
	})
}

// handleBatchImport accepts several files in one request. Per-file
// failures are reported inline so one bad file does not sink the rest.
func (s *Server) handleBatchImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	var results []map[string]any
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			results = append(results, map[string]any{"filename": fh.Filename, "error": "failed to open file"})
			continue
		}
		doc, errMsg, _ := s.importOne(f, fh.Filename, "", "")
		f.Close()
		if errMsg != "" {
			results = append(results, map[string]any{"filename": fh.Filename, "error": errMsg})
			continue
		}
		results = append(results, map[string]any{
			"filename": doc.Filename,
			"doc_id":   doc.ID,
			"title":    doc.Title,
			"length":   doc.Length(),
		})
	}

	writeJSON(w, http.StatusCreated, map[string]any{"documents": results})
}

// importOne reads, decodes and persists a single uploaded file.
func (s *Server) importOne(file multipart.File, rawName, title, docID string) (*book.Document, string, int) {
	filename := sanitizeFilename(rawName)
	if !importer.IsSupportedExtension(filename) {
		return nil, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, "failed to read file", http.StatusInternalServerError
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge
	}

	imp, err := importer.ForFile(filename)
	if err != nil {
		return nil, err.Error(), http.StatusBadRequest
	}
	if p, ok := imp.(*importer.PDFImporter); ok {
		p.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}

	imported, err := imp.Import(bytes.NewReader(data), filename)
	if err != nil {
		return nil, "import failed: "+err.Error(), http.StatusUnprocessableEntity
	}

	if docID == "" {
		docID = pipeline.ContentHashHex(data)[:16]
	}
	if title == "" {
		title = imported.Title
	}

	doc := &book.Document{
		ID:        docID,
		Title:     title,
		Filename:  filename,
		Content:   imported.Content,
		CreatedAt: time.Now(),
	}
	if err := s.store.PutDocument(doc); err != nil {
		return nil, "store document: "+err.Error(), http.StatusInternalServerError
	}
	return doc, "", 0
}

// handleListDocuments lists all stored documents (without content).
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments()
	if err != nil {
		jsonError(w, "list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleGetDocument returns one document's metadata.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":      doc.ID,
		"title":       doc.Title,
		"filename":    doc.Filename,
		"length":      doc.Length(),
		"chapter_ids": doc.ChapterIDs,
		"created_at":  doc.CreatedAt,
	})
}

// handleDeleteDocument removes a document together with its cached
// chapters and group registration.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := s.store.DeleteDocument(docID); err != nil {
		jsonError(w, "delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": docID})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
