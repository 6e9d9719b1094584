package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lexreader/chapterd/internal/config"
	"github.com/lexreader/chapterd/internal/pipeline"
	"github.com/lexreader/chapterd/internal/segment"
	"github.com/lexreader/chapterd/internal/store"
)

const testAPIKey = "test-key"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.Config{
		APIKey:         testAPIKey,
		WorkerCount:    2,
		MaxQueueSize:   10,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,

		LargeFileThreshold:   500_000,
		ScanChunkSize:        300_000,
		ChunkLookback:        100,
		SegmentTimeout:       10 * time.Second,
		MaxChapterBytes:      15_000,
		SplitTargetBytes:     5_000,
		SplitLookahead:       200,
		MinChapterBytes:      10,
		BatchSize:            20,
		DensityMaxCandidates: 300,
		DensityMinGap:        200,
		HeaderZonePercent:    5,
	}

	seg := segment.New(cfg.SegmentConfig(), log)
	orch := pipeline.NewOrchestrator(st, seg, log, cfg.WorkerCount, cfg.MaxQueueSize, cfg.JobTTL)
	ctx, cancel := context.WithCancel(context.Background())
	orch.Start(ctx)
	t.Cleanup(func() {
		cancel()
		orch.Stop()
	})

	return NewServer(orch, st, log, cfg)
}

func doRequest(t *testing.T, srv *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func uploadTxt(t *testing.T, srv *Server, filename, content string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := doRequest(t, srv, http.MethodPost, "/api/documents", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeJSON(t, w)["doc_id"].(string)
}

func waitForCompletion(t *testing.T, srv *Server, jobID string) map[string]any {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("job did not finish")
		case <-time.After(10 * time.Millisecond):
		}
		w := doRequest(t, srv, http.MethodGet, "/api/segment/"+jobID+"/status", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeJSON(t, w)
		switch resp["status"].(string) {
		case "completed":
			return resp
		case "failed", "canceled":
			t.Fatalf("job ended as %s: %v", resp["status"], resp)
		}
	}
}

func TestHealth_IsPublic(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ok")
}

func TestAuth_RejectsMissingAndWrongKeys(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty token", "Bearer "},
		{"wrong key", "Bearer wrong"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, req)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			require.Contains(t, decodeJSON(t, w), "error", "rejections carry a JSON error body")
		})
	}
}

func TestImportSegmentAndFetchChapters(t *testing.T) {
	srv := newTestServer(t)

	content := "第一章 开始\n" + strings.Repeat("正文内容。", 30) +
		"\n第二章 结束\n" + strings.Repeat("正文内容。", 30)
	docID := uploadTxt(t, srv, "novel.txt", content)

	// Chapters are cache-only until a segmentation run finishes.
	w := doRequest(t, srv, http.MethodGet, "/api/documents/"+docID+"/chapters", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, srv, http.MethodPost, "/api/documents/"+docID+"/segment", nil, "")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	jobID := decodeJSON(t, w)["job_id"].(string)

	status := waitForCompletion(t, srv, jobID)
	chapters := status["chapters"].([]any)
	require.Len(t, chapters, 2)

	w = doRequest(t, srv, http.MethodGet, "/api/documents/"+docID+"/chapters", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON(t, w)
	require.Len(t, resp["chapters"].([]any), 2)

	// Document metadata carries the chapter ids.
	w = doRequest(t, srv, http.MethodGet, "/api/documents/"+docID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	doc := decodeJSON(t, w)
	require.Len(t, doc["chapter_ids"].([]any), 2)
}

func TestClearChapters(t *testing.T) {
	srv := newTestServer(t)

	content := "第一章 开始\n" + strings.Repeat("正文内容。", 30)
	docID := uploadTxt(t, srv, "novel.txt", content)

	w := doRequest(t, srv, http.MethodPost, "/api/documents/"+docID+"/segment", nil, "")
	require.Equal(t, http.StatusAccepted, w.Code)
	waitForCompletion(t, srv, decodeJSON(t, w)["job_id"].(string))

	w = doRequest(t, srv, http.MethodDelete, "/api/documents/"+docID+"/chapters", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/api/documents/"+docID+"/chapters", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSegment_UnknownDocument(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv, http.MethodPost, "/api/documents/ghost/segment", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestJobStatus_UnknownJob(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv, http.MethodGet, "/api/segment/ghost/status", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestImport_RejectsUnsupportedExtension(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "malware.exe")
	require.NoError(t, err)
	_, err = fw.Write([]byte("MZ"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := doRequest(t, srv, http.MethodPost, "/api/documents", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchImport_ReportsPerFileErrors(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	good, err := mw.CreateFormFile("files", "good.txt")
	require.NoError(t, err)
	_, err = good.Write([]byte("第一章 开始\n内容。"))
	require.NoError(t, err)
	bad, err := mw.CreateFormFile("files", "bad.exe")
	require.NoError(t, err)
	_, err = bad.Write([]byte("MZ"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := doRequest(t, srv, http.MethodPost, "/api/documents/batch", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, w.Code)

	docs := decodeJSON(t, w)["documents"].([]any)
	require.Len(t, docs, 2)
	first := docs[0].(map[string]any)
	second := docs[1].(map[string]any)
	require.NotEmpty(t, first["doc_id"])
	require.NotEmpty(t, second["error"])
}

func TestDeleteDocument_RemovesEverything(t *testing.T) {
	srv := newTestServer(t)

	content := "第一章 开始\n" + strings.Repeat("正文内容。", 30)
	docID := uploadTxt(t, srv, "novel.txt", content)

	w := doRequest(t, srv, http.MethodPost, "/api/documents/"+docID+"/segment", nil, "")
	require.Equal(t, http.StatusAccepted, w.Code)
	waitForCompletion(t, srv, decodeJSON(t, w)["job_id"].(string))

	w = doRequest(t, srv, http.MethodDelete, "/api/documents/"+docID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/api/documents/"+docID, nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	w = doRequest(t, srv, http.MethodGet, "/api/documents/"+docID+"/chapters", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}
