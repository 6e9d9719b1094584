// Package segment implements the chapter segmentation engine: a
// pipeline that detects chapter-boundary headings in raw text with
// layered heuristics, processes arbitrarily large documents in bounded
// chunks, degrades to a single whole-document chapter under a
// wall-clock budget, and always yields a contiguous, uniquely
// identified chapter sequence.
package segment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lexreader/chapterd/internal/book"
)

// ErrNoDocument is returned when segmentation is requested for a
// document that no longer exists. It is the only hard failure the
// pipeline surfaces; every other condition degrades to a valid result.
var ErrNoDocument = errors.New("segment: document unavailable")

// Config carries the pipeline thresholds. All of them are tunable
// through the service configuration.
type Config struct {
	// LargeFileThreshold is the document size above which scanning
	// switches to chunked processing.
	LargeFileThreshold int
	// ScanChunkSize is the chunk window size for large documents.
	ScanChunkSize int
	// ChunkLookback bounds the backward newline search when aligning
	// chunk starts.
	ChunkLookback int
	// Timeout is the wall-clock budget for one segmentation run. Zero
	// disables the deadline.
	Timeout time.Duration
	// MaxChapterBytes is the largest chapter the downstream consumers
	// accept; longer chapters are split.
	MaxChapterBytes int
	// SplitTargetBytes is the target size of split parts.
	SplitTargetBytes int
	// SplitLookahead bounds the paragraph/sentence search from a
	// target cut offset.
	SplitLookahead int
	// MinChapterBytes rejects would-be chapters with less content.
	MinChapterBytes int
	// BatchSize is the chapter construction batch between guard polls
	// and progress reports. It never changes the output.
	BatchSize int
	// DensityMaxCandidates and DensityMinGap drive the density guard.
	DensityMaxCandidates int
	DensityMinGap        int
	// HeaderZonePercent is the leading fraction of the document held
	// to the stricter numeral+unit test.
	HeaderZonePercent int
	// LoosePatternFallback enables a second scan with the
	// low-confidence numbered-line rule when the strict catalog finds
	// nothing.
	LoosePatternFallback bool
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		LargeFileThreshold:   500_000,
		ScanChunkSize:        300_000,
		ChunkLookback:        100,
		Timeout:              60 * time.Second,
		MaxChapterBytes:      15_000,
		SplitTargetBytes:     5_000,
		SplitLookahead:       200,
		MinChapterBytes:      10,
		BatchSize:            20,
		DensityMaxCandidates: 300,
		DensityMinGap:        200,
		HeaderZonePercent:    5,
	}
}

// Progress is one progress notification. Percent is monotonically
// non-decreasing within a run: scanning owns 0–50, chapter
// construction 50–100.
type Progress struct {
	Percent int
	Elapsed time.Duration
}

// Segmenter runs the segmentation pipeline. It is stateless across
// runs and safe for concurrent use.
type Segmenter struct {
	cfg        Config
	rules      []Rule
	loose      []Rule
	compileErr error
	log        *slog.Logger
}

// New compiles the pattern catalog. A malformed catalog is not fatal:
// the segmenter stays usable and every run degrades to the
// whole-document fallback chapter.
func New(cfg Config, log *slog.Logger) *Segmenter {
	s := &Segmenter{cfg: cfg, log: log}
	s.rules, s.loose, s.compileErr = Catalog()
	if s.compileErr != nil {
		log.Error("pattern catalog failed to compile, falling back to whole-document chapters", "error", s.compileErr)
	}
	return s
}

// Segment splits the document into chapters. It always returns at
// least one chapter covering the whole document, even on timeout,
// cancellation or heuristic failure; the only error case is a missing
// document. onProgress may be nil and is called from multiple
// goroutines via an internal serializer.
func (s *Segmenter) Segment(ctx context.Context, doc *book.Document, onProgress func(Progress)) ([]book.Chapter, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}

	start := time.Now()
	g := newGuard(ctx, start, s.cfg.Timeout)
	report := newProgressReporter(start, onProgress)

	content := doc.Content
	n := len(content)

	if strings.TrimSpace(content) == "" || s.compileErr != nil {
		report(100)
		return []book.Chapter{fallbackChapter(doc)}, nil
	}

	chunks := planChunks(content, s.cfg.LargeFileThreshold, s.cfg.ScanChunkSize, s.cfg.ChunkLookback)

	cands := scanChunks(content, chunks, s.rules, g, func(bytesDone int) {
		report(scanPercent(bytesDone, n))
	})
	if len(cands) == 0 && s.cfg.LoosePatternFallback && len(s.loose) > 0 && !g.stopped() {
		cands = scanChunks(content, chunks, s.loose, g, func(bytesDone int) {
			report(scanPercent(bytesDone, n))
		})
	}
	report(50)

	cands = validateCandidates(cands, n, s.cfg)

	chapters := buildChapters(doc, cands, g, s.cfg, func(built, total int) {
		if total > 0 {
			report(50 + built*50/total)
		}
	})
	chapters = splitOversized(content, chapters, s.cfg)

	if err := book.Validate(chapters, n); err != nil {
		// Invariant violation is a bug, not bad input. Absorb it into
		// the closest valid result rather than crashing the caller.
		s.log.Error("chapter invariant violated, using fallback", "document_id", doc.ID, "error", err)
		chapters = []book.Chapter{fallbackChapter(doc)}
	}

	report(100)
	s.log.Info("segmentation complete",
		"document_id", doc.ID,
		"chapters", len(chapters),
		"bytes", n,
		"duration_ms", time.Since(start).Milliseconds(),
		"timed_out", g.stopped(),
	)
	return chapters, nil
}

// scanPercent maps scanned bytes onto the 0–50 progress range; the
// remaining half of the scale belongs to chapter construction.
func scanPercent(done, total int) int {
	if total <= 0 {
		return 50
	}
	p := done * 50 / total
	if p > 50 {
		p = 50
	}
	return p
}

// newProgressReporter serializes progress callbacks and clamps them to
// be monotonically non-decreasing, so concurrent chunk scanners cannot
// make the percentage move backward.
func newProgressReporter(start time.Time, onProgress func(Progress)) func(percent int) {
	if onProgress == nil {
		return func(int) {}
	}
	var mu sync.Mutex
	last := -1
	return func(percent int) {
		mu.Lock()
		defer mu.Unlock()
		if percent <= last {
			return
		}
		last = percent
		onProgress(Progress{Percent: percent, Elapsed: time.Since(start)})
	}
}
