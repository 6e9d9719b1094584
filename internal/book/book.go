// Package book holds the shared document and chapter types.
// It has no dependencies on other chapterd packages.
package book

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document is an imported text with its derived chapter identifiers.
// Segmentation reads Content and writes back ChapterIDs; it never
// mutates the text itself.
type Document struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Filename   string    `json:"filename,omitempty"`
	Content    string    `json:"content"`
	ChapterIDs []string  `json:"chapter_ids,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Length returns the document length in bytes. All chapter offsets
// index into Content in this coordinate space.
func (d *Document) Length() int {
	return len(d.Content)
}

// Chapter is a half-open [StartOffset, EndOffset) slice of its
// document's content. Chapters belonging to one document are
// contiguous, non-overlapping and ordered by StartOffset.
type Chapter struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	DocumentID  string `json:"document_id"`
	ListID      string `json:"list_id"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

// NewChapter creates a chapter with a fresh process-unique identifier.
// ListID always equals DocumentID: chapters are exposed through the
// same grouping as their parent document.
func NewChapter(title, documentID string, start, end int) Chapter {
	return Chapter{
		ID:          uuid.NewString(),
		Title:       title,
		DocumentID:  documentID,
		ListID:      documentID,
		StartOffset: start,
		EndOffset:   end,
	}
}

// Content returns the chapter's slice of the document text.
func (c Chapter) Content(document string) string {
	if c.StartOffset < 0 || c.EndOffset > len(document) || c.StartOffset > c.EndOffset {
		return ""
	}
	return document[c.StartOffset:c.EndOffset]
}

// Len returns the chapter span length in bytes.
func (c Chapter) Len() int {
	return c.EndOffset - c.StartOffset
}

// Validate checks the structural invariants of a final chapter list:
// spans inside [0, docLen), full coverage, contiguity, ascending order
// and unique identifiers. An error here is a programming bug upstream,
// not bad input.
func Validate(chapters []Chapter, docLen int) error {
	if len(chapters) == 0 {
		return fmt.Errorf("empty chapter list")
	}
	seen := make(map[string]struct{}, len(chapters))
	for i, ch := range chapters {
		if ch.ID == "" {
			return fmt.Errorf("chapter %d: missing id", i)
		}
		if _, dup := seen[ch.ID]; dup {
			return fmt.Errorf("chapter %d: duplicate id %s", i, ch.ID)
		}
		seen[ch.ID] = struct{}{}
		if ch.StartOffset < 0 || ch.EndOffset > docLen || ch.StartOffset > ch.EndOffset {
			return fmt.Errorf("chapter %d: span [%d,%d) outside document of length %d", i, ch.StartOffset, ch.EndOffset, docLen)
		}
		if i == 0 && ch.StartOffset != 0 {
			return fmt.Errorf("first chapter starts at %d, want 0", ch.StartOffset)
		}
		if i > 0 && ch.StartOffset != chapters[i-1].EndOffset {
			return fmt.Errorf("chapter %d: start %d does not continue previous end %d", i, ch.StartOffset, chapters[i-1].EndOffset)
		}
	}
	if last := chapters[len(chapters)-1]; last.EndOffset != docLen {
		return fmt.Errorf("last chapter ends at %d, want %d", last.EndOffset, docLen)
	}
	return nil
}

// RepairDuplicateIDs returns a copy of chapters where every duplicate
// identifier past its first occurrence is reassigned. The second
// return value reports whether anything changed; the caller decides
// whether to persist the repaired list.
func RepairDuplicateIDs(chapters []Chapter) ([]Chapter, bool) {
	out := make([]Chapter, len(chapters))
	copy(out, chapters)

	seen := make(map[string]struct{}, len(out))
	changed := false
	for i := range out {
		if _, dup := seen[out[i].ID]; dup || out[i].ID == "" {
			out[i].ID = uuid.NewString()
			changed = true
		}
		seen[out[i].ID] = struct{}{}
	}
	return out, changed
}
