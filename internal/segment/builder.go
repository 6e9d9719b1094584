package segment

import (
	"strings"

	"github.com/lexreader/chapterd/internal/book"
)

// Synthesized titles for chapters without a matched heading.
const (
	TitleFullContent = "全部内容"
	TitlePreface     = "前言"
)

// fallbackChapter spans the whole document. It is the result for
// boundary-free documents and the hard floor the timeout guard
// degrades to.
func fallbackChapter(doc *book.Document) book.Chapter {
	return book.NewChapter(TitleFullContent, doc.ID, 0, doc.Length())
}

// buildChapters converts the validated boundary list into contiguous
// chapter records. Construction runs in batches purely so progress can
// be reported and the guard polled; the output is identical for any
// batch size. When the guard trips mid-build, committed chapters are
// kept, the last one is extended to the document end, and nothing
// further is appended.
func buildChapters(doc *book.Document, cands []Candidate, g *guard, cfg Config, report func(built, total int)) []book.Chapter {
	n := doc.Length()
	if len(cands) == 0 || n == 0 {
		return []book.Chapter{fallbackChapter(doc)}
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 1
	}

	var chapters []book.Chapter
	if first := cands[0].Offset; first > 0 {
		// A blank preface span is absorbed into the first real chapter
		// by mergeSmall below instead of becoming an empty chapter.
		chapters = append(chapters, book.NewChapter(TitlePreface, doc.ID, 0, first))
	}

	total := len(cands)
	aborted := false
	built := 0
	for i := 0; i < total; i++ {
		if i%batch == 0 {
			if g.stopped() {
				aborted = true
				break
			}
			report(i, total)
		}
		end := n
		if i+1 < total {
			end = cands[i+1].Offset
		}
		chapters = append(chapters, book.NewChapter(cands[i].Title, doc.ID, cands[i].Offset, end))
		built++
	}

	if aborted {
		if built == 0 {
			// Nothing but the synthesized preface (if any) was
			// committed; a whole-document preface would be misleading.
			return []book.Chapter{fallbackChapter(doc)}
		}
		chapters[len(chapters)-1].EndOffset = n
	}

	chapters = mergeSmall(chapters, doc.Content, cfg.MinChapterBytes)
	if len(chapters) == 0 {
		return []book.Chapter{fallbackChapter(doc)}
	}
	report(total, total)
	return chapters
}

// mergeSmall drops chapters whose content is shorter than min bytes or
// pure whitespace, folding their span into the next surviving chapter
// (or backward into the previous one at the tail) so total document
// coverage is preserved.
func mergeSmall(chapters []book.Chapter, content string, min int) []book.Chapter {
	var out []book.Chapter
	pendingStart := -1
	for _, ch := range chapters {
		seg := content[ch.StartOffset:ch.EndOffset]
		if ch.Len() < min || strings.TrimSpace(seg) == "" {
			if pendingStart < 0 {
				pendingStart = ch.StartOffset
			}
			continue
		}
		if pendingStart >= 0 {
			ch.StartOffset = pendingStart
			pendingStart = -1
		}
		out = append(out, ch)
	}
	if pendingStart >= 0 && len(out) > 0 {
		out[len(out)-1].EndOffset = chapters[len(chapters)-1].EndOffset
	}
	return out
}
