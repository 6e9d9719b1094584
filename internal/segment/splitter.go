package segment

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lexreader/chapterd/internal/book"
)

// splitOversized post-processes the built chapter list, replacing any
// chapter longer than cfg.MaxChapterBytes with an ordered run of
// sub-chapters of roughly cfg.SplitTargetBytes each. Other chapters
// pass through untouched, so sibling contiguity is preserved.
func splitOversized(content string, chapters []book.Chapter, cfg Config) []book.Chapter {
	if cfg.MaxChapterBytes <= 0 || cfg.SplitTargetBytes <= 0 {
		return chapters
	}
	out := make([]book.Chapter, 0, len(chapters))
	for _, ch := range chapters {
		if ch.Len() <= cfg.MaxChapterBytes {
			out = append(out, ch)
			continue
		}
		out = append(out, splitChapter(content, ch, cfg)...)
	}
	return out
}

// splitChapter cuts one oversized chapter into parts. Every part gets
// a fresh identifier, a derived title and offsets in the original
// document's coordinate space.
func splitChapter(content string, ch book.Chapter, cfg Config) []book.Chapter {
	var parts []book.Chapter
	start := ch.StartOffset
	for n := 1; start < ch.EndOffset; n++ {
		end := splitPoint(content, start+cfg.SplitTargetBytes, ch.EndOffset, cfg.SplitLookahead)
		if end <= start {
			end = ch.EndOffset
		}
		title := fmt.Sprintf("%s（%d）", ch.Title, n)
		part := book.NewChapter(title, ch.DocumentID, start, end)
		part.ListID = ch.ListID
		parts = append(parts, part)
		start = end
	}
	return parts
}

// splitPoint picks a cut offset at or after target, never past limit.
// It prefers a paragraph break within the lookahead window, then a
// sentence terminator followed by whitespace, and otherwise cuts at
// the target itself (aligned to a rune boundary so no character is
// torn in half).
func splitPoint(content string, target, limit, lookahead int) int {
	if target >= limit {
		return limit
	}
	target = alignDown(content, target)

	windowEnd := target + lookahead
	if windowEnd > limit {
		windowEnd = limit
	}
	window := content[target:windowEnd]

	if i := strings.Index(window, "\n\n"); i >= 0 {
		return target + i + 2
	}

	for i, r := range window {
		if !isSentenceTerminator(r) {
			continue
		}
		after := i + utf8.RuneLen(r)
		if after >= len(window) {
			break
		}
		next, _ := utf8.DecodeRuneInString(window[after:])
		if unicode.IsSpace(next) {
			return target + after
		}
	}

	return target
}

func isSentenceTerminator(r rune) bool {
	switch r {
	case '。', '！', '？', '.', '!', '?':
		return true
	}
	return false
}
