package segment

import "unicode/utf8"

// Chunk is a half-open byte window of the document processed
// independently by the scanner.
type Chunk struct {
	Start int
	End   int
}

// planChunks partitions a document into scan windows. Documents at or
// below threshold are scanned whole. Larger documents are cut into
// windows of size bytes; every window after the first has its start
// pulled back to the nearest preceding line start (bounded by
// lookback) so a heading straddling the seam is not truncated.
// Windows may therefore overlap by up to lookback bytes; the
// validator deduplicates boundaries detected twice by offset equality.
func planChunks(text string, threshold, size, lookback int) []Chunk {
	n := len(text)
	if n == 0 {
		return nil
	}
	if n <= threshold || size <= 0 {
		return []Chunk{{Start: 0, End: n}}
	}

	var chunks []Chunk
	for nominal := 0; nominal < n; nominal += size {
		start := alignDown(text, nominal)
		end := nominal + size
		if end >= n {
			end = n
		} else {
			end = alignDown(text, end)
		}
		if nominal > 0 {
			start = backToLineStart(text, start, lookback)
		}
		if end <= start {
			continue
		}
		chunks = append(chunks, Chunk{Start: start, End: end})
	}
	return chunks
}

// backToLineStart moves pos back to the byte after the nearest
// preceding newline, scanning at most lookback bytes. If no newline is
// found within the window, pos is returned unchanged: a bounded miss
// beats scanning arbitrarily far.
func backToLineStart(text string, pos, lookback int) int {
	limit := pos - lookback
	if limit < 0 {
		limit = 0
	}
	for i := pos - 1; i >= limit; i-- {
		if text[i] == '\n' {
			return i + 1
		}
	}
	return pos
}

// alignDown moves pos back to the nearest UTF-8 rune boundary.
func alignDown(text string, pos int) int {
	if pos >= len(text) {
		return len(text)
	}
	for pos > 0 && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}
