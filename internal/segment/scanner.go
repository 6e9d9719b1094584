package segment

import (
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Candidate is a detected boundary position prior to validation. The
// offset is a document-global byte offset; the title is the matched
// heading text, trimmed.
type Candidate struct {
	Title    string
	Offset   int
	Rule     string
	Category Category
	Strict   bool
}

// maxChunkScanners bounds the scan fan-out. Chunks are independent, so
// they may be scanned concurrently as long as candidates are globally
// sorted afterward.
const maxChunkScanners = 4

// scanChunks applies every rule to every chunk and returns candidates
// sorted by global offset. report is called with the cumulative number
// of bytes scanned; it must be safe for concurrent use. When the guard
// trips, whatever has been accumulated so far is returned.
func scanChunks(text string, chunks []Chunk, rules []Rule, g *guard, report func(bytesDone int)) []Candidate {
	if len(chunks) == 0 || len(rules) == 0 {
		return nil
	}

	perChunk := make([][]Candidate, len(chunks))
	var done atomic.Int64

	if len(chunks) == 1 {
		perChunk[0] = scanChunk(text, chunks[0], rules, g)
		report(chunks[0].End - chunks[0].Start)
	} else {
		eg := new(errgroup.Group)
		eg.SetLimit(maxChunkScanners)
		for i, c := range chunks {
			eg.Go(func() error {
				perChunk[i] = scanChunk(text, c, rules, g)
				report(int(done.Add(int64(c.End - c.Start))))
				return nil
			})
		}
		_ = eg.Wait()
	}

	var out []Candidate
	for _, cands := range perChunk {
		out = append(out, cands...)
	}
	// Stable keeps rule priority order for equal offsets; the
	// validator later collapses those duplicates.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// scanChunk runs every rule against one chunk, converting match
// offsets to document-global offsets. The guard is polled between rule
// passes so a stuck scan aborts at the next rule boundary.
func scanChunk(text string, c Chunk, rules []Rule, g *guard) []Candidate {
	seg := text[c.Start:c.End]
	// When no newline fell inside the planner's lookback the chunk
	// begins mid-line. A ^-anchored match at the slice start is then an
	// artifact of the cut, not a heading at a line start, and must not
	// become a candidate.
	midLineStart := c.Start > 0 && text[c.Start-1] != '\n'
	var out []Candidate
	for _, r := range rules {
		if g.stopped() {
			return out
		}
		for _, loc := range r.re.FindAllStringIndex(seg, -1) {
			if midLineStart && loc[0] == 0 {
				continue
			}
			title := strings.TrimSpace(seg[loc[0]:loc[1]])
			if title == "" {
				continue
			}
			out = append(out, Candidate{
				Title:    title,
				Offset:   c.Start + loc[0],
				Rule:     r.Name,
				Category: r.Category,
				Strict:   r.Strict,
			})
		}
	}
	return out
}
