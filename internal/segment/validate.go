package segment

import (
	"strings"
	"unicode/utf8"
)

// titleDenylist holds trimmed headings that are never chapter starts:
// tables of contents and format tags some text converters prepend.
// Compared lowercased.
var titleDenylist = map[string]struct{}{
	"目录":                {},
	"目　录":               {},
	"contents":          {},
	"table of contents": {},
	"txt":               {},
	"正文":                {},
}

// densityRefilterTitleMax caps the title length (in runes) kept by the
// density guard's strict refilter.
const densityRefilterTitleMax = 20

// validateCandidates turns raw scanner output into the final ordered
// boundary list. Input must already be sorted by offset.
func validateCandidates(cands []Candidate, docLen int, cfg Config) []Candidate {
	cands = dedupeByOffset(cands)
	cands = dropDenylisted(cands)
	cands = densityGuard(cands, cfg)
	cands = headerZoneGuard(cands, docLen, cfg)
	return cands
}

// dedupeByOffset collapses candidates sharing an offset. Duplicates
// arise from overlapping scan windows and from multiple rules matching
// the same line. The longer title wins so a heading truncated at a
// chunk seam loses to its complete twin from the overlapping window;
// on equal length the first (higher-priority rule) wins.
func dedupeByOffset(cands []Candidate) []Candidate {
	out := cands[:0]
	for _, c := range cands {
		if len(out) > 0 && out[len(out)-1].Offset == c.Offset {
			if len(c.Title) > len(out[len(out)-1].Title) {
				out[len(out)-1] = c
			}
			continue
		}
		out = append(out, c)
	}
	return out
}

func dropDenylisted(cands []Candidate) []Candidate {
	out := cands[:0]
	for _, c := range cands {
		key := strings.ToLower(strings.TrimSpace(c.Title))
		if _, banned := titleDenylist[key]; banned {
			continue
		}
		out = append(out, c)
	}
	return out
}

// densityGuard defends against a pathological document where a loose
// rule matches almost every line. When candidates are implausibly
// frequent, only matches of the strictest whole-line numbered forms
// with short titles survive.
func densityGuard(cands []Candidate, cfg Config) []Candidate {
	if cfg.DensityMaxCandidates <= 0 || len(cands) <= cfg.DensityMaxCandidates {
		return cands
	}
	span := cands[len(cands)-1].Offset - cands[0].Offset
	meanGap := span / (len(cands) - 1)
	if meanGap >= cfg.DensityMinGap {
		return cands
	}

	out := cands[:0]
	for _, c := range cands {
		if !c.Strict {
			continue
		}
		if c.Category != CategoryNumeral && c.Category != CategoryWestern {
			continue
		}
		if utf8.RuneCountInString(c.Title) > densityRefilterTitleMax {
			continue
		}
		out = append(out, c)
	}
	return out
}

// headerZoneGuard holds candidates in the first few percent of the
// document to a stricter test: front matter and tables of contents
// concentrate there, so only headings carrying an explicit
// numeral+unit marker are trusted.
func headerZoneGuard(cands []Candidate, docLen int, cfg Config) []Candidate {
	if cfg.HeaderZonePercent <= 0 {
		return cands
	}
	zone := docLen * cfg.HeaderZonePercent / 100
	out := cands[:0]
	for _, c := range cands {
		if c.Offset < zone && !HasNumeralUnit(c.Title) {
			continue
		}
		out = append(out, c)
	}
	return out
}
