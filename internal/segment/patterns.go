package segment

import (
	"fmt"
	"regexp"
)

// Category classifies a boundary rule by the heading convention it
// recognizes.
type Category int

const (
	// CategoryNumeral matches 第…章/节/回/集/卷/部/篇 style markers.
	CategoryNumeral Category = iota
	// CategoryKeyword matches structural headings without a numeral
	// (前言, 楔子, Prologue, ...).
	CategoryKeyword
	// CategoryWestern matches "Chapter N" / "Part N" markers.
	CategoryWestern
	// CategoryLoose is the low-confidence numbered-line form. It
	// over-triggers on ordinary numbered lists, so it is excluded from
	// the default catalog and only consulted when nothing stricter
	// matched.
	CategoryLoose
)

// RuleSpec is an uncompiled boundary-detection rule. Expr is compiled
// in multiline mode; every rule is anchored at line start.
type RuleSpec struct {
	Name     string
	Category Category
	// Strict rules require the heading to occupy the entire line
	// (optionally followed by a short title). Loose rules only anchor
	// the heading prefix.
	Strict bool
	Expr   string
}

// Rule is a compiled boundary rule. Rules are compiled once and reused
// for every scan; they never mutate.
type Rule struct {
	RuleSpec
	re *regexp.Regexp
}

const cnNumerals = "0-9０-９一二三四五六七八九十百千万零两"

// DefaultRules returns the rule set in matching priority order. The
// loose numbered-line form is listed last and filtered out of the
// default catalog by Catalog.
func DefaultRules() []RuleSpec {
	return []RuleSpec{
		{
			Name:     "cn-chapter-strict",
			Category: CategoryNumeral,
			Strict:   true,
			Expr:     `^[ \t]*第[` + cnNumerals + `]{1,8}[章节回集卷部篇][ \t]*[:：]?[^\n]{0,50}$`,
		},
		{
			Name:     "cn-chapter-loose",
			Category: CategoryNumeral,
			Expr:     `^[ \t]*第[` + cnNumerals + `]{1,8}[章节回集卷部篇][^\n]{0,50}`,
		},
		{
			Name:     "cn-keyword",
			Category: CategoryKeyword,
			Strict:   true,
			Expr:     `^[ \t]*(?:前言|序言|序章|引言|楔子|尾声|终章|后记|番外)[ \t]*[:：]?[^\n]{0,30}$`,
		},
		{
			Name:     "en-keyword",
			Category: CategoryKeyword,
			Strict:   true,
			Expr:     `^[ \t]*(?:Preface|Foreword|Introduction|Prologue|Epilogue|Afterword)[ \t]*[:：]?[^\n]{0,30}$`,
		},
		{
			Name:     "en-chapter",
			Category: CategoryWestern,
			Strict:   true,
			Expr:     `^[ \t]*(?:Chapter|CHAPTER|Part|PART)[ \t]+(?:[0-9]{1,4}|[IVXLCDM]{1,8})\b[^\n]{0,50}$`,
		},
		{
			Name:     "numbered-line",
			Category: CategoryLoose,
			Expr:     `^[ \t]*[0-9]{1,4}[.、，][^\n]{0,40}$`,
		},
	}
}

// Compile compiles a rule set. A single malformed expression fails the
// whole catalog; the segmenter degrades to the fallback chapter in
// that case rather than scanning with a partial rule set.
func Compile(specs []RuleSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for _, s := range specs {
		re, err := regexp.Compile("(?m)" + s.Expr)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", s.Name, err)
		}
		rules = append(rules, Rule{RuleSpec: s, re: re})
	}
	return rules, nil
}

// Catalog compiles the default rule set, split into the strict default
// catalog and the opt-in loose fallback rules.
func Catalog() (defaults, loose []Rule, err error) {
	all, err := Compile(DefaultRules())
	if err != nil {
		return nil, nil, err
	}
	for _, r := range all {
		if r.Category == CategoryLoose {
			loose = append(loose, r)
		} else {
			defaults = append(defaults, r)
		}
	}
	return defaults, loose, nil
}

// numeralUnit recognizes an explicit numeral+unit combination inside a
// candidate title. Candidates in the document's header zone must pass
// this test because tables of contents and front matter produce
// frequent false positives there.
var numeralUnit = regexp.MustCompile(`第[` + cnNumerals + `]{1,8}[章节回集卷部篇]|(?:Chapter|CHAPTER|Part|PART)[ \t]+(?:[0-9]{1,4}|[IVXLCDM]{1,8})`)

// HasNumeralUnit reports whether the title carries a numbered chapter
// marker.
func HasNumeralUnit(title string) bool {
	return numeralUnit.MatchString(title)
}
