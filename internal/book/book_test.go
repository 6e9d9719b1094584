package book

import (
	"strings"
	"testing"
)

func contiguous(docID string, spans [][2]int) []Chapter {
	var out []Chapter
	for _, s := range spans {
		out = append(out, NewChapter("章", docID, s[0], s[1]))
	}
	return out
}

func TestValidate_AcceptsContiguousList(t *testing.T) {
	chapters := contiguous("d", [][2]int{{0, 100}, {100, 250}, {250, 300}})
	if err := Validate(chapters, 300); err != nil {
		t.Fatalf("valid list rejected: %v", err)
	}
}

func TestValidate_RejectsDefects(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func([]Chapter) []Chapter
		docLen   int
		fragment string
	}{
		{
			name:     "empty list",
			mutate:   func([]Chapter) []Chapter { return nil },
			docLen:   100,
			fragment: "empty",
		},
		{
			name: "gap between chapters",
			mutate: func(ch []Chapter) []Chapter {
				ch[1].StartOffset = 120
				return ch
			},
			docLen:   300,
			fragment: "does not continue",
		},
		{
			name: "first chapter offset",
			mutate: func(ch []Chapter) []Chapter {
				ch[0].StartOffset = 10
				return ch
			},
			docLen:   300,
			fragment: "want 0",
		},
		{
			name: "short coverage",
			mutate: func(ch []Chapter) []Chapter {
				ch[2].EndOffset = 280
				return ch
			},
			docLen:   300,
			fragment: "want 300",
		},
		{
			name: "duplicate id",
			mutate: func(ch []Chapter) []Chapter {
				ch[1].ID = ch[0].ID
				return ch
			},
			docLen:   300,
			fragment: "duplicate id",
		},
		{
			name: "missing id",
			mutate: func(ch []Chapter) []Chapter {
				ch[0].ID = ""
				return ch
			},
			docLen:   300,
			fragment: "missing id",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			chapters := c.mutate(contiguous("d", [][2]int{{0, 100}, {100, 250}, {250, 300}}))
			err := Validate(chapters, c.docLen)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), c.fragment) {
				t.Errorf("error %q does not mention %q", err, c.fragment)
			}
		})
	}
}

func TestRepairDuplicateIDs(t *testing.T) {
	chapters := contiguous("d", [][2]int{{0, 100}, {100, 200}, {200, 300}})
	chapters[1].ID = chapters[0].ID
	chapters[2].ID = ""

	repaired, changed := RepairDuplicateIDs(chapters)
	if !changed {
		t.Fatal("expected changed = true")
	}
	// The original slice must stay untouched.
	if chapters[1].ID != chapters[0].ID {
		t.Error("input slice was mutated")
	}
	seen := map[string]bool{}
	for i, ch := range repaired {
		if ch.ID == "" {
			t.Errorf("chapter %d still has an empty id", i)
		}
		if seen[ch.ID] {
			t.Errorf("chapter %d still duplicates an id", i)
		}
		seen[ch.ID] = true
	}
	if repaired[0].ID != chapters[0].ID {
		t.Error("first occurrence should keep its id")
	}
}

func TestRepairDuplicateIDs_CleanListUnchanged(t *testing.T) {
	chapters := contiguous("d", [][2]int{{0, 100}, {100, 200}})
	repaired, changed := RepairDuplicateIDs(chapters)
	if changed {
		t.Fatal("clean list reported as changed")
	}
	for i := range chapters {
		if repaired[i].ID != chapters[i].ID {
			t.Errorf("chapter %d id changed", i)
		}
	}
}

func TestChapterContent(t *testing.T) {
	doc := "0123456789"
	ch := NewChapter("t", "d", 2, 6)
	if got := ch.Content(doc); got != "2345" {
		t.Errorf("Content = %q, want %q", got, "2345")
	}
	if got := ch.Len(); got != 4 {
		t.Errorf("Len = %d, want 4", got)
	}

	bad := NewChapter("t", "d", 8, 20)
	if got := bad.Content(doc); got != "" {
		t.Errorf("out-of-range Content = %q, want empty", got)
	}
}

func TestNewChapter_LinksDocument(t *testing.T) {
	ch := NewChapter("标题", "doc-9", 0, 10)
	if ch.ID == "" {
		t.Error("missing id")
	}
	if ch.DocumentID != "doc-9" || ch.ListID != "doc-9" {
		t.Errorf("linkage = %q/%q, want doc-9 for both", ch.DocumentID, ch.ListID)
	}
}
