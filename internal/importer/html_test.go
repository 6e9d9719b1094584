package importer

import (
	"strings"
	"testing"
)

func TestHTMLImporter_ExtractsBlocks(t *testing.T) {
	input := `<html><head><title>书名</title><style>p{color:red}</style></head>
<body>
<nav><p>导航</p></nav>
<h1>第一章 开始</h1>
<p>第一段内容。</p>
<p>第二段内容。</p>
<script>alert(1)</script>
</body></html>`

	imp := &HTMLImporter{}
	got, err := imp.Import(strings.NewReader(input), "novel.html")
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if got.Title != "书名" {
		t.Errorf("title = %q, want %q", got.Title, "书名")
	}
	want := "第一章 开始\n\n第一段内容。\n\n第二段内容。"
	if got.Content != want {
		t.Errorf("content = %q, want %q", got.Content, want)
	}
}

func TestHTMLImporter_TitleFallsBackToFilename(t *testing.T) {
	imp := &HTMLImporter{}
	got, err := imp.Import(strings.NewReader("<p>内容</p>"), "story.htm")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if got.Title != "story" {
		t.Errorf("title = %q, want %q", got.Title, "story")
	}
	if got.Content != "内容" {
		t.Errorf("content = %q", got.Content)
	}
}
