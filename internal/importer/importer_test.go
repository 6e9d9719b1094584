package importer

import "testing"

func TestForFile_Dispatch(t *testing.T) {
	cases := []struct {
		filename string
		wantErr  bool
	}{
		{"book.txt", false},
		{"book.md", false},
		{"book.MARKDOWN", false},
		{"book.html", false},
		{"book.pdf", false},
		{"book.docx", false},
		{"book.epub", false},
		{"book.exe", true},
		{"book", true},
	}
	for _, c := range cases {
		_, err := ForFile(c.filename)
		if (err != nil) != c.wantErr {
			t.Errorf("ForFile(%q) err = %v, wantErr %v", c.filename, err, c.wantErr)
		}
	}
}

func TestIsSupportedExtension(t *testing.T) {
	if !IsSupportedExtension("A.TXT") {
		t.Error("extension check should be case-insensitive")
	}
	if IsSupportedExtension("archive.zip") {
		t.Error("zip should not be supported")
	}
}

func TestTitleFromFilename(t *testing.T) {
	cases := map[string]string{
		"我的小说.txt":     "我的小说",
		"dir/novel.md":  "novel",
		"no-extension":  "no-extension",
		"dots.in.name.txt": "dots.in.name",
	}
	for in, want := range cases {
		if got := titleFromFilename(in); got != want {
			t.Errorf("titleFromFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
