package importer

import (
	"fmt"
	"io"
	"os"

	"github.com/fumiama/go-docx"
)

// DOCXImporter handles .docx files. Every paragraph becomes one text
// block; heading styles need no special casing because the
// segmentation heuristics work on the text itself.
type DOCXImporter struct{}

func (p *DOCXImporter) Import(r io.Reader, filename string) (*Imported, error) {
	// go-docx needs a ReadSeeker+size, so spool to a temp file.
	tmpPath, cleanup, err := spoolTemp(r, "chapterd-docx-*.docx")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	f, err := os.Open(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("open temp file: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat temp file: %w", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var blocks []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		if text := paragraphText(para); text != "" {
			blocks = append(blocks, text)
		}
	}

	return &Imported{
		Title:   titleFromFilename(filename),
		Content: joinBlocks(blocks),
	}, nil
}

func paragraphText(para *docx.Paragraph) string {
	var buf []byte
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf = append(buf, t.Text...)
			}
		}
	}
	return string(buf)
}
