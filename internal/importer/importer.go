// Package importer converts uploaded files into plain document text.
// Headings are kept as their own lines and paragraphs are separated by
// blank lines, which is the shape the segmentation engine's
// line-anchored heuristics expect.
package importer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Imported is the result of decoding one file.
type Imported struct {
	Title   string
	Content string
}

// Importer decodes one file format into flat document text.
type Importer interface {
	Import(r io.Reader, filename string) (*Imported, error)
}

// SupportedExtensions lists file extensions this service can ingest.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
	".epub":     true,
}

// ForFile returns the importer for a filename.
func ForFile(filename string) (Importer, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return &TextImporter{}, nil
	case ".md", ".markdown":
		return &MarkdownImporter{}, nil
	case ".html", ".htm":
		return &HTMLImporter{}, nil
	case ".pdf":
		return &PDFImporter{}, nil
	case ".docx":
		return &DOCXImporter{}, nil
	case ".epub":
		return &EPUBImporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(filename))
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// titleFromFilename derives a document title from the file name stem.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// joinBlocks assembles text blocks into normalized document content:
// one blank line between blocks, no leading or trailing whitespace.
func joinBlocks(blocks []string) string {
	var kept []string
	for _, b := range blocks {
		b = strings.TrimSpace(b)
		if b != "" {
			kept = append(kept, b)
		}
	}
	return strings.Join(kept, "\n\n")
}
