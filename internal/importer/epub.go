package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
)

// EPUBImporter handles EPUB files by walking the spine in reading
// order. The spine items' own chapter structure is deliberately not
// trusted: converted ebooks frequently have one item per arbitrary
// file split, so the flat text goes through the same boundary
// detection as everything else.
type EPUBImporter struct{}

func (p *EPUBImporter) Import(r io.Reader, filename string) (*Imported, error) {
	// goreader opens by path, so spool to a temp file.
	tmpPath, cleanup, err := spoolTemp(r, "chapterd-epub-*.epub")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	rc, err := epub.OpenReader(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("no rootfiles found in epub")
	}
	rootfile := rc.Rootfiles[0]

	var blocks []string
	for _, ref := range rootfile.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		item, err := ref.Item.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(item)
		item.Close()
		if err != nil {
			continue
		}
		blocks = append(blocks, spineItemBlocks(string(data))...)
	}

	return &Imported{
		Title:   titleFromFilename(filename),
		Content: joinBlocks(blocks),
	}, nil
}

// spineItemBlocks extracts text blocks from one XHTML spine item,
// reusing the HTML importer's element handling.
func spineItemBlocks(data string) []string {
	doc, err := html.Parse(strings.NewReader(data))
	if err != nil {
		return nil
	}

	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6", "p", "blockquote":
				if t := textContent(n); t != "" {
					blocks = append(blocks, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return blocks
}
