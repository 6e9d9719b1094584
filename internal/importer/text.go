package importer

import (
	"bufio"
	"io"
	"strings"
)

// TextImporter handles plain text files. Content passes through with
// paragraph spacing normalized; txt is the dominant format for the
// novels this service segments.
type TextImporter struct{}

func (p *TextImporter) Import(r io.Reader, filename string) (*Imported, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var blocks []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				blocks = append(blocks, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		blocks = append(blocks, current.String())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Imported{
		Title:   titleFromFilename(filename),
		Content: joinBlocks(blocks),
	}, nil
}
