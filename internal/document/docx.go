package document

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"
)

// DOCX reads word/document.xml out of the OOXML package.
type DOCX struct{}

func NewDOCX() *DOCX {
	return &DOCX{}
}

func (DOCX) Extract(_ context.Context, data []byte, _ string) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", ErrInvalidDocument
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", ErrInvalidDocument
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", ErrInvalidDocument
		}

		return parseDocumentXML(content)
	}
	return "", ErrInvalidDocument
}

// wordNS is the WordprocessingML main namespace.
const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// parseDocumentXML collects every w:t in document order, wherever it is
// nested (runs, hyperlinks, tables, content controls). Paragraphs end a
// line; inside a table, cells are separated by tabs and rows by lines.
func parseDocumentXML(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	var out []byte
	inText := false
	cellDepth := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", ErrInvalidDocument
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Space != wordNS {
				continue
			}
			switch el.Name.Local {
			case "t":
				inText = true
			case "tab":
				out = append(out, '\t')
			case "br", "cr":
				out = append(out, '\n')
			case "tc":
				cellDepth++
			}
		case xml.EndElement:
			if el.Name.Space != wordNS {
				continue
			}
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				if cellDepth > 0 {
					out = append(out, ' ')
				} else {
					out = append(out, '\n')
				}
			case "tc":
				cellDepth--
				out = append(bytes.TrimRight(out, " "), '\t')
			case "tr":
				out = append(out, '\n')
			}
		case xml.CharData:
			if inText {
				out = append(out, el...)
			}
		}
	}

	return tidyLines(string(out)), nil
}

// tidyLines trims trailing whitespace from every line and drops empty
// lines.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
