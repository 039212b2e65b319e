// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// docPage is one page of a source document. Plain-text formats yield a
// single page numbered 0.
type docPage struct {
	Number int
	Text   string
}

// readDocument extracts the text of a source file by extension. PDFs
// keep page numbers for chunk provenance; .txt and .md are read whole.
func readDocument(path string) ([]docPage, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return readPDF(path)
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return []docPage{{Number: 0, Text: string(data)}}, nil
	default:
		return nil, errUnsupported
	}
}

func readPDF(path string) ([]docPage, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	var pages []docPage
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extracting page %d of %s: %w", i, path, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, docPage{Number: i, Text: text})
	}
	return pages, nil
}
