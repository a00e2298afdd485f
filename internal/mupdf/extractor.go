package mupdf

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// Extractor reads positioned page content through MuPDF's HTML output.
type Extractor struct{}

// NewExtractor creates a new go-fitz based extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Page extracts the content of page index (0-based). Page width and height
// come from MuPDF's page bound when the HTML does not carry them.
func (e *Extractor) Page(doc *fitz.Document, index int) (*Page, error) {
	if index < 0 || index >= doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", index+1, doc.NumPage())
	}
	raw, err := doc.HTML(index, false)
	if err != nil {
		return nil, fmt.Errorf("failed to extract layout from page %d: %w", index+1, err)
	}
	page, err := ParsePageHTML(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}
	if b, err := doc.Bound(index); err == nil {
		page.Width, page.Height = float64(b.Dx()), float64(b.Dy())
	}

	log.Debug().
		Int("page", index+1).
		Int("lines", len(page.Lines)).
		Int("pictures", len(page.Pictures)).
		Msg("extracted page layout")
	return page, nil
}
