package pdfsource

import (
	"errors"
	"image"
)

// Page captures the geometry and content statistics of a single PDF page.
// Width and Height are in points with page rotation applied.
type Page struct {
	Index      int     `json:"index"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Drawings   int     `json:"drawings"`
	TextLength int     `json:"text_length"`
	Images     int     `json:"images"`
}

// Landscape reports whether the page is wider than it is tall.
func (p Page) Landscape() bool { return p.Width > p.Height }

// Document abstracts an open PDF.
//
// Page returns the page geometry even when computing its statistics fails;
// in that case the error is non-nil and the statistics are zero.
type Document interface {
	Path() string
	NumPage() int
	Page(i int) (Page, error)
	Render(i int, dpi float64) (image.Image, error)
	Close() error
}

// Opener abstracts opening a PDF path into a Document.
type Opener interface {
	Open(path string) (Document, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string) (Document, error)

func (f OpenerFunc) Open(path string) (Document, error) { return f(path) }

// ErrPageRange is returned for page indices outside the document.
var ErrPageRange = errors.New("page index out of range")

// defaultOpener is provided in fitz.go using go-fitz and pdfcpu.
var defaultOpener Opener

func setDefaultOpener(o Opener) { defaultOpener = o }

// Default returns the opener backed by go-fitz and pdfcpu.
func Default() Opener { return defaultOpener }

// Open opens path with the default opener.
func Open(path string) (Document, error) {
	if defaultOpener == nil {
		return nil, errors.New("no PDF opener configured")
	}
	return defaultOpener.Open(path)
}
