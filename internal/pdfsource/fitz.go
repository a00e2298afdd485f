package pdfsource

import (
	"fmt"
	"image"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	fitz "github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rs/zerolog/log"
)

// fitzOpener implements Opener with go-fitz for text and rendering and
// pdfcpu for page boxes, content streams and image objects.
type fitzOpener struct{}

func (fitzOpener) Open(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	d := &fitzDoc{doc: doc, path: path}
	d.ctx, d.dims, d.ctxErr = readContext(path)
	if d.ctxErr != nil {
		log.Warn().Err(d.ctxErr).Str("file", path).Msg("pdfcpu could not read document; page statistics unavailable")
	}
	return d, nil
}

func init() {
	setDefaultOpener(fitzOpener{})
}

func readContext(path string) (*model.Context, []types.Dim, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		// Retry without validation.
		log.Debug().Err(err).Str("file", path).Msg("pdfcpu validation failed, reading unvalidated")
		if _, serr := f.Seek(0, io.SeekStart); serr != nil {
			return nil, nil, serr
		}
		if ctx, err = api.ReadContext(f, conf); err != nil {
			return nil, nil, fmt.Errorf("pdfcpu read: %w", err)
		}
		if err = api.OptimizeContext(ctx); err != nil {
			return nil, nil, fmt.Errorf("pdfcpu optimize: %w", err)
		}
	}
	dims, err := ctx.PageDims()
	if err != nil {
		return ctx, nil, nil
	}
	return ctx, dims, nil
}

type fitzDoc struct {
	doc    *fitz.Document
	path   string
	ctx    *model.Context
	dims   []types.Dim
	ctxErr error
}

func (d *fitzDoc) Path() string { return d.path }
func (d *fitzDoc) NumPage() int { return d.doc.NumPage() }
func (d *fitzDoc) Close() error { return d.doc.Close() }

func (d *fitzDoc) Page(i int) (Page, error) {
	if i < 0 || i >= d.doc.NumPage() {
		return Page{Index: i}, fmt.Errorf("page %d: %w", i, ErrPageRange)
	}
	p := Page{Index: i}
	if err := d.geometry(&p); err != nil {
		return p, err
	}

	text, err := d.doc.Text(i)
	if err != nil {
		return p, fmt.Errorf("extract text: %w", err)
	}
	p.TextLength = utf8.RuneCountInString(strings.TrimSpace(text))

	if d.ctx == nil {
		return p, fmt.Errorf("content statistics: %w", d.ctxErr)
	}
	pageNr := i + 1
	r, err := pdfcpu.ExtractPageContent(d.ctx, pageNr)
	if err != nil {
		return p, fmt.Errorf("read content stream: %w", err)
	}
	if r != nil {
		content, err := io.ReadAll(r)
		if err != nil {
			return p, fmt.Errorf("read content stream: %w", err)
		}
		p.Drawings = CountDrawings(content)
	}
	if d.ctx.Optimize != nil {
		p.Images = len(pdfcpu.ImageObjNrs(d.ctx, pageNr))
	}
	return p, nil
}

// geometry prefers pdfcpu's fractional page boxes and uses MuPDF's bound,
// which has /Rotate applied, to settle orientation.
func (d *fitzDoc) geometry(p *Page) error {
	b, err := d.doc.Bound(p.Index)
	if err != nil {
		return fmt.Errorf("page bounds: %w", err)
	}
	p.Width, p.Height = float64(b.Dx()), float64(b.Dy())
	if p.Index >= len(d.dims) {
		return nil
	}
	w, h := d.dims[p.Index].Width, d.dims[p.Index].Height
	if (w > h) != (b.Dx() > b.Dy()) && b.Dx() != b.Dy() {
		w, h = h, w
	}
	p.Width, p.Height = w, h
	return nil
}

func (d *fitzDoc) Render(i int, dpi float64) (image.Image, error) {
	img, err := d.doc.ImageDPI(i, dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", i, err)
	}
	return img, nil
}
