package pdfword

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/local/pdfword/internal/docx"
	"github.com/local/pdfword/internal/pdfsource"
	"github.com/stretchr/testify/require"
)

type fakeDoc struct {
	path      string
	pages     []pdfsource.Page
	statErr   map[int]error
	renderErr map[int]error
	closes    int
}

func (d *fakeDoc) Path() string { return d.path }
func (d *fakeDoc) NumPage() int { return len(d.pages) }

func (d *fakeDoc) Page(i int) (pdfsource.Page, error) {
	if i < 0 || i >= len(d.pages) {
		return pdfsource.Page{}, pdfsource.ErrPageRange
	}
	p := d.pages[i]
	p.Index = i
	if err := d.statErr[i]; err != nil {
		return pdfsource.Page{Index: i, Width: p.Width, Height: p.Height}, err
	}
	return p, nil
}

func (d *fakeDoc) Render(i int, dpi float64) (image.Image, error) {
	if err := d.renderErr[i]; err != nil {
		return nil, err
	}
	p := d.pages[i]
	w, h := int(p.Width*dpi/72), int(p.Height*dpi/72)
	img := image.NewGray(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.SetGray(x, h/2, color.Gray{Y: 0})
	}
	return img, nil
}

func (d *fakeDoc) Close() error {
	d.closes++
	return nil
}

func (d *fakeDoc) opener() pdfsource.Opener {
	return pdfsource.OpenerFunc(func(path string) (pdfsource.Document, error) {
		d.path = path
		return d, nil
	})
}

// fakeEngine writes a one-paragraph .docx per page, or fails on pages in fail.
type fakeEngine struct {
	fail    map[int]error
	missing error
	calls   []int
}

func (e *fakeEngine) Name() string     { return "fake" }
func (e *fakeEngine) Available() error { return e.missing }

func (e *fakeEngine) ConvertPages(ctx context.Context, src, dst string, start, end int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.calls = append(e.calls, start)
	if err := e.fail[start]; err != nil {
		return err
	}
	d := docx.New()
	// Engines emit their own page setup; it must not leak into the output.
	d.Last().Orientation = docx.Landscape
	d.Last().Width, d.Last().Height = 20, 10
	d.Last().AddText(fmt.Sprintf("text of page %d", start+1))
	return d.Save(dst)
}

func textPage(w, h float64) pdfsource.Page {
	return pdfsource.Page{Width: w, Height: h, TextLength: 2000}
}

func scanPage(w, h float64) pdfsource.Page {
	return pdfsource.Page{Width: w, Height: h, TextLength: 5, Images: 1}
}

func newTestAssembler(doc *fakeDoc, eng *fakeEngine, tempDir string) *Assembler {
	return &Assembler{
		Opener:     doc.opener(),
		Classifier: Classifier{Thresholds: DefaultThresholds},
		Layout:     &LayoutConverter{Engine: eng, TempDir: tempDir},
		Image:      &ImageConverter{DPI: 20},
	}
}

func requireNoTempArtifacts(t *testing.T, dir string) {
	t.Helper()
	left, err := filepath.Glob(filepath.Join(dir, "pdfword-page-*"))
	require.NoError(t, err)
	require.Empty(t, left, "temporary page artifacts were left behind")
}

var errEngine = errors.New("engine crashed")

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
