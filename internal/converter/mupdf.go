package converter

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gen2brain/go-fitz"
	"github.com/local/pdfword/internal/docx"
	"github.com/local/pdfword/internal/mupdf"
	"github.com/rs/zerolog/log"
)

// MuPDF rebuilds pages in-process from MuPDF's structured text: positioned
// lines become styled paragraphs and embedded images become inline pictures.
type MuPDF struct {
	extractor *mupdf.Extractor
}

// NewMuPDF creates the embedded layout engine.
func NewMuPDF() *MuPDF {
	return &MuPDF{extractor: mupdf.NewExtractor()}
}

func (m *MuPDF) Name() string { return "mupdf" }

// Available always returns nil since go-fitz is embedded.
func (m *MuPDF) Available() error { return nil }

func (m *MuPDF) ConvertPages(ctx context.Context, src, dst string, start, end int) error {
	startTime := time.Now()
	doc, err := fitz.New(src)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if err := checkRange(start, end, doc.NumPage()); err != nil {
		return err
	}

	out := docx.New()
	for i := start; i <= end; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		sec := out.Last()
		if i > start {
			sec = out.AddSection()
		}
		page, err := m.extractor.Page(doc, i)
		if err != nil {
			return err
		}
		if err := m.writePage(sec, page); err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
	}
	if err := out.Save(dst); err != nil {
		return err
	}
	log.Debug().
		Int("start", start+1).
		Int("end", end+1).
		Str("output", dst).
		Dur("duration", time.Since(startTime)).
		Msg("MuPDF conversion successful")
	return nil
}

func (m *MuPDF) writePage(sec *docx.Section, page *mupdf.Page) error {
	if page.Width > 0 && page.Height > 0 {
		sec.Width, sec.Height = page.Width/72, page.Height/72
		sec.Orientation = docx.Portrait
		if page.Width > page.Height {
			sec.Orientation = docx.Landscape
		}
	}
	sec.Margins = fitMargins(page)

	for _, el := range page.Elements() {
		switch {
		case el.Paragraph != nil:
			sec.AddParagraph(toParagraph(el.Paragraph))
		case el.Picture != nil:
			w, h := el.Picture.Width/72, el.Picture.Height/72
			if avail := sec.AvailableWidth(); avail > 0 && w > avail {
				h = h * avail / w
				w = avail
			}
			if err := sec.Append(docx.PictureFragment(el.Picture.Data, el.Picture.Ext, w, h)); err != nil {
				return err
			}
		}
	}
	return nil
}

func toParagraph(p *mupdf.Paragraph) docx.Paragraph {
	out := docx.Paragraph{Runs: make([]docx.Run, 0, len(p.Spans))}
	for _, s := range p.Spans {
		out.Runs = append(out.Runs, docx.Run{
			Text:   s.Text,
			Bold:   s.Bold,
			Italic: s.Italic,
			Size:   math.Round(s.Size*2) / 2,
			Font:   s.Font,
		})
	}
	return out
}

// fitMargins narrows the default one inch margins to the left and top
// edges of the page content, never below a quarter inch.
func fitMargins(page *mupdf.Page) docx.Margins {
	m := docx.DefaultMargins
	minLeft, minTop := math.Inf(1), math.Inf(1)
	for _, l := range page.Lines {
		minLeft = math.Min(minLeft, l.Left)
		minTop = math.Min(minTop, l.Top)
	}
	for _, p := range page.Pictures {
		minLeft = math.Min(minLeft, p.Left)
		minTop = math.Min(minTop, p.Top)
	}
	clamp := func(v float64) float64 { return math.Max(0.25, math.Min(1, v/72)) }
	if !math.IsInf(minLeft, 1) {
		m.Left = clamp(minLeft)
		m.Right = m.Left
	}
	if !math.IsInf(minTop, 1) {
		m.Top = clamp(minTop)
		m.Bottom = m.Top
	}
	return m
}
