package pdfword

import (
	"context"
	"errors"
	"time"

	"github.com/local/pdfword/internal/docx"
	"github.com/local/pdfword/internal/metrics"
	"github.com/local/pdfword/internal/pdfsource"
	"github.com/rs/zerolog/log"
)

// DefaultImageMargin is the margin, in inches, applied to image pages.
const DefaultImageMargin = 0.5

// Assembly is the in-memory result of converting every page.
type Assembly struct {
	Document   *docx.Document
	Pages      int
	Strategies []Strategy
	Failures   []*PageConversionError
}

// Assembler drives the per-page pipeline: classify, convert, append.
type Assembler struct {
	Opener      pdfsource.Opener
	Classifier  Classifier
	Layout      *LayoutConverter
	Image       *ImageConverter
	ImageMargin float64
}

// Assemble opens src once and builds one output section per source page.
// Page failures are recorded and replaced with a placeholder paragraph;
// only opening the source, an empty source and cancellation are fatal.
func (a *Assembler) Assemble(ctx context.Context, src string) (*Assembly, error) {
	doc, err := a.Opener.Open(src)
	if err != nil {
		return nil, fatal(StageOpen, err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return nil, fatal(StageOpen, ErrNoPages)
	}
	out := docx.New()
	res := &Assembly{Document: out, Pages: n, Strategies: make([]Strategy, n)}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fatal(StageAssemble, err)
		}
		sec := out.Last()
		if i > 0 {
			sec = out.AddSection()
		}

		start := time.Now()
		strategy, perr := a.convertPage(ctx, doc, i, sec)
		res.Strategies[i] = strategy
		metrics.ObservePage(strategy.String(), perr == nil, time.Since(start))

		if perr != nil {
			if errors.Is(perr.Err, context.Canceled) && ctx.Err() != nil {
				return nil, fatal(StageAssemble, ctx.Err())
			}
			res.Failures = append(res.Failures, perr)
			sec.AddText(perr.Placeholder())
			log.Warn().Err(perr.Err).Int("page", i+1).Str("strategy", strategy.String()).Msg("page conversion failed, placeholder written")
			continue
		}
		log.Debug().Int("page", i+1).Str("strategy", strategy.String()).Dur("duration", time.Since(start)).Msg("page converted")
	}
	return res, nil
}

func (a *Assembler) convertPage(ctx context.Context, doc pdfsource.Document, i int, sec *docx.Section) (Strategy, *PageConversionError) {
	page, err := doc.Page(i)
	sec.Margins = docx.DefaultMargins
	applyGeometry(sec, page)
	if err != nil {
		return StrategyLayout, &PageConversionError{Page: i, Strategy: StrategyLayout, Err: err}
	}

	strategy := a.Classifier.Classify(page)
	var frag *docx.Fragment
	switch strategy {
	case StrategyImage:
		sec.Margins = docx.UniformMargins(a.imageMargin())
		frag, err = a.Image.Convert(doc, page, sec.AvailableWidth())
	default:
		frag, err = a.Layout.Convert(ctx, doc.Path(), i)
	}
	if err == nil {
		err = sec.Append(frag)
	}
	if err != nil {
		var perr *PageConversionError
		if !errors.As(err, &perr) {
			perr = &PageConversionError{Page: i, Strategy: strategy, Err: err}
		}
		return strategy, perr
	}
	return strategy, nil
}

func (a *Assembler) imageMargin() float64 {
	if a.ImageMargin > 0 {
		return a.ImageMargin
	}
	return DefaultImageMargin
}

// applyGeometry sets the section's size and orientation from the source
// page. Width and height are never swapped.
func applyGeometry(sec *docx.Section, p pdfsource.Page) {
	if p.Width <= 0 || p.Height <= 0 {
		return
	}
	sec.Width = p.Width / 72
	sec.Height = p.Height / 72
	sec.Orientation = docx.Portrait
	if p.Landscape() {
		sec.Orientation = docx.Landscape
	}
}
