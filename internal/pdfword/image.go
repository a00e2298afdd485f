package pdfword

import (
	"errors"

	"github.com/local/pdfword/internal/docx"
	"github.com/local/pdfword/internal/imagerender"
	"github.com/local/pdfword/internal/pdfsource"
)

// DefaultImageDPI is the rasterization resolution for image pages.
const DefaultImageDPI = 200

// ImageConverter rasterizes a page in memory and returns a fragment holding
// one picture scaled to the available width.
type ImageConverter struct {
	DPI float64
}

// Convert renders page p of doc. availableWidth is in inches.
func (c *ImageConverter) Convert(doc pdfsource.Document, p pdfsource.Page, availableWidth float64) (*docx.Fragment, error) {
	if availableWidth <= 0 {
		return nil, c.pageErr(p.Index, errors.New("page is narrower than its margins"))
	}
	dpi := c.DPI
	if dpi <= 0 {
		dpi = DefaultImageDPI
	}
	img, err := imagerender.RenderPage(doc, p.Index, imagerender.Options{DPI: dpi, Format: imagerender.FormatPNG})
	if err != nil {
		return nil, c.pageErr(p.Index, err)
	}
	if img.Width == 0 || img.Height == 0 {
		return nil, c.pageErr(p.Index, errors.New("rendered an empty image"))
	}
	height := availableWidth * img.AspectRatio()
	return docx.PictureFragment(img.Data, img.Format.Ext(), availableWidth, height), nil
}

func (c *ImageConverter) pageErr(index int, err error) *PageConversionError {
	return &PageConversionError{Page: index, Strategy: StrategyImage, Err: err}
}
