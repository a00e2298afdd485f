package pdfword

import "github.com/local/pdfword/internal/pdfsource"

// Strategy is how a single page is converted.
type Strategy int

const (
	// StrategyLayout rebuilds the page as editable text and structure.
	StrategyLayout Strategy = iota
	// StrategyImage embeds a raster picture of the whole page.
	StrategyImage
)

func (s Strategy) String() string {
	switch s {
	case StrategyLayout:
		return "layout"
	case StrategyImage:
		return "image"
	}
	return "unknown"
}

// Thresholds drive page classification.
type Thresholds struct {
	// Drawings above this count force the layout strategy.
	Drawings int
	// Pages with fewer text characters than this and at least one image
	// are rasterized.
	TextLength int
}

// DefaultThresholds are the stock classification limits.
var DefaultThresholds = Thresholds{Drawings: 5, TextLength: 100}

// Classifier picks a Strategy for a page from its content statistics.
type Classifier struct {
	Thresholds Thresholds
}

// Classify is a pure function of the page statistics. The rules apply in
// order and the first match wins.
func (c Classifier) Classify(p pdfsource.Page) Strategy {
	switch {
	case p.Drawings > c.Thresholds.Drawings:
		return StrategyLayout
	case p.TextLength < c.Thresholds.TextLength && p.Images >= 1:
		return StrategyImage
	default:
		return StrategyLayout
	}
}
