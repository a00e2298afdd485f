package pdfword

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/local/pdfword/internal/converter"
	"github.com/local/pdfword/internal/docx"
	"github.com/local/pdfword/internal/metrics"
	"github.com/rs/zerolog/log"
)

// tempPattern names per-page artifacts; the stale-file sweep matches it.
const tempPattern = "pdfword-page-*.docx"

// LayoutConverter converts one page at a time through a layout engine into
// a temporary .docx, and returns that document's body as a fragment.
type LayoutConverter struct {
	Engine  converter.Engine
	TempDir string
	Timeout time.Duration // per page; zero disables
}

// Convert converts page index of the PDF at src. The temporary artifact is
// removed before Convert returns, whatever the outcome.
func (c *LayoutConverter) Convert(ctx context.Context, src string, index int) (*docx.Fragment, error) {
	tmp, err := os.CreateTemp(c.TempDir, tempPattern)
	if err != nil {
		return nil, c.pageErr(index, fmt.Errorf("create temp file: %w", err))
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer removeTemp(tmpPath)

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	if err := c.Engine.ConvertPages(ctx, src, tmpPath, index, index); err != nil {
		return nil, c.pageErr(index, fmt.Errorf("%s: %w", c.Engine.Name(), err))
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, c.pageErr(index, fmt.Errorf("read converted page: %w", err))
	}
	removeTemp(tmpPath)

	frag, err := docx.ParseFragment(data)
	if err != nil {
		return nil, c.pageErr(index, err)
	}
	return frag, nil
}

func (c *LayoutConverter) pageErr(index int, err error) *PageConversionError {
	return &PageConversionError{Page: index, Strategy: StrategyLayout, Err: err}
}

func removeTemp(path string) {
	err := os.Remove(path)
	switch {
	case err == nil:
		metrics.AddTempRemoved(1)
	case !os.IsNotExist(err):
		log.Warn().Err(err).Str("file", path).Msg("failed to remove temp artifact")
	}
}
