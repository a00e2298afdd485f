package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/local/pdfword/internal/config"
)

// Engine converts a contiguous page range of a PDF into a standalone .docx.
// start and end are 0-based and inclusive.
type Engine interface {
	Name() string
	Available() error
	ConvertPages(ctx context.Context, src, dst string, start, end int) error
}

// ErrUnavailable marks an engine whose runtime dependency is missing.
var ErrUnavailable = errors.New("converter unavailable")

// New returns the engine selected by cfg.LayoutEngine.
func New(cfg config.ConvertConfig) (Engine, error) {
	switch cfg.LayoutEngine {
	case "", "mupdf":
		return NewMuPDF(), nil
	case "libreoffice":
		return NewLibreOffice(cfg.LibreOfficeBin, cfg.PageTimeout, 1, cfg.TempDir), nil
	}
	return nil, fmt.Errorf("unknown layout engine %q", cfg.LayoutEngine)
}

func checkRange(start, end, total int) error {
	if start < 0 || end < start || end >= total {
		return fmt.Errorf("page range %d-%d out of bounds (document has %d pages)", start+1, end+1, total)
	}
	return nil
}

// moveFile renames src to dst, copying when they live on different devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

const defaultTimeout = 180 * time.Second
