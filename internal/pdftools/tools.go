// Package pdftools holds whole-document PDF utilities: page images,
// merging and splitting.
package pdftools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfword/internal/imagerender"
	"github.com/local/pdfword/internal/pdfsource"
)

// DefaultDPI is used by ToImages when dpi is zero.
const DefaultDPI = 72

// Range is a 1-based inclusive page range.
type Range struct {
	Start, End int
}

func (r Range) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// ParseRanges parses "1-3,5,7-9". Whitespace is ignored.
func ParseRanges(s string) ([]Range, error) {
	var out []Range
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid page range %q", part)
		}
		end := start
		if isRange {
			if end, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
		}
		if start < 1 || end < start {
			return nil, fmt.Errorf("invalid page range %q", part)
		}
		out = append(out, Range{Start: start, End: end})
	}
	if len(out) == 0 {
		return nil, errors.New("no page ranges given")
	}
	return out, nil
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}

// ToImages writes one PNG per page of pdfPath into outDir as page_<n>.png.
func ToImages(ctx context.Context, pdfPath, outDir string, dpi float64) (string, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	doc, err := pdfsource.Open(pdfPath)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	n := doc.NumPage()
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		img, err := imagerender.RenderPage(doc, i, imagerender.Options{DPI: dpi, Format: imagerender.FormatPNG})
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i+1, err)
		}
		name := filepath.Join(outDir, fmt.Sprintf("page_%d.png", i+1))
		if err := os.WriteFile(name, img.Data, 0o644); err != nil {
			return "", err
		}
	}
	log.Info().Str("input", pdfPath).Int("pages", n).Str("dir", outDir).Msg("rendered page images")
	return fmt.Sprintf("Successfully converted %d pages to images in %s", n, outDir), nil
}

// Merge concatenates inputs, in order, into output.
func Merge(ctx context.Context, inputs []string, output string) (string, error) {
	if len(inputs) == 0 {
		return "", errors.New("no input files")
	}
	for _, in := range inputs {
		if _, err := os.Stat(in); err != nil {
			return "", err
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	if err := api.MergeCreateFile(inputs, output, false, conf()); err != nil {
		return "", fmt.Errorf("merge: %w", err)
	}
	log.Info().Int("files", len(inputs)).Str("output", output).Msg("merged pdfs")
	return fmt.Sprintf("Successfully merged %d files into %s", len(inputs), output), nil
}

// Split writes one split_<i>.pdf per range into outDir. All ranges are
// checked against the page count before anything is written.
func Split(ctx context.Context, pdfPath string, ranges []Range, outDir string) (string, error) {
	if len(ranges) == 0 {
		return "", errors.New("no page ranges given")
	}
	total, err := PageCount(pdfPath)
	if err != nil {
		return "", err
	}
	for _, r := range ranges {
		if r.Start < 1 || r.End < r.Start || r.End > total {
			return "", fmt.Errorf("page range %s out of bounds (document has %d pages)", r, total)
		}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	for i, r := range ranges {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out := filepath.Join(outDir, fmt.Sprintf("split_%d.pdf", i+1))
		if err := api.TrimFile(pdfPath, out, []string{r.String()}, conf()); err != nil {
			return "", fmt.Errorf("split %s: %w", r, err)
		}
	}
	log.Info().Str("input", pdfPath).Int("files", len(ranges)).Str("dir", outDir).Msg("split pdf")
	return fmt.Sprintf("Successfully split PDF into %d files in %s", len(ranges), outDir), nil
}

func conf() *model.Configuration {
	c := model.NewDefaultConfiguration()
	c.ValidationMode = model.ValidationRelaxed
	return c
}
