package imagerender

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/rs/zerolog/log"
)

// ColorMode defines the color mode for rendering
type ColorMode string

const (
	ColorRGB  ColorMode = "rgb"
	ColorGray ColorMode = "gray"
)

// Format is the encoded image format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ParseFormat accepts "png", "jpg" and "jpeg" case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("unsupported image format %q", s)
}

// Ext returns the file extension for the format, with a leading dot.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return ".jpeg"
	}
	return ".png"
}

// Page renders a single page to pixels.
type Page interface {
	Render(i int, dpi float64) (image.Image, error)
}

// Options controls encoding.
type Options struct {
	DPI     float64
	Format  Format
	Color   ColorMode
	Quality int // JPEG only
}

// Image is an encoded page bitmap.
type Image struct {
	Data   []byte
	Width  int
	Height int
	Format Format
}

// AspectRatio returns height / width.
func (i *Image) AspectRatio() float64 {
	if i.Width == 0 {
		return 0
	}
	return float64(i.Height) / float64(i.Width)
}

// RenderPage renders page index (0-based) of src and encodes it in memory.
func RenderPage(src Page, index int, opts Options) (*Image, error) {
	if opts.DPI <= 0 {
		opts.DPI = 200
	}
	img, err := src.Render(index, opts.DPI)
	if err != nil {
		return nil, err
	}
	out, err := Encode(img, opts)
	if err != nil {
		return nil, fmt.Errorf("encode page %d: %w", index+1, err)
	}
	log.Debug().
		Int("page", index+1).
		Int("width", out.Width).
		Int("height", out.Height).
		Float64("dpi", opts.DPI).
		Str("format", string(out.Format)).
		Int("size", len(out.Data)).
		Msg("rendered page")
	return out, nil
}

// Encode converts img to the requested color mode and format.
func Encode(img image.Image, opts Options) (*Image, error) {
	bounds := img.Bounds()
	var finalImg image.Image = img
	if opts.Color == ColorGray {
		grayImg := image.NewGray(bounds)
		draw.Draw(grayImg, bounds, img, bounds.Min, draw.Src)
		finalImg = grayImg
	}

	format := opts.Format
	if format == "" {
		format = FormatPNG
	}
	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		quality := opts.Quality
		if quality <= 0 || quality > 100 {
			quality = 90
		}
		if err := jpeg.Encode(&buf, finalImg, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
	default:
		if err := png.Encode(&buf, finalImg); err != nil {
			return nil, fmt.Errorf("failed to encode PNG: %w", err)
		}
	}
	return &Image{Data: buf.Bytes(), Width: bounds.Dx(), Height: bounds.Dy(), Format: format}, nil
}
