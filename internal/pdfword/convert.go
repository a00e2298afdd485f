package pdfword

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/local/pdfword/internal/config"
	"github.com/local/pdfword/internal/converter"
	"github.com/local/pdfword/internal/filetype"
	"github.com/local/pdfword/internal/metrics"
	"github.com/local/pdfword/internal/pdfsource"
	"github.com/rs/zerolog/log"
)

// Result describes a finished conversion.
type Result struct {
	Input      string                 `json:"input"`
	Output     string                 `json:"output"`
	Pages      int                    `json:"pages"`
	Strategies []Strategy             `json:"-"`
	Failures   []*PageConversionError `json:"-"`
	Duration   time.Duration          `json:"duration"`
}

// Message is the user-facing success line.
func (r *Result) Message() string {
	msg := fmt.Sprintf("Successfully converted %s to %s with advanced page analysis.", r.Input, r.Output)
	if len(r.Failures) > 0 {
		msg += fmt.Sprintf(" %d of %d pages could not be converted.", len(r.Failures), r.Pages)
	}
	return msg
}

// Count returns how many pages used strategy s.
func (r *Result) Count(s Strategy) int {
	n := 0
	for _, v := range r.Strategies {
		if v == s {
			n++
		}
	}
	return n
}

// StatusMessage renders the outcome of Convert for display.
func StatusMessage(res *Result, err error) string {
	if err != nil {
		var fe *FatalError
		if errors.As(err, &fe) {
			return fe.Error()
		}
		return fmt.Sprintf("Error: %v", err)
	}
	return res.Message()
}

// Converter is the orchestration entry point.
type Converter struct {
	Assembler *Assembler
	Engine    converter.Engine
	Detector  *filetype.Detector
}

// New builds a converter from configuration using the default PDF opener.
func New(cfg config.ConvertConfig) (*Converter, error) {
	eng, err := converter.New(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithEngine(cfg, eng, pdfsource.Default()), nil
}

// NewWithEngine builds a converter around an explicit engine and opener.
func NewWithEngine(cfg config.ConvertConfig, eng converter.Engine, opener pdfsource.Opener) *Converter {
	th := DefaultThresholds
	if cfg.DrawingThreshold > 0 {
		th.Drawings = cfg.DrawingThreshold
	}
	if cfg.TextThreshold > 0 {
		th.TextLength = cfg.TextThreshold
	}
	return &Converter{
		Assembler: &Assembler{
			Opener:      opener,
			Classifier:  Classifier{Thresholds: th},
			Layout:      &LayoutConverter{Engine: eng, TempDir: cfg.TempDir, Timeout: cfg.PageTimeout},
			Image:       &ImageConverter{DPI: cfg.ImageDPI},
			ImageMargin: cfg.ImageMargin,
		},
		Engine:   eng,
		Detector: filetype.New(),
	}
}

// Convert turns the PDF at input into a .docx at output. Fatal errors are
// *FatalError and leave no output behind; page failures are reported in
// Result.Failures and appear as placeholders in the document.
func (c *Converter) Convert(ctx context.Context, input, output string) (*Result, error) {
	start := time.Now()
	res, err := c.convert(ctx, input, output)
	if err != nil {
		metrics.ObserveConversion("failed", time.Since(start))
		log.Error().Err(err).Str("input", input).Str("output", output).Msg("conversion failed")
		return nil, err
	}
	res.Duration = time.Since(start)
	outcome := "ok"
	if len(res.Failures) > 0 {
		outcome = "partial"
	}
	metrics.ObserveConversion(outcome, res.Duration)
	log.Info().
		Str("input", input).
		Str("output", output).
		Int("pages", res.Pages).
		Int("layout_pages", res.Count(StrategyLayout)).
		Int("image_pages", res.Count(StrategyImage)).
		Int("failed_pages", len(res.Failures)).
		Dur("duration", res.Duration).
		Msg("conversion finished")
	return res, nil
}

func (c *Converter) convert(ctx context.Context, input, output string) (*Result, error) {
	st, err := os.Stat(input)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fatal(StageValidate, &InputNotFoundError{Path: input})
		}
		return nil, fatal(StageValidate, err)
	}
	if st.IsDir() {
		return nil, fatal(StageValidate, &InvalidInputError{Path: input, MIME: "inode/directory"})
	}
	info, err := c.Detector.Detect(input)
	if err != nil {
		return nil, fatal(StageValidate, err)
	}
	if !info.IsPDF() {
		return nil, fatal(StageValidate, &InvalidInputError{Path: input, MIME: info.MIMEType})
	}
	if err := c.Engine.Available(); err != nil {
		return nil, fatal(StageDependency, &DependencyMissingError{Name: c.Engine.Name(), Err: err})
	}

	asm, err := c.Assembler.Assemble(ctx, input)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fatal(StageSave, &SaveError{Path: output, Err: err})
		}
	}
	if err := asm.Document.Save(output); err != nil {
		return nil, fatal(StageSave, &SaveError{Path: output, Err: err})
	}

	return &Result{
		Input:      input,
		Output:     output,
		Pages:      asm.Pages,
		Strategies: asm.Strategies,
		Failures:   asm.Failures,
	}, nil
}
