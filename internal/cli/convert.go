package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/local/pdfword/internal/pdfword"
	"github.com/local/pdfword/internal/storage"
)

type convertOptions struct {
	engine     string
	dpi        float64
	outputJSON bool
}

type convertReport struct {
	Input       string   `json:"input"`
	Output      string   `json:"output"`
	Pages       int      `json:"pages"`
	LayoutPages int      `json:"layout_pages"`
	ImagePages  int      `json:"image_pages"`
	Failures    []string `json:"failures,omitempty"`
	Message     string   `json:"message"`
}

func (a *App) newConvertCmd() *cobra.Command {
	opts := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a PDF into a .docx",
		Long: `Convert a PDF into a .docx with one section per source page.

Input and output may be local paths or file:// URLs. The input may also be
an http(s):// or s3://bucket/key URL and the output an s3:// URL.

Examples:
  pdfword convert report.pdf report.docx
  pdfword convert s3://inbox/scan.pdf out/scan.docx --engine libreoffice`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.convert(cmd, args[0], args[1], opts)
		},
	}
	cmd.Flags().StringVar(&opts.engine, "engine", "", "Layout engine (mupdf, libreoffice)")
	cmd.Flags().Float64Var(&opts.dpi, "dpi", 0, "Resolution for image pages")
	cmd.Flags().BoolVar(&opts.outputJSON, "json", false, "Print a JSON report")
	return cmd
}

func (a *App) convert(cmd *cobra.Command, input, output string, opts *convertOptions) error {
	cfg := a.cfg.Convert
	if opts.engine != "" {
		cfg.LayoutEngine = opts.engine
	}
	if opts.dpi > 0 {
		cfg.ImageDPI = opts.dpi
	}
	conv, err := pdfword.New(cfg)
	if err != nil {
		return err
	}

	var st pdfword.Storage
	if storage.IsRemote(input) || storage.IsRemote(output) {
		st = storage.New(a.cfg.S3, cfg.TempDir)
	}
	res, err := conv.ConvertRef(cmd.Context(), st, input, output)
	if err != nil {
		fmt.Fprintln(a.stderr, pdfword.StatusMessage(nil, err))
		return reportedError{err}
	}

	if !opts.outputJSON {
		fmt.Fprintln(a.stdout, res.Message())
		for _, f := range res.Failures {
			fmt.Fprintf(a.stderr, "warning: %v\n", f)
		}
		return nil
	}
	rep := convertReport{
		Input:       res.Input,
		Output:      res.Output,
		Pages:       res.Pages,
		LayoutPages: res.Count(pdfword.StrategyLayout),
		ImagePages:  res.Count(pdfword.StrategyImage),
		Message:     res.Message(),
	}
	for _, f := range res.Failures {
		rep.Failures = append(rep.Failures, f.Error())
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
