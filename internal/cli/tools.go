package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/local/pdfword/internal/pdftools"
)

func (a *App) newImagesCmd() *cobra.Command {
	var dpi float64
	cmd := &cobra.Command{
		Use:   "images <input> <outdir>",
		Short: "Render every page to page_<n>.png",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := pdftools.ToImages(cmd.Context(), args[0], args[1], dpi)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, msg)
			return nil
		},
	}
	cmd.Flags().Float64Var(&dpi, "dpi", pdftools.DefaultDPI, "Render resolution")
	return cmd
}

func (a *App) newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <output> <input>...",
		Short: "Concatenate PDFs in order",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := pdftools.Merge(cmd.Context(), args[1:], args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, msg)
			return nil
		},
	}
}

func (a *App) newSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split <input> <outdir> <ranges>",
		Short: "Split a PDF into split_<i>.pdf files",
		Long: `Split a PDF into one file per page range. Ranges are 1-based and
inclusive, separated by commas.

Example:
  pdfword split book.pdf parts 1-3,4,5-10`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ranges, err := pdftools.ParseRanges(args[2])
			if err != nil {
				return err
			}
			msg, err := pdftools.Split(cmd.Context(), args[0], ranges, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, msg)
			return nil
		},
	}
}
