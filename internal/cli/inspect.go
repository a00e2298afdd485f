package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/local/pdfword/internal/docx"
)

func (a *App) newInspectCmd() *cobra.Command {
	var outputJSON bool
	cmd := &cobra.Command{
		Use:   "inspect <docx>",
		Short: "Show the sections of a .docx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := docx.Inspect(args[0])
			if err != nil {
				return err
			}
			if outputJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			a.inspectText(info)
			return nil
		},
	}
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output as JSON")
	return cmd
}

func (a *App) inspectText(info *docx.Info) {
	fmt.Fprintf(a.stdout, "Sections: %d  Media: %d\n", len(info.Sections), info.Media)
	for i, s := range info.Sections {
		fmt.Fprintf(a.stdout, "\n[%d] %s %.2fx%.2f in, margins %.2f/%.2f/%.2f/%.2f\n",
			i+1, s.Orientation, s.Width, s.Height,
			s.Margins.Top, s.Margins.Right, s.Margins.Bottom, s.Margins.Left)
		fmt.Fprintf(a.stdout, "    paragraphs: %d  pictures: %d\n", len(s.Paragraphs), s.Pictures)
		if text := strings.TrimSpace(s.Text()); text != "" {
			if r := []rune(text); len(r) > 80 {
				text = string(r[:80]) + "..."
			}
			fmt.Fprintf(a.stdout, "    %s\n", strings.ReplaceAll(text, "\n", " / "))
		}
	}
}
