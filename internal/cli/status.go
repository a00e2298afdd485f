package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func (a *App) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print dependency status as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _, checker, err := a.dependencies(cmd.Context())
			if err != nil {
				return err
			}
			defer status.Close()

			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(checker.Summary(cmd.Context()))
		},
	}
}
