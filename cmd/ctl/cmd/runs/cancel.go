// cmd/ctl/cmd/runs/cancel.go
package runs

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var CancelCmd = &cobra.Command{
	Use:   "cancel <run-id>",
	Short: "Cancel a migration",
	Long: `Cancels a run. Cancellation is terminal: the run cannot be resumed,
but everything already imported stays in place.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := apiClient(cmd)
		if err != nil {
			return err
		}

		view, err := client.CancelRun(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to cancel run: %w", err)
		}

		color.Red("✓ Run cancelled")
		fmt.Println()
		printRunDetail(view)
		return nil
	},
}
