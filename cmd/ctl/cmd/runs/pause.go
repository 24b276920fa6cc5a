// cmd/ctl/cmd/runs/pause.go
package runs

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var PauseCmd = &cobra.Command{
	Use:   "pause <run-id>",
	Short: "Pause a running migration",
	Long: `Requests a pause. The processor finishes the page it is on and stops
before fetching the next one; the checkpoint stays put for a later resume.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := apiClient(cmd)
		if err != nil {
			return err
		}

		view, err := client.PauseRun(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to pause run: %w", err)
		}

		color.Yellow("✓ Pause requested")
		fmt.Println()
		printRunDetail(view)
		return nil
	},
}
