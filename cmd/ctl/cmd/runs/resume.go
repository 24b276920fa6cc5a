// cmd/ctl/cmd/runs/resume.go
package runs

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var ResumeCmd = &cobra.Command{
	Use:   "resume <run-id>",
	Short: "Resume a paused migration",
	Long:  `Resumes a paused run from its checkpoint, not from the beginning.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := apiClient(cmd)
		if err != nil {
			return err
		}

		view, err := client.ResumeRun(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to resume run: %w", err)
		}

		color.Green("✓ Run resumed")
		fmt.Println()
		printRunDetail(view)
		return nil
	},
}
