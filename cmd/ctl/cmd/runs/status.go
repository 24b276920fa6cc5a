// cmd/ctl/cmd/runs/status.go
package runs

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusFormat string

var StatusCmd = &cobra.Command{
	Use:   "status <run-id>",
	Short: "Show one migration run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := apiClient(cmd)
		if err != nil {
			return err
		}

		view, err := client.GetRun(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get run: %w", err)
		}

		if statusFormat == "json" {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(view)
		}

		printRunDetail(view)
		return nil
	},
}

func init() {
	StatusCmd.Flags().StringVarP(&statusFormat, "format", "f", "text", "output format (text, json)")
}
