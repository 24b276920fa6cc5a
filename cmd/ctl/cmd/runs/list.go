// cmd/ctl/cmd/runs/list.go
package runs

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	listIntegration string
	listStatus      string
	listFormat      string
	listLimit       int
	listOffset      int
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List migration runs",
	Long: `Lists migration runs, newest first.

Filter with --integration and --status; paginate with --limit and --offset.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := apiClient(cmd)
		if err != nil {
			return err
		}

		list, err := client.ListRuns(cmd.Context(), listIntegration, listStatus, listLimit, listOffset)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		if listFormat == "json" {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(list)
		}

		printRunTable(list.Runs)
		fmt.Printf("\nTotal runs: %d\n", list.Pagination.TotalCount)
		return nil
	},
}

func init() {
	ListCmd.Flags().StringVarP(&listIntegration, "integration", "i", "", "filter by integration ID")
	ListCmd.Flags().StringVarP(&listStatus, "status", "s", "", "filter by status (RUNNING, PAUSED, CANCELLED, COMPLETED)")
	ListCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table, json)")
	ListCmd.Flags().IntVar(&listLimit, "limit", 20, "page size")
	ListCmd.Flags().IntVar(&listOffset, "offset", 0, "pagination offset")
}
