// cmd/ctl/cmd/runs/start.go
package runs

import (
	"fmt"
	"strings"

	"crmsync/internal/domain/run"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	startIntegration string
	startEntities    []string
	startRunType     string
)

var StartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a migration run",
	Long: `Starts a new migration run against an integration.

The run begins fetching pages immediately; follow its progress with
"runs status <id>".`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := apiClient(cmd)
		if err != nil {
			return err
		}

		view, err := client.CreateRun(cmd.Context(), run.CreateRequest{
			IntegrationID: startIntegration,
			RunType:       run.RunType(strings.ToUpper(startRunType)),
			EntityTypes:   startEntities,
		})
		if err != nil {
			return fmt.Errorf("failed to start run: %w", err)
		}

		color.Green("✓ Run started")
		fmt.Println()
		printRunDetail(view)
		return nil
	},
}

func init() {
	StartCmd.Flags().StringVarP(&startIntegration, "integration", "i", "", "integration ID (required)")
	StartCmd.Flags().StringSliceVarP(&startEntities, "entities", "e", nil, "entity types to sync, in order (required)")
	StartCmd.Flags().StringVarP(&startRunType, "type", "t", "FULL", "run type (FULL or INCREMENTAL)")
	_ = StartCmd.MarkFlagRequired("integration")
	_ = StartCmd.MarkFlagRequired("entities")
}
