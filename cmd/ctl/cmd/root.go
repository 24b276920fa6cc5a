// cmd/ctl/cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"os"

	"crmsync/cmd/ctl/cmd/integration"
	"crmsync/cmd/ctl/cmd/runs"
	"crmsync/cmd/ctl/cmd/types"
	"crmsync/internal/app/ctl"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "crmsyncctl",
	Short: "crmsyncctl controls CRM migration runs",
	Long: `crmsyncctl is the operator CLI for the CRM synchronization engine.

It starts, inspects, pauses, resumes and cancels migration runs, browses
their failure logs, and stores the encrypted CRM API token.`,
	PersistentPreRun: setupClient,
	SilenceUsage:     true,
	SilenceErrors:    true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupClient(cmd *cobra.Command, _ []string) {
	addr := serverURL
	if addr == "" {
		viper.AutomaticEnv()
		addr = viper.GetString("crmsync_server")
	}
	if addr == "" {
		addr = "http://localhost:8080"
	}

	client := ctl.New(addr)
	cmd.SetContext(context.WithValue(cmd.Context(), types.APIClientKey, client))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "sync server URL (default http://localhost:8080, env CRMSYNC_SERVER)")

	rootCmd.AddCommand(runs.RunsCmd)
	rootCmd.AddCommand(integration.TokenCmd)
}
