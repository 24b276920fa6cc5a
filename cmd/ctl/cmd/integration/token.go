// cmd/ctl/cmd/integration/token.go
package integration

import (
	"fmt"
	"os"
	"strings"

	"crmsync/cmd/ctl/cmd/types"
	"crmsync/internal/app/ctl"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// TokenCmd stores the CRM API token for an integration. The token is read
// from the terminal without echo and sent once; the server keeps only the
// encrypted envelope.
var TokenCmd = &cobra.Command{
	Use:   "token <integration-id>",
	Short: "Store the CRM API token for an integration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, ok := cmd.Context().Value(types.APIClientKey).(*ctl.Client)
		if !ok || client == nil {
			return fmt.Errorf("API client is not initialized")
		}

		fmt.Print("API token: ")
		token, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		fmt.Println()

		if strings.TrimSpace(string(token)) == "" {
			return fmt.Errorf("token must not be empty")
		}

		if err := client.SetToken(cmd.Context(), args[0], string(token)); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}

		color.Green("✓ Token stored encrypted")
		return nil
	},
}
