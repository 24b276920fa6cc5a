// cmd/ctl/cmd/runs/errors.go
package runs

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	errorsEntityType string
	errorsType       string
	errorsFormat     string
	errorsLimit      int
	errorsOffset     int
)

var ErrorsCmd = &cobra.Command{
	Use:   "errors <run-id>",
	Short: "Show the failure log of a run",
	Long: `Lists the per-entity failures recorded during a run, oldest first.

Filter with --entity-type and --error-type.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := apiClient(cmd)
		if err != nil {
			return err
		}

		log, err := client.RunErrors(cmd.Context(), args[0],
			errorsEntityType, errorsType, errorsLimit, errorsOffset)
		if err != nil {
			return fmt.Errorf("failed to list run errors: %w", err)
		}

		if errorsFormat == "json" {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(log)
		}

		if len(log.Errors) == 0 {
			fmt.Println("No errors recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Entity\tExternal ID\tType\tMessage\t\n")
		fmt.Fprintf(w, "---\t---\t---\t---\t\n")
		for _, e := range log.Errors {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
				e.EntityType, e.ExternalID, e.ErrorType, truncate(e.ErrorMessage, 60))
		}
		w.Flush()

		fmt.Printf("\nTotal errors: %d (page %d of %d)\n",
			log.Pagination.TotalCount, log.Pagination.Page, log.Pagination.TotalPages)
		return nil
	},
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func init() {
	ErrorsCmd.Flags().StringVar(&errorsEntityType, "entity-type", "", "filter by entity type")
	ErrorsCmd.Flags().StringVar(&errorsType, "error-type", "", "filter by error type")
	ErrorsCmd.Flags().StringVarP(&errorsFormat, "format", "f", "table", "output format (table, json)")
	ErrorsCmd.Flags().IntVar(&errorsLimit, "limit", 50, "page size")
	ErrorsCmd.Flags().IntVar(&errorsOffset, "offset", 0, "pagination offset")
}
