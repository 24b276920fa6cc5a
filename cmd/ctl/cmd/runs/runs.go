package runs

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"crmsync/cmd/ctl/cmd/types"
	"crmsync/internal/app/ctl"
	"crmsync/internal/domain/run"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// RunsCmd is the parent for all migration run operations.
var RunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage migration runs",
	Long:  `Start, list, inspect, pause, resume and cancel migration runs.`,
}

func apiClient(cmd *cobra.Command) (*ctl.Client, error) {
	client, ok := cmd.Context().Value(types.APIClientKey).(*ctl.Client)
	if !ok || client == nil {
		return nil, fmt.Errorf("API client is not initialized")
	}
	return client, nil
}

func statusColor(s run.Status) *color.Color {
	switch s {
	case run.StatusRunning:
		return color.New(color.FgGreen)
	case run.StatusPaused:
		return color.New(color.FgYellow)
	case run.StatusCancelled:
		return color.New(color.FgRed)
	case run.StatusCompleted:
		return color.New(color.FgCyan)
	default:
		return color.New(color.Reset)
	}
}

func printRunTable(views []run.View) {
	if len(views) == 0 {
		fmt.Println("No runs found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tStatus\tEntities\tProgress\tErrors\tStarted\t\n")
	fmt.Fprintf(w, "---\t---\t---\t---\t---\t---\t\n")

	for _, v := range views {
		progress := "-"
		if v.ProgressPercent != nil {
			progress = fmt.Sprintf("%d%%", *v.ProgressPercent)
		}
		started := "-"
		if v.StartedAt != nil {
			started = v.StartedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t\n",
			v.ID,
			statusColor(v.Status).Sprint(string(v.Status)),
			strings.Join(v.EntityTypes, ","),
			progress,
			v.ErrorCount,
			started,
		)
	}
	w.Flush()
}

func printRunDetail(v *run.View) {
	fmt.Printf("Run:         %s\n", v.ID)
	fmt.Printf("Integration: %s\n", v.IntegrationID)
	fmt.Printf("Type:        %s\n", v.RunType)
	fmt.Printf("Entities:    %s\n", strings.Join(v.EntityTypes, ", "))
	fmt.Printf("Status:      %s\n", statusColor(v.Status).Sprint(string(v.Status)))

	if v.TotalEntities != nil {
		fmt.Printf("Processed:   %d / %d\n", v.ProcessedEntities, *v.TotalEntities)
	} else {
		fmt.Printf("Processed:   %d\n", v.ProcessedEntities)
	}
	if v.ProgressPercent != nil {
		fmt.Printf("Progress:    %d%%\n", *v.ProgressPercent)
	}
	if v.EstimatedTimeRemaining != nil {
		fmt.Printf("ETA:         %ds\n", *v.EstimatedTimeRemaining)
	}

	fmt.Printf("Created:     %d\n", v.CreatedRecords)
	fmt.Printf("Updated:     %d\n", v.UpdatedRecords)
	fmt.Printf("Skipped:     %d\n", v.SkippedRecords)
	fmt.Printf("Duplicates:  %d\n", v.DuplicatesLinked)
	fmt.Printf("Errors:      %d\n", v.ErrorCount)

	if v.Checkpoint != nil {
		fmt.Printf("Checkpoint:  %s page %d\n", v.Checkpoint.Phase, v.Checkpoint.Page)
	}
	if v.StartedAt != nil {
		fmt.Printf("Started:     %s\n", v.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if v.CompletedAt != nil {
		fmt.Printf("Completed:   %s\n", v.CompletedAt.Format("2006-01-02 15:04:05"))
	}
}

func init() {
	RunsCmd.AddCommand(StartCmd)
	RunsCmd.AddCommand(ListCmd)
	RunsCmd.AddCommand(StatusCmd)
	RunsCmd.AddCommand(PauseCmd)
	RunsCmd.AddCommand(CancelCmd)
	RunsCmd.AddCommand(ResumeCmd)
	RunsCmd.AddCommand(ErrorsCmd)
}
