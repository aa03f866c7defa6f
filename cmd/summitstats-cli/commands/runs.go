package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runsCmd)
}

type runEntry struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
	Stage         string    `json:"stage"`
	ErrorKind     string    `json:"errorKind"`
	Error         string    `json:"error"`
	NewActivities int       `json:"newActivities"`
	ActivityCount int       `json:"activityCount"`
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Lists recent collection runs recorded by the daemon.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var runs []runEntry
		resp, err := api().R().
			SetContext(cmd.Context()).
			SetResult(&runs).
			Get("/api/runs")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("runs request failed: %s", resp.Status())
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded yet")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Started", "Outcome", "New", "Total", "Error"})
		for _, run := range runs {
			t.AppendRow(table.Row{
				run.StartedAt.Local().Format(time.ANSIC),
				run.Stage,
				run.NewActivities,
				run.ActivityCount,
				run.Error,
			})
		}
		t.Render()
		return nil
	},
}
