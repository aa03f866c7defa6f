package commands

import (
	"fmt"
	"net/url"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"summitstats-backend/services/dashboard"
)

var (
	filterTypes      []string
	filterCategories []string
	filterRoles      []string
	filterPartners   []string
)

func init() {
	dashboardCmd.Flags().StringSliceVar(&filterTypes, "type", nil, "filter by activity type")
	dashboardCmd.Flags().StringSliceVar(&filterCategories, "category", nil, "filter by category key")
	dashboardCmd.Flags().StringSliceVar(&filterRoles, "role", nil, "filter by your role")
	dashboardCmd.Flags().StringSliceVar(&filterPartners, "partner", nil, "only activities shared with every given partner uid")
	rootCmd.AddCommand(dashboardCmd)
}

type dashboardResponse struct {
	View           dashboard.View          `json:"view"`
	FilterOptions  dashboard.FilterOptions `json:"filterOptions"`
	CurrentUserUID string                  `json:"currentUserUid"`
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Prints the dashboard computed from the cached snapshot.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var out dashboardResponse
		resp, err := api().R().
			SetContext(cmd.Context()).
			SetResult(&out).
			SetQueryParamsFromValues(url.Values{
				"activityType": filterTypes,
				"category":     filterCategories,
				"role":         filterRoles,
				"partner":      filterPartners,
			}).
			Get("/api/dashboard")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("dashboard request failed: %s", resp.Status())
		}

		view := out.View
		fmt.Printf("activities: %d  trips: %d  courses: %d  partners: %d  types: %d\n\n",
			view.Metrics.TotalActivities,
			view.Metrics.TripCount,
			view.Metrics.CourseCount,
			view.Metrics.UniquePartners,
			view.Metrics.UniqueTypes,
		)

		if len(view.TypeDistribution) > 0 {
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Type", "Count", "%"})
			for _, entry := range view.TypeDistribution {
				t.AppendRow(table.Row{entry.Label, entry.Value, fmt.Sprintf("%.1f", entry.Percentage)})
			}
			t.Render()
			fmt.Println()
		}

		if len(view.Partners) > 0 {
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Partner", "Shared", "Last shared"})
			for _, partner := range view.Partners {
				t.AppendRow(table.Row{partner.Name, partner.Count, partner.LastShared.Format("2006-01-02")})
			}
			t.Render()
			fmt.Println()
		}

		if len(view.Recent) > 0 {
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Date", "Title", "Type", "Your roles"})
			for _, act := range view.Recent {
				t.AppendRow(table.Row{
					act.Date.Format("2006-01-02"),
					act.Title,
					act.TypeLabel,
					joinOrDash(act.UserRoles),
				})
			}
			t.Render()
		}
		return nil
	},
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	out := values[0]
	for _, v := range values[1:] {
		out += ", " + v
	}
	return out
}
