package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"summitstats-backend/lib/clubdata"
)

var (
	setFetchLimit  int
	setShowAvatars bool
)

func init() {
	settingsSetCmd.Flags().IntVar(&setFetchLimit, "fetch-limit", -1, "default cap on new activities per refresh")
	settingsSetCmd.Flags().BoolVar(&setShowAvatars, "show-avatars", true, "whether the UI shows member avatars")
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Prints the daemon's persisted settings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var settings clubdata.Settings
		resp, err := api().R().
			SetContext(cmd.Context()).
			SetResult(&settings).
			Get("/api/settings")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("settings request failed: %s", resp.Status())
		}
		fmt.Printf("fetchLimit:  %d\nshowAvatars: %v\n", settings.FetchLimit, settings.ShowAvatars)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Updates the daemon's persisted settings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var settings clubdata.Settings
		resp, err := api().R().
			SetContext(cmd.Context()).
			SetResult(&settings).
			Get("/api/settings")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("settings request failed: %s", resp.Status())
		}

		if cmd.Flags().Changed("fetch-limit") {
			settings.FetchLimit = setFetchLimit
		}
		if cmd.Flags().Changed("show-avatars") {
			settings.ShowAvatars = setShowAvatars
		}

		resp, err = api().R().
			SetContext(cmd.Context()).
			SetBody(settings).
			Put("/api/settings")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("settings update failed: %s", resp.Status())
		}
		fmt.Printf("fetchLimit:  %d\nshowAvatars: %v\n", settings.FetchLimit, settings.ShowAvatars)
		return nil
	},
}
