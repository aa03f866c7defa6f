package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(clearCmd)
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Deletes the cached snapshot. The next refresh starts from scratch.",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := api().R().SetContext(cmd.Context()).Delete("/api/cache")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("clear request failed: %s", resp.Status())
		}
		fmt.Println("cache cleared")
		return nil
	},
}
