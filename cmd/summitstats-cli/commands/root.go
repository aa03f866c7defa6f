package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var addr string

var rootCmd = &cobra.Command{
	Use:   "summitstats-cli",
	Short: "summitstats-cli talks to a running summitstatsd daemon.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&addr, "addr", "http://localhost:8777",
		"base url of the summitstatsd http api",
	)
}

func api() *resty.Client {
	return resty.New().SetBaseURL(addr)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
