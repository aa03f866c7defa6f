package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"summitstats-backend/services/collector"
)

var refreshLimit int

func init() {
	refreshCmd.Flags().IntVar(
		&refreshLimit, "limit", -1,
		"cap on new activities fetched this run (-1 uses the daemon's fetchLimit setting)",
	)
	rootCmd.AddCommand(refreshCmd)
}

type refreshResponse struct {
	Success    bool   `json:"success"`
	InProgress bool   `json:"inProgress"`
	RunID      string `json:"runId"`
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Starts a collection run and streams its progress until it finishes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{}
		if refreshLimit >= 0 {
			body["limit"] = refreshLimit
		}

		var started refreshResponse
		resp, err := api().R().
			SetContext(cmd.Context()).
			SetBody(body).
			SetResult(&started).
			SetError(&started).
			Post("/api/refresh")
		if err != nil {
			return err
		}
		if started.InProgress {
			fmt.Printf("a refresh is already running (%s), attaching to it\n", started.RunID)
		} else if !started.Success {
			return fmt.Errorf("refresh request failed: %s", resp.Status())
		}

		return streamRun(cmd, started.RunID)
	},
}

func streamRun(cmd *cobra.Command, runID string) error {
	resp, err := api().R().
		SetContext(cmd.Context()).
		SetDoNotParseResponse(true).
		Get("/api/refresh/events/" + runID)
	if err != nil {
		return err
	}
	body := resp.RawBody()
	defer body.Close()

	var event string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data := []byte(strings.TrimPrefix(line, "data: "))
			if event == "result" {
				var result collector.ResultEvent
				if err := json.Unmarshal(data, &result); err != nil {
					return err
				}
				printResult(result)
				return nil
			}
			var progress collector.ProgressEvent
			if err := json.Unmarshal(data, &progress); err != nil {
				return err
			}
			printProgress(progress)
		}
	}
	return scanner.Err()
}

func printProgress(ev collector.ProgressEvent) {
	if ev.Total > 0 {
		fmt.Printf("%s %d/%d\n", ev.Stage, ev.Completed, ev.Total)
		return
	}
	fmt.Println(ev.Stage)
}

func printResult(ev collector.ResultEvent) {
	switch ev.Stage {
	case collector.StageComplete:
		fmt.Printf("%d new activities cached (%d total)\n",
			ev.Summary.NewActivities, ev.Summary.ActivityCount)
	case collector.StageNoNewActivities:
		fmt.Println("no new activities")
	default:
		if ev.ErrorKind == collector.ErrorKindAuth {
			fmt.Println("not logged in: open the portal in your browser and copy a fresh session cookie")
			return
		}
		fmt.Printf("refresh failed: %s\n", ev.Error)
	}
}
