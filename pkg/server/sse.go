package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nats-io/nats.go"

	"summitstats-backend/services/collector"
	"summitstats-backend/services/runlog"
)

const heartbeatInterval = 10 * time.Second

// handleRefreshEvents streams one run's progress and result events over
// SSE. For a run that already finished, the recorded result is replayed
// immediately so late subscribers still see a terminal event.
func (s *Server) handleRefreshEvents(c echo.Context) error {
	runID := c.Param("run_id")
	ctx := c.Request().Context()

	msgs := make(chan *nats.Msg, 16)
	sub, err := s.opts.Nats.ChanSubscribe(collector.RunSubjects(runID), msgs)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()

	if activeID, active := s.opts.Collector.Active(); !active || activeID != runID {
		run, found, err := s.opts.Runs.Get(ctx, runID)
		if err != nil {
			return err
		}
		if !found {
			return echo.NewHTTPError(http.StatusNotFound, "unknown run")
		}
		writeSSEHeaders(c)
		return writeResultFromRecord(c, run)
	}

	writeSSEHeaders(c)
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-msgs:
			event := msg.Subject[strings.LastIndexByte(msg.Subject, '.')+1:]
			if err := writeSSEEvent(c, event, msg.Data); err != nil {
				return err
			}
			if event == "result" {
				return nil
			}

		case <-ticker.C:
			// the run's result can slip past a subscription that raced
			// with the final publish, so fall back to the run log
			if activeID, active := s.opts.Collector.Active(); !active || activeID != runID {
				run, found, err := s.opts.Runs.Get(ctx, runID)
				if err == nil && found {
					return writeResultFromRecord(c, run)
				}
				return nil
			}
			fmt.Fprintf(c.Response(), ": heartbeat\n\n")
			c.Response().Flush()

		case <-ctx.Done():
			return nil
		}
	}
}

func writeSSEHeaders(c echo.Context) {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)
	// the client's GET does not return until the headers hit the wire,
	// and the first event may be a long fetch away
	c.Response().Flush()
}

func writeSSEEvent(c echo.Context, event string, data []byte) error {
	if _, err := fmt.Fprintf(c.Response(), "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}

func writeResultFromRecord(c echo.Context, run runlog.Run) error {
	ev := collector.ResultEvent{
		RunID:     run.ID,
		Stage:     collector.Stage(run.Stage),
		ErrorKind: run.ErrorKind,
		Error:     run.Error,
		Summary: collector.Summary{
			ActivityCount: run.ActivityCount,
			LastUpdated:   run.FinishedAt,
			NewActivities: run.NewActivities,
		},
		Time: run.FinishedAt,
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return writeSSEEvent(c, "result", payload)
}
