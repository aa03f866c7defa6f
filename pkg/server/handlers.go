package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"summitstats-backend/lib/clubdata"
	"summitstats-backend/services/collector"
	"summitstats-backend/services/dashboard"
)

const runListLimit = 20

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

type refreshRequest struct {
	// Limit caps the number of new activities fetched this run. When
	// absent, the persisted fetchLimit setting applies.
	Limit *int `json:"limit"`
}

type refreshResponse struct {
	Success    bool   `json:"success"`
	InProgress bool   `json:"inProgress"`
	RunID      string `json:"runId,omitempty"`
}

func (s *Server) handleRefresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req refreshRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}

	var limit int
	if req.Limit != nil {
		if *req.Limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must not be negative")
		}
		limit = *req.Limit
	} else {
		settings, err := s.opts.Snapshots.Settings(ctx)
		if err != nil {
			return err
		}
		limit = settings.FetchLimit
	}

	runID, err := s.opts.Collector.StartRefresh(ctx, limit)
	if errors.Is(err, collector.ErrAlreadyRunning) {
		activeID, _ := s.opts.Collector.Active()
		return c.JSON(http.StatusConflict, refreshResponse{
			Success:    false,
			InProgress: true,
			RunID:      activeID,
		})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, refreshResponse{Success: true, RunID: runID})
}

type activeResponse struct {
	Active bool   `json:"active"`
	RunID  string `json:"runId,omitempty"`
}

func (s *Server) handleRefreshActive(c echo.Context) error {
	runID, active := s.opts.Collector.Active()
	return c.JSON(http.StatusOK, activeResponse{Active: active, RunID: runID})
}

type dashboardResponse struct {
	View           dashboard.View          `json:"view"`
	FilterOptions  dashboard.FilterOptions `json:"filterOptions"`
	CurrentUserUID string                  `json:"currentUserUid"`
}

func (s *Server) handleDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	snap, err := s.opts.Snapshots.Snapshot(ctx)
	if err != nil {
		return err
	}

	params := c.QueryParams()
	filters := dashboard.Filters{
		ActivityType: params["activityType"],
		Category:     params["category"],
		Role:         params["role"],
		Partner:      params["partner"],
	}

	prepared := s.preparedData(snap)
	return c.JSON(http.StatusOK, dashboardResponse{
		View:           dashboard.Calculate(prepared, filters),
		FilterOptions:  prepared.FilterOptions,
		CurrentUserUID: prepared.CurrentUserUID,
	})
}

func (s *Server) handleGetSettings(c echo.Context) error {
	settings, err := s.opts.Snapshots.Settings(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

func (s *Server) handlePutSettings(c echo.Context) error {
	var settings clubdata.Settings
	if err := c.Bind(&settings); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if settings.FetchLimit < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "fetchLimit must not be negative")
	}
	if err := s.opts.Snapshots.SetSettings(c.Request().Context(), settings); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

func (s *Server) handleClearCache(c echo.Context) error {
	if err := s.opts.Snapshots.Clear(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type runResponse struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
	Stage         string    `json:"stage"`
	ErrorKind     string    `json:"errorKind,omitempty"`
	Error         string    `json:"error,omitempty"`
	NewActivities int       `json:"newActivities"`
	ActivityCount int       `json:"activityCount"`
}

func (s *Server) handleRuns(c echo.Context) error {
	runs, err := s.opts.Runs.List(c.Request().Context(), runListLimit)
	if err != nil {
		return err
	}
	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, runResponse{
			ID:            run.ID,
			StartedAt:     run.StartedAt,
			FinishedAt:    run.FinishedAt,
			Stage:         run.Stage,
			ErrorKind:     run.ErrorKind,
			Error:         run.Error,
			NewActivities: run.NewActivities,
			ActivityCount: run.ActivityCount,
		})
	}
	return c.JSON(http.StatusOK, out)
}
