package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"summitstats-backend/lib/clubdata"
	"summitstats-backend/lib/scrapers/clubportal"
	"summitstats-backend/lib/snapshotstore"
	"summitstats-backend/lib/testutil"
	"summitstats-backend/services/collector"
	"summitstats-backend/services/runlog"
)

// stubSource serves a fixed single-page history, optionally blocking
// list fetches until released.
type stubSource struct {
	page  clubportal.ActivityListPage
	block chan struct{}
}

func (s *stubSource) ActivityListPage(ctx context.Context, page int) (clubportal.ActivityListPage, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return clubportal.ActivityListPage{}, ctx.Err()
		}
	}
	return s.page, nil
}

func (s *stubSource) ActivityDetail(ctx context.Context, act clubdata.Activity) (clubdata.Activity, error) {
	return act, nil
}

func (s *stubSource) Roster(ctx context.Context, act clubdata.Activity) (clubportal.RosterPage, error) {
	return clubportal.RosterPage{}, nil
}

type harness struct {
	ts        *httptest.Server
	source    *stubSource
	snapshots snapshotstore.Store
	runs      runlog.Store
	service   *collector.Service
}

func setup(t *testing.T) harness {
	cleanup := testutil.Telemetry(t, "test:pkg/server")
	t.Cleanup(cleanup)

	nc := testutil.StartNATS(t)
	snaps := testutil.Snapshots(t)
	runs := testutil.Runlog(t)

	source := &stubSource{}
	service := collector.NewService(context.Background(), collector.Options{
		Source:       source,
		Snapshots:    snaps,
		Nats:         nc,
		Runs:         &runs,
		FetchTimeout: time.Second,
		FetchDelay:   time.Millisecond,
		MaxPages:     10,
	})

	srv := New(Options{
		Collector: service,
		Snapshots: snaps,
		Runs:      runs,
		Nats:      nc,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return harness{ts: ts, source: source, snapshots: snaps, runs: runs, service: service}
}

func (h harness) getJSON(t *testing.T, path string, out any) {
	resp, err := http.Get(h.ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func seedSnapshot(t *testing.T, snaps snapshotstore.Store) {
	snap := clubdata.Snapshot{
		Activities: []clubdata.Activity{
			{UID: "/activities/ridge", Title: "Ridge Traverse", Category: "Trip", StartDate: "2026-05-09", ActivityType: "Scramble"},
			{UID: "/activities/nav", Title: "Navigation Clinic", Category: "Course", StartDate: "2026-03-14", ActivityType: "Course"},
		},
		People: []clubdata.Person{
			{UID: "/members/me", Name: "Me Myself"},
			{UID: "/members/ana", Name: "Ana Cortes"},
		},
		RosterEntries: []clubdata.RosterEntry{
			{ActivityUID: "/activities/ridge", PersonUID: "/members/me"},
			{ActivityUID: "/activities/ridge", PersonUID: "/members/ana", Role: "Participant"},
			{ActivityUID: "/activities/nav", PersonUID: "/members/me", Role: "Student"},
		},
		LastUpdated:    time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC),
		CurrentUserUID: "/members/me",
	}
	require.NoError(t, snaps.SetSnapshot(context.Background(), snap))
}

func TestHealth(t *testing.T) {
	h := setup(t)

	var out healthResponse
	h.getJSON(t, "/health", &out)
	require.Equal(t, "ok", out.Status)
}

func TestRefreshStartsRun(t *testing.T) {
	h := setup(t)

	resp, err := http.Post(h.ts.URL+"/api/refresh", echoJSON, strings.NewReader(`{"limit": 5}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var out refreshResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.True(t, out.Success)
	require.False(t, out.InProgress)
	require.NotEmpty(t, out.RunID)

	require.Eventually(t, func() bool {
		_, running := h.service.Active()
		return !running
	}, 5*time.Second, 5*time.Millisecond)
}

func TestRefreshConflictWhileRunning(t *testing.T) {
	h := setup(t)
	h.source.block = make(chan struct{})

	resp, err := http.Post(h.ts.URL+"/api/refresh", echoJSON, nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var active activeResponse
	h.getJSON(t, "/api/refresh/active", &active)
	require.True(t, active.Active)
	require.NotEmpty(t, active.RunID)

	resp, err = http.Post(h.ts.URL+"/api/refresh", echoJSON, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var out refreshResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.False(t, out.Success)
	require.True(t, out.InProgress)
	require.Equal(t, active.RunID, out.RunID)

	close(h.source.block)
	require.Eventually(t, func() bool {
		_, running := h.service.Active()
		return !running
	}, 5*time.Second, 5*time.Millisecond)
}

func TestDashboardEndpoint(t *testing.T) {
	h := setup(t)
	seedSnapshot(t, h.snapshots)

	var out dashboardResponse
	h.getJSON(t, "/api/dashboard", &out)
	require.Equal(t, 2, out.View.Metrics.TotalActivities)
	require.Equal(t, 1, out.View.Metrics.TripCount)
	require.Equal(t, "/members/me", out.CurrentUserUID)
	require.Equal(t, []string{"Course", "Scramble"}, out.FilterOptions.ActivityTypes)

	h.getJSON(t, "/api/dashboard?category=trip", &out)
	require.Equal(t, 1, out.View.Metrics.TotalActivities)
	require.Equal(t, "/activities/ridge", out.View.Recent[0].UID)
}

func TestDashboardPreparationMemoizedPerSnapshot(t *testing.T) {
	srv := New(Options{})
	snap := clubdata.Snapshot{
		Activities: []clubdata.Activity{
			{UID: "/activities/ridge", Title: "Ridge Traverse", Category: "Trip", StartDate: "2026-05-09", ActivityType: "Scramble"},
		},
		LastUpdated:    time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC),
		CurrentUserUID: "/members/me",
	}

	first := srv.preparedData(snap)
	second := srv.preparedData(snap)
	require.Len(t, first.Activities, 1)
	// same backing array means Prepare ran once
	require.Same(t, &first.Activities[0], &second.Activities[0])

	snap.LastUpdated = snap.LastUpdated.Add(time.Minute)
	third := srv.preparedData(snap)
	require.NotSame(t, &first.Activities[0], &third.Activities[0])
	require.Equal(t, snap.LastUpdated, third.LastUpdated)
}

func TestSettingsRoundTrip(t *testing.T) {
	h := setup(t)

	var settings clubdata.Settings
	h.getJSON(t, "/api/settings", &settings)
	require.Equal(t, clubdata.DefaultSettings(), settings)

	body, _ := json.Marshal(clubdata.Settings{FetchLimit: 10, ShowAvatars: false})
	req, err := http.NewRequest(http.MethodPut, h.ts.URL+"/api/settings", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", echoJSON)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	h.getJSON(t, "/api/settings", &settings)
	require.Equal(t, clubdata.Settings{FetchLimit: 10, ShowAvatars: false}, settings)
}

func TestClearCache(t *testing.T) {
	h := setup(t)
	seedSnapshot(t, h.snapshots)

	req, err := http.NewRequest(http.MethodDelete, h.ts.URL+"/api/cache", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var out dashboardResponse
	h.getJSON(t, "/api/dashboard", &out)
	require.Equal(t, 0, out.View.Metrics.TotalActivities)
}

func TestRunsEndpoint(t *testing.T) {
	h := setup(t)

	run := runlog.Run{
		ID:            "run-1",
		StartedAt:     time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC),
		FinishedAt:    time.Date(2026, 5, 10, 8, 1, 0, 0, time.UTC),
		Stage:         string(collector.StageComplete),
		NewActivities: 3,
		ActivityCount: 12,
	}
	require.NoError(t, h.runs.Push(context.Background(), run))

	var out []runResponse
	h.getJSON(t, "/api/runs", &out)
	require.Len(t, out, 1)
	require.Equal(t, "run-1", out[0].ID)
	require.Equal(t, 3, out[0].NewActivities)
}

func TestRefreshEventsReplaysFinishedRun(t *testing.T) {
	h := setup(t)

	run := runlog.Run{
		ID:            "run-done",
		StartedAt:     time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC),
		FinishedAt:    time.Date(2026, 5, 10, 8, 1, 0, 0, time.UTC),
		Stage:         string(collector.StageComplete),
		NewActivities: 2,
		ActivityCount: 7,
	}
	require.NoError(t, h.runs.Push(context.Background(), run))

	resp, err := http.Get(h.ts.URL + "/api/refresh/events/run-done")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "event: result")

	_, data, found := strings.Cut(string(body), "data: ")
	require.True(t, found)
	var ev collector.ResultEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(data)), &ev))
	require.Equal(t, collector.StageComplete, ev.Stage)
	require.Equal(t, 2, ev.Summary.NewActivities)
}

func TestRefreshEventsUnknownRun(t *testing.T) {
	h := setup(t)

	resp, err := http.Get(h.ts.URL + "/api/refresh/events/no-such-run")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRefreshEventsStreamsLiveRun(t *testing.T) {
	h := setup(t)
	h.source.page = clubportal.ActivityListPage{
		Activities: []clubdata.Activity{
			{UID: "/activities/one", Href: "https://portal.example.com/activities/one", Title: "First Outing", StartDate: "2026-05-02"},
		},
	}
	h.source.block = make(chan struct{})

	resp, err := http.Post(h.ts.URL+"/api/refresh", echoJSON, nil)
	require.NoError(t, err)
	var started refreshResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&started))
	resp.Body.Close()
	require.True(t, started.Success)

	events, err := http.Get(fmt.Sprintf("%s/api/refresh/events/%s", h.ts.URL, started.RunID))
	require.NoError(t, err)
	defer events.Body.Close()
	require.Equal(t, http.StatusOK, events.StatusCode)

	close(h.source.block)

	body, err := io.ReadAll(events.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "event: progress")
	require.Contains(t, string(body), "event: result")
}

const echoJSON = "application/json"
