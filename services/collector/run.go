package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"

	"summitstats-backend/lib/clubdata"
	"summitstats-backend/lib/scrapers/clubportal"
	"summitstats-backend/services/runlog"
)

func (s *Service) run(ctx context.Context, runID string, limit int) {
	ctx, span := tracer.Start(ctx, "collector:run")
	defer span.End()
	defer s.release(runID)

	started := s.now()
	pub := publisher{nc: s.nc, runID: runID, now: s.now}
	pub.progress(StageStarting, 0, 0, "")

	result := s.collect(ctx, pub, limit)
	if result.Stage == StageError {
		span.SetStatus(codes.Error, result.Error)
	}

	if s.runs != nil {
		err := s.runs.Push(ctx, runlog.Run{
			ID:            runID,
			StartedAt:     started,
			FinishedAt:    s.now(),
			Stage:         string(result.Stage),
			ErrorKind:     result.ErrorKind,
			Error:         result.Error,
			NewActivities: result.Summary.NewActivities,
			ActivityCount: result.Summary.ActivityCount,
		})
		if err != nil {
			slog.WarnContext(ctx, "failed to record run", "run_id", runID, "err", err)
		}
	}

	pub.result(result)
}

func classifyError(err error) string {
	if errors.Is(err, clubportal.ErrNotAuthenticated) {
		return ErrorKindAuth
	}
	return ErrorKindGeneric
}

func (s *Service) fetchListPage(ctx context.Context, page int) (clubportal.ActivityListPage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	return s.source.ActivityListPage(ctx, page)
}

func (s *Service) fetchDetail(ctx context.Context, act clubdata.Activity) (clubdata.Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	return s.source.ActivityDetail(ctx, act)
}

func (s *Service) fetchRoster(ctx context.Context, act clubdata.Activity) (clubportal.RosterPage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	return s.source.Roster(ctx, act)
}

func (s *Service) collect(ctx context.Context, pub publisher, limit int) ResultEvent {
	// walk the full paginated history; a failure here is fatal to the
	// run since there is nothing to dedupe against
	pub.progress(StageFetchingActivities, 0, 0, "")

	var listed []clubdata.Activity
	currentUserHint := ""
	for page := 1; page <= s.maxPages; page++ {
		res, err := s.fetchListPage(ctx, page)
		if err != nil {
			return ResultEvent{
				Stage:     StageError,
				ErrorKind: classifyError(err),
				Error:     err.Error(),
			}
		}
		listed = append(listed, res.Activities...)
		if res.CurrentUserUID != "" {
			currentUserHint = res.CurrentUserUID
		}
		if !res.HasMore {
			break
		}
		time.Sleep(s.fetchDelay)
	}

	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return ResultEvent{
			Stage:     StageError,
			ErrorKind: ErrorKindGeneric,
			Error:     fmt.Sprintf("failed to read cached snapshot: %s", err),
		}
	}

	known := make(map[string]bool, len(snap.Activities))
	for _, a := range snap.Activities {
		known[a.UID] = true
	}
	var fresh []clubdata.Activity
	for _, a := range listed {
		if !known[a.UID] {
			fresh = append(fresh, a)
			known[a.UID] = true
		}
	}
	if limit > 0 && len(fresh) > limit {
		fresh = fresh[:limit]
	}
	pub.progress(StageActivitiesCollected, len(fresh), 0,
		fmt.Sprintf("%d new activities", len(fresh)))

	if len(fresh) == 0 {
		return ResultEvent{
			Stage: StageNoNewActivities,
			Summary: Summary{
				ActivityCount: len(snap.Activities),
				LastUpdated:   snap.LastUpdated,
			},
		}
	}

	// per-activity failures are absorbed: the activity is dropped from
	// this delta and picked up again on a later run
	failures := 0
	detailed := make([]clubdata.Activity, 0, len(fresh))
	for i, act := range fresh {
		pub.progress(StageLoadingDetails, len(fresh), i, act.Title)
		time.Sleep(s.fetchDelay)

		full, err := s.fetchDetail(ctx, act)
		if err != nil {
			slog.WarnContext(ctx, "failed to load activity detail",
				"activity", act.UID, "err", err)
			failures++
			continue
		}
		detailed = append(detailed, full)
	}
	pub.progress(StageLoadingDetails, len(fresh), len(fresh), "")

	delta := clubdata.Delta{
		Activities:     make([]clubdata.Activity, 0, len(detailed)),
		CurrentUserUID: currentUserHint,
	}
	for i, act := range detailed {
		pub.progress(StageLoadingRoster, len(detailed), i, act.Title)
		time.Sleep(s.fetchDelay)

		roster, err := s.fetchRoster(ctx, act)
		if err != nil {
			// dropped from the delta like a failed detail fetch; once
			// cached the activity would never be re-fetched, so a
			// cached activity with a lost roster stays lost
			slog.WarnContext(ctx, "failed to load roster",
				"activity", act.UID, "err", err)
			failures++
			continue
		}
		delta.Activities = append(delta.Activities, act)
		delta.People = append(delta.People, roster.People...)
		delta.RosterEntries = append(delta.RosterEntries, roster.Entries...)
	}
	pub.progress(StageLoadingRoster, len(detailed), len(detailed), "")

	pub.progress(StageFinalizing, 0, 0, "")
	merged := clubdata.Merge(snap, delta, s.now())
	if merged.CurrentUserUID == "" {
		merged.CurrentUserUID = clubdata.ResolveCurrentUser(merged.RosterEntries)
	}
	err = s.snapshots.SetSnapshot(ctx, merged)
	if err != nil {
		return ResultEvent{
			Stage:     StageError,
			ErrorKind: ErrorKindGeneric,
			Error:     fmt.Sprintf("failed to write snapshot: %s", err),
		}
	}

	if failures > 0 {
		slog.InfoContext(ctx, "collection run finished with partial results",
			"run_id", pub.runID, "failures", failures)
	}
	return ResultEvent{
		Stage: StageComplete,
		Summary: Summary{
			ActivityCount: len(merged.Activities),
			LastUpdated:   merged.LastUpdated,
			NewActivities: len(delta.Activities),
		},
	}
}
