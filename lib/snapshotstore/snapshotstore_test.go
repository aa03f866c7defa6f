package snapshotstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"summitstats-backend/lib/clubdata"
	"summitstats-backend/lib/kvstore"
)

func setup(t *testing.T) Store {
	kv, err := kvstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return New(kv)
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Empty(t, snap.Activities)

	snap = clubdata.Snapshot{
		Activities:     []clubdata.Activity{{UID: "/activities/a", Title: "A"}},
		LastUpdated:    time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		CurrentUserUID: "/members/ana",
	}
	require.NoError(t, store.SetSnapshot(ctx, snap))

	got, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, snap, got)

	require.NoError(t, store.Clear(ctx))
	got, err = store.Snapshot(ctx)
	require.NoError(t, err)
	require.Empty(t, got.Activities)
	require.Equal(t, "", got.CurrentUserUID)
}

func TestSettingsDefaults(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	settings, err := store.Settings(ctx)
	require.NoError(t, err)
	require.Equal(t, clubdata.DefaultSettings(), settings)

	settings.FetchLimit = 10
	settings.ShowAvatars = false
	require.NoError(t, store.SetSettings(ctx, settings))

	got, err := store.Settings(ctx)
	require.NoError(t, err)
	require.Equal(t, 10, got.FetchLimit)
	require.False(t, got.ShowAvatars)
}

func TestSettingsSurviveCacheClear(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	require.NoError(t, store.SetSettings(ctx, clubdata.Settings{FetchLimit: 5, ShowAvatars: true}))
	require.NoError(t, store.SetSnapshot(ctx, clubdata.Snapshot{CurrentUserUID: "/members/ana"}))
	require.NoError(t, store.Clear(ctx))

	settings, err := store.Settings(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, settings.FetchLimit)
}
