package runlog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setup(t *testing.T) Store {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(Schema)
	require.NoError(t, err)
	return NewStore(db)
}

func TestPushAndList(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	runs := []Run{
		{ID: "run-1", StartedAt: base, FinishedAt: base.Add(time.Minute), Stage: "complete", NewActivities: 3, ActivityCount: 3},
		{ID: "run-2", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour + time.Minute), Stage: "no-new-activities", ActivityCount: 3},
		{ID: "run-3", StartedAt: base.Add(2 * time.Hour), FinishedAt: base.Add(2 * time.Hour), Stage: "error", ErrorKind: "auth", Error: "session expired"},
	}
	for _, run := range runs {
		require.NoError(t, store.Push(ctx, run))
	}

	got, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "run-3", got[0].ID)
	require.Equal(t, "auth", got[0].ErrorKind)
	require.Equal(t, "run-1", got[2].ID)
	require.Equal(t, 3, got[2].NewActivities)

	got, err = store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestGet(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	pushed := Run{ID: "run-1", StartedAt: base, FinishedAt: base.Add(time.Minute), Stage: "complete", NewActivities: 2, ActivityCount: 5}
	require.NoError(t, store.Push(ctx, pushed))

	got, found, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, pushed, got)

	_, found, err = store.Get(ctx, "run-404")
	require.NoError(t, err)
	require.False(t, found)
}
