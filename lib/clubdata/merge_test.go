package clubdata

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var mergeTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixtureSnapshot() Snapshot {
	return Snapshot{
		Activities: []Activity{
			{UID: "/activities/winter-scramble", Title: "Winter Scramble", Category: "Trip", StartDate: "2026-01-10"},
			{UID: "/activities/nav-course", Title: "Navigation Course", Category: "Course", StartDate: "2026-01-20"},
		},
		People: []Person{
			{UID: "/members/ana", Name: "Ana"},
		},
		RosterEntries: []RosterEntry{
			{ActivityUID: "/activities/winter-scramble", PersonUID: "/members/ana", Role: "Participant"},
		},
		CurrentUserUID: "/members/ana",
	}
}

func TestMergeUnionsByUID(t *testing.T) {
	delta := Delta{
		Activities: []Activity{
			// fresher detail for a known activity
			{UID: "/activities/winter-scramble", Title: "Winter Scramble", Category: "Trip", StartDate: "2026-01-10", ActivityType: "Scrambling", Result: "Successful"},
			{UID: "/activities/spring-climb", Title: "Spring Climb", Category: "Trip", StartDate: "2026-03-05"},
		},
		People: []Person{
			{UID: "/members/ben", Name: "Ben"},
		},
		RosterEntries: []RosterEntry{
			{ActivityUID: "/activities/winter-scramble", PersonUID: "/members/ana", Role: "Leader", IsLeader: true},
			{ActivityUID: "/activities/spring-climb", PersonUID: "/members/ben", Role: "Participant"},
		},
	}

	merged := Merge(fixtureSnapshot(), delta, mergeTime)

	require.Len(t, merged.Activities, 3)
	require.Equal(t, "Scrambling", merged.Activities[0].ActivityType)
	require.Len(t, merged.People, 2)
	require.Len(t, merged.RosterEntries, 2)
	require.True(t, merged.RosterEntries[0].IsLeader)
	require.Equal(t, mergeTime, merged.LastUpdated)
	require.Equal(t, "/members/ana", merged.CurrentUserUID)
}

func TestMergeIdempotent(t *testing.T) {
	delta := Delta{
		Activities: []Activity{{UID: "/activities/spring-climb", Title: "Spring Climb"}},
		People:     []Person{{UID: "/members/ben", Name: "Ben"}},
		RosterEntries: []RosterEntry{
			{ActivityUID: "/activities/spring-climb", PersonUID: "/members/ben"},
		},
	}

	once := Merge(fixtureSnapshot(), delta, mergeTime)
	twice := Merge(once, delta, mergeTime.Add(time.Hour))

	// merging the same delta again changes nothing but LastUpdated
	twice.LastUpdated = once.LastUpdated
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second merge changed the snapshot (-once +twice):\n%s", diff)
	}
}

func TestMergeMonotonic(t *testing.T) {
	existing := fixtureSnapshot()
	deltas := []Delta{
		{},
		{Activities: []Activity{{UID: "/activities/winter-scramble"}}},
		{Activities: []Activity{{UID: "/activities/new-one"}}},
	}
	for _, delta := range deltas {
		merged := Merge(existing, delta, mergeTime)
		require.GreaterOrEqual(t, len(merged.Activities), len(existing.Activities))
		require.GreaterOrEqual(t, len(merged.People), len(existing.People))
		require.GreaterOrEqual(t, len(merged.RosterEntries), len(existing.RosterEntries))
	}
}

func TestMergeCurrentUserRules(t *testing.T) {
	merged := Merge(fixtureSnapshot(), Delta{}, mergeTime)
	require.Equal(t, "/members/ana", merged.CurrentUserUID, "existing value preserved when delta has none")

	merged = Merge(fixtureSnapshot(), Delta{CurrentUserUID: "/members/ben"}, mergeTime)
	require.Equal(t, "/members/ben", merged.CurrentUserUID, "delta wins when non-empty")
}

func TestMergeIntoEmpty(t *testing.T) {
	delta := Delta{
		Activities: []Activity{{UID: "/activities/a"}},
	}
	merged := Merge(Snapshot{}, delta, mergeTime)
	require.Len(t, merged.Activities, 1)
	require.Equal(t, "", merged.CurrentUserUID)
}
