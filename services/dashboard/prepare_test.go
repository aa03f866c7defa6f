package dashboard

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"summitstats-backend/lib/clubdata"
)

const currentUser = "/members/me"

func act(uid, title, category, startDate, activityType string) clubdata.Activity {
	return clubdata.Activity{
		UID:          uid,
		Href:         "https://portal.example.com" + uid,
		Title:        title,
		Category:     category,
		StartDate:    startDate,
		ActivityType: activityType,
	}
}

func person(uid, name string) clubdata.Person {
	return clubdata.Person{
		UID:  uid,
		Href: "https://portal.example.com" + uid,
		Name: name,
	}
}

func entry(activityUID, personUID, role string) clubdata.RosterEntry {
	return clubdata.RosterEntry{
		ActivityUID: activityUID,
		PersonUID:   personUID,
		Role:        role,
		Status:      "Registered",
	}
}

func fixtureSnapshot() clubdata.Snapshot {
	return clubdata.Snapshot{
		Activities: []clubdata.Activity{
			act("/activities/ridge", "Ridge Traverse", "Trip", "2026-05-09", "Scramble"),
			act("/activities/nav", "Navigation Clinic", "Course", "2026-03-14", "Course"),
			act("/activities/glacier", "Glacier Basics", "", "2026-05-02", ""),
			act("/activities/lost", "Lost To Time", "Trip", "", "Hike"),
		},
		People: []clubdata.Person{
			person(currentUser, "Me Myself"),
			person("/members/ana", "Ana Cortes"),
			person("/members/bo", "Bo Lindqvist"),
			person("/members/ghost", ""),
		},
		RosterEntries: []clubdata.RosterEntry{
			entry("/activities/ridge", currentUser, ""),
			entry("/activities/ridge", "/members/ana", "Participant"),
			entry("/activities/nav", currentUser, "Instructor"),
			entry("/activities/nav", "/members/bo", "Student"),
			{ActivityUID: "/activities/glacier", PersonUID: currentUser, IsLeader: true},
			entry("/activities/glacier", "/members/ana", "Participant"),
			entry("/activities/lost", "/members/ana", "Participant"),
		},
		LastUpdated:    time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC),
		CurrentUserUID: currentUser,
	}
}

func TestPrepareRetainsOnlyDatedActivitiesSorted(t *testing.T) {
	p := Prepare(fixtureSnapshot())

	require.Len(t, p.Activities, 3)
	require.Equal(t, "/activities/nav", p.Activities[0].UID)
	require.Equal(t, "/activities/glacier", p.Activities[1].UID)
	require.Equal(t, "/activities/ridge", p.Activities[2].UID)

	// the undated activity's roster entries must not survive either
	require.NotContains(t, p.Roster, "/activities/lost")
}

func TestPrepareDerivedFields(t *testing.T) {
	p := Prepare(fixtureSnapshot())

	glacier := p.Activities[1]
	require.Equal(t, "Other", glacier.TypeLabel)
	require.Equal(t, "uncategorized", glacier.CategoryKey)
	require.Equal(t, "2026-05", glacier.MonthKey)
	require.Equal(t, []string{"Leader"}, glacier.UserRoles)

	ridge := p.Activities[2]
	require.Equal(t, "Scramble", ridge.TypeLabel)
	require.Equal(t, "trip", ridge.CategoryKey)
	require.Equal(t, []string{"Participant"}, ridge.UserRoles)

	nav := p.Activities[0]
	require.Equal(t, []string{"Instructor"}, nav.UserRoles)
}

func TestPrepareMonthWindowAnchoredToLatestActivity(t *testing.T) {
	p := Prepare(fixtureSnapshot())

	require.Len(t, p.Months, 12)
	require.Equal(t, "2025-06", p.Months[0])
	require.Equal(t, "2026-05", p.Months[11])
}

func TestPrepareFilterOptions(t *testing.T) {
	p := Prepare(fixtureSnapshot())

	require.Equal(t, []string{"Course", "Other", "Scramble"}, p.FilterOptions.ActivityTypes)
	require.Equal(t, []string{"course", "trip", "uncategorized"}, p.FilterOptions.Categories)
	require.Equal(t, []string{"Instructor", "Leader", "Participant"}, p.FilterOptions.Roles)
	require.Equal(t, []PartnerOption{
		{UID: "/members/ana", Name: "Ana Cortes"},
		{UID: "/members/bo", Name: "Bo Lindqvist"},
	}, p.FilterOptions.Partners)
}

func TestPrepareResolvesCurrentUserWhenUnknown(t *testing.T) {
	snap := fixtureSnapshot()
	snap.CurrentUserUID = ""

	// ana is also on the undated activity's roster; if dropped rosters
	// counted, this would tie and resolve to ana instead
	p := Prepare(snap)
	require.Equal(t, currentUser, p.CurrentUserUID)
}

func TestPrepareIsDeterministic(t *testing.T) {
	snap := fixtureSnapshot()
	first := Prepare(snap)
	second := Prepare(snap)

	if diff := cmp.Diff(first.FilterOptions, second.FilterOptions); diff != "" {
		t.Fatalf("filter options differ between runs:\n%s", diff)
	}
	if diff := cmp.Diff(first.Activities, second.Activities); diff != "" {
		t.Fatalf("prepared activities differ between runs:\n%s", diff)
	}
	require.Equal(t, first.Months, second.Months)
}

func TestPrepareEmptySnapshot(t *testing.T) {
	p := Prepare(clubdata.Snapshot{})

	require.Empty(t, p.Activities)
	require.Empty(t, p.CurrentUserUID)
	require.Len(t, p.Months, 12)
	require.Empty(t, p.FilterOptions.ActivityTypes)
	require.Empty(t, p.FilterOptions.Partners)
}
