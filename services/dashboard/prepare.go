package dashboard

import (
	"sort"
	"strings"

	"summitstats-backend/lib/clubdata"
	"summitstats-backend/lib/timeutil"
)

const (
	defaultTypeLabel   = "Other"
	defaultCategoryKey = "uncategorized"
	defaultRole        = "Participant"
	leaderRole         = "Leader"

	timelineMonths = 12
)

// Prepare derives everything filter-independent from a snapshot.
// Activities without a parseable start date are dropped along with
// their roster entries; the retained activities are sorted ascending
// by date.
func Prepare(snap clubdata.Snapshot) Prepared {
	retained := make([]PreparedActivity, 0, len(snap.Activities))
	for _, act := range snap.Activities {
		date, ok := timeutil.ParseDate(act.StartDate)
		if !ok {
			continue
		}
		retained = append(retained, PreparedActivity{
			Activity:    act,
			Date:        date,
			TypeLabel:   typeLabel(act),
			CategoryKey: categoryKey(act),
			MonthKey:    timeutil.MonthKey(date),
		})
	}
	sort.SliceStable(retained, func(i, j int) bool {
		return retained[i].Date.Before(retained[j].Date)
	})

	retainedUIDs := make(map[string]bool, len(retained))
	for _, act := range retained {
		retainedUIDs[act.UID] = true
	}
	roster := make(map[string][]clubdata.RosterEntry)
	retainedEntries := make([]clubdata.RosterEntry, 0, len(snap.RosterEntries))
	for _, entry := range snap.RosterEntries {
		if !retainedUIDs[entry.ActivityUID] {
			continue
		}
		roster[entry.ActivityUID] = append(roster[entry.ActivityUID], entry)
		retainedEntries = append(retainedEntries, entry)
	}

	// Resolution looks only at rosters of retained activities so that
	// an orphaned or undated activity's roster cannot sway the pick.
	currentUser := snap.CurrentUserUID
	if currentUser == "" {
		currentUser = clubdata.ResolveCurrentUser(retainedEntries)
	}

	for i := range retained {
		retained[i].UserRoles = userRoles(roster[retained[i].UID], currentUser)
	}

	people := make(map[string]clubdata.Person, len(snap.People))
	for _, p := range snap.People {
		people[p.UID] = p
	}

	anchor := snap.LastUpdated
	if len(retained) > 0 {
		anchor = retained[len(retained)-1].Date
	}

	return Prepared{
		Activities:     retained,
		Roster:         roster,
		People:         people,
		Months:         timeutil.MonthWindow(anchor, timelineMonths),
		CurrentUserUID: currentUser,
		FilterOptions:  filterOptions(retained, snap.People, currentUser),
		LastUpdated:    snap.LastUpdated,
	}
}

func typeLabel(act clubdata.Activity) string {
	if act.ActivityType == "" {
		return defaultTypeLabel
	}
	return act.ActivityType
}

func categoryKey(act clubdata.Activity) string {
	if act.Category == "" {
		return defaultCategoryKey
	}
	return strings.ToLower(act.Category)
}

// userRoles collects the role labels the current user held on one
// activity's roster. A blank role falls back to "Leader" when the
// entry carries the leader flag, otherwise "Participant".
func userRoles(entries []clubdata.RosterEntry, currentUser string) []string {
	if currentUser == "" {
		return nil
	}
	var roles []string
	for _, entry := range entries {
		if entry.PersonUID != currentUser {
			continue
		}
		role := entry.Role
		if role == "" {
			if entry.IsLeader {
				role = leaderRole
			} else {
				role = defaultRole
			}
		}
		roles = append(roles, role)
	}
	return roles
}

func filterOptions(retained []PreparedActivity, people []clubdata.Person, currentUser string) FilterOptions {
	types := make(map[string]bool)
	categories := make(map[string]bool)
	roles := make(map[string]bool)
	for _, act := range retained {
		types[act.TypeLabel] = true
		categories[act.CategoryKey] = true
		for _, role := range act.UserRoles {
			roles[role] = true
		}
	}

	categoryList := sortedKeys(categories)
	// "uncategorized" always sorts last regardless of alphabet
	for i, key := range categoryList {
		if key == defaultCategoryKey && i != len(categoryList)-1 {
			categoryList = append(append(categoryList[:i], categoryList[i+1:]...), defaultCategoryKey)
			break
		}
	}

	seen := make(map[string]bool, len(people))
	partners := make([]PartnerOption, 0, len(people))
	for _, p := range people {
		if p.UID == currentUser || p.Name == "" || seen[p.UID] {
			continue
		}
		seen[p.UID] = true
		partners = append(partners, PartnerOption{UID: p.UID, Name: p.Name})
	}
	sort.Slice(partners, func(i, j int) bool {
		if partners[i].Name != partners[j].Name {
			return partners[i].Name < partners[j].Name
		}
		return partners[i].UID < partners[j].UID
	})

	return FilterOptions{
		ActivityTypes: sortedKeys(types),
		Categories:    categoryList,
		Roles:         sortedKeys(roles),
		Partners:      partners,
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
