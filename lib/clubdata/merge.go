package clubdata

import "time"

type rosterKey struct {
	activity string
	person   string
}

// Merge combines a collection delta with the existing snapshot.
// Activities and people are unioned by uid with the delta winning on
// conflict (fresher detail wins), roster entries are unioned by the
// (activity, person) pair. Nothing is ever deleted by a merge.
//
// Existing records keep their position so repeated merges produce the
// same ordering.
func Merge(existing Snapshot, delta Delta, now time.Time) Snapshot {
	out := Snapshot{
		Activities:    make([]Activity, len(existing.Activities)),
		People:        make([]Person, len(existing.People)),
		RosterEntries: make([]RosterEntry, len(existing.RosterEntries)),
		LastUpdated:   now,
	}
	copy(out.Activities, existing.Activities)
	copy(out.People, existing.People)
	copy(out.RosterEntries, existing.RosterEntries)

	activityIdx := make(map[string]int, len(out.Activities))
	for i, a := range out.Activities {
		activityIdx[a.UID] = i
	}
	for _, a := range delta.Activities {
		if i, ok := activityIdx[a.UID]; ok {
			out.Activities[i] = a
			continue
		}
		activityIdx[a.UID] = len(out.Activities)
		out.Activities = append(out.Activities, a)
	}

	personIdx := make(map[string]int, len(out.People))
	for i, p := range out.People {
		personIdx[p.UID] = i
	}
	for _, p := range delta.People {
		if i, ok := personIdx[p.UID]; ok {
			out.People[i] = p
			continue
		}
		personIdx[p.UID] = len(out.People)
		out.People = append(out.People, p)
	}

	seen := make(map[rosterKey]int, len(out.RosterEntries))
	for i, e := range out.RosterEntries {
		seen[rosterKey{e.ActivityUID, e.PersonUID}] = i
	}
	for _, e := range delta.RosterEntries {
		key := rosterKey{e.ActivityUID, e.PersonUID}
		if i, ok := seen[key]; ok {
			out.RosterEntries[i] = e
			continue
		}
		seen[key] = len(out.RosterEntries)
		out.RosterEntries = append(out.RosterEntries, e)
	}

	out.CurrentUserUID = existing.CurrentUserUID
	if delta.CurrentUserUID != "" {
		out.CurrentUserUID = delta.CurrentUserUID
	}

	return out
}
