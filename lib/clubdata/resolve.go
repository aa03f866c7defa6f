package clubdata

import "sort"

// ResolveCurrentUser infers which person uid belongs to the signed-in
// member. Rosters are only ever cached for the member's own activities,
// so the member is the one person who appears on every rostered
// activity. If exactly one person does, that's them; otherwise fall
// back to whoever appears on the most activities. The fallback is a
// best-effort guess and can misidentify the user when roster data is
// sparse or symmetric.
//
// Ties are broken by smallest uid so resolution is deterministic.
// Returns "" when there are no roster entries at all.
func ResolveCurrentUser(entries []RosterEntry) string {
	if len(entries) == 0 {
		return ""
	}

	rostered := map[string]bool{}
	participation := map[string]map[string]bool{}
	for _, e := range entries {
		rostered[e.ActivityUID] = true
		set := participation[e.PersonUID]
		if set == nil {
			set = map[string]bool{}
			participation[e.PersonUID] = set
		}
		set[e.ActivityUID] = true
	}

	uids := make([]string, 0, len(participation))
	for uid := range participation {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	var complete []string
	for _, uid := range uids {
		if len(participation[uid]) == len(rostered) {
			complete = append(complete, uid)
		}
	}
	if len(complete) == 1 {
		return complete[0]
	}

	best := ""
	bestCount := 0
	for _, uid := range uids {
		if len(participation[uid]) > bestCount {
			best = uid
			bestCount = len(participation[uid])
		}
	}
	return best
}
