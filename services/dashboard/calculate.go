package dashboard

import (
	"sort"
	"strings"

	"summitstats-backend/lib/clubdata"
)

const (
	timelineTopTypes = 5
	roleTopEntries   = 4
	partnerTableSize = 10
	recentListSize   = 8

	otherTypesLabel = "Other types"
	otherRolesLabel = "Other"
)

var tripCategories = map[string]bool{
	"trip":       true,
	"day-trip":   true,
	"overnight":  true,
	"expedition": true,
	"outing":     true,
}

var courseCategories = map[string]bool{
	"course":   true,
	"clinic":   true,
	"seminar":  true,
	"workshop": true,
}

// Calculate computes the full dashboard view for one filter selection.
// It is pure: same prepared data and filters, same view. The partner
// table alone ignores the filters, partner rankings are a global view.
func Calculate(p Prepared, filters Filters) View {
	filtered := filterActivities(p, filters)

	return View{
		Metrics:          metrics(p, filtered),
		Timeline:         timeline(p.Months, filtered),
		TypeDistribution: typeDistribution(filtered),
		RoleDistribution: roleDistribution(filtered),
		Partners:         partnerTable(p),
		Recent:           recent(filtered),
		Meta:             meta(p, filtered),
	}
}

func filterActivities(p Prepared, filters Filters) []PreparedActivity {
	if filters.Empty() {
		return p.Activities
	}
	typeSet := toSet(filters.ActivityType)
	categorySet := toSet(filters.Category)
	roleSet := toSet(filters.Role)

	filtered := make([]PreparedActivity, 0, len(p.Activities))
	for _, act := range p.Activities {
		if len(typeSet) > 0 && !typeSet[act.TypeLabel] {
			continue
		}
		if len(categorySet) > 0 && !categorySet[act.CategoryKey] {
			continue
		}
		if len(roleSet) > 0 && !anyInSet(act.UserRoles, roleSet) {
			continue
		}
		if len(filters.Partner) > 0 && !rosterContainsAll(p.Roster[act.UID], filters.Partner) {
			continue
		}
		filtered = append(filtered, act)
	}
	return filtered
}

// rosterContainsAll implements the partner filter's AND semantics: the
// activity passes only if every selected partner was on its roster. An
// activity with no roster data fails any non-empty selection.
func rosterContainsAll(entries []clubdata.RosterEntry, partners []string) bool {
	if len(entries) == 0 {
		return false
	}
	present := make(map[string]bool, len(entries))
	for _, entry := range entries {
		present[entry.PersonUID] = true
	}
	for _, uid := range partners {
		if !present[uid] {
			return false
		}
	}
	return true
}

func metrics(p Prepared, filtered []PreparedActivity) Metrics {
	m := Metrics{TotalActivities: len(filtered)}
	types := make(map[string]bool)
	partners := make(map[string]bool)
	for _, act := range filtered {
		if isTripCategory(act.CategoryKey) {
			m.TripCount++
		}
		if isCourseCategory(act.CategoryKey) {
			m.CourseCount++
		}
		types[act.TypeLabel] = true
		for _, entry := range p.Roster[act.UID] {
			if entry.PersonUID != p.CurrentUserUID {
				partners[entry.PersonUID] = true
			}
		}
	}
	m.UniqueTypes = len(types)
	m.UniquePartners = len(partners)
	return m
}

func isTripCategory(key string) bool {
	return tripCategories[key] || strings.Contains(key, "trip")
}

func isCourseCategory(key string) bool {
	return courseCategories[key] || strings.Contains(key, "course")
}

// timeline buckets filtered activities by month and type over the fixed
// 12-month axis. Only the top five types by total keep their own
// series; everything else collapses into "Other types", present only
// when at least one type was collapsed. Ranking totals count every
// filtered activity, including those outside the window, so a type's
// rank does not shift as its activities age out of the axis.
func timeline(months []string, filtered []PreparedActivity) Timeline {
	monthIndex := make(map[string]int, len(months))
	for i, key := range months {
		monthIndex[key] = i
	}

	perType := make(map[string][]int)
	totals := make(map[string]int)
	for _, act := range filtered {
		totals[act.TypeLabel]++
		data := perType[act.TypeLabel]
		if data == nil {
			data = make([]int, len(months))
			perType[act.TypeLabel] = data
		}
		if i, ok := monthIndex[act.MonthKey]; ok {
			data[i]++
		}
	}

	labels := make([]string, 0, len(perType))
	for label := range perType {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if totals[labels[i]] != totals[labels[j]] {
			return totals[labels[i]] > totals[labels[j]]
		}
		return labels[i] < labels[j]
	})

	named := labels
	if len(named) > timelineTopTypes {
		named = labels[:timelineTopTypes]
	}
	series := make([]Series, 0, len(named)+1)
	for _, label := range named {
		series = append(series, Series{Label: label, Data: perType[label]})
	}
	if len(labels) > timelineTopTypes {
		other := make([]int, len(months))
		for _, label := range labels[timelineTopTypes:] {
			for i, n := range perType[label] {
				other[i] += n
			}
		}
		series = append(series, Series{Label: otherTypesLabel, Data: other})
	}

	categories := make([]string, len(months))
	copy(categories, months)
	return Timeline{Categories: categories, Series: series}
}

func typeDistribution(filtered []PreparedActivity) []DistributionEntry {
	counts := make(map[string]int)
	for _, act := range filtered {
		counts[act.TypeLabel]++
	}
	return distribution(counts, len(filtered))
}

// roleDistribution counts the current user's role occurrences across
// filtered activities, keeping the top four roles and collapsing the
// rest into "Other". Percentages are relative to the occurrence total
// so they sum to one hundred.
func roleDistribution(filtered []PreparedActivity) []DistributionEntry {
	counts := make(map[string]int)
	total := 0
	for _, act := range filtered {
		for _, role := range act.UserRoles {
			counts[role]++
			total++
		}
	}
	entries := distribution(counts, total)
	if len(entries) <= roleTopEntries {
		return entries
	}
	other := DistributionEntry{Label: otherRolesLabel}
	for _, entry := range entries[roleTopEntries:] {
		other.Value += entry.Value
		other.Percentage += entry.Percentage
	}
	return append(entries[:roleTopEntries], other)
}

func distribution(counts map[string]int, total int) []DistributionEntry {
	entries := make([]DistributionEntry, 0, len(counts))
	for label, value := range counts {
		entry := DistributionEntry{Label: label, Value: value}
		if total > 0 {
			entry.Percentage = float64(value) / float64(total) * 100
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Label < entries[j].Label
	})
	return entries
}

// partnerTable ranks partners over the unfiltered base data: appearance
// count descending, then most recent shared activity, truncated to the
// top ten.
func partnerTable(p Prepared) []PartnerStat {
	stats := make(map[string]*PartnerStat)
	for _, act := range p.Activities {
		seen := make(map[string]bool)
		for _, entry := range p.Roster[act.UID] {
			uid := entry.PersonUID
			if uid == p.CurrentUserUID || seen[uid] {
				continue
			}
			seen[uid] = true
			stat := stats[uid]
			if stat == nil {
				person := p.People[uid]
				stat = &PartnerStat{UID: uid, Name: person.Name, Avatar: person.Avatar}
				stats[uid] = stat
			}
			stat.Count++
			if act.Date.After(stat.LastShared) {
				stat.LastShared = act.Date
			}
		}
	}

	table := make([]PartnerStat, 0, len(stats))
	for _, stat := range stats {
		table = append(table, *stat)
	}
	sort.Slice(table, func(i, j int) bool {
		if table[i].Count != table[j].Count {
			return table[i].Count > table[j].Count
		}
		if !table[i].LastShared.Equal(table[j].LastShared) {
			return table[i].LastShared.After(table[j].LastShared)
		}
		return table[i].UID < table[j].UID
	})
	if len(table) > partnerTableSize {
		table = table[:partnerTableSize]
	}
	return table
}

func recent(filtered []PreparedActivity) []PreparedActivity {
	n := len(filtered)
	if n > recentListSize {
		n = recentListSize
	}
	out := make([]PreparedActivity, 0, n)
	for i := len(filtered) - 1; i >= len(filtered)-n; i-- {
		out = append(out, filtered[i])
	}
	return out
}

func meta(p Prepared, filtered []PreparedActivity) Meta {
	m := Meta{LastUpdated: p.LastUpdated}
	if len(filtered) > 0 {
		m.Earliest = filtered[0].Date
		m.Latest = filtered[len(filtered)-1].Date
	}
	return m
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func anyInSet(values []string, set map[string]bool) bool {
	for _, v := range values {
		if set[v] {
			return true
		}
	}
	return false
}
