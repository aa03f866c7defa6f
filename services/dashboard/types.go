// Package dashboard derives the member dashboard from a cached
// snapshot. Prepare does the filter-independent work once per snapshot;
// Calculate is a pure function of prepared data and a filter selection.
package dashboard

import (
	"time"

	"summitstats-backend/lib/clubdata"
)

// Filters is the user's multi-select on each dimension. An empty slice
// leaves that dimension unrestricted.
type Filters struct {
	ActivityType []string `json:"activityType"`
	Category     []string `json:"category"`
	Role         []string `json:"role"`
	Partner      []string `json:"partner"`
}

func (f Filters) Empty() bool {
	return len(f.ActivityType) == 0 &&
		len(f.Category) == 0 &&
		len(f.Role) == 0 &&
		len(f.Partner) == 0
}

// PreparedActivity is an Activity plus every per-activity derivation
// that does not depend on the filter selection.
type PreparedActivity struct {
	clubdata.Activity

	Date        time.Time `json:"date"`
	TypeLabel   string    `json:"typeLabel"`
	CategoryKey string    `json:"categoryKey"`
	UserRoles   []string  `json:"userRoles"`
	MonthKey    string    `json:"monthKey"`
}

// PartnerOption is one entry in the partner filter catalog.
type PartnerOption struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// FilterOptions are the selectable values for each filter dimension,
// derived from the snapshot itself.
type FilterOptions struct {
	ActivityTypes []string        `json:"activityTypes"`
	Categories    []string        `json:"categories"`
	Roles         []string        `json:"roles"`
	Partners      []PartnerOption `json:"partners"`
}

// Prepared is everything Calculate needs, recomputed only when the
// snapshot changes. It owns no state beyond the snapshot it was
// derived from and must never be persisted.
type Prepared struct {
	// Activities are the retained, date-bearing activities sorted
	// ascending by date.
	Activities []PreparedActivity
	// Roster indexes roster entries by activity uid. Entries whose
	// activity was not retained are dropped here.
	Roster map[string][]clubdata.RosterEntry
	// People indexes every person in the snapshot by uid.
	People map[string]clubdata.Person
	// Months is the fixed 12-month timeline axis, oldest first,
	// anchored at the latest retained activity.
	Months []string

	CurrentUserUID string
	FilterOptions  FilterOptions
	LastUpdated    time.Time
}

type Metrics struct {
	TotalActivities int `json:"totalActivities"`
	TripCount       int `json:"tripCount"`
	CourseCount     int `json:"courseCount"`
	UniquePartners  int `json:"uniquePartners"`
	UniqueTypes     int `json:"uniqueTypes"`
}

// Series is one named line of the timeline, Data aligned index-for-index
// with Timeline.Categories.
type Series struct {
	Label string `json:"label"`
	Data  []int  `json:"data"`
}

type Timeline struct {
	Categories []string `json:"categories"`
	Series     []Series `json:"series"`
}

type DistributionEntry struct {
	Label      string  `json:"label"`
	Value      int     `json:"value"`
	Percentage float64 `json:"percentage"`
}

// PartnerStat is one row of the partner ranking table.
type PartnerStat struct {
	UID        string    `json:"uid"`
	Name       string    `json:"name"`
	Avatar     string    `json:"avatar"`
	Count      int       `json:"count"`
	LastShared time.Time `json:"lastShared"`
}

type Meta struct {
	Earliest    time.Time `json:"earliest"`
	Latest      time.Time `json:"latest"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// View is the full dashboard for one filter selection.
type View struct {
	Metrics          Metrics             `json:"metrics"`
	Timeline         Timeline            `json:"timeline"`
	TypeDistribution []DistributionEntry `json:"typeDistribution"`
	RoleDistribution []DistributionEntry `json:"roleDistribution"`
	Partners         []PartnerStat       `json:"partners"`
	Recent           []PreparedActivity  `json:"recent"`
	Meta             Meta                `json:"meta"`
}
