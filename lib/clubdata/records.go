// Package clubdata holds the normalized records scraped from the club
// portal and the pure operations over them: snapshot merging and
// current-user resolution.
package clubdata

import "time"

// Activity is a single scheduled event or course on the portal. UID is
// the normalized path of the activity page and is stable across runs.
type Activity struct {
	UID          string `json:"uid"`
	Href         string `json:"href"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	StartDate    string `json:"start_date"`
	ActivityType string `json:"activity_type"`
	Result       string `json:"result"`
}

// Person is anyone appearing on a roster, including the signed-in
// member themselves.
type Person struct {
	UID    string `json:"uid"`
	Href   string `json:"href"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// RosterEntry links a person to an activity with the role they held.
type RosterEntry struct {
	ActivityUID string `json:"activity_uid"`
	PersonUID   string `json:"person_uid"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	IsLeader    bool   `json:"isLeader"`
}

// Snapshot is the sole unit of persistence. It is read and written
// wholesale, grows only through Merge, and is emptied only by an
// explicit clear.
type Snapshot struct {
	Activities     []Activity    `json:"activities"`
	People         []Person      `json:"people"`
	RosterEntries  []RosterEntry `json:"rosterEntries"`
	LastUpdated    time.Time     `json:"lastUpdated"`
	CurrentUserUID string        `json:"currentUserUid"`
}

// Delta is the set of newly discovered records from one collection run.
type Delta struct {
	Activities     []Activity    `json:"activities"`
	People         []Person      `json:"people"`
	RosterEntries  []RosterEntry `json:"rosterEntries"`
	CurrentUserUID string        `json:"currentUserUid"`
}

func (d Delta) Empty() bool {
	return len(d.Activities) == 0 &&
		len(d.People) == 0 &&
		len(d.RosterEntries) == 0
}

// Settings are the user preferences persisted next to the snapshot.
type Settings struct {
	FetchLimit  int  `json:"fetchLimit"`
	ShowAvatars bool `json:"showAvatars"`
}

func DefaultSettings() Settings {
	return Settings{
		FetchLimit:  25,
		ShowAvatars: true,
	}
}
