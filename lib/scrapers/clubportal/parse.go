package clubportal

import (
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/PuerkitoBio/purell"

	"summitstats-backend/lib/clubdata"
	"summitstats-backend/lib/htmlutil"
)

var ErrNotAuthenticated = fmt.Errorf("You are not signed in to the club portal.")

// ActivityListPage is one page of the member's activity history.
type ActivityListPage struct {
	Activities []clubdata.Activity
	HasMore    bool
	// uid of the signed-in member when the page header exposes a
	// profile link, "" otherwise
	CurrentUserUID string
}

// RosterPage is the parsed roster of a single activity.
type RosterPage struct {
	People  []clubdata.Person
	Entries []clubdata.RosterEntry
}

// normalizeUID resolves href against base and returns the normalized
// path as a stable record uid, plus the canonical absolute href.
// Portal links to the same page vary in trailing slashes and query
// noise, normalizing keeps uids stable across runs.
func normalizeUID(base *url.URL, href string) (string, string, error) {
	full, err := base.Parse(href)
	if err != nil {
		return "", "", err
	}
	full.RawQuery = ""
	full.Fragment = ""
	canonical := purell.NormalizeURL(
		full,
		purell.FlagsSafe|purell.FlagRemoveTrailingSlash|purell.FlagRemoveDotSegments,
	)
	normalized, err := url.Parse(canonical)
	if err != nil {
		return "", "", err
	}
	return normalized.Path, canonical, nil
}

// ParseActivityListPage parses one page of the activity history table.
// A page carrying the login form means the session has expired.
func ParseActivityListPage(doc *goquery.Document, base *url.URL) (ActivityListPage, error) {
	if len(doc.Find("form.login-form").Nodes) > 0 {
		return ActivityListPage{}, ErrNotAuthenticated
	}

	out := ActivityListPage{}

	profile := doc.Find("nav.account-menu a.profile-link")
	if href, ok := profile.Attr("href"); ok {
		uid, _, err := normalizeUID(base, href)
		if err == nil {
			out.CurrentUserUID = uid
		}
	}

	var parseErr error
	doc.Find("table.activity-history tbody tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("td.title a")
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		uid, canonical, err := normalizeUID(base, href)
		if err != nil {
			parseErr = err
			return
		}

		date := row.Find("td.date time").AttrOr("datetime", "")
		if date == "" {
			date = htmlutil.SelectionText(row.Find("td.date"))
		}

		out.Activities = append(out.Activities, clubdata.Activity{
			UID:       uid,
			Href:      canonical,
			Title:     htmlutil.SelectionText(link),
			Category:  htmlutil.SelectionText(row.Find("td.category")),
			StartDate: date,
			Result:    htmlutil.SelectionText(row.Find("td.result")),
		})
	})
	if parseErr != nil {
		return ActivityListPage{}, parseErr
	}

	out.HasMore = len(doc.Find("nav.pagination a[rel=next]").Nodes) > 0
	return out, nil
}

// ParseActivityDetail fills in the fields only the detail page carries.
func ParseActivityDetail(doc *goquery.Document, act clubdata.Activity) (clubdata.Activity, error) {
	header := doc.Find("div.activity-header")
	if len(header.Nodes) == 0 {
		return act, fmt.Errorf("could not find activity header: %s", act.UID)
	}

	if t := htmlutil.SelectionText(header.Find("span.activity-type")); t != "" {
		act.ActivityType = t
	}
	if r := htmlutil.SelectionText(header.Find("span.result-badge")); r != "" {
		act.Result = r
	}
	if d, ok := header.Find("time").Attr("datetime"); ok && d != "" {
		act.StartDate = d
	}
	return act, nil
}

// ParseRosterPage parses the roster cards of an activity page. Cards
// without a member link (deactivated accounts) are skipped.
func ParseRosterPage(doc *goquery.Document, base *url.URL, activityUID string) (RosterPage, error) {
	roster := doc.Find("div.roster")
	if len(roster.Nodes) == 0 {
		return RosterPage{}, fmt.Errorf("could not find roster: %s", activityUID)
	}

	out := RosterPage{}
	roster.Find("div.roster-card").Each(func(_ int, card *goquery.Selection) {
		link := card.Find("a.member-link")
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		uid, canonical, err := normalizeUID(base, href)
		if err != nil {
			return
		}

		out.People = append(out.People, clubdata.Person{
			UID:    uid,
			Href:   canonical,
			Name:   htmlutil.SelectionText(link),
			Avatar: card.Find("img.avatar").AttrOr("src", ""),
		})
		out.Entries = append(out.Entries, clubdata.RosterEntry{
			ActivityUID: activityUID,
			PersonUID:   uid,
			Role:        htmlutil.SelectionText(card.Find("span.role")),
			Status:      htmlutil.SelectionText(card.Find("span.status")),
			IsLeader:    len(card.Find("span.leader-badge").Nodes) > 0,
		})
	})
	return out, nil
}
