package clubportal

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"

	"summitstats-backend/lib/clubdata"
)

func (c *Client) document(ctx context.Context, path string, query map[string]string) (*goquery.Document, error) {
	req := c.Http.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParams(query)
	}
	res, err := req.Get(path)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() == 401 || res.StatusCode() == 403 {
		return nil, ErrNotAuthenticated
	}
	if res.IsError() {
		return nil, fmt.Errorf("unexpected status %s for %s", res.Status(), path)
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
}

// ActivityListPage fetches one page of the member's activity history.
func (c *Client) ActivityListPage(ctx context.Context, page int) (ActivityListPage, error) {
	ctx, span := tracer.Start(ctx, "client:ActivityListPage")
	defer span.End()

	doc, err := c.document(ctx, "/my-activities", map[string]string{
		"page": strconv.Itoa(page),
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch activity list page")
		return ActivityListPage{}, err
	}
	out, err := ParseActivityListPage(doc, c.BaseUrl)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse activity list page")
		return ActivityListPage{}, err
	}
	return out, nil
}

// ActivityDetail fetches the activity's own page and fills in the
// fields the history table does not carry.
func (c *Client) ActivityDetail(ctx context.Context, act clubdata.Activity) (clubdata.Activity, error) {
	ctx, span := tracer.Start(ctx, "client:ActivityDetail")
	defer span.End()

	doc, err := c.document(ctx, act.UID, nil)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch activity detail")
		return act, err
	}
	out, err := ParseActivityDetail(doc, act)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse activity detail")
		return act, err
	}
	return out, nil
}

// Roster fetches the roster page of an activity.
func (c *Client) Roster(ctx context.Context, act clubdata.Activity) (RosterPage, error) {
	ctx, span := tracer.Start(ctx, "client:Roster")
	defer span.End()

	doc, err := c.document(ctx, act.UID+"/roster", nil)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch roster")
		return RosterPage{}, err
	}
	out, err := ParseRosterPage(doc, c.BaseUrl, act.UID)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse roster")
		return RosterPage{}, err
	}
	return out, nil
}
