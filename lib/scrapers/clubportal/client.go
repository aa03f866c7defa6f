package clubportal

import (
	"context"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"

	"summitstats-backend/lib/telemetry"
)

var tracer = otel.Tracer("scrapers/clubportal")

// Client talks to the club portal under the member's existing session.
// Authentication is never performed here; the session cookie comes from
// the member's browser and is attached to every request.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
}

type ClientOptions struct {
	BaseUrl string
	// the portal session cookie copied from the browser, e.g.
	// "portal_session=..."
	SessionCookie string
	// per-request timeout, defaults to 30s
	Timeout time.Duration
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	if opts.SessionCookie != "" {
		client.SetHeader("cookie", opts.SessionCookie)
	}
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(timeout)

	telemetry.InstrumentResty(client, "scrapers/clubportal/http")

	return &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}, nil
}
