// Package collector walks the member's paginated activity history,
// fetches detail and roster pages for activities not yet cached, and
// merges the result into the persisted snapshot. Exactly one run may
// be active at a time; progress is published over NATS.
package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	"summitstats-backend/lib/clubdata"
	"summitstats-backend/lib/scrapers/clubportal"
	"summitstats-backend/lib/snapshotstore"
	"summitstats-backend/services/runlog"
)

var tracer = otel.Tracer("services/collector")

var ErrAlreadyRunning = fmt.Errorf("a collection run is already in progress")

// Source is the portal surface the collector walks. clubportal.Client
// implements it; tests substitute fixtures.
type Source interface {
	ActivityListPage(ctx context.Context, page int) (clubportal.ActivityListPage, error)
	ActivityDetail(ctx context.Context, act clubdata.Activity) (clubdata.Activity, error)
	Roster(ctx context.Context, act clubdata.Activity) (clubportal.RosterPage, error)
}

var _ Source = (*clubportal.Client)(nil)

type Options struct {
	Source    Source
	Snapshots snapshotstore.Store
	Nats      *nats.Conn
	// optional run history, may be nil
	Runs *runlog.Store
	// per-fetch timeout, defaults to 30s
	FetchTimeout time.Duration
	// pause between consecutive fetches so the portal is not hammered,
	// defaults to 250ms
	FetchDelay time.Duration
	// upper bound on history pages walked in one run, defaults to 100
	MaxPages int
}

type Service struct {
	source    Source
	snapshots snapshotstore.Store
	runs      *runlog.Store
	nc        *nats.Conn

	fetchTimeout time.Duration
	fetchDelay   time.Duration
	maxPages     int

	baseCtx context.Context
	now     func() time.Time

	mu        sync.Mutex
	activeRun string
}

func NewService(ctx context.Context, opts Options) *Service {
	if opts.FetchTimeout == 0 {
		opts.FetchTimeout = time.Second * 30
	}
	if opts.FetchDelay == 0 {
		opts.FetchDelay = time.Millisecond * 250
	}
	if opts.MaxPages == 0 {
		opts.MaxPages = 100
	}
	return &Service{
		source:       opts.Source,
		snapshots:    opts.Snapshots,
		runs:         opts.Runs,
		nc:           opts.Nats,
		fetchTimeout: opts.FetchTimeout,
		fetchDelay:   opts.FetchDelay,
		maxPages:     opts.MaxPages,
		baseCtx:      ctx,
		now:          time.Now,
	}
}

// Active reports whether a run is in flight and which one.
func (s *Service) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeRun, s.activeRun != ""
}

// StartRefresh begins a collection run in the background and returns
// its run id. limit caps the number of *new* activities fetched this
// run; 0 means unlimited. A second start while a run is active is
// rejected with ErrAlreadyRunning, never queued.
func (s *Service) StartRefresh(ctx context.Context, limit int) (string, error) {
	s.mu.Lock()
	if s.activeRun != "" {
		s.mu.Unlock()
		return "", ErrAlreadyRunning
	}
	runID := uuid.NewString()
	s.activeRun = runID
	s.mu.Unlock()

	// the run outlives the request that started it
	go s.run(s.baseCtx, runID, limit)

	return runID, nil
}

func (s *Service) release(runID string) {
	s.mu.Lock()
	if s.activeRun == runID {
		s.activeRun = ""
	}
	s.mu.Unlock()
}
