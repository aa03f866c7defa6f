package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	_ "modernc.org/sqlite"

	"summitstats-backend/lib/configutil"
	"summitstats-backend/lib/kvstore"
	"summitstats-backend/lib/osutil"
	"summitstats-backend/lib/scrapers/clubportal"
	"summitstats-backend/lib/snapshotstore"
	"summitstats-backend/lib/telemetry"
	"summitstats-backend/pkg/server"
	"summitstats-backend/services/collector"
	"summitstats-backend/services/runlog"
)

type PortalConfig struct {
	BaseUrl string `json:"base_url"`
	// the portal session cookie copied out of the browser
	SessionCookie string `json:"session_cookie"`
}

type Config struct {
	Portal  PortalConfig  `json:"portal"`
	DataDir string        `json:"data_dir"`
	Http    server.Config `json:"http"`
}

func main() {
	ctx := osutil.SignalContext()

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		osutil.Fatal("failed to read config", err)
	}
	if config.Portal.BaseUrl == "" {
		osutil.Fatal("invalid config", fmt.Errorf("portal.base_url is required"))
	}
	if config.DataDir == "" {
		config.DataDir = "data"
	}
	if config.Http.Host == "" {
		config.Http.Host = "localhost"
	}
	if config.Http.Port == 0 {
		config.Http.Port = 8777
	}

	t, err := telemetry.SetupFromEnv(ctx, "summitstatsd")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		osutil.Fatal("failed to setup telemetry", err)
	}
	if err == nil {
		defer t.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx)
	}

	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		osutil.Fatal("failed to create data dir", err)
	}

	kv, err := kvstore.Open(filepath.Join(config.DataDir, "cache"))
	if err != nil {
		osutil.Fatal("failed to open cache", err)
	}
	defer kv.Close()
	snapshots := snapshotstore.New(kv)

	db, err := sql.Open("sqlite", filepath.Join(config.DataDir, "runlog.db"))
	if err != nil {
		osutil.Fatal("failed to open run log", err)
	}
	defer db.Close()
	if _, err := db.Exec(runlog.Schema); err != nil {
		osutil.Fatal("failed to migrate run log", err)
	}
	runs := runlog.NewStore(db)

	// the progress bus is in-process only, so the embedded server binds
	// to a random loopback port
	natsSrv, err := natsserver.NewServer(&natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		osutil.Fatal("failed to create nats server", err)
	}
	go natsSrv.Start()
	if !natsSrv.ReadyForConnections(5 * time.Second) {
		osutil.Fatal("nats server failed to start", fmt.Errorf("not ready after 5s"))
	}
	defer natsSrv.Shutdown()

	nc, err := nats.Connect(natsSrv.ClientURL())
	if err != nil {
		osutil.Fatal("failed to connect to nats", err)
	}
	defer nc.Close()

	portal, err := clubportal.NewClient(ctx, clubportal.ClientOptions{
		BaseUrl:       config.Portal.BaseUrl,
		SessionCookie: config.Portal.SessionCookie,
	})
	if err != nil {
		osutil.Fatal("failed to create portal client", err)
	}

	service := collector.NewService(ctx, collector.Options{
		Source:    portal,
		Snapshots: snapshots,
		Nats:      nc,
		Runs:      &runs,
	})

	srv := server.New(server.Options{
		Collector: service,
		Snapshots: snapshots,
		Runs:      runs,
		Nats:      nc,
		Config:    config.Http,
	})
	go func() {
		err := srv.Start()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", "err", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown", "err", err)
	}
}
