package testutil

import (
	"database/sql"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"summitstats-backend/lib/kvstore"
	"summitstats-backend/lib/snapshotstore"
	"summitstats-backend/lib/telemetry"
	"summitstats-backend/services/runlog"

	_ "modernc.org/sqlite"
)

// StartNATS runs an embedded NATS server on a random loopback port and
// returns a connection to it.
func StartNATS(t testing.TB) *nats.Conn {
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	}
	server, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatal(err)
	}
	go server.Start()
	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats server not ready")
	}
	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	nc, err := nats.Connect(server.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(nc.Close)
	return nc
}

// Snapshots returns a snapshot store over an in-memory badger db.
func Snapshots(t testing.TB) snapshotstore.Store {
	kv, err := kvstore.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kv.Close() })
	return snapshotstore.New(kv)
}

// Runlog returns a run history store over an in-memory sqlite db.
func Runlog(t testing.TB) runlog.Store {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(runlog.Schema)
	if err != nil {
		t.Fatal(err)
	}
	return runlog.NewStore(db)
}

// Telemetry installs test providers; returns a cleanup func.
func Telemetry(t testing.TB, name string) func() {
	return telemetry.SetupForTesting(t, name)
}
