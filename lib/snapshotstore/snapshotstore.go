// Package snapshotstore persists the scraped snapshot and the user's
// settings behind the kvstore contract. Two keys exist; both hold
// whole JSON documents, readers never observe a partial write.
package snapshotstore

import (
	"context"
	"errors"

	"summitstats-backend/lib/clubdata"
	"summitstats-backend/lib/kvstore"
)

const (
	snapshotKey = "snapshot"
	settingsKey = "settings"
)

type Store struct {
	kv kvstore.Store
}

func New(kv kvstore.Store) Store {
	return Store{kv: kv}
}

// Snapshot reads the full cached snapshot; a store that has never been
// written returns an empty snapshot, not an error.
func (s Store) Snapshot(ctx context.Context) (clubdata.Snapshot, error) {
	snap, err := kvstore.GetJSON[clubdata.Snapshot](ctx, s.kv, snapshotKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return clubdata.Snapshot{}, nil
	}
	return snap, err
}

func (s Store) SetSnapshot(ctx context.Context, snap clubdata.Snapshot) error {
	return kvstore.SetJSON(ctx, s.kv, snapshotKey, snap)
}

// Clear drops the snapshot entirely. Settings survive a cache clear.
func (s Store) Clear(ctx context.Context) error {
	return s.kv.Remove(ctx, snapshotKey)
}

// Settings returns the stored settings, or the defaults when nothing
// has been written yet. Settings are stored wholesale so a stored
// document is trusted as-is.
func (s Store) Settings(ctx context.Context) (clubdata.Settings, error) {
	settings, err := kvstore.GetJSON[clubdata.Settings](ctx, s.kv, settingsKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return clubdata.DefaultSettings(), nil
	}
	if err != nil {
		return clubdata.Settings{}, err
	}
	return settings, nil
}

func (s Store) SetSettings(ctx context.Context, settings clubdata.Settings) error {
	return kvstore.SetJSON(ctx, s.kv, settingsKey, settings)
}
