package kvstore

import (
	"context"
	"encoding/json"

	"github.com/dgraph-io/badger/v4"
)

var ErrKeyNotFound = badger.ErrKeyNotFound

// Store is the narrow persistence contract the rest of the system
// depends on. Values are written and read wholesale, there is no
// partial update.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

type BadgerStore struct {
	db *badger.DB
}

func Open(dir string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func OpenInMemory() (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) Get(ctx context.Context, key string) ([]byte, error) {
	tx := s.db.NewTransaction(false)
	defer tx.Discard()

	item, err := tx.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (s *BadgerStore) Set(ctx context.Context, key string, value []byte) error {
	return s.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(key), value)
	})
}

func (s *BadgerStore) Remove(ctx context.Context, key string) error {
	return s.db.Update(func(tx *badger.Txn) error {
		err := tx.Delete([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

func GetJSON[T any](ctx context.Context, s Store, key string) (T, error) {
	var out T
	raw, err := s.Get(ctx, key)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

func SetJSON[T any](ctx context.Context, s Store, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw)
}
