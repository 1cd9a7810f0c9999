// Package bolt implementa el adapter embebido sobre bbolt: un archivo por store,
// un bucket por tipo de entidad, registros serializados en JSON.
package bolt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/dropDatabas3/clinicore/internal/placement"
	"github.com/dropDatabas3/clinicore/internal/store"
)

// lockTimeout evita bloquear indefinidamente si otro proceso tiene el archivo abierto.
const lockTimeout = 2 * time.Second

func init() {
	store.RegisterAdapter(&boltAdapter{})
}

type boltAdapter struct{}

func (a *boltAdapter) Name() string { return "bolt" }

// Connect abre (o crea) el archivo indicado en cfg.DSN.
func (a *boltAdapter) Connect(_ context.Context, key string, cfg store.ConnectionConfig) (store.Handle, error) {
	path := strings.TrimSpace(cfg.DSN)
	if path == "" {
		return nil, errors.New("bolt: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("bolt: create dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}
	return &boltStore{key: key, db: db}, nil
}

type boltStore struct {
	key string
	db  *bolt.DB
}

func (s *boltStore) Key() string    { return s.key }
func (s *boltStore) Driver() string { return "bolt" }

func (s *boltStore) Get(_ context.Context, entity placement.EntityType, id string) (*store.Record, error) {
	var rec store.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(entity))
		if b == nil {
			return store.ErrNotFound
		}
		v := b.Get([]byte(id))
		if v == nil {
			return store.ErrNotFound
		}
		var err error
		rec, err = store.Decode(v)
		return err
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return &rec, nil
}

func (s *boltStore) Put(_ context.Context, rec store.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	v, err := store.Encode(rec)
	if err != nil {
		return err
	}
	return mapErr(s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(rec.Entity))
		if err != nil {
			return err
		}
		return b.Put([]byte(rec.ID), v)
	}))
}

func (s *boltStore) Delete(_ context.Context, entity placement.EntityType, id string) error {
	return mapErr(s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(entity))
		if b == nil || b.Get([]byte(id)) == nil {
			return store.ErrNotFound
		}
		return b.Delete([]byte(id))
	}))
}

func (s *boltStore) List(ctx context.Context, entity placement.EntityType, pred store.Predicate) ([]store.Record, error) {
	out := []store.Record{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(entity))
		if b == nil {
			return nil
		}
		// ForEach recorre en orden de clave
		return b.ForEach(func(_, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := store.Decode(v)
			if err != nil {
				return err
			}
			if pred == nil || pred(rec) {
				out = append(out, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (s *boltStore) Ping(context.Context) error {
	return mapErr(s.db.View(func(*bolt.Tx) error { return nil }))
}

func (s *boltStore) Close() error {
	return s.db.Close()
}

func mapErr(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return store.ErrClosed
	}
	return err
}
