// Package memory implementa un store en memoria. Útil para desarrollo y tests.
// Cada Connect crea un store vacío; el Registry conserva los cerrados y los reabre
// con Reopen, así desactivar y reactivar un hospital no pierde sus datos.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dropDatabas3/clinicore/internal/placement"
	"github.com/dropDatabas3/clinicore/internal/store"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(_ context.Context, key string, _ store.ConnectionConfig) (store.Handle, error) {
	return New(key), nil
}

// Store guarda registros serializados para no compartir mapas con los llamadores.
type Store struct {
	key    string
	mu     sync.RWMutex
	data   map[placement.EntityType]map[string][]byte
	closed bool
}

// New crea un store vacío con la clave dada.
func New(key string) *Store {
	return &Store{key: key, data: make(map[placement.EntityType]map[string][]byte)}
}

func (s *Store) Key() string    { return s.key }
func (s *Store) Driver() string { return "memory" }

func (s *Store) Get(_ context.Context, entity placement.EntityType, id string) (*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	b, ok := s.data[entity][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	rec, err := store.Decode(b)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) Put(_ context.Context, rec store.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	b, err := store.Encode(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	bucket, ok := s.data[rec.Entity]
	if !ok {
		bucket = make(map[string][]byte)
		s.data[rec.Entity] = bucket
	}
	bucket[rec.ID] = b
	return nil
}

func (s *Store) Delete(_ context.Context, entity placement.EntityType, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	if _, ok := s.data[entity][id]; !ok {
		return store.ErrNotFound
	}
	delete(s.data[entity], id)
	return nil
}

func (s *Store) List(ctx context.Context, entity placement.EntityType, pred store.Predicate) ([]store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}

	ids := make([]string, 0, len(s.data[entity]))
	for id := range s.data[entity] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]store.Record, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := store.Decode(s.data[entity][id])
		if err != nil {
			return nil, err
		}
		if pred == nil || pred(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

// Reopen vuelve a habilitar un store cerrado conservando sus registros.
func (s *Store) Reopen() error {
	s.mu.Lock()
	s.closed = false
	s.mu.Unlock()
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
