package session

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory implementa SelectionStore sobre go-cache.
type Memory struct {
	c   *gocache.Cache
	ttl time.Duration
}

// NewMemory crea un store en memoria. ttl 0 => no expira.
func NewMemory(ttl time.Duration) *Memory {
	exp := gocache.NoExpiration
	if ttl > 0 {
		exp = ttl
	}
	return &Memory{c: gocache.New(exp, time.Minute), ttl: exp}
}

func (m *Memory) Get(_ context.Context, accountID string) (string, bool, error) {
	v, ok := m.c.Get(accountID)
	if !ok {
		return "", false, nil
	}
	code, _ := v.(string)
	return code, code != "", nil
}

func (m *Memory) Set(_ context.Context, accountID, code string) error {
	m.c.Set(accountID, code, m.ttl)
	return nil
}

func (m *Memory) Clear(_ context.Context, accountID string) error {
	m.c.Delete(accountID)
	return nil
}

func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}
