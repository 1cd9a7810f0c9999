// Package session guarda la selección de hospital de cada cuenta entre requests.
//
// Soporta:
//   - Memory (in-process, para desarrollo/testing)
//   - Redis (distribuido, para producción con varias réplicas)
package session

import (
	"context"
	"fmt"
	"time"
)

// SelectionStore persiste el hospital elegido por cada cuenta.
type SelectionStore interface {
	// Get retorna el código elegido; ok=false si la cuenta no eligió ninguno.
	Get(ctx context.Context, accountID string) (code string, ok bool, err error)

	// Set registra la selección.
	Set(ctx context.Context, accountID, code string) error

	// Clear borra la selección. No es error si no había.
	Clear(ctx context.Context, accountID string) error

	Close() error
}

// Config configuración del SelectionStore.
type Config struct {
	Driver string        // "memory" | "redis"
	TTL    time.Duration // 0 => no expira
	Redis  RedisConfig
}

// RedisConfig conexión a Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// DefaultPrefix prefijo de las keys en Redis.
const DefaultPrefix = "clinicore:selection"

// New crea el store según la configuración.
func New(cfg Config) (SelectionStore, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedis(cfg.Redis, cfg.TTL)
	case "memory", "":
		return NewMemory(cfg.TTL), nil
	default:
		return nil, fmt.Errorf("session: unknown selection driver %q", cfg.Driver)
	}
}
