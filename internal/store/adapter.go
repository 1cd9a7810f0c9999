package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Adapter abre stores de un driver concreto.
type Adapter interface {
	// Name retorna el nombre del driver ("memory", "bolt", "postgres").
	Name() string

	// Connect abre el store descripto por cfg. key es la clave del Registry.
	Connect(ctx context.Context, key string, cfg ConnectionConfig) (Handle, error)
}

// ConnectionConfig describe cómo abrir un store.
type ConnectionConfig struct {
	Driver string
	// DSN depende del driver: path del archivo (bolt), URL (postgres), nombre (memory).
	DSN string
	// Schema opcional para postgres (search_path).
	Schema string

	MaxOpenConns int
	MaxIdleConns int
}

// Valid verifica que haya driver.
func (c *ConnectionConfig) Valid() bool {
	return c != nil && strings.TrimSpace(c.Driver) != ""
}

// ForTenant retorna una copia con {tenant} reemplazado por el código en DSN y Schema.
func (c ConnectionConfig) ForTenant(code string) ConnectionConfig {
	out := c
	out.DSN = strings.ReplaceAll(c.DSN, "{tenant}", code)
	out.Schema = strings.ReplaceAll(c.Schema, "{tenant}", code)
	return out
}

var (
	adaptersMu sync.RWMutex
	adapters   = map[string]Adapter{}
)

// RegisterAdapter registra un adapter. Llamar en init() de cada adapter.
func RegisterAdapter(a Adapter) {
	adaptersMu.Lock()
	defer adaptersMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("store: adapter %q already registered", name))
	}
	adapters[name] = a
}

// GetAdapter obtiene un adapter por nombre ("pg" es alias de "postgres").
func GetAdapter(name string) (Adapter, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "pg" {
		name = "postgres"
	}
	adaptersMu.RLock()
	defer adaptersMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// ListAdapters retorna los nombres registrados, ordenados.
func ListAdapters() []string {
	adaptersMu.RLock()
	defer adaptersMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for n := range adapters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
