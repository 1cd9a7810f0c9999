package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ConnectionResolver resuelve la configuración de conexión del store de un tenant.
type ConnectionResolver func(ctx context.Context, code string) (*ConnectionConfig, error)

// RegistryConfig configura el Registry.
type RegistryConfig struct {
	// Shared configuración del store compartido (requerida).
	Shared ConnectionConfig

	// Resolve resuelve la conexión de cada tenant. Puede setearse después con SetResolver.
	Resolve ConnectionResolver

	// OpenTimeout tope para abrir un store. Default: 10s.
	OpenTimeout time.Duration

	// OnOpen callback cuando se abre un store nuevo.
	OnOpen func(key, driver string, took time.Duration)

	// OnOpenError callback cuando falla la apertura.
	OnOpenError func(key string, err error)

	// OnClose callback cuando se cierra un store.
	OnClose func(key string)
}

// Registry mantiene un Handle por clave lógica: "shared" y un store por código de tenant.
// Los handles se abren on-demand, se cachean y se reutilizan entre requests.
// singleflight evita abrir dos veces la misma clave ante accesos concurrentes.
type Registry struct {
	cfg RegistryConfig

	mu      sync.RWMutex
	resolve ConnectionResolver

	// handles mapa de clave → *registryEntry
	handles sync.Map
	sf      singleflight.Group

	// parked handles Reopener cerrados, por clave
	parked sync.Map
}

type registryEntry struct {
	handle     Handle
	createdAt  time.Time
	mu         sync.Mutex
	lastUsedAt time.Time
}

func (e *registryEntry) touch() {
	e.mu.Lock()
	e.lastUsedAt = time.Now()
	e.mu.Unlock()
}

// NewRegistry crea un Registry. No abre ningún store hasta el primer Get.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 10 * time.Second
	}
	return &Registry{cfg: cfg, resolve: cfg.Resolve}
}

// SetResolver reemplaza el resolver de tenants. Llamar durante el wiring, antes de servir.
func (r *Registry) SetResolver(fn ConnectionResolver) {
	r.mu.Lock()
	r.resolve = fn
	r.mu.Unlock()
}

// Shared es un atajo para Get(ctx, SharedKey).
func (r *Registry) Shared(ctx context.Context) (Handle, error) {
	return r.Get(ctx, SharedKey)
}

// Get retorna el handle de la clave, abriéndolo en el primer acceso.
// Cualquier falla de apertura se retorna envuelta en ErrStoreUnavailable y no se cachea.
func (r *Registry) Get(ctx context.Context, key string) (Handle, error) {
	key = normalizeKey(key)
	if key == "" {
		return nil, fmt.Errorf("%w: empty store key", ErrStoreUnavailable)
	}

	if val, ok := r.handles.Load(key); ok {
		entry := val.(*registryEntry)
		entry.touch()
		return entry.handle, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// double-check: otro flight pudo terminar entre el Load y el Do
		if val, ok := r.handles.Load(key); ok {
			return val.(*registryEntry).handle, nil
		}

		start := time.Now()
		h, err := r.open(ctx, key)
		if err != nil {
			if r.cfg.OnOpenError != nil {
				r.cfg.OnOpenError(key, err)
			}
			return nil, err
		}

		now := time.Now()
		r.handles.Store(key, &registryEntry{handle: h, createdAt: now, lastUsedAt: now})
		if r.cfg.OnOpen != nil {
			r.cfg.OnOpen(key, h.Driver(), time.Since(start))
		}
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(Handle), nil
}

func (r *Registry) open(ctx context.Context, key string) (Handle, error) {
	// La apertura no depende de la cancelación del request que la disparó:
	// otros requests pueden estar esperando el mismo flight. El tope lo pone OpenTimeout.
	openCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.OpenTimeout)
	defer cancel()

	var cfg ConnectionConfig
	if key == SharedKey {
		cfg = r.cfg.Shared
	} else {
		r.mu.RLock()
		resolve := r.resolve
		r.mu.RUnlock()
		if resolve == nil {
			return nil, fmt.Errorf("%w: %s: tenant resolver not configured", ErrStoreUnavailable, key)
		}
		c, err := resolve(openCtx, key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, key, err)
		}
		if c == nil {
			return nil, fmt.Errorf("%w: %s: no connection config", ErrStoreUnavailable, key)
		}
		cfg = *c
	}

	if !cfg.Valid() {
		return nil, fmt.Errorf("%w: %s: driver not configured", ErrStoreUnavailable, key)
	}
	adapter, ok := GetAdapter(cfg.Driver)
	if !ok {
		return nil, fmt.Errorf("%w: %s: unknown driver %q", ErrStoreUnavailable, key, cfg.Driver)
	}

	// el resolver ya validó la clave (p. ej. hospital activo); recién ahí se reabre
	if val, ok := r.parked.LoadAndDelete(key); ok {
		h := val.(Handle)
		if h.Driver() == adapter.Name() {
			if err := h.(Reopener).Reopen(); err == nil {
				return h, nil
			}
		}
	}

	h, err := adapter.Connect(openCtx, key, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, key, err)
	}
	return h, nil
}

// Has indica si la clave tiene un handle abierto.
func (r *Registry) Has(key string) bool {
	_, ok := r.handles.Load(normalizeKey(key))
	return ok
}

// Close cierra y descarta el handle de una clave. El próximo Get lo reabre;
// un handle Reopener vuelve con su contenido.
func (r *Registry) Close(key string) error {
	key = normalizeKey(key)
	val, ok := r.handles.LoadAndDelete(key)
	if !ok {
		return nil
	}
	if r.cfg.OnClose != nil {
		r.cfg.OnClose(key)
	}
	h := val.(*registryEntry).handle
	if err := h.Close(); err != nil {
		return err
	}
	if _, ok := h.(Reopener); ok {
		r.parked.Store(key, h)
	}
	return nil
}

// CloseAll cierra todos los handles abiertos.
func (r *Registry) CloseAll() error {
	var errs []error
	r.handles.Range(func(k, _ any) bool {
		if err := r.Close(k.(string)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
		}
		return true
	})
	return errors.Join(errs...)
}

// HandleStats snapshot de un handle abierto.
type HandleStats struct {
	Key        string
	Driver     string
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// Stats retorna un snapshot de los handles abiertos, ordenado por clave.
func (r *Registry) Stats() []HandleStats {
	var out []HandleStats
	r.handles.Range(func(k, v any) bool {
		e := v.(*registryEntry)
		e.mu.Lock()
		out = append(out, HandleStats{
			Key:        k.(string),
			Driver:     e.handle.Driver(),
			CreatedAt:  e.createdAt,
			LastUsedAt: e.lastUsedAt,
		})
		e.mu.Unlock()
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
