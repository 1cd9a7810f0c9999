// Package dataaccess concentra el acceso tenant-safe a los stores.
//
// Toda consulta de entidades tenant-scoped pasa por acá: sin tenant activo la
// lectura falla cerrada (colección vacía, sin error, sin tocar ningún store) y la
// escritura se rechaza. Los call sites no deben reimplementar esa regla.
package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/clinicore/internal/metrics"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
	"github.com/dropDatabas3/clinicore/internal/placement"
	"github.com/dropDatabas3/clinicore/internal/router"
	"github.com/dropDatabas3/clinicore/internal/store"
	"github.com/dropDatabas3/clinicore/internal/tenantctx"
	"github.com/dropDatabas3/clinicore/internal/xref"
)

// ErrInvalidReference una referencia a una entidad compartida no resuelve al escribir.
var ErrInvalidReference = errors.New("invalid shared reference")

// Access es el punto de entrada para leer y escribir registros.
type Access struct {
	router *router.Router
	refs   *xref.Resolver
	now    func() time.Time
}

// New crea el acceso sobre el router y el resolver de referencias.
func New(r *router.Router, refs *xref.Resolver) *Access {
	return &Access{router: r, refs: refs, now: func() time.Time { return time.Now().UTC() }}
}

// References expone el resolver de referencias compartidas.
func (a *Access) References() *xref.Resolver { return a.refs }

// failClosed indica si la lectura debe cortarse sin tocar stores.
func (a *Access) failClosed(ctx context.Context, entity placement.EntityType) bool {
	if placement.IsShared(entity) || tenantctx.Get(ctx).IsSet() {
		return false
	}
	metrics.FailClosed.WithLabelValues(string(entity)).Inc()
	logger.From(ctx).Debug("tenant-scoped read without tenant, returning empty",
		logger.Entity(string(entity)),
	)
	return true
}

// Query retorna los registros del tipo que cumplen pred (nil => todos).
// Tenant-scoped sin tenant activo => colección vacía y nil.
func (a *Access) Query(ctx context.Context, entity placement.EntityType, pred store.Predicate) ([]store.Record, error) {
	if a.failClosed(ctx, entity) {
		return []store.Record{}, nil
	}
	h, err := a.router.Resolve(ctx, entity, router.OpRead)
	if err != nil {
		// el tenant pudo limpiarse entre el chequeo y el resolve
		if router.IsNoTenantSelected(err) {
			return []store.Record{}, nil
		}
		return nil, err
	}
	return h.List(ctx, entity, pred)
}

// GetOrNone retorna el registro o nil si no existe.
// Tenant-scoped sin tenant activo => nil, nil.
func (a *Access) GetOrNone(ctx context.Context, entity placement.EntityType, id string) (*store.Record, error) {
	if a.failClosed(ctx, entity) {
		return nil, nil
	}
	h, err := a.router.Resolve(ctx, entity, router.OpRead)
	if err != nil {
		if router.IsNoTenantSelected(err) {
			return nil, nil
		}
		return nil, err
	}
	rec, err := h.Get(ctx, entity, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// Save crea o reemplaza el registro en el store que corresponda.
// Valida antes las referencias blandas a entidades compartidas; si alguna no
// resuelve retorna ErrInvalidReference y no escribe nada. Sin ID se asigna uno nuevo.
// Tenant-scoped sin tenant activo => router.ErrNoTenantSelected.
func (a *Access) Save(ctx context.Context, rec store.Record, refs ...xref.Ref) (store.Record, error) {
	if rec.Entity == "" {
		return store.Record{}, fmt.Errorf("%w: entity is required", store.ErrInvalidRecord)
	}

	h, err := a.router.Resolve(ctx, rec.Entity, router.OpWrite)
	if err != nil {
		return store.Record{}, err
	}

	if len(refs) > 0 {
		if err := a.refs.Validate(ctx, refs...); err != nil {
			if xref.IsDangling(err) || errors.Is(err, xref.ErrNotSharedEntity) {
				return store.Record{}, fmt.Errorf("%w: %w", ErrInvalidReference, err)
			}
			return store.Record{}, err
		}
	}

	now := a.now()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
		if prev, err := h.Get(ctx, rec.Entity, rec.ID); err == nil {
			rec.CreatedAt = prev.CreatedAt
		}
	}
	rec.UpdatedAt = now
	if rec.Data == nil {
		rec.Data = map[string]any{}
	}

	if err := h.Put(ctx, rec); err != nil {
		return store.Record{}, err
	}
	logger.From(ctx).Debug("record saved",
		logger.Entity(string(rec.Entity)),
		logger.ID(rec.ID),
		logger.StoreKey(h.Key()),
	)
	return rec, nil
}

// Delete borra el registro. Retorna store.ErrNotFound si no existe.
func (a *Access) Delete(ctx context.Context, entity placement.EntityType, id string) error {
	h, err := a.router.Resolve(ctx, entity, router.OpWrite)
	if err != nil {
		return err
	}
	return h.Delete(ctx, entity, id)
}
