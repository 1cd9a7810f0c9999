// Package router decide, por tipo de entidad, a qué store va cada operación:
// el compartido o el del hospital activo en el contexto.
package router

import (
	"context"
	"errors"

	"github.com/dropDatabas3/clinicore/internal/metrics"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
	"github.com/dropDatabas3/clinicore/internal/placement"
	"github.com/dropDatabas3/clinicore/internal/store"
	"github.com/dropDatabas3/clinicore/internal/tenantctx"
)

// ErrNoTenantSelected indica una operación tenant-scoped con el contexto en Unset.
// El Router nunca cae al store compartido ni a un tenant "default".
var ErrNoTenantSelected = errors.New("no tenant selected")

// IsNoTenantSelected helper para errors.Is.
func IsNoTenantSelected(err error) bool { return errors.Is(err, ErrNoTenantSelected) }

// Op es el tipo de operación. Hoy no cambia el resultado del routing;
// queda para réplicas de lectura.
type Op int

const (
	OpRead Op = iota
	OpWrite
)

func (o Op) String() string {
	if o == OpWrite {
		return "write"
	}
	return "read"
}

// Stores abstrae el Store Registry.
type Stores interface {
	Get(ctx context.Context, key string) (store.Handle, error)
}

// Router resuelve el store de cada operación.
type Router struct {
	stores Stores
}

// New crea un Router sobre el registry dado.
func New(stores Stores) *Router {
	return &Router{stores: stores}
}

// Resolve retorna el handle donde debe ejecutarse la operación.
//   - Shared: siempre el store compartido, sin mirar el contexto.
//   - TenantScoped + Active(t): el store de t.
//   - TenantScoped + Unset: ErrNoTenantSelected.
func (r *Router) Resolve(ctx context.Context, entity placement.EntityType, op Op) (store.Handle, error) {
	p := placement.Of(entity)

	key := store.SharedKey
	if p == placement.TenantScoped {
		code, ok := tenantctx.Code(ctx)
		if !ok {
			observe(p, op, "no_tenant")
			logger.From(ctx).Debug("tenant-scoped operation without tenant",
				logger.Entity(string(entity)),
				logger.Op(op.String()),
			)
			return nil, ErrNoTenantSelected
		}
		// el store compartido nunca recibe entidades de hospital
		if code == store.SharedKey {
			observe(p, op, "no_tenant")
			return nil, ErrNoTenantSelected
		}
		key = code
	}

	h, err := r.stores.Get(ctx, key)
	if err != nil {
		observe(p, op, "unavailable")
		return nil, err
	}
	observe(p, op, "ok")
	return h, nil
}

// Shared retorna siempre el store compartido.
func (r *Router) Shared(ctx context.Context) (store.Handle, error) {
	return r.stores.Get(ctx, store.SharedKey)
}

func observe(p placement.Placement, op Op, result string) {
	metrics.RouterResolutions.WithLabelValues(p.String(), op.String(), result).Inc()
}
