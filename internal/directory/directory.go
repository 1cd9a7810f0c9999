// Package directory cachea las consultas al registro de hospitales y a los
// permisos de acceso que hace el middleware en cada request.
package directory

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/clinicore/internal/controlplane"
	"github.com/dropDatabas3/clinicore/internal/domain"
	"github.com/dropDatabas3/clinicore/internal/tenantctx"
)

// Source es el origen de verdad (controlplane.Service).
type Source interface {
	GetByCode(ctx context.Context, code string) (*domain.Tenant, error)
	HasAccess(ctx context.Context, accountID, code string) (bool, error)
}

const (
	// DefaultTTL tiempo de vida por defecto de las entradas positivas.
	DefaultTTL = 30 * time.Second

	// MaxNegativeTTL tope para respuestas negativas (no existe, inactivo, sin permiso).
	MaxNegativeTTL = 5 * time.Second
)

// Directory responde con cache delante de Source. Las respuestas negativas también
// se cachean, con un TTL más corto: un alta o un grant hecho desde otro proceso (CLI)
// se ve en segundos. Una baja o un revoke externo se ve recién al vencer el TTL
// positivo; dentro del proceso lo descartan InvalidateTenant/InvalidateAccess.
type Directory struct {
	src    Source
	cache  *gocache.Cache
	negTTL time.Duration
}

// New crea el directorio. ttl <= 0 => DefaultTTL.
func New(src Source, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	neg := ttl / 6
	if neg > MaxNegativeTTL {
		neg = MaxNegativeTTL
	}
	if neg <= 0 {
		neg = ttl
	}
	return &Directory{src: src, cache: gocache.New(ttl, 2*ttl), negTTL: neg}
}

type tenantEntry struct {
	tenant *domain.Tenant // nil => no existe
}

// Lookup retorna el hospital o controlplane.ErrTenantNotFound.
func (d *Directory) Lookup(ctx context.Context, code string) (*domain.Tenant, error) {
	code = tenantctx.Normalize(code)
	key := "t:" + code
	if v, ok := d.cache.Get(key); ok {
		e := v.(tenantEntry)
		if e.tenant == nil {
			return nil, controlplane.ErrTenantNotFound
		}
		cp := *e.tenant
		return &cp, nil
	}

	t, err := d.src.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, controlplane.ErrTenantNotFound) {
			d.cache.Set(key, tenantEntry{}, d.negTTL)
		}
		return nil, err
	}
	cp := *t
	ttl := gocache.DefaultExpiration
	if !t.Active {
		ttl = d.negTTL
	}
	d.cache.Set(key, tenantEntry{tenant: &cp}, ttl)
	return t, nil
}

// HasAccess indica si la cuenta tiene permiso sobre el hospital.
func (d *Directory) HasAccess(ctx context.Context, accountID, code string) (bool, error) {
	code = tenantctx.Normalize(code)
	key := "g:" + accountID + ":" + code
	if v, ok := d.cache.Get(key); ok {
		return v.(bool), nil
	}
	ok, err := d.src.HasAccess(ctx, accountID, code)
	if err != nil {
		return false, err
	}
	ttl := gocache.DefaultExpiration
	if !ok {
		ttl = d.negTTL
	}
	d.cache.Set(key, ok, ttl)
	return ok, nil
}

// InvalidateTenant descarta lo cacheado de un hospital (alta, baja, cambio de estado).
func (d *Directory) InvalidateTenant(code string) {
	d.cache.Delete("t:" + tenantctx.Normalize(code))
}

// InvalidateAccess descarta el permiso cacheado de una cuenta sobre un hospital.
func (d *Directory) InvalidateAccess(accountID, code string) {
	d.cache.Delete("g:" + accountID + ":" + tenantctx.Normalize(code))
}

// Flush vacía el cache.
func (d *Directory) Flush() {
	d.cache.Flush()
}
