package middlewares

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/clinicore/internal/controlplane"
	"github.com/dropDatabas3/clinicore/internal/domain"
	"github.com/dropDatabas3/clinicore/internal/http/errors"
	"github.com/dropDatabas3/clinicore/internal/metrics"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
	"github.com/dropDatabas3/clinicore/internal/session"
	"github.com/dropDatabas3/clinicore/internal/tenantctx"
)

// ErrTenantNotAuthorized el llamador no puede operar sobre el hospital pedido.
var ErrTenantNotAuthorized = stderrors.New("tenant not authorized")

// DefaultOverrideHeader header con el que un rol privilegiado elige hospital por request.
const DefaultOverrideHeader = "X-Tenant-Override"

// TenantDirectory consultas de validación (directory.Directory).
type TenantDirectory interface {
	Lookup(ctx context.Context, code string) (*domain.Tenant, error)
	HasAccess(ctx context.Context, accountID, code string) (bool, error)
}

// TenantConfig configura el middleware de contexto de hospital.
type TenantConfig struct {
	Directory  TenantDirectory
	Selections session.SelectionStore

	// Scoped: el grupo de rutas opera sobre datos de un hospital y exige selección.
	Scoped bool

	// PrivilegedRoles pueden usar el override y no necesitan permiso explícito.
	PrivilegedRoles []string
	OverrideHeader  string
}

// tenantDenial motivo de rechazo, para métricas y logs.
type tenantDenial struct {
	reason string
	err    *errors.AppError
}

// TenantContext establece el hospital activo de cada request.
//
//	Start -> Resolve -> Validate -> Install -> handler -> Teardown
//	                \-> Deny      \-> Deny
//
// Cada request tiene su propio tenantctx.Scope; el Clear diferido corre en toda
// salida (retorno normal, error, panic, contexto cancelado). En Deny nunca se
// instala un hospital.
func TenantContext(cfg TenantConfig) Middleware {
	header := cfg.OverrideHeader
	if header == "" {
		header = DefaultOverrideHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, scope := tenantctx.Begin(r.Context())
			defer scope.Clear()

			// ─── Resolve ───
			p := GetPrincipal(ctx)
			if p == nil {
				if cfg.Scoped {
					deny(ctx, w, tenantDenial{reason: "unauthenticated", err: errors.ErrUnauthorized})
					return
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			privileged := p.HasAnyRole(cfg.PrivilegedRoles...)
			code, fromSession := "", false
			if ov := tenantctx.Normalize(r.Header.Get(header)); ov != "" && privileged {
				code = ov
			} else {
				sel, ok, err := cfg.Selections.Get(ctx, p.AccountID)
				if err != nil {
					logger.From(ctx).Error("selection lookup failed", logger.Err(err))
					errors.WriteError(w, errors.ErrInternalServerError.WithCause(err))
					return
				}
				if ok {
					code, fromSession = tenantctx.Normalize(sel), true
				}
			}

			if code == "" {
				if cfg.Scoped {
					deny(ctx, w, tenantDenial{reason: "required", err: errors.ErrTenantRequired})
					return
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// ─── Validate ───
			t, denial, err := validate(ctx, cfg.Directory, p, code, privileged)
			if err != nil {
				errors.WriteError(w, err)
				return
			}
			if denial != nil {
				if fromSession {
					// selección vieja (hospital desactivado o permiso revocado)
					if err := cfg.Selections.Clear(ctx, p.AccountID); err != nil {
						logger.From(ctx).Warn("clear stale selection", logger.Err(err))
					}
				}
				deny(ctx, w, *denial)
				return
			}

			// ─── Install ───
			scope.Set(t.Code)
			ctx = logger.Enrich(ctx, logger.TenantCode(t.Code), logger.TenantID(t.ID))
			metaFrom(ctx).set(func(m *requestMeta) { m.tenant = t.Code })

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validate(ctx context.Context, dir TenantDirectory, p *Principal, code string, privileged bool) (*domain.Tenant, *tenantDenial, error) {
	notAuthorized := func(reason string, base *errors.AppError) *tenantDenial {
		return &tenantDenial{
			reason: reason,
			err:    base.WithCause(fmt.Errorf("%w: %s", ErrTenantNotAuthorized, code)),
		}
	}

	t, err := dir.Lookup(ctx, code)
	if err != nil {
		if stderrors.Is(err, controlplane.ErrTenantNotFound) {
			// no se distingue "no existe" de "sin permiso"
			return nil, notAuthorized("unknown", errors.ErrTenantForbidden), nil
		}
		return nil, nil, err
	}
	if !t.Active {
		return nil, notAuthorized("inactive", errors.ErrTenantInactive), nil
	}
	if privileged {
		return t, nil, nil
	}
	ok, err := dir.HasAccess(ctx, p.AccountID, t.Code)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, notAuthorized("forbidden", errors.ErrTenantForbidden), nil
	}
	return t, nil, nil
}

func deny(ctx context.Context, w http.ResponseWriter, d tenantDenial) {
	metrics.TenantDenials.WithLabelValues(d.reason).Inc()
	metaFrom(ctx).set(func(m *requestMeta) { m.denied = d.reason })
	logger.From(ctx).Info("tenant context denied", logger.String("reason", d.reason))
	errors.WriteError(w, d.err)
}
