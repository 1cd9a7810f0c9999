package controlplane

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dropDatabas3/clinicore/internal/dataaccess"
	"github.com/dropDatabas3/clinicore/internal/domain"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
	"github.com/dropDatabas3/clinicore/internal/placement"
	sec "github.com/dropDatabas3/clinicore/internal/security/secretbox"
	"github.com/dropDatabas3/clinicore/internal/store"
	"github.com/dropDatabas3/clinicore/internal/tenantctx"
)

// TenantInput datos de alta de un hospital.
type TenantInput struct {
	Code     string
	Name     string
	Timezone string
	// Store conexión propia (opcional). El DSN se cifra al persistir.
	Store *domain.StoreConfig
}

// CreateTenant da de alta un hospital: escribe primero la fila en el store
// compartido y después siembra la fila de sistema en el store del hospital.
// No hay atomicidad entre stores: si la siembra falla el hospital queda creado
// y el error envuelve ErrSeedFailed; SeedTenant lo reintenta.
func (s *Service) CreateTenant(ctx context.Context, in TenantInput) (*domain.Tenant, error) {
	code := tenantctx.Normalize(in.Code)
	if err := ValidateTenantCode(code); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrBadInput)
	}

	// El alta escribe en el compartido aunque el llamador opere dentro de un hospital.
	resume, err := tenantctx.Suspend(ctx)
	switch {
	case err == nil:
		defer resume()
	case errors.Is(err, tenantctx.ErrNoScope):
	default:
		return nil, err
	}

	if _, err := s.GetByCode(ctx, code); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrTenantExists, code)
	} else if !errors.Is(err, ErrTenantNotFound) {
		return nil, err
	}

	t := domain.Tenant{Code: code, Name: name, Active: true}
	if in.Store != nil && in.Store.Driver != "" {
		cfg := *in.Store
		if cfg.DSN != "" {
			enc, err := sec.Encrypt(cfg.DSN)
			if err != nil {
				return nil, fmt.Errorf("encrypt tenant DSN: %w", err)
			}
			cfg.DSNEnc = enc
			cfg.DSN = "" // Limpiar plain
		}
		t.Store = &cfg
	}

	saved, err := dataaccess.SaveAs(ctx, s.access, t)
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("tenant created",
		logger.TenantCode(saved.Code),
		logger.TenantID(saved.ID),
	)

	if err := s.seed(ctx, saved, in.Timezone); err != nil {
		return &saved, err
	}
	return &saved, nil
}

// SeedTenant reintenta la siembra del store del hospital. Idempotente.
func (s *Service) SeedTenant(ctx context.Context, code string) error {
	t, err := s.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	return s.seed(ctx, *t, "")
}

// settingsID la fila de sistema es única por store.
const settingsID = "system"

func (s *Service) seed(ctx context.Context, t domain.Tenant, tz string) error {
	err := tenantctx.Run(ctx, t.Code, func(ctx context.Context) error {
		existing, found, err := dataaccess.GetAs[domain.TenantSettings](ctx, s.access, settingsID)
		if err != nil {
			return err
		}
		settings := domain.TenantSettings{ID: settingsID, TenantID: t.ID, DisplayName: t.Name, Timezone: tz}
		if found {
			settings.CreatedAt = existing.CreatedAt
			if settings.Timezone == "" {
				settings.Timezone = existing.Timezone
			}
		}
		_, err = dataaccess.SaveAs(ctx, s.access, settings)
		return err
	})
	if err != nil {
		logger.From(ctx).Warn("tenant store seed failed",
			logger.TenantCode(t.Code),
			logger.Err(err),
		)
		return fmt.Errorf("%w: %s: %w", ErrSeedFailed, t.Code, err)
	}
	return nil
}

// GetByCode busca un hospital por código.
func (s *Service) GetByCode(ctx context.Context, code string) (*domain.Tenant, error) {
	code = tenantctx.Normalize(code)
	if code == "" {
		return nil, ErrTenantNotFound
	}
	list, err := dataaccess.QueryAs[domain.Tenant](ctx, s.access, store.FieldEquals("code", code))
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, code)
	}
	return &list[0], nil
}

// GetByID busca un hospital por ID.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	t, found, err := dataaccess.GetAs[domain.Tenant](ctx, s.access, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, id)
	}
	return &t, nil
}

// List retorna todos los hospitales ordenados por código.
func (s *Service) List(ctx context.Context) ([]domain.Tenant, error) {
	list, err := dataaccess.QueryAs[domain.Tenant](ctx, s.access, nil)
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list, nil
}

// Deactivate desactiva el hospital. Sus datos se conservan.
func (s *Service) Deactivate(ctx context.Context, code string) (*domain.Tenant, error) {
	return s.setActive(ctx, code, false)
}

// Activate reactiva el hospital.
func (s *Service) Activate(ctx context.Context, code string) (*domain.Tenant, error) {
	return s.setActive(ctx, code, true)
}

func (s *Service) setActive(ctx context.Context, code string, active bool) (*domain.Tenant, error) {
	t, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if t.Active == active {
		return t, nil
	}
	t.Active = active
	saved, err := dataaccess.SaveAs(ctx, s.access, *t)
	if err != nil {
		return nil, err
	}
	if !active && s.closer != nil {
		if err := s.closer.Close(saved.Code); err != nil {
			logger.From(ctx).Warn("close tenant store", logger.TenantCode(saved.Code), logger.Err(err))
		}
	}
	logger.From(ctx).Info("tenant status changed",
		logger.TenantCode(saved.Code),
		logger.Bool("active", saved.Active),
	)
	return &saved, nil
}

// Purge borra el hospital y sus permisos del store compartido. Los registros de
// los stores de hospitales que lo referencien quedan colgando. Sólo para ops.
func (s *Service) Purge(ctx context.Context, code string) error {
	t, err := s.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	grants, err := s.access.Query(ctx, placement.AccessGrant, store.FieldEquals("tenant_id", t.ID))
	if err != nil {
		return err
	}
	for _, g := range grants {
		if err := s.access.Delete(ctx, placement.AccessGrant, g.ID); err != nil && !store.IsNotFound(err) {
			return err
		}
	}
	if err := s.access.Delete(ctx, placement.Tenant, t.ID); err != nil {
		return err
	}
	if s.closer != nil {
		_ = s.closer.Close(t.Code)
	}
	logger.From(ctx).Warn("tenant purged", logger.TenantCode(t.Code), logger.Count(len(grants)))
	return nil
}
