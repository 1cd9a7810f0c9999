package controlplane

import (
	"context"
	"fmt"

	sec "github.com/dropDatabas3/clinicore/internal/security/secretbox"
	"github.com/dropDatabas3/clinicore/internal/store"
)

// ConnectionResolver retorna el resolver que usa el Registry para abrir el store
// de cada hospital. Un hospital con Store propio usa esa conexión (DSN descifrado);
// si no, se usa tmpl con {tenant} reemplazado por el código.
// Hospitales inexistentes o inactivos no resuelven.
func (s *Service) ConnectionResolver(tmpl store.ConnectionConfig) store.ConnectionResolver {
	return func(ctx context.Context, code string) (*store.ConnectionConfig, error) {
		t, err := s.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if !t.Active {
			return nil, fmt.Errorf("%w: %s", ErrTenantInactive, t.Code)
		}

		if t.Store != nil && t.Store.Driver != "" {
			cfg := store.ConnectionConfig{
				Driver:       t.Store.Driver,
				Schema:       t.Store.Schema,
				MaxOpenConns: tmpl.MaxOpenConns,
				MaxIdleConns: tmpl.MaxIdleConns,
			}
			if t.Store.DSNEnc != "" {
				dsn, err := sec.Decrypt(t.Store.DSNEnc)
				if err != nil {
					return nil, fmt.Errorf("decrypt tenant DSN: %w", err)
				}
				cfg.DSN = dsn
			}
			return &cfg, nil
		}

		if !tmpl.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrNoStoreTemplate, t.Code)
		}
		cfg := tmpl.ForTenant(t.Code)
		return &cfg, nil
	}
}
