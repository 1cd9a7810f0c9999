// Package health contiene el service para health checks.
package health

import (
	"context"
	"time"

	dto "github.com/dropDatabas3/clinicore/internal/http/dto/health"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
	"github.com/dropDatabas3/clinicore/internal/store"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Registry abstrae el Store Registry.
type Registry interface {
	Shared(ctx context.Context) (store.Handle, error)
	Stats() []store.HandleStats
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Registry       Registry
	SelectionCheck func(ctx context.Context) error // nil => no se chequea
	SecretBoxReady func() bool
	Version        string
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	return &healthService{deps: deps}
}

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("health"), logger.Op("Check"))

	resp := dto.HealthResponse{
		Components: make(map[string]dto.HealthStatus),
		Timestamp:  time.Now().UTC(),
		Version:    s.deps.Version,
	}
	critical, degraded := false, false

	// 1) Store compartido (crítico): sin él no hay hospitales ni permisos
	if _, err := s.deps.Registry.Shared(ctx); err != nil {
		resp.Components["shared_store"] = dto.HealthStatus{Status: "error", Message: err.Error()}
		critical = true
		log.Error("shared store unavailable", logger.Err(err))
	} else {
		resp.Components["shared_store"] = dto.HealthStatus{Status: "ok"}
	}

	// 2) Selection store
	if s.deps.SelectionCheck != nil {
		if err := s.deps.SelectionCheck(ctx); err != nil {
			resp.Components["selection"] = dto.HealthStatus{Status: "error", Message: err.Error()}
			degraded = true
		} else {
			resp.Components["selection"] = dto.HealthStatus{Status: "ok"}
		}
	}

	// 3) Secretbox: sin clave no se pueden abrir hospitales con DSN propio
	if s.deps.SecretBoxReady != nil {
		if s.deps.SecretBoxReady() {
			resp.Components["secretbox"] = dto.HealthStatus{Status: "ok"}
		} else {
			resp.Components["secretbox"] = dto.HealthStatus{Status: "disabled", Message: "no master key"}
		}
	}

	for _, st := range s.deps.Registry.Stats() {
		resp.Stores = append(resp.Stores, dto.StoreStat{
			Key:        st.Key,
			Driver:     st.Driver,
			OpenedAt:   st.CreatedAt,
			LastUsedAt: st.LastUsedAt,
		})
	}

	switch {
	case critical:
		resp.Status = "unavailable"
	case degraded:
		resp.Status = "degraded"
	default:
		resp.Status = "ready"
	}
	return resp
}
