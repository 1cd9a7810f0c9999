// Package health contiene el controller para health checks.
package health

import (
	"net/http"

	"github.com/dropDatabas3/clinicore/internal/http/helpers"
	svc "github.com/dropDatabas3/clinicore/internal/http/services/health"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
)

// HealthController maneja las rutas de health check.
type HealthController struct {
	service svc.HealthService
}

// NewHealthController crea un nuevo controller de health check.
func NewHealthController(service svc.HealthService) *HealthController {
	return &HealthController{service: service}
}

// Healthz maneja GET /healthz
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Healthz"))

	resp := c.service.Check(ctx)
	if resp.Version != "" {
		w.Header().Set("X-Service-Version", resp.Version)
	}

	status := http.StatusOK
	if resp.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}

	log.Debug("health check completed", logger.String("status", resp.Status), logger.Count(len(resp.Components)))
	helpers.WriteJSON(w, status, resp)
}
