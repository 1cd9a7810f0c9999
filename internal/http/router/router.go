// Package router arma el árbol de rutas chi.
//
//	/healthz, /metrics                  públicas
//	/v1/auth/login                      pública
//	/v1/session/*                       autenticadas, sin hospital
//	/v1/tenants/*                       autenticadas + rol privilegiado, hospital opcional
//	/v1/patients, appointments, invoices autenticadas + hospital obligatorio
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	healthctrl "github.com/dropDatabas3/clinicore/internal/http/controllers/health"
	hospitalctrl "github.com/dropDatabas3/clinicore/internal/http/controllers/hospital"
	sessionctrl "github.com/dropDatabas3/clinicore/internal/http/controllers/session"
	tenantsctrl "github.com/dropDatabas3/clinicore/internal/http/controllers/tenants"
	httperrors "github.com/dropDatabas3/clinicore/internal/http/errors"
	mw "github.com/dropDatabas3/clinicore/internal/http/middlewares"
	"github.com/dropDatabas3/clinicore/internal/session"
)

// Deps contiene todas las dependencias del router.
type Deps struct {
	Health   *healthctrl.Controllers
	Session  *sessionctrl.Controllers
	Tenants  *tenantsctrl.TenantsController
	Hospital *hospitalctrl.Controllers

	// Metrics handler de /metrics (promhttp). nil => no se expone.
	Metrics http.Handler

	Auth       mw.PrincipalResolver
	Directory  mw.TenantDirectory
	Selections session.SelectionStore

	PrivilegedRoles    []string
	OverrideHeader     string
	CORSAllowedOrigins []string
}

// New retorna el handler raíz.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Std(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithMetrics(),
		mw.WithCORS(d.CORSAllowedOrigins),
	)...)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	r.Get("/healthz", d.Health.Health.Healthz)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	tenantCfg := mw.TenantConfig{
		Directory:       d.Directory,
		Selections:      d.Selections,
		PrivilegedRoles: d.PrivilegedRoles,
		OverrideHeader:  d.OverrideHeader,
	}

	r.Route("/v1", func(r chi.Router) {
		r.With(mw.Std(mw.WithNoStore())...).Post("/auth/login", d.Session.Login.Login)

		r.Group(func(r chi.Router) {
			r.Use(mw.Std(mw.WithNoStore(), mw.RequireAuth(d.Auth))...)

			registerSessionRoutes(r, d.Session)

			r.Group(func(r chi.Router) {
				cfg := tenantCfg
				cfg.Scoped = false
				r.Use(mw.Std(mw.RequireRole(d.PrivilegedRoles...), mw.TenantContext(cfg))...)
				registerTenantRoutes(r, d.Tenants)
			})

			r.Group(func(r chi.Router) {
				cfg := tenantCfg
				cfg.Scoped = true
				r.Use(mw.Std(mw.TenantContext(cfg))...)
				registerHospitalRoutes(r, d.Hospital)
			})
		})
	})

	return r
}

func registerSessionRoutes(r chi.Router, c *sessionctrl.Controllers) {
	r.Get("/session/tenants", c.Selection.Options)
	r.Get("/session/tenant", c.Selection.Current)
	r.Post("/session/tenant", c.Selection.Select)
	r.Delete("/session/tenant", c.Selection.Clear)
}

func registerTenantRoutes(r chi.Router, c *tenantsctrl.TenantsController) {
	r.Get("/tenants", c.List)
	r.Post("/tenants", c.Create)
	r.Post("/tenants/{code}/deactivate", c.Deactivate)
	r.Post("/tenants/{code}/activate", c.Activate)
	r.Post("/tenants/{code}/grants", c.Grant)
	r.Delete("/tenants/{code}/grants/{accountID}", c.Revoke)
}

func registerHospitalRoutes(r chi.Router, c *hospitalctrl.Controllers) {
	r.Get("/patients", c.Patients.List)
	r.Post("/patients", c.Patients.Create)
	r.Get("/appointments", c.Appointments.List)
	r.Post("/appointments", c.Appointments.Create)
	r.Get("/invoices", c.Invoices.List)
	r.Post("/invoices", c.Invoices.Create)
}
