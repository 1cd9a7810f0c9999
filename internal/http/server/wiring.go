package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/clinicore/internal/app"
	healthctrl "github.com/dropDatabas3/clinicore/internal/http/controllers/health"
	hospitalctrl "github.com/dropDatabas3/clinicore/internal/http/controllers/hospital"
	sessionctrl "github.com/dropDatabas3/clinicore/internal/http/controllers/session"
	tenantsctrl "github.com/dropDatabas3/clinicore/internal/http/controllers/tenants"
	mw "github.com/dropDatabas3/clinicore/internal/http/middlewares"
	"github.com/dropDatabas3/clinicore/internal/http/router"
	healthsvc "github.com/dropDatabas3/clinicore/internal/http/services/health"
	hospitalsvc "github.com/dropDatabas3/clinicore/internal/http/services/hospital"
	sessionsvc "github.com/dropDatabas3/clinicore/internal/http/services/session"
	"github.com/dropDatabas3/clinicore/internal/metrics"
	sec "github.com/dropDatabas3/clinicore/internal/security/secretbox"
)

// Options ajustes del handler que no vienen de la configuración.
type Options struct {
	// Gatherer de /metrics. nil => prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	// Registerer donde se registran los collectors. nil => default.
	Registerer prometheus.Registerer
	Version    string
}

// BuildHandler arma controllers, services y router a partir del Container.
func BuildHandler(c *app.Container, opts Options) (http.Handler, error) {
	if err := metrics.Register(opts.Registerer); err != nil {
		return nil, err
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	cfg := c.Config

	var auth mw.PrincipalResolver
	if c.Issuer != nil {
		auth = mw.BearerJWT(c.Issuer)
	} else {
		// sin secreto JWT ningún request autentica
		auth = mw.PrincipalResolverFunc(func(*http.Request) (*mw.Principal, error) {
			return nil, mw.ErrNoCredentials
		})
	}

	health := healthsvc.NewHealthService(healthsvc.Deps{
		Registry: c.Registry,
		SelectionCheck: func(ctx context.Context) error {
			_, _, err := c.Selections.Get(ctx, "healthcheck")
			return err
		},
		SecretBoxReady: sec.Ready,
		Version:        opts.Version,
	})
	sessions := sessionsvc.NewService(sessionsvc.Deps{
		ControlPlane: c.ControlPlane,
		Directory:    c.Directory,
		Selections:   c.Selections,
		Issuer:       c.Issuer,
	})
	hospital := hospitalsvc.NewService(hospitalsvc.Deps{
		Access:  c.Access,
		Tenants: c.Directory,
	})

	return router.New(router.Deps{
		Health:   healthctrl.NewControllers(health),
		Session:  sessionctrl.NewControllers(sessions, cfg.Auth.PrivilegedRoles),
		Tenants:  tenantsctrl.NewTenantsController(c.ControlPlane, c.Directory),
		Hospital: hospitalctrl.NewControllers(hospital),
		Metrics:  promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),

		Auth:       auth,
		Directory:  c.Directory,
		Selections: c.Selections,

		PrivilegedRoles:    cfg.Auth.PrivilegedRoles,
		OverrideHeader:     cfg.Auth.OverrideHeader,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	}), nil
}
