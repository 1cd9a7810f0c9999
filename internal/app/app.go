// Package app arma el grafo de dependencias a partir de la configuración.
// Lo usan el servidor HTTP y los comandos de operación del CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/clinicore/internal/config"
	"github.com/dropDatabas3/clinicore/internal/controlplane"
	"github.com/dropDatabas3/clinicore/internal/dataaccess"
	"github.com/dropDatabas3/clinicore/internal/directory"
	jwtx "github.com/dropDatabas3/clinicore/internal/jwt"
	"github.com/dropDatabas3/clinicore/internal/metrics"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
	"github.com/dropDatabas3/clinicore/internal/router"
	sec "github.com/dropDatabas3/clinicore/internal/security/secretbox"
	"github.com/dropDatabas3/clinicore/internal/session"
	"github.com/dropDatabas3/clinicore/internal/store"
	"github.com/dropDatabas3/clinicore/internal/xref"

	// drivers memory, bolt y postgres
	_ "github.com/dropDatabas3/clinicore/internal/store/adapters/dal"
)

type Container struct {
	Config *config.Config

	Registry     *store.Registry
	Router       *router.Router
	Refs         *xref.Resolver
	Access       *dataaccess.Access
	ControlPlane *controlplane.Service
	Directory    *directory.Directory
	Selections   session.SelectionStore
	Issuer       *jwtx.Issuer
}

// New construye el Container. No abre ningún store: el compartido se abre en el primer uso.
func New(cfg *config.Config) (*Container, error) {
	if cfg.Security.SecretBoxMasterKey != "" {
		if err := sec.Init(cfg.Security.SecretBoxMasterKey); err != nil {
			return nil, fmt.Errorf("app: secretbox: %w", err)
		}
	}

	log := logger.Named("registry")
	reg := store.NewRegistry(store.RegistryConfig{
		Shared:      toConn(cfg.SharedStore),
		OpenTimeout: cfg.Stores.OpenTimeout,
		OnOpen: func(key, driver string, took time.Duration) {
			metrics.StoreOpens.WithLabelValues(driver, "ok").Inc()
			metrics.StoreOpenLatency.Observe(float64(took.Milliseconds()))
			metrics.OpenStores.Inc()
			log.Info("store opened", logger.StoreKey(key), logger.Driver(driver), logger.Duration(took))
		},
		OnOpenError: func(key string, err error) {
			metrics.StoreOpens.WithLabelValues("unknown", "error").Inc()
			log.Warn("store open failed", logger.StoreKey(key), logger.Err(err))
		},
		OnClose: func(key string) {
			metrics.OpenStores.Dec()
			log.Info("store closed", logger.StoreKey(key))
		},
	})

	rt := router.New(reg)
	refs := xref.New(reg)
	access := dataaccess.New(rt, refs)
	cp := controlplane.NewService(access, reg)
	reg.SetResolver(cp.ConnectionResolver(toConn(cfg.TenantStore)))

	sel, err := session.New(session.Config{
		Driver: cfg.Selection.Driver,
		TTL:    cfg.Selection.TTL,
		Redis: session.RedisConfig{
			Addr:     cfg.Selection.Redis.Addr,
			Password: cfg.Selection.Redis.Password,
			DB:       cfg.Selection.Redis.DB,
			Prefix:   cfg.Selection.Redis.Prefix,
		},
	})
	if err != nil {
		_ = reg.CloseAll()
		return nil, fmt.Errorf("app: selection store: %w", err)
	}

	c := &Container{
		Config:       cfg,
		Registry:     reg,
		Router:       rt,
		Refs:         refs,
		Access:       access,
		ControlPlane: cp,
		Directory:    directory.New(cp, cfg.Directory.TTL),
		Selections:   sel,
	}

	if cfg.Auth.JWTSecret != "" {
		c.Issuer, err = jwtx.NewIssuer(cfg.Auth.Issuer, []byte(cfg.Auth.JWTSecret), 0)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("app: issuer: %w", err)
		}
	}
	return c, nil
}

// Ping abre el store compartido para fallar temprano si no está disponible.
func (c *Container) Ping(ctx context.Context) error {
	_, err := c.Registry.Shared(ctx)
	return err
}

// Close libera el selection store y todos los stores abiertos.
func (c *Container) Close() error {
	var errs []error
	if c.Selections != nil {
		errs = append(errs, c.Selections.Close())
	}
	errs = append(errs, c.Registry.CloseAll())
	return errors.Join(errs...)
}

func toConn(s config.StoreConfig) store.ConnectionConfig {
	driver := s.Driver
	if driver == "pg" {
		driver = "postgres"
	}
	return store.ConnectionConfig{
		Driver:       driver,
		DSN:          s.DSN,
		Schema:       s.Schema,
		MaxOpenConns: s.MaxOpenConns,
		MaxIdleConns: s.MaxIdleConns,
	}
}
