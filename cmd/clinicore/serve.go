package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/clinicore/internal/http/server"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
)

func newServeCmd(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			log := logger.Named("serve")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := g.container()
			if err != nil {
				return err
			}
			defer func() {
				if err := c.Close(); err != nil {
					log.Warn("cleanup error", logger.Err(err))
				}
			}()

			pingCtx, cancel := context.WithTimeout(ctx, cfg.Stores.OpenTimeout)
			defer cancel()
			if err := c.Ping(pingCtx); err != nil {
				return fmt.Errorf("shared store: %w", err)
			}
			if c.Issuer == nil {
				log.Warn("auth.jwt_secret vacío: ningún request autenticado va a pasar")
			}

			h, err := server.BuildHandler(c, server.Options{Version: version})
			if err != nil {
				return err
			}

			log.Info("starting",
				logger.String("addr", cfg.Server.Addr),
				logger.String("env", cfg.App.Env),
				logger.Driver(cfg.SharedStore.Driver),
			)
			return server.New(server.Config{
				Addr:            cfg.Server.Addr,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			}, h).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Dirección de escucha (pisa server.addr)")
	return cmd
}
