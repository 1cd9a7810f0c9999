package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/clinicore/internal/app"
	"github.com/dropDatabas3/clinicore/internal/config"
	"github.com/dropDatabas3/clinicore/internal/observability/logger"
)

type globals struct {
	configPath string
	envFile    string
	out        string // json | text

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	g := &globals{
		configPath: envOr("CLINICORE_CONFIG", ""),
		envFile:    ".env",
		out:        envOr("CLINICORE_OUT", "text"),
	}

	root := &cobra.Command{
		Use:           "clinicore",
		Short:         "Capa de datos multi-hospital: servidor y operaciones",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env es opcional; las variables del entorno ganan
			if g.envFile != "" {
				if err := godotenv.Load(g.envFile); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("cargar %s: %w", g.envFile, err)
				}
			}
			cfg, err := config.Load(g.configPath)
			if err != nil {
				return err
			}
			g.cfg = cfg
			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       cfg.App.LogLevel,
				ServiceName: cfg.App.ServiceName,
				Version:     version,
			})
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", g.configPath, "Archivo YAML de configuración (env CLINICORE_CONFIG)")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", g.envFile, "Archivo .env a cargar (vacío para omitir)")
	root.PersistentFlags().StringVar(&g.out, "out", g.out, "Formato de salida: json|text")

	root.AddCommand(
		newServeCmd(g),
		newTenantsCmd(g),
		newAccountsCmd(g),
		newGrantCmd(g),
		newRevokeCmd(g),
		newTokenCmd(g),
		newSecretCmd(g),
	)
	return root
}

// container arma el grafo para un comando de operación. El llamador hace Close.
func (g *globals) container() (*app.Container, error) {
	return app.New(g.cfg)
}

func (g *globals) print(v any, text func() string) {
	if g.out == "json" {
		b, _ := json.MarshalIndent(v, "", "  ")
		fmt.Println(string(b))
		return
	}
	fmt.Println(text())
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
