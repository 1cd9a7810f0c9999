package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/clinicore/internal/controlplane"
	"github.com/dropDatabas3/clinicore/internal/domain"
)

func newTenantsCmd(g *globals) *cobra.Command {
	tenantsCmd := &cobra.Command{Use: "tenants", Short: "Operaciones sobre hospitales"}

	// tenants create
	var in controlplane.TenantInput
	var driver, dsn, schema string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Dar de alta un hospital (store compartido + siembra del store propio)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Code == "" || in.Name == "" {
				return fmt.Errorf("--code y --name son requeridos")
			}
			if driver != "" {
				in.Store = &domain.StoreConfig{Driver: driver, DSN: dsn, Schema: schema}
			}
			c, err := g.container()
			if err != nil {
				return err
			}
			defer c.Close()

			t, err := c.ControlPlane.CreateTenant(cmd.Context(), in)
			if err != nil {
				if t != nil {
					return fmt.Errorf("hospital %s creado pero la siembra falló (reintentar con 'tenants seed %s'): %w", t.Code, t.Code, err)
				}
				return err
			}
			g.print(t, func() string { return fmt.Sprintf("created %s (%s)", t.Code, t.ID) })
			return nil
		},
	}
	createCmd.Flags().StringVar(&in.Code, "code", "", "Código del hospital (ej. general)")
	createCmd.Flags().StringVar(&in.Name, "name", "", "Nombre visible")
	createCmd.Flags().StringVar(&in.Timezone, "timezone", "", "Zona horaria (opcional)")
	createCmd.Flags().StringVar(&driver, "driver", "", "Driver de store propio (opcional): bolt|postgres")
	createCmd.Flags().StringVar(&dsn, "dsn", "", "DSN del store propio; se guarda cifrado")
	createCmd.Flags().StringVar(&schema, "schema", "", "Schema postgres del store propio")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Listar hospitales",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.container()
			if err != nil {
				return err
			}
			defer c.Close()

			list, err := c.ControlPlane.List(cmd.Context())
			if err != nil {
				return err
			}
			g.print(list, func() string {
				var b strings.Builder
				for _, t := range list {
					state := "active"
					if !t.Active {
						state = "inactive"
					}
					fmt.Fprintf(&b, "%-16s %-9s %s\n", t.Code, state, t.Name)
				}
				return strings.TrimRight(b.String(), "\n")
			})
			return nil
		},
	}

	setActive := func(use, short string, active bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " CODE",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := g.container()
				if err != nil {
					return err
				}
				defer c.Close()

				var t *domain.Tenant
				if active {
					t, err = c.ControlPlane.Activate(cmd.Context(), args[0])
				} else {
					t, err = c.ControlPlane.Deactivate(cmd.Context(), args[0])
				}
				if err != nil {
					return err
				}
				g.print(t, func() string { return fmt.Sprintf("%s active=%t", t.Code, t.Active) })
				return nil
			},
		}
	}

	seedCmd := &cobra.Command{
		Use:   "seed CODE",
		Short: "Reintentar la siembra del store del hospital",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.container()
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.ControlPlane.SeedTenant(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}

	var confirm bool
	purgeCmd := &cobra.Command{
		Use:   "purge CODE",
		Short: "Borrar el hospital y sus permisos del store compartido (el store propio no se toca)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("purge es irreversible: repetir con --yes")
			}
			c, err := g.container()
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.ControlPlane.Purge(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("purged", args[0])
			return nil
		},
	}
	purgeCmd.Flags().BoolVar(&confirm, "yes", false, "Confirmar el borrado")

	tenantsCmd.AddCommand(
		createCmd,
		listCmd,
		setActive("deactivate", "Desactivar un hospital (los datos se conservan)", false),
		setActive("activate", "Reactivar un hospital", true),
		seedCmd,
		purgeCmd,
	)
	return tenantsCmd
}
