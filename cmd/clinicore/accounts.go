package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/clinicore/internal/controlplane"
)

func newAccountsCmd(g *globals) *cobra.Command {
	accountsCmd := &cobra.Command{Use: "accounts", Short: "Operaciones sobre cuentas"}

	var in controlplane.AccountInput
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Crear una cuenta",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.container()
			if err != nil {
				return err
			}
			defer c.Close()

			acc, err := c.ControlPlane.CreateAccount(cmd.Context(), in)
			if err != nil {
				return err
			}
			acc.PasswordHash = ""
			g.print(acc, func() string { return fmt.Sprintf("created %s (%s)", acc.Email, acc.ID) })
			return nil
		},
	}
	createCmd.Flags().StringVar(&in.Email, "email", "", "Email")
	createCmd.Flags().StringVar(&in.Name, "name", "", "Nombre")
	createCmd.Flags().StringVar(&in.Password, "password", "", "Password (mínimo 8 caracteres)")
	createCmd.Flags().StringSliceVar(&in.Roles, "role", nil, "Roles (repetible): platform_admin|doctor|nurse|billing|reception")

	accountsCmd.AddCommand(createCmd)
	return accountsCmd
}

func newGrantCmd(g *globals) *cobra.Command {
	var accountID, code string
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Dar acceso a una cuenta sobre un hospital",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accountID == "" || code == "" {
				return fmt.Errorf("--account y --tenant son requeridos")
			}
			c, err := g.container()
			if err != nil {
				return err
			}
			defer c.Close()

			gr, err := c.ControlPlane.GrantAccess(cmd.Context(), accountID, code, "cli")
			if err != nil {
				return err
			}
			g.print(gr, func() string { return fmt.Sprintf("granted %s -> %s", gr.AccountID, gr.TenantCode) })
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "ID de la cuenta")
	cmd.Flags().StringVar(&code, "tenant", "", "Código del hospital")
	return cmd
}

func newRevokeCmd(g *globals) *cobra.Command {
	var accountID, code string
	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Quitar el acceso de una cuenta sobre un hospital",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accountID == "" || code == "" {
				return fmt.Errorf("--account y --tenant son requeridos")
			}
			c, err := g.container()
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.ControlPlane.RevokeAccess(cmd.Context(), accountID, code); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "ID de la cuenta")
	cmd.Flags().StringVar(&code, "tenant", "", "Código del hospital")
	return cmd
}

// token emite un access token para pruebas y automatización.
func newTokenCmd(g *globals) *cobra.Command {
	var accountID string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emitir un access token para una cuenta existente",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accountID == "" {
				return fmt.Errorf("--account es requerido")
			}
			c, err := g.container()
			if err != nil {
				return err
			}
			defer c.Close()
			if c.Issuer == nil {
				return fmt.Errorf("auth.jwt_secret no configurado")
			}

			acc, err := c.ControlPlane.GetAccount(cmd.Context(), accountID)
			if err != nil {
				return err
			}
			tok, exp, err := c.Issuer.IssueAccess(acc.ID, acc.Roles)
			if err != nil {
				return err
			}
			g.print(map[string]any{"access_token": tok, "expires_at": exp.Format(time.RFC3339)}, func() string { return tok })
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "ID de la cuenta")
	return cmd
}
