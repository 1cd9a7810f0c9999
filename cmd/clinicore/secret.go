package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sec "github.com/dropDatabas3/clinicore/internal/security/secretbox"
	"github.com/dropDatabas3/clinicore/internal/util"
)

func newSecretCmd(g *globals) *cobra.Command {
	secretCmd := &cobra.Command{Use: "secret", Short: "Utilidades de cifrado de DSN"}

	encryptCmd := &cobra.Command{
		Use:   "encrypt-dsn DSN",
		Short: "Cifrar un DSN con la master key (para cargarlo a mano en el store compartido)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initBox(g); err != nil {
				return err
			}
			enc, err := sec.Encrypt(args[0])
			if err != nil {
				return fmt.Errorf("cifrar: %w", err)
			}
			g.print(map[string]string{"dsn": util.MaskDSN(args[0]), "encrypted": enc}, func() string { return enc })
			return nil
		},
	}

	decryptCmd := &cobra.Command{
		Use:   "check-dsn CIPHERTEXT",
		Short: "Verificar que un DSN cifrado abre con la master key actual",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initBox(g); err != nil {
				return err
			}
			plain, err := sec.Decrypt(args[0])
			if err != nil {
				return fmt.Errorf("descifrar: %w", err)
			}
			masked := util.MaskDSN(plain)
			g.print(map[string]string{"dsn": masked}, func() string { return masked })
			return nil
		},
	}

	secretCmd.AddCommand(encryptCmd, decryptCmd)
	return secretCmd
}

func initBox(g *globals) error {
	key := g.cfg.Security.SecretBoxMasterKey
	if key == "" {
		return fmt.Errorf("falta SECRETBOX_MASTER_KEY")
	}
	return sec.Init(key)
}
