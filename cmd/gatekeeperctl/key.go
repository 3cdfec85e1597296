package main

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gatekeeper/middleware/gatekeeper/domain"
	"gatekeeper/middleware/gatekeeper/infra"
)

func newKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Generate API keys and validate key tables",
		Long: `Generate API keys and validate key table files.

Examples:
  gatekeeperctl key generate --id svc-reports --role user
  gatekeeperctl key check --file keys.yaml`,
	}
	cmd.AddCommand(newKeyGenerateCmd(a))
	cmd.AddCommand(newKeyCheckCmd(a))
	return cmd
}

func generateKey(prefix string, size int) (string, error) {
	if size < 16 {
		return "", errors.New("--bytes must be >= 16")
	}
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return prefix + base64.RawURLEncoding.EncodeToString(b), nil
}

func newKeyGenerateCmd(a *app) *cobra.Command {
	var (
		prefix string
		size   int
		id     string
		role   string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random API key as a key table entry",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			r, err := domain.ParseRole(role)
			if err != nil {
				return err
			}
			key, err := generateKey(prefix, size)
			if err != nil {
				return err
			}
			// saída pronta para colar no keys.yaml
			fmt.Fprintf(a.stdout, "- key: %s\n  id: %q\n  role: %s\n", key, id, r)
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "gk_", "key prefix")
	cmd.Flags().IntVar(&size, "bytes", 24, "random bytes in the key")
	cmd.Flags().StringVar(&id, "id", "", "principal id")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleUser), "principal role (admin|user)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newKeyCheckCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a key table file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			t, err := infra.LoadKeyTableFile(file)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "ok: %d keys\n", t.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "key table YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
