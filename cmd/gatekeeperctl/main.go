package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// gatekeeperctl: utilitário de operação (emitir tokens, gerar API keys,
// validar tabelas de keys).
func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type app struct {
	stdout io.Writer
	now    func() time.Time
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	a := &app{stdout: stdout, now: time.Now}
	root := &cobra.Command{
		Use:           "gatekeeperctl",
		Short:         "Operator tooling for the gatekeeper",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.AddCommand(newTokenCmd(a))
	root.AddCommand(newKeyCmd(a))
	return root
}
