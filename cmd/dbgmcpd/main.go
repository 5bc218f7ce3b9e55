// Command dbgmcpd runs the multi-tenant crash-dump debugging service
// described in spec.md: the dump and symbol stores, session manager,
// debugger drivers, MCP tool dispatcher, and the HTTP surface that fronts
// them all.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is overridable at build time via -ldflags "-X main.version=...".
var version = "dev"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "dbgmcpd",
		Short: "Remote crash-dump debugging service",
	}
	root.AddCommand(newServeCommand())
	root.AddCommand(newVersionCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
