// Elevatebox serves the Elevate Box site: markdown content pages with the
// applicant onboarding wizard and the contact form mounted as live islands.
//
// Usage:
//
//	elevatebox serve [dir] [flags]
//	elevatebox apply [dir] [flags]
//	elevatebox check [dir]
//
// See 'elevatebox <command> --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/elevatebox/elevatebox/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.1.0-dev"

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:   "elevatebox",
		Short: "Elevate Box site server",
		Long: `Serve the Elevate Box site from a directory of markdown pages.

Pages mount interactive islands with fenced blocks:

  ` + "```island onboarding" + `
  ` + "```" + `

Available islands are "onboarding" (the applicant wizard) and "contact"
(the contact form). Submissions go to the sink configured in elevatebox.yaml.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Initialize(logLevel)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to $"+logging.LogLevelEnvVar)

	root.AddCommand(newServeCmd(), newApplyCmd(), newCheckCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "elevatebox %s\n", version)
		},
	}
}
