package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elevatebox/elevatebox"
	"github.com/elevatebox/elevatebox/internal/server"
)

func newCheckCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Validate the configuration and every page",
		Long: `Load elevatebox.yaml and the onboarding wizard definition, validate both,
and parse every page. Parse errors are printed with their source context.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, dirArg(args), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: <dir>/elevatebox.yaml)")
	return cmd
}

func runCheck(cmd *cobra.Command, dir, configPath string) error {
	s, err := loadSite(dir, configPath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "config OK (sink: %s, wizard: %d steps)\n", s.cfg.Sink.GetType(), len(s.wizard.Steps))

	routes, err := server.DiscoverPages(s.cfg.ContentPath(s.dir))
	for _, r := range routes {
		fmt.Fprintf(out, "  ok   %-24s %s\n", r.Pattern, r.FilePath)
	}
	if err == nil {
		fmt.Fprintf(out, "%d pages OK\n", len(routes))
		return nil
	}

	failed := 0
	for _, e := range unjoin(err) {
		var perr *elevatebox.ParseError
		if errors.As(e, &perr) {
			fmt.Fprint(cmd.ErrOrStderr(), perr.Format())
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), e)
		}
		failed++
	}
	return fmt.Errorf("%d page(s) failed to parse", failed)
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
