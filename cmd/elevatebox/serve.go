package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elevatebox/elevatebox/internal/server"
)

type serveOptions struct {
	configPath string
	host       string
	port       int
	watch      bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve the site",
		Long: `Serve the markdown pages in dir (default: current directory).

Islands talk to the server over a websocket at /ws. With --watch, edits to
.md files are picked up and open browsers reload.`,
		Example: `  # Serve the current directory
  elevatebox serve

  # Serve ./site on all interfaces with live reload
  elevatebox serve ./site --host 0.0.0.0 --port 3000 --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, dirArg(args), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default: <dir>/elevatebox.yaml)")
	cmd.Flags().StringVar(&opts.host, "host", "", "Host to listen on (overrides config)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on (overrides config)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Reload pages when .md files change (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, dir string, opts serveOptions) error {
	s, err := loadSite(dir, opts.configPath)
	if err != nil {
		return err
	}

	// CLI flags override config
	if cmd.Flags().Changed("host") {
		s.cfg.Server.Host = opts.host
	}
	if cmd.Flags().Changed("port") {
		s.cfg.Server.Port = opts.port
	}
	if cmd.Flags().Changed("watch") {
		s.cfg.Features.HotReload = opts.watch
	}

	if err := s.open(); err != nil {
		return err
	}
	defer s.Close()

	islands, err := s.islands()
	if err != nil {
		return err
	}
	srv, err := server.New(s.dir, s.cfg, islands, server.WithLogger(s.log.Named("server")))
	if err != nil {
		return err
	}
	defer srv.Close()

	if err := srv.Discover(); err != nil {
		return fmt.Errorf("failed to discover pages: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Serving %s (sink: %s)\n\nPages:\n", s.dir, s.cfg.Sink.GetType())
	for _, route := range srv.Routes() {
		fmt.Fprintf(out, "  %-30s %s\n", route.Pattern, route.FilePath)
	}

	if s.cfg.Features.HotReload {
		if err := srv.EnableWatch(); err != nil {
			return fmt.Errorf("failed to enable watch mode: %w", err)
		}
		fmt.Fprintln(out, "\nWatching for changes")
	}

	addr := s.cfg.Server.Addr()
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	fmt.Fprintf(out, "\nServer running at http://%s\nPress Ctrl+C to stop\n", addr)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down", zap.String("addr", addr))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
