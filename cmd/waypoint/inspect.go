package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/inspect"
)

func inspectCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Serve the router inspector",
		Long: `Start a router on an in-memory history and serve the inspector API.

Endpoints:
  GET  /routes           route table
  GET  /resolve?path=    resolve a path without navigating
  GET  /current          current location
  POST /navigate         {"path": "/users", "replace": false}
  POST /back, /forward   move through history
  GET  /ws               stream of committed navigations
  GET  /metrics          Prometheus metrics (when enabled)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(flags)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = e.cfg.Inspect.Addr
			}
			return runInspect(cmd.Context(), e, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from inspect.addr)")

	return cmd
}

func runInspect(ctx context.Context, e *env, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r, _, _, err := e.memoryRouter(ctx)
	if err != nil {
		return err
	}
	defer r.Close()
	if err := r.Start(ctx); err != nil {
		return err
	}

	var gatherer prometheus.Gatherer
	if e.registry != nil {
		gatherer = e.registry
	}
	srv := inspect.New(r, gatherer, e.logger)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	success("Inspector running at http://%s", addr)
	info("%d routes, history at %s", len(r.Routes()), r.CurrentRoute().Get().FullPath)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		fmt.Println()
		info("Shutting down...")
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), e.cfg.Inspect.ShutdownTimeout)
	defer stop()
	return httpServer.Shutdown(shutdownCtx)
}
