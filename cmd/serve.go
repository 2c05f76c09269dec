package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/pinemarten/semgrepd/internal/controller"
)

// serveAddrFlag is the listen address for the HTTP service.
var serveAddrFlag string

const serveLongDescription = `Start the scan HTTP service.

The service exposes two endpoints:
  - GET  /health    liveness probe reporting the semgrep engine version
  - POST /api/scan  scan a set of submitted files and return findings

Every scan stages the submitted files into a fresh scratch workspace,
runs semgrep against it under a bounded timeout and removes the
workspace afterwards.`

// serveCmd represents the serve command.
var serveCmd = newServeCmd()

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the scan HTTP service",
		Long:  serveLongDescription,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
	configureServeFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func configureServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&serveAddrFlag, addrFlagName, "a", viper.GetString(serverAddrKey), "listen address for the HTTP service")
	bindFlagToConfig(cmd.Flags().Lookup(addrFlagName), serverAddrKey)
}

func runServe(cmd *cobra.Command) error {
	deps := buildPipeline()

	// A broken rules file only blocks custom-ruleset scans, so the
	// service still starts and reports the problem instead.
	if err := deps.rules.Verify(); err != nil {
		slog.Warn("Rules file is not usable, custom scans will fail", "path", deps.rules.Path(), "error", err)
		cmd.PrintErrf("warning: rules file %s is not usable: %v\n", deps.rules.Path(), err)
	}

	api := controller.NewAPI(deps.scanner, deps.invoker, viper.GetInt64(serverMaxBodyBytesKey))

	server := &http.Server{
		Addr:              viper.GetString(serverAddrKey),
		Handler:           api.Handler(),
		ReadHeaderTimeout: time.Second * 10,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		slog.Info("Listening", "addr", server.Addr)
		cmd.Printf("semgrepd listening on %s\n", server.Addr)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to serve HTTP", "error", err)
			return fmt.Errorf("failed to serve HTTP: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownTimeout := time.Duration(viper.GetInt64(serverShutdownTimeoutKey)) * time.Second

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		slog.Info("Shutting down", "timeout", shutdownTimeout)

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down cleanly", "error", err)
			return fmt.Errorf("failed to shut down cleanly: %w", err)
		}

		return nil
	})

	return group.Wait()
}
