package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dkaplan88/hireflow/internal/metrics"
	"github.com/dkaplan88/hireflow/internal/server"
	"github.com/dkaplan88/hireflow/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assistant as an HTTP and WebSocket service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := observability.GetLogger()
	defer observability.Sync()

	if cfg.Server.TokenSecret == "" {
		return fmt.Errorf("server.token_secret is required (set HIREFLOW_TOKEN_SECRET)")
	}

	metrics.Init("hireflow", prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := server.NewHub(logger)
	a, err := buildApp(ctx, cfg, hub, logger)
	if err != nil {
		return err
	}

	tokens, err := server.NewTokenIssuer(cfg.Server.TokenSecret, cfg.Server.TokenTTL)
	if err != nil {
		return err
	}
	srv := server.New(cfg.Server, a.manager, hub, tokens, logger)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gCtx)
	})

	err = g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	a.shutdown(shutdownCtx)

	return err
}
