package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dkaplan88/hireflow/internal/assistant"
	"github.com/dkaplan88/hireflow/internal/browser"
	"github.com/dkaplan88/hireflow/internal/config"
	"github.com/dkaplan88/hireflow/internal/llmclient"
	"github.com/dkaplan88/hireflow/internal/metrics"
	"github.com/dkaplan88/hireflow/internal/store"
)

// app holds the long-lived pieces shared by every session.
type app struct {
	browserManager *browser.Manager
	manager        *assistant.Manager
	recorder       assistant.Recorder
	pool           *pgxpool.Pool
	logger         *zap.Logger
}

// buildApp wires the browser, model client, transcript store, and session
// manager together.
func buildApp(ctx context.Context, cfg *config.Config, notifier assistant.Notifier, logger *zap.Logger) (*app, error) {
	llm, err := llmclient.NewGeminiClient(cfg.Agent.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	browserManager, err := browser.NewManager(ctx, cfg.Browser, logger)
	if err != nil {
		return nil, err
	}

	a := &app{
		browserManager: browserManager,
		logger:         logger,
	}

	a.recorder = store.NopRecorder{}
	if cfg.Store.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Store.URL)
		if err != nil {
			browserManager.Shutdown(ctx)
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		st, err := store.New(ctx, pool, logger)
		if err != nil {
			pool.Close()
			browserManager.Shutdown(ctx)
			return nil, err
		}
		a.pool = pool
		a.recorder = st
	}

	factory := func(_ context.Context, sessionID string) (*assistant.Assistant, error) {
		registry := browser.NewRegistry(browserManager, logger)
		driver := browser.NewChromeDriver(registry, cfg.Browser.NavigationTimeout, logger)
		gate := browser.NewGate(cfg.Verification, browser.RegistryProbe(registry), logger)
		agent := browser.NewAgent(driver, llm, gate, cfg.Agent.MaxSteps, cfg.Agent.LLM.Temperature, logger)

		metrics.SessionStarted()
		return assistant.New(sessionID, assistant.Dependencies{
			Automation:   agent,
			Tabs:         registry,
			Notifier:     notifier,
			Recorder:     a.recorder,
			Timeout:      cfg.Agent.CommandTimeout,
			DashboardURL: cfg.Browser.DashboardURL,
		}, logger), nil
	}
	a.manager = assistant.NewManager(factory, logger)
	return a, nil
}

// shutdown releases everything buildApp acquired.
func (a *app) shutdown(ctx context.Context) {
	if a.pool != nil {
		a.pool.Close()
	}
	if err := a.browserManager.Shutdown(ctx); err != nil {
		a.logger.Warn("browser shutdown failed", zap.Error(err))
	}
}
