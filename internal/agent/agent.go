// Package agent wires all subsystems and owns the process lifecycle.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hostguard/agent/internal/bot"
	"github.com/hostguard/agent/internal/compose"
	"github.com/hostguard/agent/internal/config"
	"github.com/hostguard/agent/internal/metrics"
	"github.com/hostguard/agent/internal/monitor"
	"github.com/hostguard/agent/internal/server"
	"github.com/hostguard/agent/internal/status"
	"github.com/hostguard/agent/internal/telegram"
)

// Agent is the top-level application: the security monitor loop, the
// operator command router and the local ops HTTP server.
type Agent struct {
	cfg    *config.Config
	logger *slog.Logger

	scheduler *monitor.Scheduler
	router    *bot.Router
	server    *server.Server
}

// New creates and wires all agent subsystems.
func New(cfg *config.Config, logger *slog.Logger) (*Agent, error) {
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	rules, err := cfg.Rules()
	if err != nil {
		return nil, fmt.Errorf("build alert rules: %w", err)
	}

	client := telegram.NewClient(cfg.BotToken, "", logger)
	dispatcher := monitor.NewDispatcher(client, cfg.AdminIDs, logger)
	scheduler := monitor.NewScheduler(rules, dispatcher, config.TickInterval, logger)

	runner := compose.ExecRunner{}
	stack := compose.NewStack(cfg.ComposeFile, runner, logger)
	orchestrator := compose.NewOrchestrator(stack, logger)
	reporter := status.NewReporter(stack, runner, logger)

	router := bot.NewRouter(client, client, reporter, orchestrator, cfg.AdminIDs, logger)
	srv := server.New(cfg.HTTPAddr, config.Version, reporter, logger)

	return &Agent{
		cfg:       cfg,
		logger:    logger,
		scheduler: scheduler,
		router:    router,
		server:    srv,
	}, nil
}

// Run starts the monitor loop, the command router and the ops server, and
// blocks until the context is cancelled. A server failure cancels the
// background workers so Run always returns.
func (a *Agent) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.scheduler.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.router.Run(ctx)
	}()

	err := a.server.Run(ctx)
	cancel()
	wg.Wait()

	if err != nil {
		return fmt.Errorf("ops server: %w", err)
	}
	return nil
}
