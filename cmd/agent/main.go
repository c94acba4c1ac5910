package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jvcostta/hiring-challenge-alpha/internal/agent"
	"github.com/jvcostta/hiring-challenge-alpha/internal/config"
	"github.com/jvcostta/hiring-challenge-alpha/internal/llm"
	"github.com/jvcostta/hiring-challenge-alpha/internal/llmfactory"
	"github.com/jvcostta/hiring-challenge-alpha/internal/logging"
	"github.com/jvcostta/hiring-challenge-alpha/internal/observability"
	"github.com/jvcostta/hiring-challenge-alpha/internal/repl"
	"github.com/jvcostta/hiring-challenge-alpha/internal/sources/command"
	"github.com/jvcostta/hiring-challenge-alpha/internal/sources/database"
	"github.com/jvcostta/hiring-challenge-alpha/internal/sources/documents"
	"github.com/jvcostta/hiring-challenge-alpha/internal/tools"
	"github.com/jvcostta/hiring-challenge-alpha/internal/tools/dbquery"
	"github.com/jvcostta/hiring-challenge-alpha/internal/tools/docsearch"
	"github.com/jvcostta/hiring-challenge-alpha/internal/tools/shellcmd"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config.yaml (default: ./config.yaml)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, cleanup := logging.SetupWithFile(cfg.Logging.Level, cfg.Logging.File)
	defer cleanup()
	slog.SetDefault(logger)

	otelShutdown, err := observability.Setup(ctx, observability.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to setup observability: %w", err)
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			logger.Error("observability shutdown failed", "error", err)
		}
	}()

	mc, err := cfg.LLM.CurrentModel()
	if err != nil {
		return fmt.Errorf("invalid model configuration: %w", err)
	}

	adapter, err := llmfactory.NewAdapter(ctx, mc)
	if err != nil {
		return fmt.Errorf("failed to create LLM adapter: %w", err)
	}
	instrumented := llm.NewInstrumentedAdapter(adapter, logger, mc.Provider, mc.Model)

	registry := tools.NewRegistry()
	sources, closeProviders, err := initProviders(ctx, cfg, instrumented, logger, registry)
	if err != nil {
		return err
	}
	defer closeProviders()

	executor := tools.NewExecutor(registry)
	a := agent.New(instrumented, executor, registry,
		agent.WithLogger(logger),
		agent.WithCurrentModelName(cfg.LLM.Current),
		agent.WithAdapterFactory(func(ctx context.Context, provider, model string) (llm.Adapter, error) {
			next, err := llmfactory.NewAdapter(ctx, config.ModelConfig{Provider: provider, Model: model})
			if err != nil {
				return nil, err
			}
			return llm.NewInstrumentedAdapter(next, logger, provider, model), nil
		}),
	)

	logger.Info("agent starting", "model", cfg.LLM.Current, "sources", sources)

	return repl.New(a, cfg, sources).Run(ctx)
}

// initProviders initializes the three capability providers concurrently and
// registers a tool for each one that came up. A provider that fails to
// initialize is logged and left out; the agent runs with whatever remains.
// Only when no provider at all is usable does startup abort.
func initProviders(ctx context.Context, cfg *config.Config, adapter llm.Adapter, logger *slog.Logger, registry *tools.Registry) ([]string, func(), error) {
	dbProvider := database.New(cfg.Sources.DatabasesDir, adapter, logger)
	docProvider := documents.New(cfg.Sources.DocumentsDir, logger)
	cmdProvider := command.New(command.NewApprover(os.Stdin, os.Stdout), adapter, logger)

	var dbErr, docErr, cmdErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { dbErr = dbProvider.Init(gctx); return nil })
	g.Go(func() error { docErr = docProvider.Init(gctx); return nil })
	g.Go(func() error { cmdErr = cmdProvider.Init(gctx); return nil })
	_ = g.Wait()

	var sources []string

	if dbErr != nil {
		logger.Warn("database source unavailable", "error", dbErr)
	} else {
		registry.Register(dbquery.New(dbProvider))
		sources = append(sources, "database")
	}

	if docErr != nil {
		logger.Warn("document source unavailable", "error", docErr)
	} else {
		registry.Register(docsearch.New(docProvider))
		sources = append(sources, "documents")
	}

	if cmdErr != nil {
		logger.Warn("command source unavailable", "error", cmdErr)
	} else {
		registry.Register(shellcmd.New(cmdProvider))
		sources = append(sources, "commands")
	}

	closeProviders := func() {
		if dbErr == nil {
			if err := dbProvider.Close(); err != nil {
				logger.Warn("failed to close database", "error", err)
			}
		}
	}

	if len(sources) == 0 {
		closeProviders()
		return nil, nil, fmt.Errorf("no data sources available: database: %v; documents: %v; commands: %v", dbErr, docErr, cmdErr)
	}

	return sources, closeProviders, nil
}
