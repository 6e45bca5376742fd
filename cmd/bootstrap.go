package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"upcagent/internal/agent"
	"upcagent/internal/config"
	"upcagent/internal/extract"
	"upcagent/internal/llm"
	"upcagent/internal/logging"
	"upcagent/internal/rag"
	"upcagent/internal/tools"
)

// runtime holds the fully wired application: config, model client,
// knowledge base, tool registry and the agent on top of them.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	agent    *agent.Agent
	kb       *rag.Pipeline
	registry *tools.Registry
}

// buildRuntime loads config and wires every component together. Building
// the knowledge base embeds the corpus, so this can take a network
// round-trip or two on a large corpus.
func buildRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	kb, err := rag.Build(ctx, cfg.GetCorpusDir(), client, client, logger)
	if err != nil {
		return nil, fmt.Errorf("building knowledge base: %w", err)
	}

	registry := tools.NewRegistry(
		extract.New(client, logger),
		kb,
		tools.NewFDCClient(cfg.GetUSDAAPIKey()),
		tools.NewTavilyClient(cfg.GetTavilyAPIKey()),
		logger,
	)

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		agent:    agent.New(client, registry, cfg.GetMaxToolRounds(), logger),
		kb:       kb,
		registry: registry,
	}, nil
}

func (rt *runtime) close() {
	rt.logger.Sync()
}
