// Package service assembles the engines and their collaborators from configuration. The
// server, the worker and insightctl share it so all three see the same storage layout.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"basegraph.app/insight/common/arangodb"
	"basegraph.app/insight/core/config"
	"basegraph.app/insight/internal/analytics"
	"basegraph.app/insight/internal/cognitive"
	"basegraph.app/insight/internal/insight"
	"basegraph.app/insight/internal/knowledge"
	"basegraph.app/insight/internal/source"
	"basegraph.app/insight/internal/store"
	"basegraph.app/insight/internal/telemetry"
)

type Services struct {
	stores   *store.Stores
	registry *telemetry.Registry
	ingested *source.Ingested

	code      analytics.Engine
	cognitive cognitive.Engine
	insights  insight.Engine

	closers []func()
}

// NewServices opens storage and the optional GitLab and ArangoDB collaborators, restores the
// cognitive history and builds the three engines. Close releases everything it opened.
func NewServices(ctx context.Context, cfg config.Config) (*Services, error) {
	kv, closeKV, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &Services{
		stores:   store.NewStores(kv),
		registry: telemetry.NewRegistry(),
		ingested: source.NewIngested(kv),
		closers:  []func(){closeKV},
	}

	sources := source.NewComposite(s.ingested)
	var graph knowledge.GraphStats

	if cfg.GitLab.Enabled() {
		gl, err := source.NewGitLabHistory(cfg.GitLab.Token, cfg.GitLab.BaseURL, cfg.Engine.Workspaces)
		if err != nil {
			s.Close()
			return nil, err
		}
		sources.History = gl
		sources.Activity = gl
		slog.InfoContext(ctx, "gitlab change history enabled", "base_url", cfg.GitLab.BaseURL)
	}

	if cfg.ArangoDB.Enabled() {
		client, err := arangodb.New(ctx, arangodb.Config{
			URL:      cfg.ArangoDB.URL,
			Username: cfg.ArangoDB.Username,
			Password: cfg.ArangoDB.Password,
			Database: cfg.ArangoDB.Database,
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connecting to arangodb: %w", err)
		}
		s.closers = append(s.closers, func() { _ = client.Close() })
		if err := client.EnsureDatabase(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("opening arangodb database: %w", err)
		}
		sources.Structure = source.NewArangoStructure(client)
		graph = knowledge.NewArangoGraph(client)
		slog.InfoContext(ctx, "arangodb code and knowledge graph enabled", "database", cfg.ArangoDB.Database)
	}

	history := s.stores.CognitiveHistory(cfg.Engine.HistoryCapacity, cfg.Engine.ConvergenceCapacity)
	if err := history.Restore(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("restoring cognitive history: %w", err)
	}

	policy, err := cognitive.ParseNotFoundPolicy(cfg.Engine.NotFoundPolicy)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.code = analytics.New(sources, s.stores.Evolution(), analytics.Config{
		Retention:   cfg.Engine.Retention(),
		TrendPoints: cfg.Engine.TrendPoints,
	})
	s.cognitive = cognitive.New(knowledge.New(s.registry, graph), history, cognitive.Config{
		NotFoundPolicy: policy,
	})
	s.insights = insight.New(s.code, s.cognitive, s.stores.Insights(), insight.Config{
		Workspaces:        cfg.Engine.Workspaces,
		PersonalizedLimit: cfg.Engine.PersonalizedLimit,
	})

	return s, nil
}

func (s *Services) Code() analytics.Engine { return s.code }

func (s *Services) Cognitive() cognitive.Engine { return s.cognitive }

func (s *Services) Insights() insight.Engine { return s.insights }

// Registry receives telemetry from the HTTP ingest endpoints and the Kafka ingestor.
func (s *Services) Registry() *telemetry.Registry { return s.registry }

// Signals receives scanner output from the HTTP ingest endpoints.
func (s *Services) Signals() *source.Ingested { return s.ingested }

func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
