package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/modelsearch/internal/config"
	dbRedis "github.com/kailas-cloud/modelsearch/internal/db/redis"
	"github.com/kailas-cloud/modelsearch/internal/metrics"
	"github.com/kailas-cloud/modelsearch/internal/repository/respcache"
	"github.com/kailas-cloud/modelsearch/internal/transport/backend"
	healthuc "github.com/kailas-cloud/modelsearch/internal/usecase/health"
	"github.com/kailas-cloud/modelsearch/internal/usecase/pipeline"
	sessionuc "github.com/kailas-cloud/modelsearch/internal/usecase/session"
)

// stack is the composition root shared by every subcommand.
type stack struct {
	session *sessionuc.Session
	health  *healthuc.Service
	close   func()
}

// buildStack assembles backend client -> optional response cache -> session.
func buildStack(ctx context.Context, cfg config.Config, logger *zap.Logger) (*stack, error) {
	client, err := backend.NewClient(backend.Config{
		URL:     cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout(),
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	st := &stack{close: func() {}}
	var searcher sessionuc.Searcher = client
	var cachePinger healthuc.Pinger

	if cfg.Cache.Enabled && !flagNoCache {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
			// Plain Redis deployments are usually a single node.
			Standalone: cfg.Cache.Driver == "redis" && len(cfg.Cache.Addrs) == 1,
		})
		if err != nil {
			return nil, fmt.Errorf("create cache store: %w", err)
		}
		if err := store.WaitForReady(ctx, cfg.Cache.Readiness()); err != nil {
			store.Close()
			return nil, fmt.Errorf("cache not ready: %w", err)
		}
		logger.Info("Connected to response cache",
			zap.String("driver", cfg.Cache.Driver), zap.Strings("addrs", cfg.Cache.Addrs))

		searcher = respcache.New(client, store, cfg.Cache.TTL(), cfg.Cache.KeyPrefix,
			metrics.ResponseCacheTotal, logger)
		cachePinger = store
		st.close = store.Close
	}

	st.session = sessionuc.New(searcher, sessionuc.Config{
		MinTopK:      cfg.Backend.MinTopK,
		DefaultLimit: cfg.Pipeline.DefaultLimit,
		Memo:         pipeline.NewMemo(metrics.PipelineRunsTotal, metrics.PipelineDuration),
		StaleTotal:   metrics.StaleResponsesTotal,
		Logger:       logger,
	})
	st.health = healthuc.New(map[string]healthuc.Pinger{"cache": cachePinger})
	return st, nil
}
