// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/topicsmith/internal/cache"
	"github.com/pdiddy/topicsmith/internal/engine"
	"github.com/pdiddy/topicsmith/internal/executor"
	"github.com/pdiddy/topicsmith/internal/llm"
	"github.com/pdiddy/topicsmith/internal/logger"
	"github.com/pdiddy/topicsmith/internal/orchestrator"
	"github.com/pdiddy/topicsmith/internal/planner"
	"github.com/pdiddy/topicsmith/internal/progress"
	"github.com/pdiddy/topicsmith/internal/secrets"
	"github.com/pdiddy/topicsmith/internal/store"
	"github.com/pdiddy/topicsmith/internal/synthesis"
	"github.com/pdiddy/topicsmith/pkg/types"
)

// service bundles the constructed pipeline with everything that needs
// closing on exit.
type service struct {
	orch    *orchestrator.Orchestrator
	tracker *progress.Tracker
	logger  *zap.Logger
	closers []func()
}

// Close waits for detached background work, then releases resources
// in reverse construction order.
func (s *service) Close() {
	s.orch.WaitDetached()
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.logger.Sync()
}

// buildService constructs the full pipeline from configuration. All
// components are explicitly wired; nothing lives in package state.
func buildService(cmd *cobra.Command) (*service, error) {
	env, _ := cmd.Flags().GetString("env")
	level, _ := cmd.Flags().GetString("log-level")
	log, err := logger.New(env, level)
	if err != nil {
		return nil, err
	}

	cfg := loadConfig()
	secrets.Apply(&cfg, loadedSecrets)

	httpClient := &http.Client{Timeout: cfg.Engines.Timeout}

	registry, err := engine.NewRegistryFromConfig(cfg.Engines, httpClient)
	if err != nil {
		return nil, fmt.Errorf("configuring search engines (set engines.endpoints.general): %w", err)
	}

	var provider llm.Provider
	switch cfg.LLM.Provider {
	case "openai":
		provider = llm.NewOpenAI(cfg.LLM)
	case "claude", "":
		provider = llm.NewClaude(cfg.LLM, httpClient)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}

	svc := &service{logger: log}

	st, err := store.NewSQLite(cfg.Store)
	if err != nil {
		return nil, err
	}
	svc.closers = append(svc.closers, func() { st.Close() })

	docs, err := store.NewDocumentStore(st)
	if err != nil {
		return nil, err
	}

	kv, err := buildCacheKV(svc)
	if err != nil {
		return nil, err
	}

	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topicsmith",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by result (hit, miss, eviction).",
	}, []string{"result"})
	prometheus.DefaultRegisterer.MustRegister(lookups)

	researchCache := cache.New(kv, cfg.Cache, lookups, log)
	tracker := progress.New(cfg.Progress, log)

	exec, err := executor.New(registry, cfg.Executor, log)
	if err != nil {
		return nil, err
	}
	svc.closers = append(svc.closers, exec.Close)

	svc.tracker = tracker
	svc.orch = orchestrator.New(
		planner.New(provider, log),
		exec,
		synthesis.New(provider, log),
		researchCache,
		tracker,
		st,
		docs,
		registry,
		cfg.Orchestrator,
		log,
	)
	return svc, nil
}

// buildCacheKV selects the persistent cache tier: Redis when
// cache.redis.addrs is configured, a local SQLite file otherwise.
func buildCacheKV(svc *service) (cache.KV, error) {
	if addrs := viper.GetStringSlice("cache.redis.addrs"); len(addrs) > 0 {
		kv, err := cache.NewRedisKV(cache.RedisConfig{
			Addrs:    addrs,
			Username: viper.GetString("cache.redis.username"),
			Password: viper.GetString("cache.redis.password"),
			DB:       viper.GetInt("cache.redis.db"),
		})
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, kv.Close)
		return kv, nil
	}

	kv, err := cache.NewSQLiteKV(viper.GetString("cache.path"))
	if err != nil {
		return nil, err
	}
	svc.closers = append(svc.closers, func() { kv.Close() })
	return kv, nil
}

// loadConfig reads the service configuration from viper with
// defaults matching the documented behavior.
func loadConfig() types.ServiceConfig {
	viper.SetDefault("llm.provider", "claude")
	viper.SetDefault("llm.model", "claude-sonnet-4-20250514")
	viper.SetDefault("llm.max_retries", 3)
	viper.SetDefault("engines.timeout", "30s")
	viper.SetDefault("engines.user_agent", "topicsmith/"+version)
	viper.SetDefault("executor.pool_size", 16)
	viper.SetDefault("executor.max_results", 30)
	viper.SetDefault("cache.ttl", "168h")
	viper.SetDefault("cache.memory_entries", 100)
	viper.SetDefault("cache.persistent_cap", 10000)
	viper.SetDefault("cache.path", "data/cache.db")
	viper.SetDefault("progress.ttl", "1h")
	viper.SetDefault("progress.lock_ttl", "30s")
	viper.SetDefault("store.path", "data/topics.db")
	viper.SetDefault("orchestrator.max_depth", 3)
	viper.SetDefault("orchestrator.max_parallel_subtopics", 5)

	return types.ServiceConfig{
		LLM: types.LLMConfig{
			Provider:   viper.GetString("llm.provider"),
			Model:      viper.GetString("llm.model"),
			APIKey:     viper.GetString("llm.api_key"),
			MaxRetries: viper.GetInt("llm.max_retries"),
		},
		Engines: types.EngineConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("engines.timeout"),
				UserAgent: viper.GetString("engines.user_agent"),
			},
			Endpoints: viper.GetStringMapString("engines.endpoints"),
			APIKey:    viper.GetString("engines.api_key"),
		},
		Executor: types.ExecutorConfig{
			PoolSize:   viper.GetInt("executor.pool_size"),
			MaxResults: viper.GetInt("executor.max_results"),
		},
		Cache: types.CacheConfig{
			TTL:           viper.GetDuration("cache.ttl"),
			MemoryEntries: viper.GetInt("cache.memory_entries"),
			PersistentCap: viper.GetInt("cache.persistent_cap"),
		},
		Progress: types.ProgressConfig{
			TTL:     viper.GetDuration("progress.ttl"),
			LockTTL: viper.GetDuration("progress.lock_ttl"),
		},
		Store: types.StoreConfig{
			Path: viper.GetString("store.path"),
		},
		Orchestrator: types.OrchestratorConfig{
			MaxDepth:             viper.GetInt("orchestrator.max_depth"),
			MaxParallelSubtopics: viper.GetInt("orchestrator.max_parallel_subtopics"),
		},
	}
}
