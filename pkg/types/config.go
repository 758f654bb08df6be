// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "topicsmith/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LLMConfig holds settings for the language-model provider.
type LLMConfig struct {
	// Provider selects the backend: "claude" or "openai".
	Provider string `json:"provider" yaml:"provider"`

	// Model is the model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the provider API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// EngineConfig holds settings for the search-engine layer.
type EngineConfig struct {
	HTTPConfig `yaml:",inline"`

	// Endpoints maps engine name to its HTTP search endpoint. An entry
	// for "general" is required.
	Endpoints map[string]string `json:"endpoints" yaml:"endpoints"`

	// APIKey is an optional shared key sent to engine endpoints.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// ExecutorConfig holds settings for query execution.
type ExecutorConfig struct {
	// PoolSize caps concurrent query tasks on the shared worker pool
	// (default 16).
	PoolSize int `json:"pool_size" yaml:"pool_size"`

	// MaxResults caps the ranked result list (default 30).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// CacheConfig holds settings for the research cache.
type CacheConfig struct {
	// TTL is the entry validity window (default 7 days).
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// MemoryEntries bounds the in-memory LRU tier (default 100).
	MemoryEntries int `json:"memory_entries" yaml:"memory_entries"`

	// PersistentCap triggers cleanup of the persistent tier when
	// exceeded (default 10000).
	PersistentCap int `json:"persistent_cap" yaml:"persistent_cap"`
}

// ProgressConfig holds settings for the progress tracker.
type ProgressConfig struct {
	// TTL expires unrefreshed progress entries (default 1 hour).
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// LockTTL bounds the per-topic advisory lock (default 30 seconds).
	LockTTL time.Duration `json:"lock_ttl" yaml:"lock_ttl"`
}

// StoreConfig holds settings for the persistence adapter.
type StoreConfig struct {
	// Path is the SQLite database file path.
	Path string `json:"path" yaml:"path"`
}

// OrchestratorConfig holds settings for the recursive orchestrator.
type OrchestratorConfig struct {
	// MaxDepth bounds subtopic recursion (default 3).
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// MaxParallelSubtopics caps concurrent subtopics per batch
	// (default 5).
	MaxParallelSubtopics int `json:"max_parallel_subtopics" yaml:"max_parallel_subtopics"`
}

// ServiceConfig groups all component configurations.
type ServiceConfig struct {
	LLM          LLMConfig          `json:"llm" yaml:"llm"`
	Engines      EngineConfig       `json:"engines" yaml:"engines"`
	Executor     ExecutorConfig     `json:"executor" yaml:"executor"`
	Cache        CacheConfig        `json:"cache" yaml:"cache"`
	Progress     ProgressConfig     `json:"progress" yaml:"progress"`
	Store        StoreConfig        `json:"store" yaml:"store"`
	Orchestrator OrchestratorConfig `json:"orchestrator" yaml:"orchestrator"`
}
