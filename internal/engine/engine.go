// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine abstracts the external search backends behind a
// single interface keyed by engine name (general, academic, video,
// community, computational).
package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/pdiddy/topicsmith/pkg/types"
)

// RawResult is one untyped result from a search backend, before
// relevance weighting and deduplication.
type RawResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Engine searches a single named backend.
type Engine interface {
	Name() string
	Search(ctx context.Context, query string) ([]RawResult, error)
}

// Registry maps engine names to backends. The "general" engine is
// mandatory; lookups for unknown names fail.
type Registry struct {
	engines map[string]Engine
}

// NewRegistry builds a registry from the given engines. An engine named
// "general" must be present.
func NewRegistry(engines ...Engine) (*Registry, error) {
	m := make(map[string]Engine, len(engines))
	for _, e := range engines {
		m[e.Name()] = e
	}
	if _, ok := m[types.EngineGeneral]; !ok {
		return nil, fmt.Errorf("registry requires a %q engine", types.EngineGeneral)
	}
	return &Registry{engines: m}, nil
}

// Get returns the engine registered under name.
func (r *Registry) Get(name string) (Engine, error) {
	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("no engine registered for %q", name)
	}
	return e, nil
}

// General returns the mandatory general engine.
func (r *Registry) General() Engine {
	return r.engines[types.EngineGeneral]
}

// Names returns the registered engine names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
