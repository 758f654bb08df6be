// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/topicsmith/internal/httputil"
	"github.com/pdiddy/topicsmith/pkg/types"
)

// HTTPEngine queries a search backend over a JSON HTTP API. Each
// configured engine name maps to one endpoint; the endpoint receives
// the query as a "q" parameter and responds with a results array.
type HTTPEngine struct {
	name     string
	endpoint string
	cfg      types.EngineConfig
	client   *http.Client
}

// NewHTTPEngine creates an engine for one named endpoint. A nil client
// uses http.DefaultClient.
func NewHTTPEngine(name, endpoint string, cfg types.EngineConfig, client *http.Client) *HTTPEngine {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPEngine{name: name, endpoint: endpoint, cfg: cfg, client: client}
}

// NewRegistryFromConfig builds a registry with one HTTPEngine per
// configured endpoint.
func NewRegistryFromConfig(cfg types.EngineConfig, client *http.Client) (*Registry, error) {
	engines := make([]Engine, 0, len(cfg.Endpoints))
	for name, endpoint := range cfg.Endpoints {
		engines = append(engines, NewHTTPEngine(name, endpoint, cfg, client))
	}
	return NewRegistry(engines...)
}

// Name returns the engine identifier.
func (e *HTTPEngine) Name() string { return e.name }

// searchResponse is the engine endpoint's response body.
type searchResponse struct {
	Results []RawResult `json:"results"`
}

// Search issues the query against the engine endpoint.
func (e *HTTPEngine) Search(ctx context.Context, query string) ([]RawResult, error) {
	params := url.Values{"q": {query}}
	reqURL := e.endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)
	if e.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", e.cfg.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, e.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("%s engine request: %w", e.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s engine returned HTTP %d", e.name, resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing %s engine response: %w", e.name, err)
	}

	for i := range sr.Results {
		if sr.Results[i].Score < 0 {
			sr.Results[i].Score = 0
		}
		if sr.Results[i].Score > 1 {
			sr.Results[i].Score = 1
		}
	}
	return sr.Results, nil
}
