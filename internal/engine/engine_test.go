// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/pdiddy/topicsmith/pkg/types"
)

type stubEngine struct {
	name string
}

func (s *stubEngine) Name() string { return s.name }

func (s *stubEngine) Search(context.Context, string) ([]RawResult, error) {
	return nil, nil
}

func TestNewRegistryRequiresGeneral(t *testing.T) {
	if _, err := NewRegistry(&stubEngine{name: types.EngineAcademic}); err == nil {
		t.Fatal("NewRegistry() error = nil without a general engine")
	}

	r, err := NewRegistry(&stubEngine{name: types.EngineGeneral}, &stubEngine{name: types.EngineVideo})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if r.General() == nil {
		t.Error("General() = nil")
	}
	if _, err := r.Get(types.EngineVideo); err != nil {
		t.Errorf("Get(video) error = %v", err)
	}
	if _, err := r.Get("bogus"); err == nil {
		t.Error("Get(bogus) error = nil")
	}
	if got := r.Names(); !reflect.DeepEqual(got, []string{types.EngineGeneral, types.EngineVideo}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestHTTPEngineSearch(t *testing.T) {
	var gotQuery, gotKey, gotAgent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.Header.Get("X-Api-Key")
		gotAgent = r.Header.Get("User-Agent")
		json.NewEncoder(w).Encode(searchResponse{Results: []RawResult{
			{Title: "ML Guide", URL: "https://example.com/ml", Content: "intro", Score: 0.8},
			{Title: "Out of range", URL: "https://example.com/x", Score: 1.7},
			{Title: "Negative", URL: "https://example.com/y", Score: -0.2},
		}})
	}))
	defer ts.Close()

	cfg := types.EngineConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "topicsmith-test/0.1"},
		APIKey:     "srch_test",
	}
	e := NewHTTPEngine(types.EngineGeneral, ts.URL, cfg, ts.Client())

	results, err := e.Search(context.Background(), "machine learning basics")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotQuery != "machine learning basics" {
		t.Errorf("query param = %q", gotQuery)
	}
	if gotKey != "srch_test" || gotAgent != "topicsmith-test/0.1" {
		t.Errorf("headers: key=%q agent=%q", gotKey, gotAgent)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d", len(results))
	}
	// Scores clamp into [0,1].
	if results[1].Score != 1 || results[2].Score != 0 {
		t.Errorf("clamped scores = %v, %v", results[1].Score, results[2].Score)
	}
}

func TestHTTPEngineSearchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			e := NewHTTPEngine(types.EngineGeneral, ts.URL, types.EngineConfig{}, ts.Client())
			if _, err := e.Search(context.Background(), "q"); err == nil {
				t.Error("Search() error = nil")
			}
		})
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	cfg := types.EngineConfig{Endpoints: map[string]string{
		types.EngineGeneral:  "http://general.invalid/search",
		types.EngineAcademic: "http://academic.invalid/search",
	}}
	r, err := NewRegistryFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("NewRegistryFromConfig() error = %v", err)
	}
	if got := r.Names(); len(got) != 2 {
		t.Errorf("Names() = %v", got)
	}

	cfg.Endpoints = map[string]string{types.EngineAcademic: "http://academic.invalid"}
	if _, err := NewRegistryFromConfig(cfg, nil); err == nil {
		t.Error("NewRegistryFromConfig() error = nil without general endpoint")
	}
}
