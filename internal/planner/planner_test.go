// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/pdiddy/topicsmith/pkg/types"
)

// mockProvider returns canned JSON responses for structured calls.
type mockProvider struct {
	jsonResponse string
	jsonErr      error
	jsonCalls    int
}

func (m *mockProvider) Generate(context.Context, string) (string, error) {
	return "", errors.New("not used")
}

func (m *mockProvider) GenerateJSON(_ context.Context, _ string, out any) error {
	m.jsonCalls++
	if m.jsonErr != nil {
		return m.jsonErr
	}
	return json.Unmarshal([]byte(m.jsonResponse), out)
}

func planJSON(queries []types.PlannedQuery, distribution map[string]int) string {
	plan := types.ResearchPlan{
		Queries:            queries,
		Strategy:           "test strategy",
		EngineDistribution: distribution,
	}
	b, _ := json.Marshal(plan)
	return string(b)
}

func generalQueries(n int) []types.PlannedQuery {
	queries := make([]types.PlannedQuery, 0, n)
	for i := 0; i < n; i++ {
		queries = append(queries, types.PlannedQuery{
			Query:  fmt.Sprintf("machine learning aspect %d", i),
			Engine: types.EngineGeneral,
		})
	}
	return queries
}

func assertPlanInvariants(t *testing.T, plan types.ResearchPlan) {
	t.Helper()
	if got := plan.GeneralCount(); got < minGeneralQueries {
		t.Errorf("general queries = %d, want >= %d", got, minGeneralQueries)
	}
	if len(plan.Queries) > maxPlanQueries {
		t.Errorf("len(queries) = %d, want <= %d", len(plan.Queries), maxPlanQueries)
	}
	if !plan.DistributionMatches() {
		t.Errorf("engine distribution %v does not match actual counts %v",
			plan.EngineDistribution, plan.CountByEngine())
	}
}

func TestPlanKeepsValidProviderPlan(t *testing.T) {
	queries := append(generalQueries(5), types.PlannedQuery{
		Query: "machine learning research papers", Engine: types.EngineAcademic,
	})
	provider := &mockProvider{jsonResponse: planJSON(queries, nil)}

	plan, err := New(provider, nil).Plan(context.Background(), "machine learning", DefaultUnderstanding("machine learning"), "")
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	assertPlanInvariants(t, plan)
	if len(plan.Queries) != 6 {
		t.Errorf("len(queries) = %d, want 6", len(plan.Queries))
	}
}

func TestPlanRepairsProviderPlan(t *testing.T) {
	tests := []struct {
		name    string
		queries []types.PlannedQuery
		check   func(t *testing.T, plan types.ResearchPlan)
	}{
		{
			name: "unknown engine normalized to general",
			queries: append(generalQueries(4), types.PlannedQuery{
				Query: "machine learning on wikipedia", Engine: "wikipedia",
			}),
			check: func(t *testing.T, plan types.ResearchPlan) {
				for _, q := range plan.Queries {
					if q.Engine == "wikipedia" {
						t.Errorf("unknown engine survived repair: %+v", q)
					}
				}
			},
		},
		{
			name:    "general minimum topped up from templates",
			queries: generalQueries(2),
			check: func(t *testing.T, plan types.ResearchPlan) {
				if plan.GeneralCount() != minGeneralQueries {
					t.Errorf("general count = %d, want exactly %d after top-up",
						plan.GeneralCount(), minGeneralQueries)
				}
			},
		},
		{
			name: "empty queries dropped",
			queries: append(generalQueries(5),
				types.PlannedQuery{Query: "   ", Engine: types.EngineGeneral}),
			check: func(t *testing.T, plan types.ResearchPlan) {
				for _, q := range plan.Queries {
					if q.Query == "   " {
						t.Error("blank query survived repair")
					}
				}
			},
		},
		{
			name: "full plan short on general keeps provider strategy",
			queries: append(generalQueries(2), func() []types.PlannedQuery {
				academic := make([]types.PlannedQuery, 10)
				for i := range academic {
					academic[i] = types.PlannedQuery{
						Query:  fmt.Sprintf("machine learning study %d", i),
						Engine: types.EngineAcademic,
					}
				}
				return academic
			}()...),
			check: func(t *testing.T, plan types.ResearchPlan) {
				if plan.Strategy != "test strategy" {
					t.Errorf("strategy = %q, provider plan was discarded", plan.Strategy)
				}
				if got := plan.GeneralCount(); got != minGeneralQueries {
					t.Errorf("general count = %d, want %d", got, minGeneralQueries)
				}
				if got := plan.CountByEngine()[types.EngineAcademic]; got != maxPlanQueries-minGeneralQueries {
					t.Errorf("academic count = %d, want %d", got, maxPlanQueries-minGeneralQueries)
				}
			},
		},
		{
			name:    "oversized plan trimmed",
			queries: generalQueries(20),
			check: func(t *testing.T, plan types.ResearchPlan) {
				if len(plan.Queries) != maxPlanQueries {
					t.Errorf("len(queries) = %d, want %d", len(plan.Queries), maxPlanQueries)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockProvider{jsonResponse: planJSON(tt.queries, nil)}
			plan, err := New(provider, nil).Plan(context.Background(), "machine learning", DefaultUnderstanding("machine learning"), "")
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			assertPlanInvariants(t, plan)
			tt.check(t, plan)
		})
	}
}

func TestPlanFallsBackOnProviderError(t *testing.T) {
	provider := &mockProvider{jsonErr: errors.New("api down")}
	u := DefaultUnderstanding("quantum computing")
	u.EngineRecommendations = types.EngineRecommendations{Academic: true, Community: true}

	plan, err := New(provider, nil).Plan(context.Background(), "quantum computing", u, "")
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	assertPlanInvariants(t, plan)

	counts := plan.CountByEngine()
	if counts[types.EngineAcademic] == 0 {
		t.Error("fallback plan missing recommended academic queries")
	}
	if counts[types.EngineCommunity] == 0 {
		t.Error("fallback plan missing recommended community queries")
	}
	if counts[types.EngineVideo] != 0 {
		t.Error("fallback plan has queries for an unrecommended engine")
	}
}

func TestFallbackPlanAllEnginesCapped(t *testing.T) {
	u := DefaultUnderstanding("databases")
	u.EngineRecommendations = types.EngineRecommendations{
		Academic: true, Video: true, Community: true, Computational: true,
	}

	plan := New(&mockProvider{}, nil).fallbackPlan("databases", u)
	assertPlanInvariants(t, plan)
	if len(plan.Queries) != maxPlanQueries {
		t.Errorf("len(queries) = %d, want cap %d", len(plan.Queries), maxPlanQueries)
	}
}

func TestQueriesDiverse(t *testing.T) {
	tests := []struct {
		name    string
		queries []types.PlannedQuery
		want    bool
	}{
		{
			name: "mixed phrasing",
			queries: []types.PlannedQuery{
				{Query: "go beginner guide"},
				{Query: "go advanced analysis"},
			},
			want: true,
		},
		{
			name: "only accessible",
			queries: []types.PlannedQuery{
				{Query: "go basics"},
				{Query: "go overview"},
			},
			want: false,
		},
		{
			name:    "empty",
			queries: nil,
			want:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := queriesDiverse(tt.queries); got != tt.want {
				t.Errorf("queriesDiverse() = %v, want %v", got, tt.want)
			}
		})
	}
}
