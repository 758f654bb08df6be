// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/topicsmith/pkg/types"
)

// newOpenAIProvider points a provider at a stub chat-completions
// server.
func newOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	cfg := openai.DefaultConfig("sk_test")
	cfg.BaseURL = ts.URL + "/v1"
	client := openai.NewClientWithConfig(cfg)
	return NewOpenAIWithClient(types.LLMConfig{Model: "gpt-test", MaxRetries: 1}, client)
}

func chatResponse(content string) []byte {
	resp := openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: "assistant", Content: content}},
		},
	}
	b, _ := json.Marshal(resp)
	return b
}

func TestOpenAIGenerate(t *testing.T) {
	p := newOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(chatResponse("free text"))
	})

	text, err := p.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "free text" {
		t.Errorf("Generate() = %q", text)
	}
}

func TestOpenAIGenerateJSONSetsResponseFormat(t *testing.T) {
	var gotFormat string
	p := newOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.ResponseFormat != nil {
			gotFormat = string(req.ResponseFormat.Type)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(chatResponse(`{"count": 5}`))
	})

	var out struct {
		Count int `json:"count"`
	}
	if err := p.GenerateJSON(context.Background(), "prompt", &out); err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}
	if out.Count != 5 {
		t.Errorf("decoded count = %d", out.Count)
	}
	if gotFormat != string(openai.ChatCompletionResponseFormatTypeJSONObject) {
		t.Errorf("response format = %q, want json_object", gotFormat)
	}
}

func TestOpenAINoChoices(t *testing.T) {
	p := newOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": []}`))
	})

	if _, err := p.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("Generate() error = nil for empty choices")
	}
}
