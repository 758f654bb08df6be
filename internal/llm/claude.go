// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/topicsmith/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test
// substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// Claude calls the Claude Messages API.
type Claude struct {
	cfg    types.LLMConfig
	client *http.Client
}

// NewClaude creates a Claude provider. A nil client uses
// http.DefaultClient.
func NewClaude(cfg types.LLMConfig, client *http.Client) *Claude {
	if client == nil {
		client = http.DefaultClient
	}
	return &Claude{cfg: cfg, client: client}
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Generate returns free-form text for a prompt.
func (c *Claude) Generate(ctx context.Context, prompt string) (string, error) {
	return CallWithRetry(ctx, c.cfg.MaxRetries, func(ctx context.Context) (string, error) {
		return c.call(ctx, prompt)
	})
}

// GenerateJSON asks for a single JSON object and decodes it into out.
func (c *Claude) GenerateJSON(ctx context.Context, prompt string, out any) error {
	text, err := CallWithRetry(ctx, c.cfg.MaxRetries, func(ctx context.Context) (string, error) {
		return c.call(ctx, prompt+"\n\nRespond with a single JSON object. Do not include any text outside the JSON object.")
	})
	if err != nil {
		return err
	}
	return decodeObject(text, out)
}

func (c *Claude) call(ctx context.Context, prompt string) (string, error) {
	reqBody := claudeRequest{
		Model:     c.cfg.Model,
		MaxTokens: 4096,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Claude API response")
}
