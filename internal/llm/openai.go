// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/topicsmith/pkg/types"
)

// OpenAI calls an OpenAI-compatible chat API.
type OpenAI struct {
	cfg    types.LLMConfig
	client *openai.Client
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(cfg types.LLMConfig) *OpenAI {
	return &OpenAI{
		cfg:    cfg,
		client: openai.NewClient(cfg.APIKey),
	}
}

// NewOpenAIWithClient creates an OpenAI provider with an injected
// client, for tests and OpenAI-compatible endpoints.
func NewOpenAIWithClient(cfg types.LLMConfig, client *openai.Client) *OpenAI {
	return &OpenAI{cfg: cfg, client: client}
}

// Generate returns free-form text for a prompt.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	return CallWithRetry(ctx, o.cfg.MaxRetries, func(ctx context.Context) (string, error) {
		return o.chat(ctx, prompt, nil)
	})
}

// GenerateJSON requests a JSON-object response and decodes it into out.
func (o *OpenAI) GenerateJSON(ctx context.Context, prompt string, out any) error {
	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}
	text, err := CallWithRetry(ctx, o.cfg.MaxRetries, func(ctx context.Context) (string, error) {
		return o.chat(ctx, prompt, format)
	})
	if err != nil {
		return err
	}
	return decodeObject(text, out)
}

func (o *OpenAI) chat(ctx context.Context, prompt string, format *openai.ChatCompletionResponseFormat) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: format,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("calling OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
