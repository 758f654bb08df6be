// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the language-model provider behind a narrow
// interface supporting free-text generation and schema-constrained
// structured generation. Implementations exist for the Claude Messages
// API and the OpenAI chat API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Provider is the language-model abstraction consumed by the planner
// and synthesizer.
type Provider interface {
	// Generate returns free-form text for a prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateJSON asks the provider for a JSON object matching the
	// shape of out and decodes the response into it. The response must
	// be a single JSON object; prose around it is rejected.
	GenerateJSON(ctx context.Context, prompt string, out any) error
}

// backoffBase controls the base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var backoffBase = time.Second

// CallWithRetry invokes fn with exponential backoff: 1s, 2s, 4s, ...
// between attempts. The context aborts a pending backoff wait.
func CallWithRetry[T any](ctx context.Context, maxRetries int, fn func(context.Context) (T, error)) (T, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	var zero T
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
		}
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return zero, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// decodeObject strictly decodes a JSON object from text into out. It
// tolerates a leading/trailing code fence but nothing else around the
// object.
func decodeObject(text string, out any) error {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parsing provider JSON: %w", err)
	}
	return nil
}
