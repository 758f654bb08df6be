// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func init() {
	// Use a tiny backoff so retry tests finish quickly.
	backoffBase = time.Millisecond
}

func TestCallWithRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	v, err := CallWithRetry(context.Background(), 3, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("CallWithRetry() error = %v", err)
	}
	if v != "ok" || calls != 3 {
		t.Errorf("got %q after %d calls, want ok after 3", v, calls)
	}
}

func TestCallWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := CallWithRetry(context.Background(), 2, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("persistent")
	})
	if err == nil {
		t.Fatal("CallWithRetry() error = nil, want persistent failure")
	}
	// Initial attempt plus two retries.
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestCallWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CallWithRetry(ctx, 3, func(context.Context) (int, error) {
		return 0, errors.New("always fails")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestDecodeObject(t *testing.T) {
	type shape struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{"bare object", `{"name": "ml"}`, "ml", false},
		{"json code fence", "```json\n{\"name\": \"ml\"}\n```", "ml", false},
		{"plain code fence", "```\n{\"name\": \"ml\"}\n```", "ml", false},
		{"surrounding whitespace", "  {\"name\": \"ml\"}\n", "ml", false},
		{"prose around object", `Here you go: {"name": "ml"}`, "", true},
		{"not JSON", "no object here", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out shape
			err := decodeObject(tt.text, &out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeObject() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && out.Name != tt.want {
				t.Errorf("decoded name = %q, want %q", out.Name, tt.want)
			}
		})
	}
}
