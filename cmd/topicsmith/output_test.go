// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteStructured(t *testing.T) {
	payload := struct {
		Title string `json:"title" yaml:"title"`
		Depth int    `json:"depth" yaml:"depth"`
	}{Title: "graph theory", Depth: 2}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeStructured(&buf, payload, "json"))
		assert.Contains(t, buf.String(), `"title": "graph theory"`)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeStructured(&buf, payload, "yaml"))
		assert.Contains(t, buf.String(), "title: graph theory")
		assert.Contains(t, buf.String(), "depth: 2")
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		err := writeStructured(&buf, payload, "toml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "toml")
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "long st...", truncate("long string here", 10))
}
