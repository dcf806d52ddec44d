// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package templates_test

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/mcp-server/templates"
)

func TestMagicEmbed_Files(t *testing.T) {
	tests := []struct {
		filename string
		contains []string
	}{
		{filename: "artifact-formats.md", contains: []string{"PEM", "DER", "PKCS#12", "AES-256-GCM"}},
		{filename: "X509_instructions.md", contains: []string{"certificate", "{{range .Tools}}"}},
		{filename: "issue-certificate-prompt.md", contains: []string{"### Assistant:", "### User:", "subjectName"}},
		{filename: "revoke-certificates-prompt.md", contains: []string{"### Assistant:", "### User:", "crlEntries"}},
		{filename: "inspect-artifact-prompt.md", contains: []string{"### Assistant:", "print_artifact"}},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			data, err := templates.MagicEmbed.ReadFile(tt.filename)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, string(data), want)
			}
		})
	}

	t.Run("only markdown is embedded", func(t *testing.T) {
		names, err := fs.Glob(templates.MagicEmbed, "*")
		require.NoError(t, err)
		assert.Len(t, names, len(tests))
	})
}

func TestMagicEmbed_Missing(t *testing.T) {
	for _, name := range []string{"non-existent.md", "../invalid.md", "docs.go"} {
		_, err := templates.MagicEmbed.ReadFile(name)
		assert.Error(t, err, name)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Executes Placeholders",
			testFunc: func(t *testing.T) {
				out, err := templates.Render("inspect-artifact-prompt.md", map[string]any{"ArtifactPath": "/tmp/leaf.pem"})
				require.NoError(t, err)
				assert.Contains(t, out, `artifact "/tmp/leaf.pem"`)
				assert.NotContains(t, out, "{{")
			},
		},
		{
			name: "Missing Key",
			testFunc: func(t *testing.T) {
				_, err := templates.Render("inspect-artifact-prompt.md", map[string]any{})
				assert.ErrorContains(t, err, "failed to execute template")
			},
		},
		{
			name: "Missing File",
			testFunc: func(t *testing.T) {
				_, err := templates.Render("absent.md", nil)
				assert.ErrorIs(t, err, fs.ErrNotExist)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}
