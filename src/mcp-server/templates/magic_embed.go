// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed *.md
var embeddedFS embed.FS

// MagicEmbed is the embedded filesystem holding the markdown templates for
// guided prompts, artifact documentation, and MCP server instructions.
//
// Example:
//
//	content, err := templates.MagicEmbed.ReadFile("artifact-formats.md")
//	if err != nil {
//		return fmt.Errorf("failed to read artifact formats: %w", err)
//	}
var MagicEmbed fs.ReadFileFS = embeddedFS

// Render executes the embedded template name with data.
//
// Parameters:
//   - name: File name of the template, including the .md extension
//   - data: Value the template placeholders are resolved against
//
// Returns:
//   - string: The rendered text
//   - error: If the file is missing or the template fails to parse or execute
func Render(name string, data any) (string, error) {
	content, err := MagicEmbed.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", name, err)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
