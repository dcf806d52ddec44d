// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/mcp-server/templates"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
)

// jsonResource marshals v as the indented JSON contents of the resource at uri.
func jsonResource(uri, mimeType string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mimeType,
			Text:     string(jsonData),
		},
	}, nil
}

// supportedModes lists the modes a configuration document can select.
func supportedModes() []string {
	var modes []string
	for m := model.ModeCertificate; m <= model.ModeCrl; m++ {
		modes = append(modes, m.String())
	}
	return modes
}

// handleConfigResource provides the default server configuration as a template.
func handleConfigResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource("config://template", "application/json", defaultConfig())
}

// handleVersionResource provides server metadata including version, capabilities
// and supported modes. Capabilities come from the metadata cache filled when
// the server was built with WithPopulate.
func handleVersionResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	versionInfo := map[string]any{
		"name":           serverName,
		"version":        GetVersion(),
		"type":           "MCP Server",
		"capabilities":   getServerCache().capabilities(),
		"supportedModes": supportedModes(),
	}
	return jsonResource("info://version", "application/json", versionInfo)
}

// handleArtifactFormatsResource serves the embedded artifact formats documentation.
func handleArtifactFormatsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	content, err := templates.MagicEmbed.ReadFile("artifact-formats.md")
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact formats template: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "docs://artifact-formats",
			MIMEType: "text/markdown",
			Text:     string(content),
		},
	}, nil
}

// handleSchemaResource serves the configuration schema.
func handleSchemaResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "schema://artifact-config",
			MIMEType: "application/schema+json",
			Text:     string(model.Schema()),
		},
	}, nil
}

// handleStatusResource provides current server health, version and capabilities.
func handleStatusResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	statusInfo := map[string]any{
		"status":         "healthy",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"server":         serverName + " MCP Server",
		"version":        GetVersion(),
		"capabilities":   getServerCache().capabilities(),
		"supportedModes": supportedModes(),
	}
	return jsonResource("status://server-status", "application/json", statusInfo)
}
