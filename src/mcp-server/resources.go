// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// createResources creates and returns all MCP resource definitions with their handlers.
//
// The function defines the following resources:
//   - config://template: Example server configuration
//   - info://version: Server version and capabilities
//   - docs://artifact-formats: Encodings and containers understood by the builders
//   - schema://artifact-config: JSON schema of configuration documents
//   - status://server-status: Server health and capabilities
func createResources() []server.ServerResource {
	return []server.ServerResource{
		{
			Resource: mcp.NewResource(
				"config://template",
				"Server Configuration Template",
				mcp.WithResourceDescription("Example configuration file for the MCP server, to be named by "+configEnv),
				mcp.WithMIMEType("application/json"),
			),
			Handler: handleConfigResource,
		},
		{
			Resource: mcp.NewResource(
				"info://version",
				"Version Information",
				mcp.WithResourceDescription("Server version, capabilities and supported modes"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: handleVersionResource,
		},
		{
			Resource: mcp.NewResource(
				"docs://artifact-formats",
				"Artifact Formats",
				mcp.WithResourceDescription("Encodings, containers and file slots understood by the builders"),
				mcp.WithMIMEType("text/markdown"),
			),
			Handler: handleArtifactFormatsResource,
		},
		{
			Resource: mcp.NewResource(
				"schema://artifact-config",
				"Configuration Schema",
				mcp.WithResourceDescription("JSON schema of camelCase configuration documents"),
				mcp.WithMIMEType("application/schema+json"),
			),
			Handler: handleSchemaResource,
		},
		{
			Resource: mcp.NewResource(
				"status://server-status",
				"Server Status",
				mcp.WithResourceDescription("Current health and capabilities of the server"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: handleStatusResource,
		},
	}
}

// addResources registers the resources of createResources with s.
func addResources(s *server.MCPServer) {
	for _, r := range createResources() {
		s.AddResource(r.Resource, r.Handler)
	}
}
