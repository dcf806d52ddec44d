// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/crypt"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/service"
)

// serverName identifies the server to [MCP] clients.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
const serverName = "X509 Artifact Builder"

// ErrNoService is returned by [ServerBuilder.Build] when no build service was configured.
var ErrNoService = errors.New("mcpserver: a build service is required")

// ToolHandler defines the signature for tool handlers that matches [MCP] server expectations.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolHandlerWithConfig defines tool handlers that require access to server configuration.
// It extends ToolHandler with a Config parameter carrying defaults and payload limits.
type ToolHandlerWithConfig func(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error)

// ToolDefinition pairs an MCP tool specification with its implementation.
//
// Fields:
//   - Tool: The MCP tool definition containing name, description, and input schema
//   - Handler: The function that implements the tool's logic
//   - Role: The name under which the instructions template refers to the tool
type ToolDefinition struct {
	Tool    mcp.Tool
	Handler ToolHandler
	Role    string
}

// ToolDefinitionWithConfig pairs an MCP tool specification with a handler that
// receives the server configuration.
type ToolDefinitionWithConfig struct {
	Tool    mcp.Tool
	Handler ToolHandlerWithConfig
	Role    string
}

// ServerDependencies holds all dependencies needed to create the MCP server.
//
// Fields:
//   - Config: Server configuration with tool defaults and payload limits
//   - Version: Server version string reported to clients
//   - Service: The build service every tool runs against
//   - Engine: The envelope engine of the encrypt and decrypt tools (default: [crypt.Default])
//   - Tools: Tool definitions without configuration requirements
//   - ToolsWithConfig: Tool definitions that need configuration access
//   - Resources: Static and dynamic resources provided by the server
//   - Prompts: Predefined prompts for guided workflows
//   - Instructions: Text sent to clients during initialization
//   - Populate: Whether Build fills the metadata cache read by info resources
//   - DefaultTools: Whether Build adds the artifact tools bound to Service
//
// This struct is used internally by ServerBuilder and should not be instantiated directly.
type ServerDependencies struct {
	Config          *Config
	Version         string
	Service         *service.Service
	Engine          *crypt.Engine
	Tools           []ToolDefinition
	ToolsWithConfig []ToolDefinitionWithConfig
	Resources       []server.ServerResource
	Prompts         []server.ServerPrompt
	Instructions    string
	Populate        bool
	DefaultTools    bool
}

// ServerBuilder helps construct the [MCP] server with proper dependencies using a fluent interface.
//
// Example:
//
//	svc, _ := service.New()
//	s, err := NewServerBuilder().
//	    WithConfig(config).
//	    WithVersion("1.0.0").
//	    WithService(svc).
//	    WithDefaultTools().
//	    Build()
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type ServerBuilder struct{ deps ServerDependencies }

// NewServerBuilder creates a new server builder with default empty dependencies.
func NewServerBuilder() *ServerBuilder { return &ServerBuilder{} }

// WithConfig sets the server configuration. A nil config selects the defaults.
func (b *ServerBuilder) WithConfig(config *Config) *ServerBuilder {
	b.deps.Config = config
	return b
}

// WithVersion sets the server version string reported to clients.
func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.deps.Version = version
	return b
}

// WithService sets the build service the default tools run against.
func (b *ServerBuilder) WithService(svc *service.Service) *ServerBuilder {
	b.deps.Service = svc
	return b
}

// WithEngine sets the engine the default encrypt and decrypt tools use.
func (b *ServerBuilder) WithEngine(engine *crypt.Engine) *ServerBuilder {
	b.deps.Engine = engine
	return b
}

// WithTools adds tool definitions that don't require configuration access.
func (b *ServerBuilder) WithTools(tools ...ToolDefinition) *ServerBuilder {
	b.deps.Tools = append(b.deps.Tools, tools...)
	return b
}

// WithToolsWithConfig adds tool definitions whose handlers receive the server Config.
func (b *ServerBuilder) WithToolsWithConfig(tools ...ToolDefinitionWithConfig) *ServerBuilder {
	b.deps.ToolsWithConfig = append(b.deps.ToolsWithConfig, tools...)
	return b
}

// WithResources adds static and dynamic resources to the MCP server.
// Clients access resources using URIs like "info://version".
func (b *ServerBuilder) WithResources(resources ...server.ServerResource) *ServerBuilder {
	b.deps.Resources = append(b.deps.Resources, resources...)
	return b
}

// WithPrompts adds predefined prompts to the MCP server for guided workflows.
func (b *ServerBuilder) WithPrompts(prompts ...server.ServerPrompt) *ServerBuilder {
	b.deps.Prompts = append(b.deps.Prompts, prompts...)
	return b
}

// WithInstructions sets the instructions sent to clients during initialization.
func (b *ServerBuilder) WithInstructions(instructions string) *ServerBuilder {
	b.deps.Instructions = instructions
	return b
}

// WithPopulate makes Build fill the metadata cache that the version and
// status resources report as server capabilities.
func (b *ServerBuilder) WithPopulate() *ServerBuilder {
	b.deps.Populate = true
	return b
}

// WithDefaultTools makes Build add the artifact tools bound to the configured service.
func (b *ServerBuilder) WithDefaultTools() *ServerBuilder {
	b.deps.DefaultTools = true
	return b
}

// Build creates the [MCP] server with all configured dependencies.
//
// It returns [ErrNoService] when the default tools were requested without a
// build service. Tools receiving configuration get the defaults when none was
// set, and each of their calls is bounded by the configured timeout.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
func (b *ServerBuilder) Build() (*server.MCPServer, error) {
	if b.deps.DefaultTools {
		if b.deps.Service == nil {
			return nil, ErrNoService
		}
		tools, toolsWithConfig := createTools(b.deps.Service, b.deps.Engine)
		b.deps.Tools = append(b.deps.Tools, tools...)
		b.deps.ToolsWithConfig = append(b.deps.ToolsWithConfig, toolsWithConfig...)
		b.deps.DefaultTools = false
	}
	config := b.deps.Config
	if config == nil {
		config = defaultConfig()
	}

	opts := []server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
	}
	if b.deps.Instructions != "" {
		opts = append(opts, server.WithInstructions(b.deps.Instructions))
	}
	s := server.NewMCPServer(serverName, b.deps.Version, opts...)

	for _, tool := range b.deps.Tools {
		s.AddTool(tool.Tool, tool.Handler)
	}

	for _, tool := range b.deps.ToolsWithConfig {
		handler := tool.Handler
		s.AddTool(tool.Tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ctx, cancel := context.WithTimeout(ctx, config.timeout())
			defer cancel()
			return handler(ctx, request, config)
		})
	}

	for _, resource := range b.deps.Resources {
		s.AddResource(resource.Resource, resource.Handler)
	}

	for _, prompt := range b.deps.Prompts {
		s.AddPrompt(prompt.Prompt, prompt.Handler)
	}

	if b.deps.Populate {
		c := getServerCache()
		c.mu.Lock()
		populateToolMetadataCache(c, b.deps.Tools, b.deps.ToolsWithConfig)
		populateResourceMetadataCache(c, b.deps.Resources)
		populatePromptMetadataCache(c, b.deps.Prompts)
		c.mu.Unlock()
	}

	return s, nil
}
