// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/crypt"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/service"
)

// artifactTools binds the tool handlers to a build service and the engine
// sealing and opening envelopes outside of builds.
type artifactTools struct {
	svc    *service.Service
	engine *crypt.Engine
}

// createTools creates and returns all MCP tool definitions with their handlers.
// It organizes tools into two categories: those that don't require configuration
// and those that need access to the server configuration for defaults and payload limits.
//
// The function defines the following tools:
//   - build_artifact: Runs a configuration document and returns it populated
//   - print_artifact: Describes certificates, requests, revocation lists and keys
//   - encrypt_payload: Seals data in a password protected CMS envelope
//   - decrypt_payload: Opens a password protected CMS envelope
//   - get_config_schema: Returns the JSON schema of configuration documents
//   - get_build_metrics: Reports build counters and runtime statistics
func createTools(svc *service.Service, engine *crypt.Engine) ([]ToolDefinition, []ToolDefinitionWithConfig) {
	if engine == nil {
		engine = crypt.Default
	}
	h := &artifactTools{svc: svc, engine: engine}

	tools := []ToolDefinition{
		{
			Tool: mcp.NewTool("get_config_schema",
				mcp.WithDescription("Get the JSON schema that camelCase configuration documents are validated against"),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: handleGetConfigSchema,
			Role:    "schemaProvider",
		},
		{
			Tool: mcp.NewTool("get_build_metrics",
				mcp.WithDescription("Get build counters, durations and runtime statistics of this server"),
				mcp.WithString("format",
					mcp.Description("Output format: 'markdown', 'json' or 'prometheus' (default: markdown)"),
					mcp.DefaultString("markdown"),
				),
				mcp.WithBoolean("detailed",
					mcp.Description("Include detailed memory breakdown (default: false)"),
					mcp.DefaultBool(false),
				),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: h.handleGetBuildMetrics,
			Role:    "metricsReporter",
		},
	}

	toolsWithConfig := []ToolDefinitionWithConfig{
		{
			Tool: mcp.NewTool("build_artifact",
				mcp.WithDescription("Build the keys, certificate requests, certificates or revocation lists described by a configuration document and return the populated document"),
				mcp.WithString("config",
					mcp.Required(),
					mcp.Description("Configuration document as JSON; its 'mode' selects the builder"),
				),
				mcp.WithString("naming_policy",
					mcp.Description("Property naming of the document: 'camelCase', 'PascalCase', 'kebab-case' or 'snake_case' (default: server setting)"),
				),
			),
			Handler: h.handleBuildArtifact,
			Role:    "artifactBuilder",
		},
		{
			Tool: mcp.NewTool("print_artifact",
				mcp.WithDescription("Describe certificates, certificate requests, revocation lists and keys in a readable text dump"),
				mcp.WithString("artifact",
					mcp.Required(),
					mcp.Description("Artifact file path or base64-encoded artifact data (PEM, DER, PKCS#12 or password envelope)"),
				),
				mcp.WithString("password",
					mcp.Description("Password of a protected artifact"),
				),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: h.handlePrintArtifact,
			Role:    "artifactPrinter",
		},
		{
			Tool: mcp.NewTool("encrypt_payload",
				mcp.WithDescription("Seal base64-encoded data in a password protected CMS envelope"),
				mcp.WithString("data",
					mcp.Required(),
					mcp.Description("Base64-encoded payload"),
				),
				mcp.WithString("password",
					mcp.Required(),
					mcp.Description("Envelope password"),
				),
				mcp.WithString("cipher",
					mcp.Description("Content cipher: 'aes128-cbc', 'aes256-cbc' or 'aes256-gcm' (default: server setting)"),
				),
				mcp.WithBoolean("armor",
					mcp.Description("Return the envelope as PEM instead of base64-encoded DER (default: false)"),
					mcp.DefaultBool(false),
				),
			),
			Handler: h.handleEncryptPayload,
			Role:    "encryptor",
		},
		{
			Tool: mcp.NewTool("decrypt_payload",
				mcp.WithDescription("Open a password protected CMS envelope given as PEM or base64-encoded DER"),
				mcp.WithString("envelope",
					mcp.Required(),
					mcp.Description("PEM armored envelope or base64-encoded DER envelope"),
				),
				mcp.WithString("password",
					mcp.Required(),
					mcp.Description("Envelope password"),
				),
			),
			Handler: h.handleDecryptPayload,
			Role:    "decryptor",
		},
	}

	return tools, toolsWithConfig
}
