// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// createPrompts creates and returns all MCP prompt definitions with their handlers
func createPrompts() []server.ServerPrompt {
	return []server.ServerPrompt{
		{
			Prompt: mcp.NewPrompt("issue-certificate",
				mcp.WithPromptDescription("Generate a key pair and issue a self-signed or CA-signed certificate"),
				mcp.WithArgument("common_name",
					mcp.ArgumentDescription("Common name of the certificate subject"),
					mcp.RequiredArgument(),
				),
				mcp.WithArgument("key_algorithm",
					mcp.ArgumentDescription("Key algorithm: 'RSA' or 'ECDSA' (default: ECDSA)"),
				),
				mcp.WithArgument("issuer_path",
					mcp.ArgumentDescription("Path to the issuer certificate and key store; omit for a self-signed certificate"),
				),
				mcp.WithArgument("validity_days",
					mcp.ArgumentDescription("Days the certificate stays valid (default: 365)"),
				),
			),
			Handler: handleIssueCertificatePrompt,
		},
		{
			Prompt: mcp.NewPrompt("revoke-certificates",
				mcp.WithPromptDescription("Publish a certificate revocation list for one or more serial numbers"),
				mcp.WithArgument("issuer_path",
					mcp.ArgumentDescription("Path to the issuer certificate and key store signing the list"),
					mcp.RequiredArgument(),
				),
				mcp.WithArgument("serials",
					mcp.ArgumentDescription("Comma-separated serial numbers to revoke, decimal or 0x-prefixed hexadecimal"),
					mcp.RequiredArgument(),
				),
				mcp.WithArgument("reason",
					mcp.ArgumentDescription("RFC 5280 revocation reason, e.g. 'keyCompromise' (default: unspecified)"),
				),
			),
			Handler: handleRevokeCertificatesPrompt,
		},
		{
			Prompt: mcp.NewPrompt("inspect-artifact",
				mcp.WithPromptDescription("Inspect a certificate, request, revocation list, key or protected store"),
				mcp.WithArgument("artifact_path",
					mcp.ArgumentDescription("Path to the artifact file or base64-encoded artifact data"),
					mcp.RequiredArgument(),
				),
			),
			Handler: handleInspectArtifactPrompt,
		},
	}
}
