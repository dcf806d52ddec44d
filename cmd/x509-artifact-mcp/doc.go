// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// x509-artifact-mcp is a Model Context Protocol (MCP) server that exposes the
// artifact builders to assistants and automation clients over stdio.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/x509-artifact-builder/cmd/x509-artifact-mcp@latest
//
// # Environment Variables
//
//	X509_BUILDER_CONFIG_FILE  Path to the server configuration file (JSON or YAML)
//
// # MCP Tools
//
//   - build_artifact: Run a configuration document and return it populated
//   - print_artifact: Describe certificates, requests, revocation lists and keys
//   - encrypt_payload: Seal data in a password protected CMS envelope
//   - decrypt_payload: Open a password protected CMS envelope
//   - get_config_schema: Return the JSON schema of configuration documents
//   - get_build_metrics: Report build counters and runtime statistics
//
// # MCP Resources
//
//   - config://template: Server configuration template
//   - info://version: Version and capabilities info
//   - docs://artifact-formats: Encodings and containers understood by the builders
//   - schema://artifact-config: Configuration schema
//   - status://server-status: Current server health status
//
// # MCP Prompts
//
//   - issue-certificate: Generate a key pair and issue a certificate
//   - revoke-certificates: Publish a revocation list
//   - inspect-artifact: Describe an existing artifact
package main
