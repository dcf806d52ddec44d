// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package mcpserver provides the [MCP] server framework for building [X509] artifacts.
// It implements the Model Context Protocol ([MCP]) server with tools that build key pairs,
// certificate requests, certificates and revocation lists from configuration documents,
// describe existing artifacts, and seal or open password envelopes.
// The package uses a builder pattern for server construction; every build runs
// through one shared service, so builds requested by concurrent tool calls are serialized.
//
// [X509]: https://grokipedia.com/page/X.509
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
package mcpserver
