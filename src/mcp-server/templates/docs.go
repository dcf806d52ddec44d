// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package templates embeds the markdown files of the MCP server: the server
// instructions, the artifact format documentation and the guided prompt
// workflows. Files are read through [MagicEmbed] or rendered with [Render],
// which executes them as [text/template] templates.
//
// Example usage:
//
//	import "github.com/H0llyW00dzZ/x509-artifact-builder/src/mcp-server/templates"
//
//	text, err := templates.Render("inspect-artifact-prompt.md", data)
//	if err != nil {
//		return nil, err
//	}
package templates
