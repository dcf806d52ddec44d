// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"fmt"
	"maps"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/crypt"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/mcp-server/templates"
)

// instructionData holds the data used to populate the MCP server instructions template.
type instructionData struct {
	Tools     []toolInfo
	ToolRoles map[string]string // Maps tool roles to tool names for template use
	Modes     []string
	Ciphers   []string
	Policies  []string
}

// toolInfo represents information about an MCP tool for template rendering.
type toolInfo struct {
	Name        string
	Description string
}

// loadInstructions renders the embedded instructions template with the
// registered tools and the configuration vocabulary clients need to know.
//
// Returns:
//   - string: The rendered instruction text describing server capabilities and tool usage
//   - error: If the embedded file cannot be read or template parsing fails
func loadInstructions(tools []ToolDefinition, toolsWithConfig []ToolDefinitionWithConfig) (string, error) {
	data := instructionData{
		ToolRoles: make(map[string]string),
		Modes:     supportedModes(),
		Ciphers:   []string{crypt.AES128CBC.String(), crypt.AES256CBC.String(), crypt.AES256GCM.String()},
		Policies: []string{
			string(model.CamelCase), string(model.PascalCase),
			string(model.KebabCase), string(model.SnakeCase),
		},
	}
	add := func(tool mcp.Tool, role string) {
		data.Tools = append(data.Tools, toolInfo{Name: tool.Name, Description: tool.Description})
		if role != "" {
			data.ToolRoles[role] = tool.Name
		}
	}
	for _, tool := range tools {
		add(tool.Tool, tool.Role)
	}
	for _, tool := range toolsWithConfig {
		add(tool.Tool, tool.Role)
	}

	instructions, err := templates.Render("X509_instructions.md", data)
	if err != nil {
		return "", fmt.Errorf("failed to load MCP server instructions: %w", err)
	}
	return instructions, nil
}

// serverCache holds the capability metadata reported by the info resources.
type serverCache struct {
	mu        sync.RWMutex
	prompts   []map[string]any
	tools     []map[string]any
	resources []map[string]any
}

var (
	cache     *serverCache
	cacheOnce sync.Once
)

// getServerCache returns the lazily initialized server cache.
// It is populated by [ServerBuilder.Build] when WithPopulate is used.
func getServerCache() *serverCache {
	cacheOnce.Do(func() { cache = &serverCache{} })
	return cache
}

// capabilities returns the cached prompts, tools and resources.
func (c *serverCache) capabilities() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return map[string]any{
		"tools":     c.tools,
		"resources": c.resources,
		"prompts":   c.prompts,
	}
}

// metaFields converts MCP metadata to a map for JSON output, dropping empty
// progress tokens set by the MCP library.
func metaFields(meta *mcp.Meta) map[string]any {
	if meta == nil {
		return nil
	}
	metaMap := make(map[string]any)
	maps.Copy(metaMap, meta.AdditionalFields)
	if progressToken, exists := metaMap["progressToken"]; exists {
		if progressToken == nil || progressToken == "" || progressToken == "null" {
			delete(metaMap, "progressToken")
		}
	}
	if len(metaMap) == 0 {
		return nil
	}
	return metaMap
}

// populateToolMetadataCache extracts metadata from the registered tools.
// The caller holds the cache lock.
func populateToolMetadataCache(serverCache *serverCache, tools []ToolDefinition, toolsWithConfig []ToolDefinitionWithConfig) {
	serverCache.tools = make([]map[string]any, 0, len(tools)+len(toolsWithConfig))

	for _, toolDef := range tools {
		serverCache.tools = append(serverCache.tools, map[string]any{
			"name":        toolDef.Tool.Name,
			"description": toolDef.Tool.Description,
		})
	}
	for _, toolDef := range toolsWithConfig {
		serverCache.tools = append(serverCache.tools, map[string]any{
			"name":        toolDef.Tool.Name,
			"description": toolDef.Tool.Description,
			"configured":  true,
		})
	}
}

// populatePromptMetadataCache extracts metadata from the registered prompts.
// The caller holds the cache lock.
func populatePromptMetadataCache(serverCache *serverCache, prompts []server.ServerPrompt) {
	serverCache.prompts = make([]map[string]any, 0, len(prompts))

	for _, promptDef := range prompts {
		prompt := promptDef.Prompt
		metadata := map[string]any{
			"name":        prompt.Name,
			"description": prompt.Description,
		}

		if len(prompt.Arguments) > 0 {
			args := make([]map[string]any, 0, len(prompt.Arguments))
			for _, arg := range prompt.Arguments {
				args = append(args, map[string]any{
					"name":        arg.Name,
					"description": arg.Description,
					"required":    arg.Required,
				})
			}
			metadata["arguments"] = args
		}
		if meta := metaFields(prompt.Meta); meta != nil {
			metadata["meta"] = meta
		}

		serverCache.prompts = append(serverCache.prompts, metadata)
	}
}

// populateResourceMetadataCache extracts metadata from the registered resources.
// The caller holds the cache lock.
func populateResourceMetadataCache(serverCache *serverCache, resources []server.ServerResource) {
	serverCache.resources = make([]map[string]any, 0, len(resources))

	for _, resourceDef := range resources {
		resource := resourceDef.Resource
		metadata := map[string]any{
			"uri":         resource.URI,
			"name":        resource.Name,
			"description": resource.Description,
			"mimeType":    resource.MIMEType,
		}
		if meta := metaFields(resource.Meta); meta != nil {
			metadata["meta"] = meta
		}
		serverCache.resources = append(serverCache.resources, metadata)
	}
}
