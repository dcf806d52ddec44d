// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/mcp-server/templates"
)

// promptTemplateData holds the data used to populate prompt templates.
type promptTemplateData struct {
	CommonName   string
	KeyAlgorithm string
	IssuerPath   string
	ValidityDays string
	Serials      []string
	Reason       string
	ArtifactPath string
}

// parsePromptTemplate parses a prompt template file and converts it to MCP messages.
//
// The template is read from the embedded filesystem and executed with data.
// Lines following a "### User:" or "### Assistant:" marker become one message
// of that role; other markdown headers and blank lines are dropped.
//
// Parameters:
//   - templateName: Name of the template file (without .md extension)
//   - data: Template data to populate placeholders
//
// Returns:
//   - []mcp.PromptMessage: Parsed MCP messages
//   - error: Any error during template execution or parsing
func parsePromptTemplate(templateName string, data promptTemplateData) ([]mcp.PromptMessage, error) {
	text, err := templates.Render(templateName+".md", data)
	if err != nil {
		return nil, err
	}

	var (
		messages       []mcp.PromptMessage
		currentRole    mcp.Role
		currentContent strings.Builder
	)
	flush := func() {
		if currentContent.Len() > 0 {
			messages = append(messages, mcp.NewPromptMessage(
				currentRole,
				mcp.NewTextContent(strings.TrimSpace(currentContent.String())),
			))
			currentContent.Reset()
		}
	}

	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSpace(line)

		// Role markers are checked before headers are skipped
		switch {
		case strings.HasPrefix(line, "### Assistant:"):
			flush()
			currentRole = mcp.RoleAssistant
			continue
		case strings.HasPrefix(line, "### User:"):
			flush()
			currentRole = mcp.RoleUser
			continue
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		}

		if currentRole != "" {
			if currentContent.Len() > 0 {
				currentContent.WriteString("\n")
			}
			currentContent.WriteString(line)
		}
	}
	flush()

	return messages, nil
}

// splitList splits a comma-separated argument, dropping empty items.
func splitList(s string) []string {
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// handleIssueCertificatePrompt guides a client through generating a key pair
// and issuing a certificate with the build_artifact tool.
//
// Expected arguments in request.Params.Arguments:
//   - common_name: Common name of the certificate subject
//   - key_algorithm: Key algorithm (default: ECDSA)
//   - issuer_path: Issuer store; empty for a self-signed certificate
//   - validity_days: Validity in days (default: 365)
func handleIssueCertificatePrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	data := promptTemplateData{
		CommonName:   args["common_name"],
		KeyAlgorithm: args["key_algorithm"],
		IssuerPath:   args["issuer_path"],
		ValidityDays: args["validity_days"],
	}
	if data.CommonName == "" {
		return nil, fmt.Errorf("common_name argument is required")
	}
	if data.KeyAlgorithm == "" {
		data.KeyAlgorithm = "ECDSA"
	}
	if data.ValidityDays == "" {
		data.ValidityDays = "365"
	}

	messages, err := parsePromptTemplate("issue-certificate-prompt", data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse issue certificate template: %w", err)
	}

	return mcp.NewGetPromptResult("Certificate Issuance Workflow", messages), nil
}

// handleRevokeCertificatesPrompt guides a client through publishing a
// revocation list with the build_artifact tool.
//
// Expected arguments in request.Params.Arguments:
//   - issuer_path: Issuer store signing the list
//   - serials: Comma-separated serial numbers
//   - reason: Revocation reason (default: unspecified)
func handleRevokeCertificatesPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	data := promptTemplateData{
		IssuerPath: args["issuer_path"],
		Serials:    splitList(args["serials"]),
		Reason:     args["reason"],
	}
	if data.IssuerPath == "" || len(data.Serials) == 0 {
		return nil, fmt.Errorf("issuer_path and serials arguments are required")
	}
	if data.Reason == "" {
		data.Reason = "unspecified"
	}

	messages, err := parsePromptTemplate("revoke-certificates-prompt", data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse revoke certificates template: %w", err)
	}

	return mcp.NewGetPromptResult("Certificate Revocation Workflow", messages), nil
}

// handleInspectArtifactPrompt guides a client through describing an artifact
// with the print_artifact tool.
func handleInspectArtifactPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	path := request.Params.Arguments["artifact_path"]
	if path == "" {
		return nil, fmt.Errorf("artifact_path argument is required")
	}

	messages, err := parsePromptTemplate("inspect-artifact-prompt", promptTemplateData{ArtifactPath: path})
	if err != nil {
		return nil, fmt.Errorf("failed to parse inspect artifact template: %w", err)
	}

	return mcp.NewGetPromptResult("Artifact Inspection", messages), nil
}
