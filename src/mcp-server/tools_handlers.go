// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/builder"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/crypt"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
)

// errPayloadTooLarge reports input above Config.Limits.MaxPayloadBytes.
var errPayloadTooLarge = errors.New("payload exceeds the configured limit")

// toolError converts a build failure into a tool error carrying its problem
// description as JSON. Only invalid arguments expose their message.
func toolError(err error) *mcp.CallToolResult {
	problem := builder.ProblemOf(err)
	data, merr := json.Marshal(problem)
	if merr != nil {
		return mcp.NewToolResultError(problem.Title + ": " + problem.Detail)
	}
	return mcp.NewToolResultError(string(data))
}

// readArtifactInput reads input as a file path first and falls back to base64 data.
// Neither may exceed limit bytes.
func readArtifactInput(input string, limit int64) ([]byte, error) {
	if f, err := os.Open(input); err == nil {
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, limit+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", input, err)
		}
		if int64(len(data)) > limit {
			return nil, errPayloadTooLarge
		}
		return data, nil
	}
	return decodeBase64Input(input, limit)
}

// decodeBase64Input decodes standard base64 data of at most limit decoded bytes.
func decodeBase64Input(input string, limit int64) ([]byte, error) {
	input = strings.TrimSpace(input)
	if int64(base64.StdEncoding.DecodedLen(len(input))) > limit+2 {
		return nil, errPayloadTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return nil, errors.New("not a valid file path or base64 data")
	}
	if int64(len(data)) > limit {
		return nil, errPayloadTooLarge
	}
	return data, nil
}

// handleBuildArtifact runs a configuration document through the build service.
//
// The document is validated against the configuration schema after its
// property names are converted from the requested naming policy. The result is
// the populated document spelled in that same policy. Build failures are
// reported as tool errors carrying a problem description.
func (h *artifactTools) handleBuildArtifact(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
	doc, err := request.RequireString("config")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("config parameter required: %v", err)), nil
	}
	if int64(len(doc)) > config.Limits.MaxPayloadBytes {
		return mcp.NewToolResultError(fmt.Sprintf("config: %v", errPayloadTooLarge)), nil
	}

	policy := config.policy()
	if name := request.GetString("naming_policy", ""); name != "" {
		if policy, err = model.ParseNamingPolicy(name); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	out, err := h.svc.BuildJSON(ctx, []byte(doc), policy, nil)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// handlePrintArtifact describes an artifact given as a file path or base64 data.
// Password envelopes and PKCS#12 stores are opened with the password argument.
func (h *artifactTools) handlePrintArtifact(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("artifact")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("artifact parameter required: %v", err)), nil
	}
	data, err := readArtifactInput(input, config.Limits.MaxPayloadBytes)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read artifact: %v", err)), nil
	}

	slot := &model.FileSlot{Data: data}
	if password := request.GetString("password", ""); password != "" {
		slot.Password = &password
	}
	cfg := &model.Config{
		Mode: model.ModeTransform,
		Transform: &model.TransformSpec{
			Inputs:   []*model.FileSlot{slot},
			Encoding: model.EncodingText,
		},
	}

	out, err := h.svc.Build(ctx, cfg, nil)
	if err != nil {
		return toolError(err), nil
	}

	var buf strings.Builder
	for _, f := range out.TransformFiles {
		buf.Write(f.Data)
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// handleEncryptPayload seals base64 data in a password envelope.
// The envelope is returned PEM armored or as base64 DER.
func (h *artifactTools) handleEncryptPayload(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
	encoded, err := request.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("data parameter required: %v", err)), nil
	}
	password, err := request.RequireString("password")
	if err != nil || password == "" {
		return mcp.NewToolResultError("password parameter required"), nil
	}

	c := config.cipher()
	if name := request.GetString("cipher", ""); name != "" {
		if c, err = crypt.ParseCipher(name); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	plain, err := decodeBase64Input(encoded, config.Limits.MaxPayloadBytes)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to decode data: %v", err)), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	envelope, err := h.engine.EncryptBytes(plain, []byte(password), c)
	if err != nil {
		return toolError(builder.Unspecified("encrypt", err)), nil
	}
	if request.GetBool("armor", false) {
		return mcp.NewToolResultText(string(crypt.ArmorPEM(envelope))), nil
	}
	return mcp.NewToolResultText(base64.StdEncoding.EncodeToString(envelope)), nil
}

// handleDecryptPayload opens a PEM armored or base64 DER password envelope and
// returns the payload as base64.
func (h *artifactTools) handleDecryptPayload(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("envelope")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("envelope parameter required: %v", err)), nil
	}
	password, err := request.RequireString("password")
	if err != nil || password == "" {
		return mcp.NewToolResultError("password parameter required"), nil
	}
	if int64(len(input)) > 2*config.Limits.MaxPayloadBytes {
		return mcp.NewToolResultError(fmt.Sprintf("envelope: %v", errPayloadTooLarge)), nil
	}

	envelope, ok := crypt.Dearmor([]byte(input))
	if !ok {
		der, err := decodeBase64Input(input, config.Limits.MaxPayloadBytes)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to decode envelope: %v", err)), nil
		}
		if envelope, ok = crypt.Dearmor(der); !ok {
			return mcp.NewToolResultError("input is not a password envelope"), nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plain, err := h.engine.DecryptBytes(envelope, []byte(password))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(base64.StdEncoding.EncodeToString(plain)), nil
}

// handleGetConfigSchema returns the configuration schema.
func handleGetConfigSchema(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(string(model.Schema())), nil
}
