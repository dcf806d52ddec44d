// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/logger"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/service"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/version"
)

var appVersion = version.Version // default version

// GetVersion returns the current version of the MCP server.
//
// The version is initially set to the default from the version package,
// but is overridden when calling Run() with a specific version string.
func GetVersion() string {
	return appVersion
}

// Run starts the MCP server with the artifact builder tools on stdio.
//
// Parameters:
//   - version: Version string to set for the server (e.g., "0.1.0")
//
// Returns:
//   - error: Server startup or runtime error, or graceful shutdown signal
//
// Configuration:
//   - Loads config from the X509_BUILDER_CONFIG_FILE environment variable
//   - Falls back to default config if environment variable not set
//
// Server Lifecycle:
//  1. Load configuration from environment
//  2. Create the build service; its log goes to stderr as JSON
//  3. Set up signal handling for graceful shutdown
//  4. Build MCP server using ServerBuilder pattern
//  5. Start stdio server with context cancellation support
//  6. Wait for either server error or shutdown signal
//
// Error Handling:
//   - Configuration errors: Wrapped with "failed to load config" prefix
//   - Server build errors: Wrapped with "failed to build server" prefix
//   - Shutdown errors: Wrapped with "server shutdown" prefix
func Run(version string) error {
	appVersion = version

	config, err := loadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Stdout carries the protocol, so the log stays on stderr
	log := logger.NewJSONLogger(os.Stderr, false).With(map[string]any{
		"server":  serverName,
		"version": version,
	})
	svc, err := service.New(
		service.WithLogger(log),
		service.WithBuilderOptions(config.builderOptions()...),
	)
	if err != nil {
		return fmt.Errorf("failed to create build service: %w", err)
	}

	tools, toolsWithConfig := createTools(svc, nil)

	instructions, err := loadInstructions(tools, toolsWithConfig)
	if err != nil {
		return fmt.Errorf("failed to load instructions: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	s, err := NewServerBuilder().
		WithConfig(config).
		WithVersion(version).
		WithService(svc).
		WithTools(tools...).
		WithToolsWithConfig(toolsWithConfig...).
		WithResources(createResources()...).
		WithPrompts(createPrompts()...).
		WithInstructions(instructions).
		WithPopulate().
		Build()
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	stdioServer := server.NewStdioServer(s)

	errChan := make(chan error, 1)
	go func() {
		errChan <- stdioServer.Listen(ctx, os.Stdin, os.Stdout)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return fmt.Errorf("server shutdown: %w", ctx.Err())
	}
}
