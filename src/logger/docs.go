// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package logger provides abstraction and implementation for logging operations.
// It defines the Logger interface and provides two implementations: CLILogger for
// human-readable command-line output and JSONLogger for structured JSON lines with
// levels and fields, used by the build service and the MCP server. Both
// implementations are safe for concurrent use.
//
// [Warnf] and [Errorf] log at a severity through any Logger, falling back to a
// plain prefix for loggers without levels.
package logger
