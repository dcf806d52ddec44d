// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/cli"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/logger"
	verpkg "github.com/H0llyW00dzZ/x509-artifact-builder/src/version"
)

var version string // set by ldflags or defaults to imported version

func init() {
	if version == "" {
		version = verpkg.Version
	}
}

func main() {
	log := logger.NewCLILogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- cli.Execute(ctx, version, log)
	}()

	select {
	case err := <-done:
		if err != nil {
			os.Exit(1)
		}
		if cli.OperationPerformed && cli.OperationPerformedSuccessfully {
			log.Println("Artifact build completed successfully.")
		}
	case <-ctx.Done():
		log.Println("Operation cancelled by signal. Exiting...")
		// The builders observe ctx; give them a moment to remove partial output
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
		os.Exit(130) // Standard exit code for SIGINT
	}
}
