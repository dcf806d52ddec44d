// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the command-line interface of the X.509 artifact builder.
//
// It implements a Cobra-based CLI with the following commands:
//
//   - build: build the artifacts described by a JSON or YAML configuration
//   - print: describe certificates, requests, revocation lists and keys as text
//   - encrypt, decrypt: seal and open password protected CMS envelopes
//   - schema: print the JSON schema of configuration documents
//
// Configuration documents may spell their property names in any naming policy
// selected with --naming-policy. Builds run through the service package, so
// the CLI reports the same typed errors as every other entry point.
package cli
