// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/builder"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/cli"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/crypt"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/logger"
)

const version = "1.3.3.7-testing"

// run executes the root command with args and returns what it wrote to stdout.
func run(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := cli.NewRootCommand(version, logger.NewJSONLogger(io.Discard, true))
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestBuildCommand(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Config Required",
			testFunc: func(t *testing.T) {
				_, err := run(t, nil, "build")
				assert.ErrorIs(t, err, cli.ErrConfigRequired)
			},
		},
		{
			name: "Snake Case Key Pair",
			testFunc: func(t *testing.T) {
				dir := t.TempDir()
				keyFile := filepath.Join(dir, "key.pem")
				cfgFile := filepath.Join(dir, "keypair.json")
				writeJSON(t, cfgFile, map[string]any{
					"mode":             "KeyPair",
					"key_pair":         map[string]any{"algorithm": "ECDSA", "curve": "P-256"},
					"private_key_file": map[string]any{"file_name": keyFile},
				})

				out, err := run(t, nil, "build", "--naming-policy", "snake_case", cfgFile)
				require.NoError(t, err)
				assert.Contains(t, out, `"private_key_file"`)
				assert.Contains(t, out, `"public_key_file"`)
				assert.FileExists(t, keyFile)
				assert.True(t, cli.OperationPerformedSuccessfully)
			},
		},
		{
			name: "Output File",
			testFunc: func(t *testing.T) {
				dir := t.TempDir()
				cfgFile := filepath.Join(dir, "key.yaml")
				require.NoError(t, os.WriteFile(cfgFile, []byte("mode: PrivateKey\nkeyPair:\n  algorithm: ECDSA\n"), 0o600))
				result := filepath.Join(dir, "result.json")

				out, err := run(t, nil, "build", "-o", result, cfgFile)
				require.NoError(t, err)
				assert.Empty(t, out)

				data, err := os.ReadFile(result)
				require.NoError(t, err)
				assert.Contains(t, string(data), `"privateKeyFile"`)
			},
		},
		{
			name: "Schema Violation",
			testFunc: func(t *testing.T) {
				cfgFile := filepath.Join(t.TempDir(), "bad.json")
				writeJSON(t, cfgFile, map[string]any{"mode": "KeyPair", "unknown": true})

				_, err := run(t, nil, "build", cfgFile)
				var e *builder.Error
				require.ErrorAs(t, err, &e)
				assert.Equal(t, builder.InvalidArgumentError, e.Kind)
			},
		},
		{
			name: "Unknown Naming Policy",
			testFunc: func(t *testing.T) {
				cfgFile := filepath.Join(t.TempDir(), "key.json")
				writeJSON(t, cfgFile, map[string]any{"mode": "PrivateKey"})

				_, err := run(t, nil, "build", "--naming-policy", "SCREAMING", cfgFile)
				assert.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestPrintCommand(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	cfgFile := filepath.Join(dir, "cert.json")
	writeJSON(t, cfgFile, map[string]any{
		"mode":        "Certificate",
		"subjectName": map[string]any{"commonName": "cli test"},
		"keyPair":     map[string]any{"algorithm": "ECDSA", "curve": "P-256"},
		"certFile":    map[string]any{"fileName": certFile},
	})
	_, err := run(t, nil, "build", cfgFile)
	require.NoError(t, err)

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Certificate",
			testFunc: func(t *testing.T) {
				out, err := run(t, nil, "print", certFile)
				require.NoError(t, err)
				assert.Contains(t, out, "## certificate 1 of 1")
				assert.Contains(t, out, "cli test")
			},
		},
		{
			name: "Several Files",
			testFunc: func(t *testing.T) {
				out, err := run(t, nil, "print", certFile, certFile)
				require.NoError(t, err)
				assert.Contains(t, out, "# "+certFile)
			},
		},
		{
			name: "Missing File",
			testFunc: func(t *testing.T) {
				_, err := run(t, nil, "print", filepath.Join(dir, "absent.pem"))
				assert.ErrorIs(t, err, os.ErrNotExist)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestCryptCommands(t *testing.T) {
	plain := []byte("attack at dawn")

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Armored Round Trip",
			testFunc: func(t *testing.T) {
				dir := t.TempDir()
				in := filepath.Join(dir, "plain.txt")
				sealed := filepath.Join(dir, "sealed.pem")
				require.NoError(t, os.WriteFile(in, plain, 0o600))

				_, err := run(t, nil, "encrypt", "--armor", "--cipher", "aes256-gcm", "-p", "secret", "-i", in, "-o", sealed)
				require.NoError(t, err)
				data, err := os.ReadFile(sealed)
				require.NoError(t, err)
				assert.Contains(t, string(data), "-----BEGIN "+crypt.PEMType)

				out, err := run(t, nil, "decrypt", "-p", "secret", "-i", sealed)
				require.NoError(t, err)
				assert.Equal(t, string(plain), out)
			},
		},
		{
			name: "Binary Through Stdio",
			testFunc: func(t *testing.T) {
				envelope, err := run(t, bytes.NewReader(plain), "encrypt", "-p", "secret", "-c", "aes128-cbc")
				require.NoError(t, err)
				assert.True(t, crypt.IsEnvelope([]byte(envelope)))

				out, err := run(t, bytes.NewReader([]byte(envelope)), "decrypt", "-p", "secret")
				require.NoError(t, err)
				assert.Equal(t, string(plain), out)
			},
		},
		{
			name: "Wrong Password",
			testFunc: func(t *testing.T) {
				envelope, err := run(t, bytes.NewReader(plain), "encrypt", "-p", "secret")
				require.NoError(t, err)

				_, err = run(t, bytes.NewReader([]byte(envelope)), "decrypt", "-p", "nope")
				assert.ErrorIs(t, err, crypt.ErrDecryption)
			},
		},
		{
			name: "Password From Environment",
			testFunc: func(t *testing.T) {
				t.Setenv("X509_BUILDER_PASSWORD", "from-env")
				envelope, err := run(t, bytes.NewReader(plain), "encrypt")
				require.NoError(t, err)

				out, err := run(t, bytes.NewReader([]byte(envelope)), "decrypt", "-p", "from-env")
				require.NoError(t, err)
				assert.Equal(t, string(plain), out)
			},
		},
		{
			name: "Password Required",
			testFunc: func(t *testing.T) {
				t.Setenv("X509_BUILDER_PASSWORD", "")
				_, err := run(t, bytes.NewReader(plain), "encrypt")
				assert.ErrorIs(t, err, cli.ErrPasswordRequired)
			},
		},
		{
			name: "Unknown Cipher",
			testFunc: func(t *testing.T) {
				_, err := run(t, bytes.NewReader(plain), "encrypt", "-p", "secret", "-c", "rot13")
				assert.ErrorIs(t, err, crypt.ErrUnknownCipher)
			},
		},
		{
			name: "Not An Envelope",
			testFunc: func(t *testing.T) {
				_, err := run(t, bytes.NewReader(plain), "decrypt", "-p", "secret")
				assert.ErrorContains(t, err, "not a password envelope")
			},
		},
		{
			name: "Binary Envelope Streams Past Input Limit",
			testFunc: func(t *testing.T) {
				large := bytes.Repeat([]byte("0123456789abcdef"), 8<<10)
				envelope, err := run(t, bytes.NewReader(large), "encrypt", "-p", "secret")
				require.NoError(t, err)

				out, err := run(t, bytes.NewReader([]byte(envelope)),
					"decrypt", "-p", "secret", "--max-input", "1024", "--cache-threshold", "4096")
				require.NoError(t, err)
				assert.Equal(t, string(large), out)
			},
		},
		{
			name: "Armored Envelope Over Input Limit",
			testFunc: func(t *testing.T) {
				envelope, err := run(t, bytes.NewReader(plain), "encrypt", "--armor", "-p", "secret")
				require.NoError(t, err)

				_, err = run(t, bytes.NewReader([]byte(envelope)), "decrypt", "-p", "secret", "--max-input", "16")
				assert.ErrorContains(t, err, "input exceeds 16 bytes")
			},
		},
		{
			name: "Canceled Context",
			testFunc: func(t *testing.T) {
				envelope, err := run(t, bytes.NewReader(plain), "encrypt", "-p", "secret")
				require.NoError(t, err)

				ctx, cancel := context.WithCancel(context.Background())
				cancel()

				var out bytes.Buffer
				cmd := cli.NewRootCommand(version, logger.NewJSONLogger(io.Discard, true))
				cmd.SetArgs([]string{"decrypt", "-p", "secret"})
				cmd.SetIn(bytes.NewReader([]byte(envelope)))
				cmd.SetOut(&out)
				cmd.SetErr(io.Discard)
				err = cmd.ExecuteContext(ctx)
				assert.ErrorIs(t, err, context.Canceled)
				assert.Zero(t, out.Len(), "no plaintext is written after cancellation")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestSchemaCommand(t *testing.T) {
	out, err := run(t, nil, "schema")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
	assert.Contains(t, out, `"mode"`)
}
