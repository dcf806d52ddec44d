// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package builder_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/builder"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/crypt"
	x509certs "github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
)

// artifacts holds one PEM sample of every artifact type.
type artifacts struct {
	cert, csr, crl, key, pub []byte
}

func newArtifacts(t *testing.T) *artifacts {
	t.Helper()
	ctx := context.Background()
	ca := newAuthority(t)
	csrPEM, _ := newRequest(t, &model.SubjectName{CommonName: "transform"}, nil)

	crl, err := builder.NewCRLBuilder(testOptions()...).Build(ctx, &model.Config{Mode: model.ModeCrl, Issuer: ca.issuer()}, nil)
	require.NoError(t, err)
	pair, err := builder.NewKeyPairBuilder(testOptions()...).Build(ctx, &model.Config{Mode: model.ModeKeyPair, KeyPair: ecKeyPair()}, nil)
	require.NoError(t, err)

	return &artifacts{
		cert: ca.certPEM,
		csr:  csrPEM,
		crl:  crl.CrlFile.Data,
		key:  pair.PrivateKeyFile.Data,
		pub:  pair.PublicKeyFile.Data,
	}
}

func transform(t *testing.T, b builder.Builder, encoding model.Encoding, inputs ...*model.FileSlot) (*model.Config, error) {
	t.Helper()
	return b.Build(context.Background(), &model.Config{
		Mode:      model.ModeTransform,
		Transform: &model.TransformSpec{Inputs: inputs, Encoding: encoding},
	}, nil)
}

func TestTransformBuilder(t *testing.T) {
	b := builder.NewTransformBuilder(testOptions()...)
	a := newArtifacts(t)

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Round Trip Every Artifact",
			testFunc: func(t *testing.T) {
				for name, pemData := range map[string][]byte{
					"certificate": a.cert,
					"request":     a.csr,
					"crl":         a.crl,
					"private key": a.key,
					"public key":  a.pub,
				} {
					der, _, err := x509certs.DecodeBlock(pemData)
					require.NoError(t, err, name)

					toDER, err := transform(t, b, model.EncodingDER, &model.FileSlot{Data: pemData})
					require.NoError(t, err, name)
					assert.Equal(t, der, toDER.TransformFiles[0].Data, name)
					assert.Equal(t, model.EncodingDER, toDER.TransformFiles[0].Encoding, name)

					toPEM, err := transform(t, b, model.EncodingPEM, &model.FileSlot{Data: toDER.TransformFiles[0].Data})
					require.NoError(t, err, name)
					assert.Equal(t, pemData, toPEM.TransformFiles[0].Data, name)
				}
			},
		},
		{
			name: "Text",
			testFunc: func(t *testing.T) {
				out, err := transform(t, b, "text",
					&model.FileSlot{Data: a.cert},
					&model.FileSlot{Data: a.key},
				)
				require.NoError(t, err)
				require.Len(t, out.TransformFiles, 2)
				assert.Equal(t, model.EncodingText, out.TransformFiles[0].Encoding)
				assert.Contains(t, string(out.TransformFiles[0].Data), "## certificate 1 of 1")
				assert.Contains(t, string(out.TransformFiles[0].Data), "Test CA")
				assert.Contains(t, string(out.TransformFiles[1].Data), "## private key")
			},
		},
		{
			name: "Several Blocks",
			testFunc: func(t *testing.T) {
				bundle := append(bytes.Clone(a.cert), a.key...)
				out, err := transform(t, b, model.EncodingPEM, &model.FileSlot{Data: bundle})
				require.NoError(t, err)
				assert.Equal(t, bundle, out.TransformFiles[0].Data)

				_, err = transform(t, b, model.EncodingDER, &model.FileSlot{Data: bundle})
				e := requireKind(t, err, builder.InvalidArgumentError)
				assert.Equal(t, "transform.inputs[0]", e.Field)

				chain := append(bytes.Clone(a.cert), a.cert...)
				der, _, err := x509certs.DecodeBlock(a.cert)
				require.NoError(t, err)
				out, err = transform(t, b, model.EncodingDER, &model.FileSlot{Data: chain})
				require.NoError(t, err)
				assert.Equal(t, append(bytes.Clone(der), der...), out.TransformFiles[0].Data)
			},
		},
		{
			name: "Encrypted Input",
			testFunc: func(t *testing.T) {
				sealed, err := fastEngine.EncryptBytes(a.key, []byte("secret"), crypt.AES256GCM)
				require.NoError(t, err)

				out, err := transform(t, b, model.EncodingPEM,
					&model.FileSlot{Data: crypt.ArmorPEM(sealed), Password: password("secret")})
				require.NoError(t, err)
				assert.Equal(t, a.key, out.TransformFiles[0].Data)

				_, err = transform(t, b, model.EncodingPEM,
					&model.FileSlot{Data: sealed, Password: password("wrong")})
				requireKind(t, err, builder.DecryptionError)
			},
		},
		{
			name: "Encrypted Output",
			testFunc: func(t *testing.T) {
				out, err := b.Build(context.Background(), &model.Config{
					Mode:           model.ModeTransform,
					Transform:      &model.TransformSpec{Inputs: []*model.FileSlot{{Data: a.cert}}, Encoding: model.EncodingDER},
					TransformFiles: []*model.FileSlot{{Password: password("secret")}},
				}, nil)
				require.NoError(t, err)

				envelope := out.TransformFiles[0].Data
				require.True(t, crypt.IsEnvelope(envelope), "DER slots hold a binary envelope")
				plain, err := fastEngine.DecryptBytes(envelope, []byte("secret"))
				require.NoError(t, err)
				der, _, err := x509certs.DecodeBlock(a.cert)
				require.NoError(t, err)
				assert.Equal(t, der, plain)
			},
		},
		{
			name: "Files",
			testFunc: func(t *testing.T) {
				dir := t.TempDir()
				in := filepath.Join(dir, "ca.pem")
				require.NoError(t, os.WriteFile(in, a.cert, 0o600))
				dst := filepath.Join(dir, "ca.der")

				out, err := b.Build(context.Background(), &model.Config{
					Mode:           model.ModeTransform,
					Transform:      &model.TransformSpec{Inputs: []*model.FileSlot{{FileName: in}}, Encoding: model.EncodingDER},
					TransformFiles: []*model.FileSlot{{FileName: dst}},
				}, nil)
				require.NoError(t, err)

				written, err := os.ReadFile(dst)
				require.NoError(t, err)
				assert.Equal(t, out.TransformFiles[0].Data, written)
			},
		},
		{
			name: "Input Size Limit",
			testFunc: func(t *testing.T) {
				small := builder.NewTransformBuilder(testOptions(builder.WithMaxInput(64))...)
				_, err := transform(t, small, model.EncodingDER, &model.FileSlot{Data: a.cert})
				e := requireKind(t, err, builder.InvalidArgumentError)
				assert.Equal(t, "transform.inputs[0]", e.Field)
			},
		},
		{
			name: "Unrecognized Input",
			testFunc: func(t *testing.T) {
				_, err := transform(t, b, model.EncodingPEM, &model.FileSlot{Data: []byte("not an artifact")})
				e := requireKind(t, err, builder.InvalidArgumentError)
				assert.ErrorIs(t, e, x509certs.ErrUnknownArtifact)
			},
		},
		{
			name: "Missing Input File",
			testFunc: func(t *testing.T) {
				missing := filepath.Join(t.TempDir(), "absent.pem")
				_, err := transform(t, b, model.EncodingPEM, &model.FileSlot{FileName: missing})
				e := requireKind(t, err, builder.UnspecifiedError)
				assert.ErrorIs(t, e, os.ErrNotExist)
				assert.Contains(t, e.Op, "read ")

				problem := builder.ProblemOf(err)
				assert.Equal(t, 500, problem.Status)
				assert.NotContains(t, problem.Detail, missing)
			},
		},
		{
			name: "Too Many Output Slots",
			testFunc: func(t *testing.T) {
				_, err := b.Build(context.Background(), &model.Config{
					Mode:           model.ModeTransform,
					Transform:      &model.TransformSpec{Inputs: []*model.FileSlot{{Data: a.cert}}},
					TransformFiles: []*model.FileSlot{{}, {}},
				}, nil)
				e := requireKind(t, err, builder.InvalidArgumentError)
				assert.Equal(t, "transformFiles", e.Field)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestCommit(t *testing.T) {
	ctx := context.Background()
	b := builder.NewKeyPairBuilder(testOptions()...)

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Writes Every File",
			testFunc: func(t *testing.T) {
				dir := t.TempDir()
				out, err := b.Build(ctx, &model.Config{
					Mode:           model.ModeKeyPair,
					KeyPair:        ecKeyPair(),
					PrivateKeyFile: &model.FileSlot{FileName: filepath.Join(dir, "key.pem")},
					PublicKeyFile:  &model.FileSlot{FileName: filepath.Join(dir, "pub.der"), Encoding: model.EncodingDER},
				}, nil)
				require.NoError(t, err)

				for _, slot := range []*model.FileSlot{out.PrivateKeyFile, out.PublicKeyFile} {
					written, err := os.ReadFile(slot.FileName)
					require.NoError(t, err)
					assert.Equal(t, slot.Data, written)
				}
				entries, err := os.ReadDir(dir)
				require.NoError(t, err)
				assert.Len(t, entries, 2, "no staging files are left behind")
			},
		},
		{
			name: "Nothing Written On Failure",
			testFunc: func(t *testing.T) {
				dir := t.TempDir()
				keyFile := filepath.Join(dir, "key.pem")
				_, err := b.Build(ctx, &model.Config{
					Mode:           model.ModeKeyPair,
					KeyPair:        ecKeyPair(),
					PrivateKeyFile: &model.FileSlot{FileName: keyFile},
					PublicKeyFile:  &model.FileSlot{FileName: filepath.Join(dir, "missing", "pub.pem")},
				}, nil)
				e := requireKind(t, err, builder.UnspecifiedError)
				assert.Equal(t, "write publicKeyFile", e.Op)
				assert.ErrorIs(t, e, os.ErrNotExist)

				problem := builder.ProblemOf(err)
				assert.Equal(t, 500, problem.Status)
				assert.NotContains(t, problem.Detail, dir)

				assert.NoFileExists(t, keyFile)
				entries, err := os.ReadDir(dir)
				require.NoError(t, err)
				assert.Empty(t, entries)
			},
		},
		{
			name: "Existing File Is Replaced",
			testFunc: func(t *testing.T) {
				keyFile := filepath.Join(t.TempDir(), "key.pem")
				require.NoError(t, os.WriteFile(keyFile, []byte("stale"), 0o600))

				out, err := b.Build(ctx, &model.Config{
					Mode:           model.ModePrivateKey,
					KeyPair:        ecKeyPair(),
					PrivateKeyFile: &model.FileSlot{FileName: keyFile},
				}, nil)
				require.NoError(t, err)
				written, err := os.ReadFile(keyFile)
				require.NoError(t, err)
				assert.Equal(t, out.PrivateKeyFile.Data, written)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}
