// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package builder_test

import (
	"context"
	"crypto"
	"crypto/x509"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/builder"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/crypt"
	x509certs "github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
)

var testNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

// fastEngine keeps password envelopes cheap in tests.
var fastEngine = &crypt.Engine{Iterations: 1000, SaltSize: 16, ChunkSize: 64}

func testOptions(extra ...builder.Option) []builder.Option {
	return append([]builder.Option{
		builder.WithEngine(fastEngine),
		builder.WithClock(func() time.Time { return testNow }),
	}, extra...)
}

func password(s string) *string { return &s }

func ecKeyPair() *model.KeyPairSpec {
	return &model.KeyPairSpec{Algorithm: model.KeyAlgorithmECDSA, Curve: model.CurveP256}
}

// authority is a self-signed CA built through the certificate builder.
type authority struct {
	cert    *x509.Certificate
	key     crypto.Signer
	certPEM []byte
	keyPEM  []byte
}

func (a *authority) issuer() *model.IssuerSpec {
	return &model.IssuerSpec{
		PrivateKey:  &model.FileSlot{Data: a.keyPEM},
		Certificate: &model.FileSlot{Data: a.certPEM},
	}
}

func caExtensions() *model.Extensions {
	pathLen := 0
	return &model.Extensions{
		BasicConstraints: &model.BasicConstraints{Critical: true, CA: true, PathLength: &pathLen},
		KeyUsage:         &model.KeyUsage{Critical: true, Usages: []string{"keyCertSign", "cRLSign"}},
	}
}

func newAuthority(t *testing.T) *authority {
	t.Helper()
	out, err := builder.NewCertBuilder(testOptions()...).Build(context.Background(), &model.Config{
		Mode:        model.ModeCertificate,
		SubjectName: &model.SubjectName{Organization: "Example", CommonName: "Test CA"},
		KeyPair:     ecKeyPair(),
		Extensions:  caExtensions(),
	}, nil)
	require.NoError(t, err, "failed to build CA")

	return &authority{
		cert:    parseCert(t, out.CertFile.Data),
		key:     parseKey(t, out.PrivateKeyFile.Data),
		certPEM: out.CertFile.Data,
		keyPEM:  out.PrivateKeyFile.Data,
	}
}

// newRequest builds an ECDSA certificate request and returns it with its key.
func newRequest(t *testing.T, subject *model.SubjectName, exts *model.Extensions) (csrPEM, keyPEM []byte) {
	t.Helper()
	out, err := builder.NewCSRBuilder(testOptions()...).Build(context.Background(), &model.Config{
		Mode:        model.ModeCertificateSigningRequest,
		SubjectName: subject,
		KeyPair:     ecKeyPair(),
		Extensions:  exts,
	}, nil)
	require.NoError(t, err, "failed to build request")
	return out.CsrFile.Data, out.PrivateKeyFile.Data
}

func parseCert(t *testing.T, data []byte) *x509.Certificate {
	t.Helper()
	der, _, err := x509certs.DecodeBlock(data, x509certs.BlockCertificate)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err, "failed to parse certificate")
	return cert
}

func parseRequest(t *testing.T, data []byte) *x509.CertificateRequest {
	t.Helper()
	der, _, err := x509certs.DecodeBlock(data, x509certs.BlockCertificateRequest)
	require.NoError(t, err)
	req, err := x509.ParseCertificateRequest(der)
	require.NoError(t, err, "failed to parse request")
	return req
}

func parseKey(t *testing.T, data []byte) crypto.Signer {
	t.Helper()
	key, err := x509certs.ParsePrivateKey(data, nil)
	require.NoError(t, err, "failed to parse private key")
	return key
}

// requireKind asserts that err is a builder error of the given kind.
func requireKind(t *testing.T, err error, kind builder.ErrorKind) *builder.Error {
	t.Helper()
	require.Error(t, err)
	var e *builder.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, kind, e.Kind, "unexpected kind for %v", err)
	return e
}
