// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs_test

import (
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509certs "github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/x509/certs"
)

func TestCertificateOperations(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		testFunc func(t *testing.T, decoder *x509certs.Certificate, testCert *x509.Certificate)
	}{
		{
			name: "Decode Multiple Certificates",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate, cert *x509.Certificate) {
				certs, err := decoder.DecodeMultiple(decoder.EncodePEM(cert))
				require.NoError(t, err, "DecodeMultiple() error")

				assert.Len(t, certs, 1, "expected 1 certificate")
			},
		},
		{
			name: "Encode Certificate to DER",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate, cert *x509.Certificate) {
				encodedDER := decoder.EncodeDER(cert)
				assert.NotEmpty(t, encodedDER, "EncodeDER() returned empty result")

				assert.True(t, x509CertEqual(cert, encodedDER), "original and encoded DER certificates are not equal")
			},
		},
		{
			name: "Encode Single Certificate to PEM",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate, cert *x509.Certificate) {
				encoded := decoder.EncodeMultiplePEM([]*x509.Certificate{cert})
				assert.NotEmpty(t, encoded, "EncodeMultiplePEM() returned empty result")

				decodedBlock, _ := pem.Decode(encoded)
				require.NotNil(t, decodedBlock, "failed to decode encoded certificates PEM")

				decodedCert, err := x509.ParseCertificate(decodedBlock.Bytes)
				require.NoError(t, err, "ParseCertificate() error")

				assert.True(t, cert.Equal(decodedCert), "original and decoded certificates are not equal")
			},
		},
		{
			name: "Decode Certificate",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate, cert *x509.Certificate) {
				decoded, err := decoder.Decode(decoder.EncodePEM(cert))
				require.NoError(t, err, "Decode() error")

				assert.Equal(t, "leaf", decoded.Subject.CommonName, "expected CommonName leaf")
			},
		},
		{
			name: "DER to PEM to DER Round Trip",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate, cert *x509.Certificate) {
				der := decoder.EncodeDER(cert)
				fromPEM, err := decoder.Decode(decoder.EncodePEM(cert))
				require.NoError(t, err, "Decode() error")

				assert.Equal(t, der, decoder.EncodeDER(fromPEM), "DER changed across the PEM round trip")
			},
		},
	}

	decoder := x509certs.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t, decoder, f.leafCert)
		})
	}
}

func x509CertEqual(cert *x509.Certificate, derBytes []byte) bool {
	parsedCert, err := x509.ParseCertificate(derBytes)
	if err != nil {
		return false
	}
	return cert.Equal(parsedCert)
}

const (
	invalidPEM = `
-----BEGIN INVALID-----
MIIEmTCCBD+gAwIBAgIRANFjRCmF+Y2bUYHbhxwkEpowCgYIKoZIzj0EAwIwgY8x
-----END INVALID-----
`

	invalidCERT = `
-----BEGIN CERTIFICATE-----
MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEAz6e5VV5F8rF2sFJ0Q4vA
-----END CERTIFICATE-----
`
)

// emptyBundle is a degenerate PKCS7 SignedData whose certificate set is empty.
var emptyBundle, _ = hex.DecodeString("302706092a864886f70d010702a01a30180201013100300b06092a864886f70d010701a000a1003100")

func TestDecodeCertificate_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected error
	}{
		{
			name:     "Invalid PEM Block",
			input:    invalidPEM,
			expected: x509certs.ErrInvalidBlockType,
		},
		{
			name:     "Invalid Certificate",
			input:    invalidCERT,
			expected: x509certs.ErrParseCertificate,
		},
		{
			name:     "Invalid DER Data",
			input:    "not a certificate",
			expected: x509certs.ErrParseCertificate,
		},
		{
			name:     "PKCS7 Without Certificates",
			input:    string(emptyBundle),
			expected: x509certs.ErrNoCertificatesInPKCS,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoder := x509certs.New()
			_, err := decoder.Decode([]byte(tt.input))
			assert.Equal(t, tt.expected, err, "expected specific error")
		})
	}
}

func TestCertificate_IsPEM(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		input    []byte
		expected bool
	}{
		{
			name:     "Valid PEM",
			input:    x509certs.New().EncodePEM(f.leafCert),
			expected: true,
		},
		{
			name:     "Invalid PEM",
			input:    []byte("not a pem block"),
			expected: false,
		},
		{
			name:     "Empty Input",
			input:    []byte(""),
			expected: false,
		},
		{
			name:     "PEM-like but invalid base64",
			input:    []byte("-----BEGIN CERTIFICATE-----\ninvalid-base64\n-----END CERTIFICATE-----"),
			expected: false, // pem.Decode fails on invalid base64
		},
		{
			name:     "DER format (binary)",
			input:    f.leafCert.Raw,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, x509certs.IsPEM(tt.input), "IsPEM() result incorrect")
		})
	}
}

func TestCertificate_DecodeMultiple(t *testing.T) {
	f := newFixture(t)
	decoder := x509certs.New()
	chain := []*x509.Certificate{f.leafCert, f.caCert}

	tests := []struct {
		name        string
		input       []byte
		expectCount int
		expectError error
	}{
		{
			name:        "Single PEM Certificate",
			input:       decoder.EncodePEM(f.leafCert),
			expectCount: 1,
		},
		{
			name:        "Multiple PEM Certificates",
			input:       decoder.EncodeMultiplePEM(chain),
			expectCount: 2,
		},
		{
			name:        "Concatenated DER",
			input:       decoder.EncodeMultipleDER(chain),
			expectCount: 2,
		},
		{
			name:        "Invalid PEM Type",
			input:       []byte(invalidPEM),
			expectError: x509certs.ErrInvalidBlockType,
		},
		{
			name:        "Invalid Certificate Data",
			input:       []byte(invalidCERT),
			expectError: x509certs.ErrParseCertificate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certs, err := decoder.DecodeMultiple(tt.input)

			if tt.expectError != nil {
				assert.Equal(t, tt.expectError, err, "expected specific error")
				return
			}

			require.NoError(t, err, "unexpected error")
			assert.Len(t, certs, tt.expectCount, "expected correct number of certificates")
		})
	}
}

func TestDecodeBlock(t *testing.T) {
	f := newFixture(t)
	certPEM := x509certs.EncodeBlock(x509certs.BlockCertificate, f.leafCert.Raw)

	der, typ, err := x509certs.DecodeBlock(certPEM, x509certs.BlockCertificate)
	require.NoError(t, err)
	assert.Equal(t, x509certs.BlockCertificate, typ)
	assert.Equal(t, f.leafCert.Raw, der)

	der, typ, err = x509certs.DecodeBlock(f.leafCert.Raw, x509certs.BlockCRL)
	require.NoError(t, err, "binary input is passed through")
	assert.Empty(t, typ)
	assert.Equal(t, f.leafCert.Raw, der)

	_, typ, err = x509certs.DecodeBlock(certPEM, x509certs.BlockCRL)
	assert.ErrorIs(t, err, x509certs.ErrInvalidBlockType)
	assert.Equal(t, x509certs.BlockCertificate, typ)
}
