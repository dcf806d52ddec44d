// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs_test

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	caKey    crypto.Signer
	caCert   *x509.Certificate
	leafKey  crypto.Signer
	leafCert *x509.Certificate
	csrDER   []byte
	crlDER   []byte
}

func newECKey(t *testing.T) crypto.Signer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err, "failed to generate key")
	return key
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{caKey: newECKey(t), leafKey: newECKey(t)}
	now := time.Now().Truncate(time.Second)

	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "ca", Organization: []string{"Example"}},
		NotBefore:             now,
		NotAfter:              now.Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            1,
		SubjectKeyId:          []byte{1, 2, 3, 4},
	}
	der, err := x509.CreateCertificate(rand.Reader, caTmpl, caTmpl, f.caKey.Public(), f.caKey)
	require.NoError(t, err, "failed to create CA certificate")
	f.caCert, err = x509.ParseCertificate(der)
	require.NoError(t, err)

	leafTmpl := &x509.Certificate{
		SerialNumber: big.NewInt(0x1234),
		Subject:      pkix.Name{CommonName: "leaf"},
		NotBefore:    now,
		NotAfter:     now.Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"leaf.example.com"},
		IPAddresses:  []net.IP{net.ParseIP("192.0.2.1")},
	}
	der, err = x509.CreateCertificate(rand.Reader, leafTmpl, f.caCert, f.leafKey.Public(), f.caKey)
	require.NoError(t, err, "failed to create leaf certificate")
	f.leafCert, err = x509.ParseCertificate(der)
	require.NoError(t, err)

	f.csrDER, err = x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{
		Subject:  pkix.Name{CommonName: "leaf"},
		DNSNames: []string{"leaf.example.com"},
	}, f.leafKey)
	require.NoError(t, err, "failed to create certificate request")

	f.crlDER, err = x509.CreateRevocationList(rand.Reader, &x509.RevocationList{
		Number:     big.NewInt(7),
		ThisUpdate: now,
		NextUpdate: now.Add(time.Hour),
		RevokedCertificateEntries: []x509.RevocationListEntry{
			{SerialNumber: big.NewInt(0x1234), RevocationTime: now, ReasonCode: 1},
		},
	}, f.caCert, f.caKey)
	require.NoError(t, err, "failed to create revocation list")

	return f
}
