// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package builder_test

import (
	"bytes"
	"context"
	"crypto/x509"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/builder"
	x509certs "github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/logger"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
)

func TestCertBuilder_SelfSigned(t *testing.T) {
	ctx := context.Background()
	b := builder.NewCertBuilder(testOptions()...)

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Certificate Authority",
			testFunc: func(t *testing.T) {
				out, err := b.Build(ctx, &model.Config{
					Mode:        model.ModeCertificate,
					SubjectName: &model.SubjectName{Organization: "Example", CommonName: "Root"},
					KeyPair:     ecKeyPair(),
					Extensions:  caExtensions(),
				}, nil)
				require.NoError(t, err)

				cert := parseCert(t, out.CertFile.Data)
				assert.Equal(t, cert.RawSubject, cert.RawIssuer)
				assert.Equal(t, "Root", cert.Subject.CommonName)
				assert.True(t, cert.BasicConstraintsValid)
				assert.True(t, cert.IsCA)
				assert.Equal(t, 0, cert.MaxPathLen)
				assert.True(t, cert.MaxPathLenZero)
				assert.Equal(t, x509.KeyUsageCertSign|x509.KeyUsageCRLSign, cert.KeyUsage)
				assert.Equal(t, x509.ECDSAWithSHA256, cert.SignatureAlgorithm)
				require.NoError(t, cert.CheckSignatureFrom(cert))

				key := parseKey(t, out.PrivateKeyFile.Data)
				keyID, err := x509certs.KeyID(key.Public())
				require.NoError(t, err)
				assert.Equal(t, keyID, cert.SubjectKeyId)
				assert.Equal(t, keyID, cert.AuthorityKeyId)

				assert.Equal(t, testNow, cert.NotBefore)
				assert.Equal(t, testNow.AddDate(0, 0, model.DefaultValidityDays), cert.NotAfter)
				assert.Positive(t, cert.SerialNumber.Sign())
				assert.LessOrEqual(t, len(cert.SerialNumber.Bytes()), builder.MaxSerialOctets)
			},
		},
		{
			name: "Explicit Validity And Serial",
			testFunc: func(t *testing.T) {
				notBefore := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
				out, err := b.Build(ctx, &model.Config{
					Mode:         model.ModeCertificate,
					SubjectName:  &model.SubjectName{CommonName: "leaf"},
					KeyPair:      ecKeyPair(),
					Validity:     &model.Validity{NotBefore: &notBefore, Days: 30},
					SerialNumber: model.NewBigInt(0x1234),
				}, nil)
				require.NoError(t, err)

				cert := parseCert(t, out.CertFile.Data)
				assert.Equal(t, notBefore, cert.NotBefore)
				assert.Equal(t, notBefore.AddDate(0, 0, 30), cert.NotAfter)
				assert.Equal(t, big.NewInt(0x1234), cert.SerialNumber)
				assert.False(t, cert.BasicConstraintsValid)
			},
		},
		{
			name: "Supplied Key Is Not Exported",
			testFunc: func(t *testing.T) {
				keyPEM := mustKeyPEM(t, builder.NewKeyPairBuilder(testOptions()...))
				out, err := b.Build(ctx, &model.Config{
					Mode:        model.ModeCertificate,
					SubjectName: &model.SubjectName{CommonName: "leaf"},
					KeyPair:     &model.KeyPairSpec{PrivateKey: &model.FileSlot{Data: keyPEM}},
				}, nil)
				require.NoError(t, err)

				cert := parseCert(t, out.CertFile.Data)
				assert.True(t, x509certs.PublicKeyEqual(parseKey(t, keyPEM).Public(), cert.PublicKey))
				assert.Nil(t, out.PrivateKeyFile)
			},
		},
		{
			name: "Configured Key Identifiers Win",
			testFunc: func(t *testing.T) {
				out, err := b.Build(ctx, &model.Config{
					Mode:        model.ModeCertificate,
					SubjectName: &model.SubjectName{CommonName: "leaf"},
					KeyPair:     ecKeyPair(),
					Extensions: &model.Extensions{
						SubjectKeyIdentifier:   &model.KeyIdentifier{Value: []byte{0xaa, 0xbb}},
						AuthorityKeyIdentifier: &model.KeyIdentifier{Value: []byte{0xcc}},
					},
				}, nil)
				require.NoError(t, err)

				cert := parseCert(t, out.CertFile.Data)
				assert.Equal(t, []byte{0xaa, 0xbb}, cert.SubjectKeyId)
				assert.Equal(t, []byte{0xcc}, cert.AuthorityKeyId)
			},
		},
		{
			name: "Oversized Serial Is Logged",
			testFunc: func(t *testing.T) {
				var logs bytes.Buffer
				lb := builder.NewCertBuilder(testOptions(builder.WithLogger(logger.NewJSONLogger(&logs, false)))...)

				serial := new(big.Int).Lsh(big.NewInt(1), 200)
				out, err := lb.Build(ctx, &model.Config{
					Mode:         model.ModeCertificate,
					SubjectName:  &model.SubjectName{CommonName: "long serial"},
					KeyPair:      ecKeyPair(),
					SerialNumber: model.BigIntFrom(serial),
				}, nil)
				require.NoError(t, err)

				assert.Equal(t, serial, parseCert(t, out.CertFile.Data).SerialNumber)
				assert.Contains(t, logs.String(), `"level":"warn"`)
				assert.Contains(t, logs.String(), "RFC 5280 allows at most 20")
			},
		},
		{
			name: "Non-Positive Serial",
			testFunc: func(t *testing.T) {
				_, err := b.Build(ctx, &model.Config{
					Mode:         model.ModeCertificate,
					SubjectName:  &model.SubjectName{CommonName: "zero"},
					KeyPair:      ecKeyPair(),
					SerialNumber: model.NewBigInt(0),
				}, nil)
				e := requireKind(t, err, builder.InvalidArgumentError)
				assert.Equal(t, "serialNumber", e.Field)
			},
		},
		{
			name: "Key Store Export",
			testFunc: func(t *testing.T) {
				out, err := b.Build(ctx, &model.Config{
					Mode:        model.ModeCertificate,
					SubjectName: &model.SubjectName{CommonName: "stored"},
					KeyPair:     ecKeyPair(),
					StoreFile:   &model.FileSlot{Password: password("changeit")},
				}, nil)
				require.NoError(t, err)
				assert.Equal(t, model.EncodingDER, out.StoreFile.Encoding)

				store, err := x509certs.DecodeStore(out.StoreFile.Data, "changeit", "")
				require.NoError(t, err)
				assert.Equal(t, parseCert(t, out.CertFile.Data).Raw, store.Certificate.Raw)
				assert.True(t, x509certs.PublicKeyEqual(parseKey(t, out.PrivateKeyFile.Data).Public(), store.Key.Public()))
				assert.Empty(t, store.CACerts)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestCertBuilder_BasicConstraints(t *testing.T) {
	ctx := context.Background()
	b := builder.NewCertBuilder(testOptions()...)
	intPtr := func(v int) *int { return &v }

	tests := []struct {
		name        string
		input       *model.BasicConstraints
		wantCA      bool
		wantPathLen int
		wantZero    bool
	}{
		{"End Entity", &model.BasicConstraints{}, false, -1, false},
		{"CA Unbounded", &model.BasicConstraints{CA: true}, true, -1, false},
		{"CA Path Length Zero", &model.BasicConstraints{CA: true, PathLength: intPtr(0)}, true, 0, true},
		{"CA Path Length Two", &model.BasicConstraints{CA: true, PathLength: intPtr(2), Critical: true}, true, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := b.Build(ctx, &model.Config{
				Mode:        model.ModeCertificate,
				SubjectName: &model.SubjectName{CommonName: tt.name},
				KeyPair:     ecKeyPair(),
				Extensions:  &model.Extensions{BasicConstraints: tt.input},
			}, nil)
			require.NoError(t, err)

			cert := parseCert(t, out.CertFile.Data)
			assert.True(t, cert.BasicConstraintsValid)
			assert.Equal(t, tt.wantCA, cert.IsCA)
			assert.Equal(t, tt.wantPathLen, cert.MaxPathLen)
			assert.Equal(t, tt.wantZero, cert.MaxPathLenZero)
		})
	}
}

func TestCertBuilder_Issued(t *testing.T) {
	ctx := context.Background()
	b := builder.NewCertBuilder(testOptions()...)
	ca := newAuthority(t)

	csrPEM, csrKeyPEM := newRequest(t, &model.SubjectName{Organization: "Example", CommonName: "svc.example.com"},
		&model.Extensions{
			SubjectAlternativeName: &model.SubjectAlternativeName{Names: []model.GeneralName{
				{Type: "dns", Value: "svc.example.com"},
			}},
			ExtendedKeyUsage: &model.ExtendedKeyUsage{Usages: []string{"serverAuth"}},
		})
	csrKey := parseKey(t, csrKeyPEM)

	issue := func(t *testing.T, cfg *model.Config) (*model.Config, error) {
		t.Helper()
		cfg.Mode = model.ModeCertificate
		if cfg.Issuer == nil {
			cfg.Issuer = ca.issuer()
		}
		if cfg.CsrFile == nil {
			cfg.CsrFile = &model.FileSlot{Data: csrPEM}
		}
		return b.Build(ctx, cfg, nil)
	}

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Chains To Issuer",
			testFunc: func(t *testing.T) {
				out, err := issue(t, &model.Config{
					SerialNumber: model.NewBigInt(0x1234),
					Validity:     &model.Validity{Days: 30},
				})
				require.NoError(t, err)

				cert := parseCert(t, out.CertFile.Data)
				assert.Equal(t, "svc.example.com", cert.Subject.CommonName)
				assert.Equal(t, ca.cert.RawSubject, cert.RawIssuer)
				assert.Equal(t, ca.cert.SubjectKeyId, cert.AuthorityKeyId)
				assert.Equal(t, big.NewInt(0x1234), cert.SerialNumber)
				assert.True(t, x509certs.PublicKeyEqual(csrKey.Public(), cert.PublicKey))
				assert.Equal(t, testNow.AddDate(0, 0, 30), cert.NotAfter)

				keyID, err := x509certs.KeyID(csrKey.Public())
				require.NoError(t, err)
				assert.Equal(t, keyID, cert.SubjectKeyId)

				roots := x509.NewCertPool()
				roots.AddCert(ca.cert)
				_, err = cert.Verify(x509.VerifyOptions{
					Roots:       roots,
					CurrentTime: testNow.Add(time.Hour),
					KeyUsages:   []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
				})
				require.NoError(t, err)

				assert.Nil(t, out.PrivateKeyFile, "CA issuance does not produce a subject key")
			},
		},
		{
			name: "Request Extensions Need Import",
			testFunc: func(t *testing.T) {
				out, err := issue(t, &model.Config{})
				require.NoError(t, err)
				assert.Empty(t, parseCert(t, out.CertFile.Data).DNSNames)

				out, err = issue(t, &model.Config{Csr: &model.CsrOptions{ImportExtensions: true}})
				require.NoError(t, err)
				cert := parseCert(t, out.CertFile.Data)
				assert.Equal(t, []string{"svc.example.com"}, cert.DNSNames)
				assert.Equal(t, []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}, cert.ExtKeyUsage)
			},
		},
		{
			name: "Configured Extensions Win Over Request",
			testFunc: func(t *testing.T) {
				out, err := issue(t, &model.Config{
					Csr: &model.CsrOptions{ImportExtensions: true},
					Extensions: &model.Extensions{
						SubjectAlternativeName: &model.SubjectAlternativeName{Names: []model.GeneralName{
							{Type: "dns", Value: "override.example.com"},
						}},
					},
				})
				require.NoError(t, err)
				cert := parseCert(t, out.CertFile.Data)
				assert.Equal(t, []string{"override.example.com"}, cert.DNSNames)
				assert.Equal(t, []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}, cert.ExtKeyUsage)
			},
		},
		{
			name: "Subject Override",
			testFunc: func(t *testing.T) {
				out, err := issue(t, &model.Config{SubjectName: &model.SubjectName{CommonName: "renamed"}})
				require.NoError(t, err)
				cert := parseCert(t, out.CertFile.Data)
				assert.Equal(t, "renamed", cert.Subject.CommonName)
				assert.Empty(t, cert.Subject.Organization)
			},
		},
		{
			name: "Issuer Hash",
			testFunc: func(t *testing.T) {
				is := ca.issuer()
				is.HashAlgorithm = "SHA-512"
				out, err := issue(t, &model.Config{Issuer: is})
				require.NoError(t, err)
				assert.Equal(t, x509.ECDSAWithSHA512, parseCert(t, out.CertFile.Data).SignatureAlgorithm)
			},
		},
		{
			name: "Tampered Request",
			testFunc: func(t *testing.T) {
				der, _, err := x509certs.DecodeBlock(csrPEM)
				require.NoError(t, err)
				tampered := bytes.Clone(der)
				tampered[len(tampered)-1] ^= 0xff

				_, err = issue(t, &model.Config{CsrFile: &model.FileSlot{Data: tampered}})
				e := requireKind(t, err, builder.InvalidArgumentError)
				assert.Equal(t, "csrFile", e.Field)

				_, err = issue(t, &model.Config{
					CsrFile: &model.FileSlot{Data: tampered},
					Csr:     &model.CsrOptions{SkipSignatureValidation: true},
				})
				assert.NoError(t, err)
			},
		},
		{
			name: "Issuer Key Mismatch",
			testFunc: func(t *testing.T) {
				is := ca.issuer()
				is.PrivateKey = &model.FileSlot{Data: csrKeyPEM}
				_, err := issue(t, &model.Config{Issuer: is})
				e := requireKind(t, err, builder.InvalidArgumentError)
				assert.Equal(t, "issuer.privateKey", e.Field)
			},
		},
		{
			name: "Issuer From Store",
			testFunc: func(t *testing.T) {
				store, err := x509certs.EncodeStore(ca.key, ca.cert, nil, "changeit")
				require.NoError(t, err)

				out, err := issue(t, &model.Config{Issuer: &model.IssuerSpec{
					Store: &model.FileSlot{Data: store, Password: password("changeit")},
				}})
				require.NoError(t, err)
				assert.Equal(t, ca.cert.RawSubject, parseCert(t, out.CertFile.Data).RawIssuer)

				_, err = issue(t, &model.Config{Issuer: &model.IssuerSpec{
					Store: &model.FileSlot{Data: store, Password: password("wrong")},
				}})
				requireKind(t, err, builder.DecryptionError)

				_, err = issue(t, &model.Config{Issuer: &model.IssuerSpec{
					Store:      &model.FileSlot{Data: store, Password: password("changeit")},
					StoreAlias: "ca",
				}})
				e := requireKind(t, err, builder.InvalidArgumentError)
				assert.Equal(t, "issuer.storeAlias", e.Field)
			},
		},
		{
			name: "Key Store With Chain",
			testFunc: func(t *testing.T) {
				out, err := issue(t, &model.Config{
					KeyPair:   &model.KeyPairSpec{PrivateKey: &model.FileSlot{Data: csrKeyPEM}},
					StoreFile: &model.FileSlot{Password: password("changeit")},
				})
				require.NoError(t, err)

				store, err := x509certs.DecodeStore(out.StoreFile.Data, "changeit", "")
				require.NoError(t, err)
				assert.Equal(t, parseCert(t, out.CertFile.Data).Raw, store.Certificate.Raw)
				require.Len(t, store.CACerts, 1)
				assert.Equal(t, ca.cert.Raw, store.CACerts[0].Raw)
			},
		},
		{
			name: "Key Store Needs Subject Key",
			testFunc: func(t *testing.T) {
				_, err := issue(t, &model.Config{StoreFile: &model.FileSlot{Password: password("changeit")}})
				e := requireKind(t, err, builder.InvalidArgumentError)
				assert.Equal(t, "storeFile", e.Field)

				_, err = issue(t, &model.Config{
					KeyPair:   &model.KeyPairSpec{PrivateKey: &model.FileSlot{Data: ca.keyPEM}},
					StoreFile: &model.FileSlot{Password: password("changeit")},
				})
				e = requireKind(t, err, builder.InvalidArgumentError)
				assert.Equal(t, "keyPair.privateKey", e.Field)
			},
		},
		{
			name: "Request Required",
			testFunc: func(t *testing.T) {
				_, err := b.Build(ctx, &model.Config{Mode: model.ModeCertificate, Issuer: ca.issuer()}, nil)
				e := requireKind(t, err, builder.InvalidArgumentError)
				assert.Equal(t, "csrFile", e.Field)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}
