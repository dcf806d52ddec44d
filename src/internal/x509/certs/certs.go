// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"errors"

	"github.com/cloudflare/cfssl/crypto/pkcs7"
)

// PEM block types produced and recognized by this package.
const (
	BlockCertificate         = "CERTIFICATE"
	BlockCertificateRequest  = "CERTIFICATE REQUEST"
	BlockNewCertificateReq   = "NEW CERTIFICATE REQUEST"
	BlockCRL                 = "X509 CRL"
	BlockPrivateKey          = "PRIVATE KEY"
	BlockEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
	BlockRSAPrivateKey       = "RSA PRIVATE KEY"
	BlockECPrivateKey        = "EC PRIVATE KEY"
	BlockPublicKey           = "PUBLIC KEY"
	BlockRSAPublicKey        = "RSA PUBLIC KEY"
	BlockPKCS7               = "PKCS7"
)

var (
	// ErrInvalidPEMBlock indicates that the provided data does not contain a valid PEM block.
	ErrInvalidPEMBlock = errors.New("x509certs: invalid PEM block")

	// ErrInvalidBlockType indicates that the PEM block type is not the expected type.
	ErrInvalidBlockType = errors.New("x509certs: invalid block type")

	// ErrParseCertificate indicates a failure to parse the certificate from the provided data.
	ErrParseCertificate = errors.New("x509certs: failed to parse certificate")

	// ErrParsePKCS7 indicates a failure to parse PKCS7 formatted data.
	ErrParsePKCS7 = errors.New("x509certs: failed to parse PKCS7 data")

	// ErrNoCertificatesInPKCS indicates that no certificates were found in the PKCS7 data.
	ErrNoCertificatesInPKCS = errors.New("x509certs: no certificates found in PKCS7 data")
)

// Certificate provides methods to decode and encode [X.509] certificates.
// It maintains internal configuration such as the certificate block type.
//
// [X.509]: https://en.wikipedia.org/wiki/X.509
type Certificate struct {
	certBlockType string
}

// New creates a new Certificate with default settings.
func New() *Certificate {
	return &Certificate{
		certBlockType: BlockCertificate,
	}
}

// IsPEM checks if the data is in PEM format.
func IsPEM(data []byte) bool {
	block, _ := pem.Decode(bytes.TrimSpace(data))
	return block != nil
}

// IsPEM checks if the data is in PEM format.
func (c *Certificate) IsPEM(data []byte) bool { return IsPEM(data) }

// decodePEMBlock decodes a PEM block and checks its type.
func (c *Certificate) decodePEMBlock(data []byte) (*pem.Block, error) {
	block, _ := pem.Decode(bytes.TrimSpace(data))
	if block == nil {
		return nil, ErrInvalidPEMBlock
	}
	if block.Type != c.certBlockType {
		return nil, ErrInvalidBlockType
	}
	return block, nil
}

// DecodeMultiple decodes one or more certificates from data. PEM input may hold
// several CERTIFICATE blocks; DER input may hold concatenated certificates or a
// PKCS7 bundle.
func (c *Certificate) DecodeMultiple(data []byte) ([]*x509.Certificate, error) {
	if c.IsPEM(data) {
		var certs []*x509.Certificate

		data = bytes.TrimSpace(data)
		for len(data) > 0 {
			block, rest := pem.Decode(data)
			if block == nil {
				break
			}
			if block.Type != c.certBlockType {
				return nil, ErrInvalidBlockType
			}

			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, ErrParseCertificate
			}

			certs = append(certs, cert)
			data = bytes.TrimSpace(rest)
		}

		return certs, nil
	}

	certs, err := x509.ParseCertificates(data)
	if err == nil {
		return certs, nil
	}

	certs, err = c.decodePKCS7(data)
	if errors.Is(err, ErrParsePKCS7) {
		return nil, ErrParseCertificate
	}
	return certs, err
}

// Decode decodes a single certificate from data.
func (c *Certificate) Decode(data []byte) (*x509.Certificate, error) {
	if c.IsPEM(data) {
		block, err := c.decodePEMBlock(data)
		if err != nil {
			return nil, err
		}

		data = block.Bytes
	}

	cert, err := x509.ParseCertificate(data)
	if err == nil {
		return cert, nil
	}

	// Attempt to parse as PKCS7 using Cloudflare's library
	certs, err := c.decodePKCS7(data)
	if errors.Is(err, ErrParsePKCS7) {
		return nil, ErrParseCertificate
	}
	if err != nil {
		return nil, err
	}

	return certs[0], nil
}

// decodePKCS7 extracts the certificates of a degenerate PKCS7 SignedData bundle.
func (c *Certificate) decodePKCS7(data []byte) ([]*x509.Certificate, error) {
	p, err := pkcs7.ParsePKCS7(data)
	if err != nil {
		return nil, ErrParsePKCS7
	}
	if len(p.Content.SignedData.Certificates) == 0 {
		return nil, ErrNoCertificatesInPKCS
	}

	return p.Content.SignedData.Certificates, nil
}

// EncodePEM encodes a certificate to PEM format.
func (c *Certificate) EncodePEM(cert *x509.Certificate) []byte {
	return EncodeBlock(c.certBlockType, cert.Raw)
}

// EncodeDER encodes a certificate to DER format.
func (c *Certificate) EncodeDER(cert *x509.Certificate) []byte { return cert.Raw }

// EncodeMultiplePEM encodes multiple certificates to PEM format.
func (c *Certificate) EncodeMultiplePEM(certs []*x509.Certificate) []byte {
	var data []byte

	for _, cert := range certs {
		data = append(data, c.EncodePEM(cert)...)
	}

	return data
}

// EncodeMultipleDER encodes multiple certificates to DER format.
func (c *Certificate) EncodeMultipleDER(certs []*x509.Certificate) []byte {
	var data []byte

	for _, cert := range certs {
		data = append(data, c.EncodeDER(cert)...)
	}

	return data
}

// EncodeBlock wraps DER bytes in a PEM block of the given type.
func EncodeBlock(blockType string, der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
}

// DecodeBlock returns the DER contents of the first PEM block in data if it has one
// of the accepted types. Binary data is returned unchanged with an empty type.
//
// Parameters:
//   - data: PEM or DER input
//   - accept: Allowed block types; empty accepts any
//
// Returns:
//   - []byte: DER contents
//   - string: The PEM block type, or "" for binary input
//   - error: [ErrInvalidBlockType] when the block type is not accepted
func DecodeBlock(data []byte, accept ...string) ([]byte, string, error) {
	block, _ := pem.Decode(bytes.TrimSpace(data))
	if block == nil {
		return data, "", nil
	}
	if len(accept) == 0 {
		return block.Bytes, block.Type, nil
	}
	for _, t := range accept {
		if block.Type == t {
			return block.Bytes, block.Type, nil
		}
	}
	return nil, block.Type, ErrInvalidBlockType
}
