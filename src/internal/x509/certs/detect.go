// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"

	"github.com/cloudflare/cfssl/crypto/pkcs7"
	"github.com/cloudflare/cfssl/helpers/derhelpers"
)

// ErrUnknownArtifact indicates data that matches none of the supported artifact kinds.
var ErrUnknownArtifact = errors.New("x509certs: unrecognized artifact")

// Kind identifies the type of a decoded artifact.
type Kind int

const (
	KindUnknown Kind = iota
	KindCertificate
	KindRequest
	KindCRL
	KindPrivateKey
	KindPublicKey
	KindPKCS7
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindCertificate: "certificate",
	KindRequest:     "certificate request",
	KindCRL:         "revocation list",
	KindPrivateKey:  "private key",
	KindPublicKey:   "public key",
	KindPKCS7:       "pkcs7 bundle",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Artifact is one decoded input. Exactly the fields matching Kind are set.
type Artifact struct {
	Kind Kind

	// BlockType is the PEM label the artifact was read from, or the label it
	// would be written with when it was read as DER.
	BlockType string

	// Raw is the DER encoding as read. For a certificate list read from DER it is
	// the concatenation of all certificates.
	Raw []byte

	Certificates []*x509.Certificate
	Request      *x509.CertificateRequest
	CRL          *x509.RevocationList
	PrivateKey   crypto.Signer
	PublicKey    crypto.PublicKey
}

// Detect decodes every artifact found in data.
//
// PEM input yields one artifact per block. DER input is tried as certificates,
// certificate request, revocation list, private key, public key and PKCS7 bundle,
// in that order. The password is used for encrypted private keys only.
//
// Parameters:
//   - data: PEM or DER input
//   - password: Optional password for encrypted private keys
//
// Returns:
//   - []*Artifact: Artifacts in input order
//   - error: [ErrUnknownArtifact] or the decoding error of a recognized block
func Detect(data, password []byte) ([]*Artifact, error) {
	if IsPEM(data) {
		return detectPEM(data, password)
	}

	a, err := detectDER(data, password)
	if err != nil {
		return nil, err
	}
	return []*Artifact{a}, nil
}

func detectPEM(data, password []byte) ([]*Artifact, error) {
	var out []*Artifact

	rest := bytes.TrimSpace(data)
	for len(rest) > 0 {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		rest = bytes.TrimSpace(rest)

		a, err := artifactFromBlock(block, password)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil, ErrUnknownArtifact
	}
	return out, nil
}

func artifactFromBlock(block *pem.Block, password []byte) (*Artifact, error) {
	a := &Artifact{BlockType: block.Type, Raw: block.Bytes}

	switch block.Type {
	case BlockCertificate:
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, ErrParseCertificate
		}
		a.Kind, a.Certificates = KindCertificate, []*x509.Certificate{cert}
	case BlockCertificateRequest, BlockNewCertificateReq:
		csr, err := x509.ParseCertificateRequest(block.Bytes)
		if err != nil {
			return nil, ErrParseRequest
		}
		a.Kind, a.Request = KindRequest, csr
	case BlockCRL:
		crl, err := x509.ParseRevocationList(block.Bytes)
		if err != nil {
			return nil, ErrParseCRL
		}
		a.Kind, a.CRL = KindCRL, crl
	case BlockPrivateKey, BlockRSAPrivateKey, BlockECPrivateKey, BlockEncryptedPrivateKey:
		key, err := ParsePrivateKey(pem.EncodeToMemory(block), password)
		if err != nil {
			return nil, err
		}
		a.Kind, a.PrivateKey = KindPrivateKey, key
		if block.Type == BlockEncryptedPrivateKey || len(block.Headers) > 0 {
			// Decrypted keys are carried as plain PKCS#8.
			der, err := MarshalPrivateKey(key)
			if err != nil {
				return nil, err
			}
			a.BlockType, a.Raw = BlockPrivateKey, der
		}
	case BlockPublicKey, BlockRSAPublicKey:
		pub, err := ParsePublicKey(pem.EncodeToMemory(block))
		if err != nil {
			return nil, err
		}
		a.Kind, a.PublicKey = KindPublicKey, pub
	case BlockPKCS7:
		p, err := pkcs7.ParsePKCS7(block.Bytes)
		if err != nil {
			return nil, ErrParsePKCS7
		}
		a.Kind, a.Certificates = KindPKCS7, p.Content.SignedData.Certificates
	default:
		return nil, ErrUnknownArtifact
	}
	return a, nil
}

func detectDER(der, password []byte) (*Artifact, error) {
	if certs, err := x509.ParseCertificates(der); err == nil && len(certs) > 0 {
		return &Artifact{Kind: KindCertificate, BlockType: BlockCertificate, Raw: der, Certificates: certs}, nil
	}
	if csr, err := x509.ParseCertificateRequest(der); err == nil {
		return &Artifact{Kind: KindRequest, BlockType: BlockCertificateRequest, Raw: der, Request: csr}, nil
	}
	if crl, err := x509.ParseRevocationList(der); err == nil {
		return &Artifact{Kind: KindCRL, BlockType: BlockCRL, Raw: der, CRL: crl}, nil
	}
	if key, err := derhelpers.ParsePrivateKeyDER(der); err == nil {
		return &Artifact{Kind: KindPrivateKey, BlockType: privateKeyBlockType(der), Raw: der, PrivateKey: key}, nil
	}
	if pub, err := x509.ParsePKIXPublicKey(der); err == nil {
		return &Artifact{Kind: KindPublicKey, BlockType: BlockPublicKey, Raw: der, PublicKey: pub}, nil
	}
	if p, err := pkcs7.ParsePKCS7(der); err == nil && p.ContentInfo == "SignedData" {
		return &Artifact{Kind: KindPKCS7, BlockType: BlockPKCS7, Raw: der, Certificates: p.Content.SignedData.Certificates}, nil
	}
	if len(password) > 0 {
		if key, err := parseEncryptedPKCS8(der, password); err == nil {
			plain, err := MarshalPrivateKey(key)
			if err != nil {
				return nil, err
			}
			return &Artifact{Kind: KindPrivateKey, BlockType: BlockPrivateKey, Raw: plain, PrivateKey: key}, nil
		}
	}
	return nil, ErrUnknownArtifact
}

// privateKeyBlockType picks the PEM label matching the DER structure of a key.
func privateKeyBlockType(der []byte) string {
	if _, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		return BlockPrivateKey
	}
	if _, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return BlockRSAPrivateKey
	}
	return BlockECPrivateKey
}

// PEM encodes the artifact with its PEM label. Certificate lists produce one
// block per certificate.
func (a *Artifact) PEM() []byte {
	if a.Kind == KindCertificate {
		return New().EncodeMultiplePEM(a.Certificates)
	}
	return EncodeBlock(a.BlockType, a.Raw)
}

// DER returns the binary encoding of the artifact. Certificate lists are concatenated.
func (a *Artifact) DER() []byte {
	if a.Kind == KindCertificate {
		return New().EncodeMultipleDER(a.Certificates)
	}
	return a.Raw
}
