// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/cloudflare/cfssl/helpers"
	"github.com/cloudflare/cfssl/helpers/derhelpers"
	"github.com/youmark/pkcs8"
)

var (
	// ErrParsePrivateKey indicates that the data does not hold a supported private key.
	ErrParsePrivateKey = errors.New("x509certs: failed to parse private key")

	// ErrParsePublicKey indicates that the data does not hold a supported public key.
	ErrParsePublicKey = errors.New("x509certs: failed to parse public key")

	// ErrKeyPassword indicates that an encrypted private key could not be decrypted
	// with the supplied password, or that no password was supplied.
	ErrKeyPassword = errors.New("x509certs: private key password is missing or incorrect")

	// ErrUnsupportedKey indicates a key type this package cannot marshal.
	ErrUnsupportedKey = errors.New("x509certs: unsupported key type")
)

// IsEncryptedKey reports whether data holds a password protected private key, either
// as an ENCRYPTED PRIVATE KEY block or as a legacy PEM block with a DEK-Info header.
func IsEncryptedKey(data []byte) bool {
	block, _ := pem.Decode(bytes.TrimSpace(data))
	if block == nil {
		return false
	}
	//lint:ignore SA1019 legacy encrypted PEM keys are still accepted as input
	return block.Type == BlockEncryptedPrivateKey || x509.IsEncryptedPEMBlock(block)
}

// ParsePrivateKey decodes a private key from PEM or DER data.
//
// Supported forms are PKCS#8, PKCS#1 and SEC 1, encrypted PKCS#8 and legacy
// encrypted PEM. The password is only consulted for the encrypted forms; binary
// input that does not parse as a plain key is retried as encrypted PKCS#8 when a
// password is given.
//
// Parameters:
//   - data: PEM or DER encoded key
//   - password: Password for encrypted keys, may be nil
//
// Returns:
//   - crypto.Signer: The decoded private key
//   - error: [ErrKeyPassword] for decryption failures, [ErrParsePrivateKey] otherwise
func ParsePrivateKey(data, password []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(bytes.TrimSpace(data))
	if block == nil {
		key, err := derhelpers.ParsePrivateKeyDER(data)
		if err == nil {
			return key, nil
		}
		if len(password) == 0 {
			return nil, ErrParsePrivateKey
		}
		return parseEncryptedPKCS8(data, password)
	}

	switch {
	case block.Type == BlockEncryptedPrivateKey:
		if len(password) == 0 {
			return nil, ErrKeyPassword
		}
		return parseEncryptedPKCS8(block.Bytes, password)
	//lint:ignore SA1019 legacy encrypted PEM keys are still accepted as input
	case x509.IsEncryptedPEMBlock(block):
		if len(password) == 0 {
			return nil, ErrKeyPassword
		}
		key, err := helpers.ParsePrivateKeyPEMWithPassword(pem.EncodeToMemory(block), password)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyPassword, err)
		}
		return key, nil
	case block.Type == BlockPrivateKey, block.Type == BlockRSAPrivateKey, block.Type == BlockECPrivateKey:
		key, err := derhelpers.ParsePrivateKeyDER(block.Bytes)
		if err != nil {
			return nil, ErrParsePrivateKey
		}
		return key, nil
	default:
		return nil, ErrInvalidBlockType
	}
}

func parseEncryptedPKCS8(der, password []byte) (crypto.Signer, error) {
	parsed, err := pkcs8.ParsePKCS8PrivateKey(der, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyPassword, err)
	}
	key, ok := parsed.(crypto.Signer)
	if !ok {
		return nil, ErrUnsupportedKey
	}
	return key, nil
}

// MarshalPrivateKey encodes a private key as unencrypted PKCS#8 DER.
func MarshalPrivateKey(key crypto.Signer) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedKey, err)
	}
	return der, nil
}

// ParsePublicKey decodes a PKIX or PKCS#1 public key from PEM or DER data.
func ParsePublicKey(data []byte) (crypto.PublicKey, error) {
	der, _, err := DecodeBlock(data, BlockPublicKey, BlockRSAPublicKey)
	if err != nil {
		return nil, err
	}
	if pub, err := x509.ParsePKIXPublicKey(der); err == nil {
		return pub, nil
	}
	if pub, err := x509.ParsePKCS1PublicKey(der); err == nil {
		return pub, nil
	}
	return nil, ErrParsePublicKey
}

// MarshalPublicKey encodes a public key as PKIX SubjectPublicKeyInfo DER.
func MarshalPublicKey(pub crypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedKey, err)
	}
	return der, nil
}

// PublicKeyEqual reports whether two public keys are the same key.
func PublicKeyEqual(a, b crypto.PublicKey) bool {
	eq, ok := a.(interface{ Equal(crypto.PublicKey) bool })
	return ok && eq.Equal(b)
}

// KeyID computes the RFC 5280 method 1 key identifier: the SHA-1 hash of the
// subjectPublicKey bit string.
func KeyID(pub crypto.PublicKey) ([]byte, error) {
	der, err := MarshalPublicKey(pub)
	if err != nil {
		return nil, err
	}

	var spki struct {
		Algorithm        asn1.RawValue
		SubjectPublicKey asn1.BitString
	}
	if _, err := asn1.Unmarshal(der, &spki); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedKey, err)
	}

	sum := sha1.Sum(spki.SubjectPublicKey.Bytes)
	return sum[:], nil
}

// KeyDescription returns a short label such as "RSA 2048" or "ECDSA P-256".
func KeyDescription(pub crypto.PublicKey) string {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return fmt.Sprintf("RSA %d", k.N.BitLen())
	case *ecdsa.PublicKey:
		return "ECDSA " + k.Curve.Params().Name
	case ed25519.PublicKey:
		return "Ed25519"
	default:
		return "unknown"
	}
}
