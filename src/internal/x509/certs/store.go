// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/cloudflare/cfssl/helpers/derhelpers"
	xpkcs12 "golang.org/x/crypto/pkcs12"
	"software.sslmate.com/src/go-pkcs12"
)

var (
	// ErrStorePassword indicates that a key store could not be opened with the supplied password.
	ErrStorePassword = errors.New("x509certs: key store password is incorrect")

	// ErrStoreAlias indicates that no key entry in the store carries the requested alias.
	ErrStoreAlias = errors.New("x509certs: key store alias not found")

	// ErrStoreAliasUnsupported indicates that the store format cannot be searched by alias.
	ErrStoreAliasUnsupported = errors.New("x509certs: key store format does not support alias selection")

	// ErrParseStore indicates that the data does not hold a readable key store.
	ErrParseStore = errors.New("x509certs: failed to parse key store")
)

const (
	headerFriendlyName = "friendlyName"
	headerLocalKeyID   = "localKeyId"
)

// Store is a private key entry read from a PKCS#12 key store.
type Store struct {
	Key         crypto.Signer
	Certificate *x509.Certificate
	CACerts     []*x509.Certificate
}

// DecodeStore opens a PKCS#12 key store and selects a key entry.
//
// Stores using the legacy SHA-1 and 3DES/RC2 algorithms are read bag by bag so
// that the entry can be selected by its friendlyName. Stores using PBES2/AES are
// read as a single chain; alias selection is not available for them.
//
// Parameters:
//   - data: DER encoded PKCS#12 PFX
//   - password: Store password
//   - alias: friendlyName of the key entry; empty selects the first key
//
// Returns:
//   - *Store: The selected key, its certificate and the remaining certificates
//   - error: [ErrStorePassword], [ErrStoreAlias], [ErrStoreAliasUnsupported] or [ErrParseStore]
func DecodeStore(data []byte, password, alias string) (*Store, error) {
	blocks, err := xpkcs12.ToPEM(data, password)
	if err == nil {
		return storeFromBlocks(blocks, alias)
	}
	if errors.Is(err, xpkcs12.ErrIncorrectPassword) {
		return nil, ErrStorePassword
	}

	key, cert, caCerts, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		if errors.Is(err, pkcs12.ErrIncorrectPassword) {
			return nil, ErrStorePassword
		}
		return nil, fmt.Errorf("%w: %v", ErrParseStore, err)
	}
	if alias != "" {
		return nil, ErrStoreAliasUnsupported
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, ErrUnsupportedKey
	}
	return &Store{Key: signer, Certificate: cert, CACerts: caCerts}, nil
}

func storeFromBlocks(blocks []*pem.Block, alias string) (*Store, error) {
	var (
		keyBlock *pem.Block
		certs    []*pem.Block
	)
	for _, b := range blocks {
		switch b.Type {
		case BlockCertificate:
			certs = append(certs, b)
		default:
			if keyBlock != nil {
				continue
			}
			if alias == "" || b.Headers[headerFriendlyName] == alias {
				keyBlock = b
			}
		}
	}
	if keyBlock == nil {
		if alias != "" {
			return nil, ErrStoreAlias
		}
		return nil, fmt.Errorf("%w: no private key entry", ErrParseStore)
	}

	key, err := derhelpers.ParsePrivateKeyDER(keyBlock.Bytes)
	if err != nil {
		return nil, ErrParsePrivateKey
	}

	store := &Store{Key: key}
	localID := keyBlock.Headers[headerLocalKeyID]
	for _, b := range certs {
		cert, err := x509.ParseCertificate(b.Bytes)
		if err != nil {
			return nil, ErrParseCertificate
		}
		matched := store.Certificate == nil &&
			((localID != "" && b.Headers[headerLocalKeyID] == localID) ||
				PublicKeyEqual(key.Public(), cert.PublicKey))
		if matched {
			store.Certificate = cert
			continue
		}
		store.CACerts = append(store.CACerts, cert)
	}
	if store.Certificate == nil {
		return nil, fmt.Errorf("%w: no certificate for the selected key", ErrParseStore)
	}
	return store, nil
}

// EncodeStore writes a key, its certificate and an optional chain as a PKCS#12
// store protected with the modern PBES2/AES-256 profile.
func EncodeStore(key crypto.Signer, cert *x509.Certificate, chain []*x509.Certificate, password string) ([]byte, error) {
	data, err := pkcs12.Modern2023.Encode(key, cert, chain, password)
	if err != nil {
		return nil, fmt.Errorf("x509certs: encode key store: %w", err)
	}
	return data, nil
}
