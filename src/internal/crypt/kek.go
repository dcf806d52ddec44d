// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/asn1"
	"fmt"
	"hash"

	"golang.org/x/crypto/pbkdf2"
)

// deriveKEK stretches the password into a key encryption key of keyLen bytes.
func deriveKEK(password, salt []byte, iterations, keyLen int, prf func() hash.Hash) []byte {
	return pbkdf2.Key(password, salt, iterations, keyLen, prf)
}

// prfForOID maps a PBKDF2 PRF algorithm to its hash. A nil oid is the
// PKCS #5 default, HMAC-SHA1.
func prfForOID(oid asn1.ObjectIdentifier) (func() hash.Hash, error) {
	switch {
	case oid == nil, oid.Equal(oidHMACWithSHA1):
		return sha1.New, nil
	case oid.Equal(oidHMACWithSHA256):
		return sha256.New, nil
	case oid.Equal(oidHMACWithSHA384):
		return sha512.New384, nil
	case oid.Equal(oidHMACWithSHA512):
		return sha512.New, nil
	}
	return nil, fmt.Errorf("%w: unsupported PBKDF2 PRF %s", ErrDecryption, oid)
}

// wrapKey wraps cek under kek following RFC 3211 section 2.3.1: the formatted
// key block (length, check bytes, key, random padding to at least two cipher
// blocks) is CBC encrypted twice, the second pass chained from the last block
// of the first.
func wrapKey(kek, iv, cek []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("crypt: key encryption key: %w", err)
	}
	bs := block.BlockSize()
	if len(cek) < 3 || len(cek) > 255 {
		return nil, fmt.Errorf("crypt: content key length %d cannot be wrapped", len(cek))
	}

	n := 4 + len(cek)
	size := max(n, 2*bs)
	size = (size + bs - 1) / bs * bs

	buf := make([]byte, size)
	buf[0] = byte(len(cek))
	buf[1] = ^cek[0]
	buf[2] = ^cek[1]
	buf[3] = ^cek[2]
	copy(buf[4:], cek)
	if _, err := rand.Read(buf[n:]); err != nil {
		return nil, fmt.Errorf("crypt: key wrap padding: %w", err)
	}

	cipher.NewCBCEncrypter(block, iv).CryptBlocks(buf, buf)
	chain := append([]byte(nil), buf[size-bs:]...)
	cipher.NewCBCEncrypter(block, chain).CryptBlocks(buf, buf)
	return buf, nil
}

// unwrapKey reverses [wrapKey]. A wrong password surfaces here as a failed check
// value or an impossible length, both reported as [ErrDecryption].
func unwrapKey(kek, iv, wrapped []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("%w: key encryption key: %v", ErrDecryption, err)
	}
	bs := block.BlockSize()
	n := len(wrapped)
	if n < 2*bs || n%bs != 0 || len(iv) != bs {
		return nil, fmt.Errorf("%w: malformed wrapped key", ErrDecryption)
	}

	buf := append([]byte(nil), wrapped...)

	// The last block decrypted with the previous block as IV yields the chaining
	// value of the outer encryption layer.
	chain := make([]byte, bs)
	cipher.NewCBCDecrypter(block, buf[n-2*bs:n-bs]).CryptBlocks(chain, buf[n-bs:])
	cipher.NewCBCDecrypter(block, chain).CryptBlocks(buf, buf)
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(buf, buf)

	keyLen := int(buf[0])
	if keyLen < 3 || 4+keyLen > n {
		return nil, fmt.Errorf("%w: invalid password or corrupted key", ErrDecryption)
	}
	check := []byte{^buf[1], ^buf[2], ^buf[3]}
	if subtle.ConstantTimeCompare(check, buf[4:7]) != 1 {
		return nil, fmt.Errorf("%w: invalid password or corrupted key", ErrDecryption)
	}

	return buf[4 : 4+keyLen], nil
}
