// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package crypt

import (
	"encoding/asn1"
	"fmt"
	"strings"
)

// Cipher selects the content encryption algorithm of an envelope.
type Cipher int

const (
	// AES256CBC is AES with a 256 bit key in CBC mode. It is the zero value.
	AES256CBC Cipher = iota
	// AES128CBC is AES with a 128 bit key in CBC mode.
	AES128CBC
	// AES256GCM is AES with a 256 bit key in GCM mode.
	AES256GCM
)

var (
	oidData          = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
	oidEnvelopedData = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 3}
	oidPBKDF2        = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 12}
	oidPWRIKEK       = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 3, 9}

	oidHMACWithSHA1   = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 7}
	oidHMACWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 9}
	oidHMACWithSHA384 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 10}
	oidHMACWithSHA512 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 11}

	oidAES128CBC = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 2}
	oidAES192CBC = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 22}
	oidAES256CBC = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 42}
	oidAES256GCM = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 46}
)

var cipherNames = map[Cipher]string{
	AES256CBC: "aes256-cbc",
	AES128CBC: "aes128-cbc",
	AES256GCM: "aes256-gcm",
}

// String returns the canonical lower case name of c.
func (c Cipher) String() string {
	if name, ok := cipherNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Cipher(%d)", int(c))
}

// ParseCipher parses a cipher name case-insensitively. Both "aes256-cbc" and
// "AES_256_CBC" style spellings are accepted.
func ParseCipher(name string) (Cipher, error) {
	norm := strings.ToLower(strings.NewReplacer("_", "-", " ", "-").Replace(strings.TrimSpace(name)))
	norm = strings.Replace(norm, "aes-", "aes", 1)
	for c, n := range cipherNames {
		if n == norm {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCipher, name)
}

// keySize returns the content key size in bytes.
func (c Cipher) keySize() int {
	if c == AES128CBC {
		return 16
	}
	return 32
}

func (c Cipher) oid() asn1.ObjectIdentifier {
	switch c {
	case AES128CBC:
		return oidAES128CBC
	case AES256GCM:
		return oidAES256GCM
	default:
		return oidAES256CBC
	}
}

func (c Cipher) valid() bool {
	_, ok := cipherNames[c]
	return ok
}

// kekOID returns the AES-CBC algorithm used to wrap the content key. RFC 3211
// wrapping requires a CBC mode cipher, so GCM envelopes wrap with AES-256-CBC.
func (c Cipher) kekOID() asn1.ObjectIdentifier {
	if c == AES128CBC {
		return oidAES128CBC
	}
	return oidAES256CBC
}

// cbcKeySize maps an AES-CBC algorithm identifier to its key size.
func cbcKeySize(oid asn1.ObjectIdentifier) (int, bool) {
	switch {
	case oid.Equal(oidAES128CBC):
		return 16, true
	case oid.Equal(oidAES192CBC):
		return 24, true
	case oid.Equal(oidAES256CBC):
		return 32, true
	}
	return 0, false
}
