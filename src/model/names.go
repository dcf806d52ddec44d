// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package model

import (
	"encoding/asn1"
	"fmt"
	"strconv"
	"strings"
)

// Canonical curve names.
const (
	CurveP256 = "P-256"
	CurveP384 = "P-384"
	CurveP521 = "P-521"
)

var curveAliases = map[string]string{
	"p-256": CurveP256, "p256": CurveP256, "secp256r1": CurveP256, "prime256v1": CurveP256, "1.2.840.10045.3.1.7": CurveP256,
	"p-384": CurveP384, "p384": CurveP384, "secp384r1": CurveP384, "1.3.132.0.34": CurveP384,
	"p-521": CurveP521, "p521": CurveP521, "secp521r1": CurveP521, "1.3.132.0.35": CurveP521,
}

// CanonicalCurve maps a curve name or OID to its canonical name.
func CanonicalCurve(name string) (string, bool) {
	c, ok := curveAliases[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// Canonical hash names.
const (
	HashSHA256 = "SHA256"
	HashSHA384 = "SHA384"
	HashSHA512 = "SHA512"
)

// CanonicalHash maps names such as "sha-256" to their canonical upper-case form.
func CanonicalHash(name string) (string, bool) {
	h := strings.ToUpper(strings.NewReplacer("-", "", "_", "").Replace(strings.TrimSpace(name)))
	switch h {
	case HashSHA256, HashSHA384, HashSHA512:
		return h, true
	}
	return h, false
}

// RSA padding schemes.
const (
	PaddingPKCS1 = "pkcs1"
	PaddingPSS   = "pss"
)

// RSA key size bounds.
const (
	MinRSAKeySize     = 2048
	MaxRSAKeySize     = 8192
	DefaultRSAKeySize = 2048
)

var keyUsageBits = map[string]int{
	"digitalsignature":  0,
	"nonrepudiation":    1,
	"contentcommitment": 1,
	"keyencipherment":   2,
	"dataencipherment":  3,
	"keyagreement":      4,
	"keycertsign":       5,
	"crlsign":           6,
	"encipheronly":      7,
	"decipheronly":      8,
}

// KeyUsageBit returns the RFC 5280 bit position of a key usage name, ignoring case.
func KeyUsageBit(name string) (int, bool) {
	bit, ok := keyUsageBits[strings.ToLower(name)]
	return bit, ok
}

var extKeyUsageOIDs = map[string]asn1.ObjectIdentifier{
	"any":             {2, 5, 29, 37, 0},
	"serverauth":      {1, 3, 6, 1, 5, 5, 7, 3, 1},
	"clientauth":      {1, 3, 6, 1, 5, 5, 7, 3, 2},
	"codesigning":     {1, 3, 6, 1, 5, 5, 7, 3, 3},
	"emailprotection": {1, 3, 6, 1, 5, 5, 7, 3, 4},
	"timestamping":    {1, 3, 6, 1, 5, 5, 7, 3, 8},
	"ocspsigning":     {1, 3, 6, 1, 5, 5, 7, 3, 9},
}

// ExtKeyUsageOID returns the OID of an extended key usage name, ignoring case.
func ExtKeyUsageOID(name string) (asn1.ObjectIdentifier, bool) {
	oid, ok := extKeyUsageOIDs[strings.ToLower(name)]
	return oid, ok
}

// General name types of a subject alternative name.
const (
	NameDNS   = "dns"
	NameEmail = "email"
	NameIP    = "ip"
	NameURI   = "uri"
)

// ParseOID parses a dotted decimal object identifier.
func ParseOID(s string) (asn1.ObjectIdentifier, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("model: invalid OID %q", s)
	}
	oid := make(asn1.ObjectIdentifier, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("model: invalid OID %q", s)
		}
		oid[i] = n
	}
	if oid[0] > 2 || (oid[0] < 2 && oid[1] > 39) {
		return nil, fmt.Errorf("model: invalid OID %q", s)
	}
	return oid, nil
}
