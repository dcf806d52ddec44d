// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package model

import (
	"fmt"
	"strings"
)

// Mode selects the builder that processes a [Config].
type Mode int

const (
	ModeNone Mode = iota
	ModeCertificate
	ModeCertificateSigningRequest
	ModeTransform
	ModePrivateKey
	ModePublicKey
	ModeKeyPair
	ModeConfig
	ModeCrl
)

var modeNames = [...]string{
	ModeNone:                      "None",
	ModeCertificate:               "Certificate",
	ModeCertificateSigningRequest: "CertificateSigningRequest",
	ModeTransform:                 "Transform",
	ModePrivateKey:                "PrivateKey",
	ModePublicKey:                 "PublicKey",
	ModeKeyPair:                   "KeyPair",
	ModeConfig:                    "Config",
	ModeCrl:                       "Crl",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode returns the mode with the given name, ignoring case. An empty name is [ModeNone].
func ParseMode(name string) (Mode, error) {
	if name == "" {
		return ModeNone, nil
	}
	for m, n := range modeNames {
		if strings.EqualFold(n, name) {
			return Mode(m), nil
		}
	}
	return ModeNone, fmt.Errorf("model: unknown mode %q", name)
}

// MarshalText implements [encoding.TextMarshaler].
func (m Mode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(modeNames) {
		return nil, fmt.Errorf("model: invalid mode %d", int(m))
	}
	return []byte(modeNames[m]), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Encoding is the representation of an artifact inside a file slot.
type Encoding string

const (
	EncodingDER  Encoding = "DER"
	EncodingPEM  Encoding = "PEM"
	EncodingText Encoding = "Text"
)

// ParseEncoding returns the encoding with the given name, ignoring case.
func ParseEncoding(name string) (Encoding, error) {
	for _, e := range []Encoding{EncodingDER, EncodingPEM, EncodingText} {
		if strings.EqualFold(string(e), name) {
			return e, nil
		}
	}
	return "", fmt.Errorf("model: unknown encoding %q", name)
}

// UnmarshalText implements [encoding.TextUnmarshaler]. Empty text leaves the
// encoding unset.
func (e *Encoding) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*e = ""
		return nil
	}
	parsed, err := ParseEncoding(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// KeyAlgorithm is the public key algorithm of a key pair.
type KeyAlgorithm string

const (
	KeyAlgorithmRSA   KeyAlgorithm = "RSA"
	KeyAlgorithmECDSA KeyAlgorithm = "ECDSA"
)
