// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"crypto/x509"
	"errors"

	"github.com/cloudflare/cfssl/helpers"
)

var (
	// ErrParseRequest indicates that the data does not hold a certificate request.
	ErrParseRequest = errors.New("x509certs: failed to parse certificate request")

	// ErrRequestSignature indicates that a certificate request carries an invalid signature.
	ErrRequestSignature = errors.New("x509certs: certificate request signature is invalid")

	// ErrParseCRL indicates that the data does not hold a certificate revocation list.
	ErrParseCRL = errors.New("x509certs: failed to parse revocation list")
)

// DecodeRequest decodes a PKCS#10 certificate request from PEM or DER data.
// When verify is true the self-signature of the request is checked.
func DecodeRequest(data []byte, verify bool) (*x509.CertificateRequest, error) {
	der, _, err := DecodeBlock(data, BlockCertificateRequest, BlockNewCertificateReq)
	if err != nil {
		return nil, err
	}

	if !verify {
		csr, err := x509.ParseCertificateRequest(der)
		if err != nil {
			return nil, ErrParseRequest
		}
		return csr, nil
	}

	csr, _, err := helpers.ParseCSR(der)
	if err != nil {
		if _, perr := x509.ParseCertificateRequest(der); perr == nil {
			return nil, ErrRequestSignature
		}
		return nil, ErrParseRequest
	}
	return csr, nil
}

// DecodeCRL decodes an X.509 certificate revocation list from PEM or DER data.
func DecodeCRL(data []byte) (*x509.RevocationList, error) {
	der, _, err := DecodeBlock(data, BlockCRL)
	if err != nil {
		return nil, err
	}

	crl, err := x509.ParseRevocationList(der)
	if err != nil {
		return nil, ErrParseCRL
	}
	return crl, nil
}
