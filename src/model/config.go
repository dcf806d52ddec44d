// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package model

import "time"

// MaxTime is the notAfter value of a certificate without a well-defined expiry
// (RFC 5280 section 4.1.2.5).
var MaxTime = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// Validity is the validity window of a certificate. Days is used to compute
// NotAfter when it is not given.
type Validity struct {
	NotBefore *time.Time `json:"notBefore,omitempty"`
	NotAfter  *time.Time `json:"notAfter,omitempty"`
	Days      int        `json:"days,omitempty"`
}

// CrlValidity is the update window of a revocation list.
type CrlValidity struct {
	ThisUpdate *time.Time `json:"thisUpdate,omitempty"`
	NextUpdate *time.Time `json:"nextUpdate,omitempty"`
}

// KeyPairSpec describes the key pair to generate, or the existing key material to load.
type KeyPairSpec struct {
	Algorithm  KeyAlgorithm `json:"algorithm,omitempty"`
	KeySize    int          `json:"keySize,omitempty"`
	Curve      string       `json:"curve,omitempty"`
	PrivateKey *FileSlot    `json:"privateKey,omitempty"`
	PublicKey  *FileSlot    `json:"publicKey,omitempty"`
}

// CsrOptions controls how a certificate request is trusted during CA issuance.
type CsrOptions struct {
	SkipSignatureValidation bool `json:"skipSignatureValidation,omitempty"`
	ImportExtensions        bool `json:"importExtensions,omitempty"`
}

// IssuerSpec is the signing material of a CA. The key and certificate come from
// PrivateKey and Certificate, or from the PKCS#12 Store entry named StoreAlias.
type IssuerSpec struct {
	PrivateKey    *FileSlot `json:"privateKey,omitempty"`
	Certificate   *FileSlot `json:"certificate,omitempty"`
	Store         *FileSlot `json:"store,omitempty"`
	StoreAlias    string    `json:"storeAlias,omitempty"`
	HashAlgorithm string    `json:"hashAlgorithm,omitempty"`
}

// CrlEntry is one revoked certificate.
type CrlEntry struct {
	SerialNumber   *BigInt   `json:"serialNumber"`
	RevocationDate time.Time `json:"revocationDate"`
	Reason         string    `json:"reason,omitempty"`
}

// TransformSpec lists artifacts to re-encode.
type TransformSpec struct {
	Inputs   []*FileSlot `json:"inputs"`
	Encoding Encoding    `json:"encoding,omitempty"`
}

// Config describes one artifact build. Input fields are never modified by a
// build; output slots are filled on the copy returned by the builder.
type Config struct {
	Mode          Mode           `json:"mode"`
	SubjectName   *SubjectName   `json:"subjectName,omitempty"`
	Validity      *Validity      `json:"validity,omitempty"`
	CrlValidity   *CrlValidity   `json:"crlValidity,omitempty"`
	KeyPair       *KeyPairSpec   `json:"keyPair,omitempty"`
	Extensions    *Extensions    `json:"extensions,omitempty"`
	SerialNumber  *BigInt        `json:"serialNumber,omitempty"`
	CrlNumber     *BigInt        `json:"crlNumber,omitempty"`
	HashAlgorithm string         `json:"hashAlgorithm,omitempty"`
	RsaPadding    string         `json:"rsaPadding,omitempty"`
	Issuer        *IssuerSpec    `json:"issuer,omitempty"`
	Csr           *CsrOptions    `json:"csr,omitempty"`
	CrlEntries    []CrlEntry     `json:"crlEntries,omitempty"`
	Transform     *TransformSpec `json:"transform,omitempty"`

	PrivateKeyFile *FileSlot   `json:"privateKeyFile,omitempty"`
	PublicKeyFile  *FileSlot   `json:"publicKeyFile,omitempty"`
	CertFile       *FileSlot   `json:"certFile,omitempty"`
	CsrFile        *FileSlot   `json:"csrFile,omitempty"`
	CrlFile        *FileSlot   `json:"crlFile,omitempty"`
	StoreFile      *FileSlot   `json:"storeFile,omitempty"`
	TransformFiles []*FileSlot `json:"transformFiles,omitempty"`
}

// Clone returns a deep copy of the configuration. Mutating the copy never
// affects the receiver.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	out := &Config{
		Mode:          c.Mode,
		SubjectName:   c.SubjectName.Clone(),
		Extensions:    c.Extensions.Clone(),
		SerialNumber:  c.SerialNumber.Clone(),
		CrlNumber:     c.CrlNumber.Clone(),
		HashAlgorithm: c.HashAlgorithm,
		RsaPadding:    c.RsaPadding,

		PrivateKeyFile: c.PrivateKeyFile.Clone(),
		PublicKeyFile:  c.PublicKeyFile.Clone(),
		CertFile:       c.CertFile.Clone(),
		CsrFile:        c.CsrFile.Clone(),
		CrlFile:        c.CrlFile.Clone(),
		StoreFile:      c.StoreFile.Clone(),
		TransformFiles: cloneSlots(c.TransformFiles),
	}

	if c.Validity != nil {
		out.Validity = &Validity{
			NotBefore: cloneTime(c.Validity.NotBefore),
			NotAfter:  cloneTime(c.Validity.NotAfter),
			Days:      c.Validity.Days,
		}
	}
	if c.CrlValidity != nil {
		out.CrlValidity = &CrlValidity{
			ThisUpdate: cloneTime(c.CrlValidity.ThisUpdate),
			NextUpdate: cloneTime(c.CrlValidity.NextUpdate),
		}
	}
	if c.KeyPair != nil {
		kp := *c.KeyPair
		kp.PrivateKey = c.KeyPair.PrivateKey.Clone()
		kp.PublicKey = c.KeyPair.PublicKey.Clone()
		out.KeyPair = &kp
	}
	if c.Issuer != nil {
		is := *c.Issuer
		is.PrivateKey = c.Issuer.PrivateKey.Clone()
		is.Certificate = c.Issuer.Certificate.Clone()
		is.Store = c.Issuer.Store.Clone()
		out.Issuer = &is
	}
	if c.Csr != nil {
		opts := *c.Csr
		out.Csr = &opts
	}
	if c.CrlEntries != nil {
		out.CrlEntries = make([]CrlEntry, len(c.CrlEntries))
		for i, e := range c.CrlEntries {
			e.SerialNumber = e.SerialNumber.Clone()
			out.CrlEntries[i] = e
		}
	}
	if c.Transform != nil {
		out.Transform = &TransformSpec{
			Inputs:   cloneSlots(c.Transform.Inputs),
			Encoding: c.Transform.Encoding,
		}
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
