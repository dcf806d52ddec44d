// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package model

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/hashicorp/go-multierror"

	x509certs "github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/x509/certs"
)

// FieldError describes a problem with one configuration field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// FieldErrors extracts every [FieldError] from an error returned by [Config.Validate].
func FieldErrors(err error) []*FieldError {
	var out []*FieldError

	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			var fe *FieldError
			if errors.As(e, &fe) {
				out = append(out, fe)
			}
		}
		return out
	}

	var fe *FieldError
	if errors.As(err, &fe) {
		out = append(out, fe)
	}
	return out
}

type validator struct {
	errs *multierror.Error
}

func (v *validator) add(field, format string, args ...any) {
	v.errs = multierror.Append(v.errs, &FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the configuration and returns every problem found, aggregated
// into a single error. It returns nil for a valid configuration. Validate is
// meant to run on the result of [Config.Normalize].
func (c *Config) Validate() error {
	v := &validator{}

	if c.Mode <= ModeNone || int(c.Mode) >= len(modeNames) {
		v.add("mode", "must be one of the build modes")
		return v.errs.ErrorOrNil()
	}

	if c.HashAlgorithm != "" {
		if _, ok := CanonicalHash(c.HashAlgorithm); !ok {
			v.add("hashAlgorithm", "unsupported hash algorithm %q", c.HashAlgorithm)
		}
	}
	switch strings.ToLower(c.RsaPadding) {
	case "", PaddingPKCS1, PaddingPSS:
	default:
		v.add("rsaPadding", "must be %s or %s", PaddingPKCS1, PaddingPSS)
	}

	switch c.Mode {
	case ModePrivateKey, ModeKeyPair:
		v.keyPair(c.KeyPair)
	case ModePublicKey:
		v.keyPair(c.KeyPair)
		if c.KeyPair == nil || (!c.KeyPair.PrivateKey.HasSource() && !c.KeyPair.PublicKey.HasSource()) {
			v.add("keyPair", "a private or public key source is required")
		}
	case ModeCertificateSigningRequest:
		v.keyPair(c.KeyPair)
		v.subject(c.SubjectName, true)
	case ModeCertificate:
		if c.Issuer == nil {
			v.keyPair(c.KeyPair)
			v.subject(c.SubjectName, true)
		} else {
			v.subject(c.SubjectName, false)
			v.issuer(c.Issuer)
			if !c.CsrFile.HasSource() {
				v.add("csrFile", "a certificate request is required for CA issuance")
			}
		}
		v.validity(c.Validity)
		if c.SerialNumber != nil && c.SerialNumber.Sign() <= 0 {
			v.add("serialNumber", "must be positive")
		}
	case ModeCrl:
		if c.Issuer == nil {
			v.add("issuer", "issuer material is required")
		} else {
			v.issuer(c.Issuer)
		}
		v.crlValidity(c.CrlValidity)
		if c.CrlNumber != nil && c.CrlNumber.Sign() < 0 {
			v.add("crlNumber", "must not be negative")
		}
		v.crlEntries(c.CrlEntries)
	case ModeTransform:
		v.transform(c.Transform, c.TransformFiles)
	}

	v.extensions(c.Extensions)
	v.outputEncodings(c)

	return v.errs.ErrorOrNil()
}

func (v *validator) keyPair(k *KeyPairSpec) {
	if k == nil {
		return
	}
	switch KeyAlgorithm(strings.ToUpper(string(k.Algorithm))) {
	case "", KeyAlgorithmRSA:
		if k.KeySize != 0 && (k.KeySize < MinRSAKeySize || k.KeySize > MaxRSAKeySize) {
			v.add("keyPair.keySize", "must be between %d and %d", MinRSAKeySize, MaxRSAKeySize)
		}
	case KeyAlgorithmECDSA:
		if k.Curve != "" {
			if _, ok := CanonicalCurve(k.Curve); !ok {
				v.add("keyPair.curve", "unsupported curve %q", k.Curve)
			}
		}
	default:
		v.add("keyPair.algorithm", "must be %s or %s", KeyAlgorithmRSA, KeyAlgorithmECDSA)
	}
}

func (v *validator) subject(n *SubjectName, required bool) {
	if n == nil {
		if required {
			v.add("subjectName", "required; set empty to request an empty name")
		}
		return
	}
	for k := range n.Oids {
		if _, err := ParseOID(k); err != nil {
			v.add("subjectName.oids", "invalid OID %q", k)
		}
	}
	zero := n.IsZero()
	switch {
	case n.Empty && !zero:
		v.add("subjectName.empty", "conflicts with the attributes that are set")
	case !n.Empty && zero && required:
		v.add("subjectName", "no attribute is set; set empty to request an empty name")
	}
}

func (v *validator) issuer(is *IssuerSpec) {
	if is.HashAlgorithm != "" {
		if _, ok := CanonicalHash(is.HashAlgorithm); !ok {
			v.add("issuer.hashAlgorithm", "unsupported hash algorithm %q", is.HashAlgorithm)
		}
	}
	if is.Store.HasSource() {
		if is.PrivateKey.HasSource() || is.Certificate.HasSource() {
			v.add("issuer.store", "conflicts with issuer.privateKey and issuer.certificate")
		}
		return
	}
	if is.StoreAlias != "" {
		v.add("issuer.storeAlias", "requires issuer.store")
	}
	if !is.PrivateKey.HasSource() {
		v.add("issuer.privateKey", "issuer private key is required")
	}
	if !is.Certificate.HasSource() {
		v.add("issuer.certificate", "issuer certificate is required")
	}
}

func (v *validator) validity(val *Validity) {
	if val == nil {
		return
	}
	if val.Days < 0 {
		v.add("validity.days", "must not be negative")
	}
	if val.NotBefore != nil && val.NotAfter != nil && !val.NotAfter.After(*val.NotBefore) {
		v.add("validity.notAfter", "must be after notBefore")
	}
	if val.NotBefore != nil && val.NotBefore.After(MaxTime) {
		v.add("validity.notBefore", "must not be after %s", MaxTime.Format("2006-01-02T15:04:05Z"))
	}
}

func (v *validator) crlValidity(val *CrlValidity) {
	if val == nil {
		return
	}
	if val.ThisUpdate != nil && val.NextUpdate != nil && !val.NextUpdate.After(*val.ThisUpdate) {
		v.add("crlValidity.nextUpdate", "must be after thisUpdate")
	}
}

func (v *validator) crlEntries(entries []CrlEntry) {
	for i, e := range entries {
		field := fmt.Sprintf("crlEntries[%d]", i)
		if e.SerialNumber == nil || e.SerialNumber.Sign() <= 0 {
			v.add(field+".serialNumber", "must be positive")
		}
		if e.RevocationDate.IsZero() {
			v.add(field+".revocationDate", "required")
		}
		if e.Reason != "" {
			if _, ok := x509certs.ParseReason(e.Reason); !ok {
				v.add(field+".reason", "unknown revocation reason %q", e.Reason)
			}
		}
	}
}

func (v *validator) transform(t *TransformSpec, outputs []*FileSlot) {
	if t == nil || len(t.Inputs) == 0 {
		v.add("transform.inputs", "at least one input is required")
		return
	}
	for i, in := range t.Inputs {
		if !in.HasSource() {
			v.add(fmt.Sprintf("transform.inputs[%d]", i), "data or fileName is required")
		}
	}
	if t.Encoding != "" {
		if _, err := ParseEncoding(string(t.Encoding)); err != nil {
			v.add("transform.encoding", "must be DER, PEM or Text")
		}
	}
	if len(outputs) > len(t.Inputs) {
		v.add("transformFiles", "has more slots than there are inputs")
	}
}

func (v *validator) extensions(e *Extensions) {
	if e == nil {
		return
	}
	if bc := e.BasicConstraints; bc != nil && bc.PathLength != nil {
		if *bc.PathLength < 0 {
			v.add("extensions.basicConstraints.pathLength", "must not be negative")
		}
		if !bc.CA {
			v.add("extensions.basicConstraints.pathLength", "is only allowed when ca is true")
		}
	}
	if ku := e.KeyUsage; ku != nil {
		for _, u := range ku.Usages {
			if _, ok := KeyUsageBit(u); !ok {
				v.add("extensions.keyUsage.usages", "unknown key usage %q", u)
			}
		}
	}
	if eku := e.ExtendedKeyUsage; eku != nil {
		for _, u := range eku.Usages {
			if _, ok := ExtKeyUsageOID(u); !ok {
				v.add("extensions.extendedKeyUsage.usages", "unknown extended key usage %q", u)
			}
		}
		for _, o := range eku.Oids {
			if _, err := ParseOID(o); err != nil {
				v.add("extensions.extendedKeyUsage.oids", "invalid OID %q", o)
			}
		}
	}
	if san := e.SubjectAlternativeName; san != nil {
		for i, n := range san.Names {
			v.generalName(fmt.Sprintf("extensions.subjectAlternativeName.names[%d]", i), n)
		}
	}
	for i, r := range e.Raw {
		if _, err := ParseOID(r.Oid); err != nil {
			v.add(fmt.Sprintf("extensions.raw[%d].oid", i), "invalid OID %q", r.Oid)
		}
		if len(r.Value) == 0 {
			v.add(fmt.Sprintf("extensions.raw[%d].value", i), "required")
		}
	}
}

func (v *validator) generalName(field string, n GeneralName) {
	if n.Value == "" {
		v.add(field+".value", "required")
		return
	}
	switch strings.ToLower(n.Type) {
	case NameDNS, NameEmail:
	case NameIP:
		if net.ParseIP(n.Value) == nil {
			v.add(field+".value", "invalid IP address %q", n.Value)
		}
	case NameURI:
		if u, err := url.Parse(n.Value); err != nil || u.Scheme == "" {
			v.add(field+".value", "invalid URI %q", n.Value)
		}
	default:
		v.add(field+".type", "must be dns, email, ip or uri")
	}
}

func (v *validator) outputEncodings(c *Config) {
	named := []struct {
		field string
		slot  *FileSlot
	}{
		{"privateKeyFile", c.PrivateKeyFile},
		{"publicKeyFile", c.PublicKeyFile},
		{"certFile", c.CertFile},
		{"csrFile", c.CsrFile},
		{"crlFile", c.CrlFile},
		{"storeFile", c.StoreFile},
	}
	for _, n := range named {
		if n.slot == nil || n.slot.Encoding == "" {
			continue
		}
		enc, err := ParseEncoding(string(n.slot.Encoding))
		switch {
		case err != nil:
			v.add(n.field+".encoding", "must be DER or PEM")
		case enc == EncodingText:
			v.add(n.field+".encoding", "Text is only valid for transform output")
		}
	}
}
