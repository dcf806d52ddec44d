// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package model

import (
	"strings"
	"time"
)

// Defaults applied by [Config.Normalize].
const (
	DefaultValidityDays = 365
	DefaultCrlPeriod    = 7 * 24 * time.Hour
	DefaultEncoding     = EncodingPEM
)

// usesKeyPair reports whether the mode builds from a subject key pair.
func (m Mode) usesKeyPair() bool {
	switch m {
	case ModePrivateKey, ModePublicKey, ModeKeyPair, ModeCertificateSigningRequest, ModeCertificate:
		return true
	}
	return false
}

// Normalize returns a copy of the configuration with every default applied.
// The receiver is not modified.
//
// Defaults:
//   - hash algorithm SHA256, canonicalized to upper case; RSA padding pkcs1
//   - key pair RSA 2048, or ECDSA P-256 when a curve is named
//   - certificate validity from now for 365 days (or Days), clamped to [MaxTime]
//   - revocation list update window from now for 7 days
//   - PEM encoding for every slot except key stores, which default to DER
//
// Timestamps are truncated to whole seconds in UTC.
func (c *Config) Normalize(now time.Time) *Config {
	out := c.Clone()
	if out == nil {
		out = &Config{}
	}
	now = now.UTC().Truncate(time.Second)

	if out.HashAlgorithm == "" {
		out.HashAlgorithm = HashSHA256
	}
	out.HashAlgorithm, _ = CanonicalHash(out.HashAlgorithm)
	out.RsaPadding = strings.ToLower(strings.TrimSpace(out.RsaPadding))
	if out.RsaPadding == "" {
		out.RsaPadding = PaddingPKCS1
	}

	if out.KeyPair == nil && out.Mode.usesKeyPair() {
		out.KeyPair = &KeyPairSpec{}
	}
	out.KeyPair.normalize()

	if out.Issuer != nil && out.Issuer.HashAlgorithm != "" {
		out.Issuer.HashAlgorithm, _ = CanonicalHash(out.Issuer.HashAlgorithm)
	}

	switch out.Mode {
	case ModeCertificate:
		if out.Validity == nil {
			out.Validity = &Validity{}
		}
		out.Validity.normalize(now)
	case ModeCrl:
		if out.CrlValidity == nil {
			out.CrlValidity = &CrlValidity{}
		}
		out.CrlValidity.normalize(now)
	}

	for i := range out.CrlEntries {
		out.CrlEntries[i].RevocationDate = out.CrlEntries[i].RevocationDate.UTC()
	}
	if out.Transform != nil {
		out.Transform.Encoding = canonicalEncoding(out.Transform.Encoding, DefaultEncoding)
	}

	for _, s := range out.slots() {
		s.Encoding = canonicalEncoding(s.Encoding, DefaultEncoding)
	}
	for _, s := range []*FileSlot{out.StoreFile, out.issuerStore()} {
		if s != nil {
			s.Encoding = canonicalEncoding(s.Encoding, EncodingDER)
		}
	}
	return out
}

// canonicalEncoding returns e in its canonical spelling, def when e is empty, or e
// unchanged when it is unknown so that validation can report it.
func canonicalEncoding(e, def Encoding) Encoding {
	if e == "" {
		return def
	}
	if canon, err := ParseEncoding(string(e)); err == nil {
		return canon
	}
	return e
}

func (k *KeyPairSpec) normalize() {
	if k == nil {
		return
	}
	k.Algorithm = KeyAlgorithm(strings.ToUpper(strings.TrimSpace(string(k.Algorithm))))
	if k.Algorithm == "" {
		k.Algorithm = KeyAlgorithmRSA
		if k.Curve != "" {
			k.Algorithm = KeyAlgorithmECDSA
		}
	}
	switch k.Algorithm {
	case KeyAlgorithmRSA:
		if k.KeySize == 0 {
			k.KeySize = DefaultRSAKeySize
		}
	case KeyAlgorithmECDSA:
		if k.Curve == "" {
			k.Curve = CurveP256
		}
		if canon, ok := CanonicalCurve(k.Curve); ok {
			k.Curve = canon
		}
	}
}

func (v *Validity) normalize(now time.Time) {
	if v.NotBefore == nil {
		v.NotBefore = &now
	}
	notBefore := v.NotBefore.UTC()
	v.NotBefore = &notBefore

	if v.NotAfter == nil {
		days := v.Days
		if days <= 0 {
			days = DefaultValidityDays
		}
		notAfter := notBefore.AddDate(0, 0, days)
		v.NotAfter = &notAfter
	}
	notAfter := v.NotAfter.UTC()
	if notAfter.After(MaxTime) {
		notAfter = MaxTime
	}
	v.NotAfter = &notAfter
}

func (v *CrlValidity) normalize(now time.Time) {
	if v.ThisUpdate == nil {
		v.ThisUpdate = &now
	}
	thisUpdate := v.ThisUpdate.UTC()
	v.ThisUpdate = &thisUpdate

	if v.NextUpdate == nil {
		next := thisUpdate.Add(DefaultCrlPeriod)
		v.NextUpdate = &next
	}
	next := v.NextUpdate.UTC()
	if next.After(MaxTime) {
		next = MaxTime
	}
	v.NextUpdate = &next
}

// slots lists every non-nil slot that carries an encoded artifact, excluding key stores.
func (c *Config) slots() []*FileSlot {
	var all []*FileSlot
	if c.KeyPair != nil {
		all = append(all, c.KeyPair.PrivateKey, c.KeyPair.PublicKey)
	}
	if c.Issuer != nil {
		all = append(all, c.Issuer.PrivateKey, c.Issuer.Certificate)
	}
	if c.Transform != nil {
		all = append(all, c.Transform.Inputs...)
	}
	all = append(all, c.PrivateKeyFile, c.PublicKeyFile, c.CertFile, c.CsrFile, c.CrlFile)
	all = append(all, c.TransformFiles...)

	out := all[:0]
	for _, s := range all {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) issuerStore() *FileSlot {
	if c.Issuer == nil {
		return nil
	}
	return c.Issuer.Store
}
