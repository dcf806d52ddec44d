// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package builder

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"errors"
	"math/big"

	x509certs "github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/logger"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
)

// MaxSerialOctets is the longest serial number RFC 5280 allows, in DER content octets.
const MaxSerialOctets = 20

// serialLimit bounds random serials to 159 bits, so that they stay positive and
// within [MaxSerialOctets] once DER encoded.
var serialLimit = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 159), big.NewInt(1))

// CertBuilder creates X.509 certificates, either self-signed or issued by a CA
// from a certificate signing request.
type CertBuilder struct{ opts options }

// NewCertBuilder returns a certificate builder.
func NewCertBuilder(opts ...Option) *CertBuilder {
	return &CertBuilder{opts: newOptions(opts)}
}

// Kind returns [KindCertificate].
func (c *CertBuilder) Kind() Kind { return KindCertificate }

// Build writes the certificate to certFile and, when storeFile is present, a
// PKCS#12 store holding the subject key, the certificate and the issuer chain.
//
// Without an issuer the certificate is self-signed: the subject is also the
// issuer and the subject key signs. With an issuer the subject key and, unless
// subjectName is set, the subject come from the request in csrFile.
func (c *CertBuilder) Build(ctx context.Context, cfg *model.Config, observe Observer) (*model.Config, error) {
	return c.opts.run(ctx, KindCertificate, cfg, observe, func(b *build) error {
		certSlot, err := reserve("certFile", &b.cfg.CertFile)
		if err != nil {
			return err
		}
		var storeSlot *model.FileSlot
		if b.cfg.StoreFile != nil {
			if storeSlot, err = reserve("storeFile", &b.cfg.StoreFile); err != nil {
				return err
			}
		}
		serial, err := b.serialNumber()
		if err != nil {
			return err
		}

		if b.cfg.Issuer == nil {
			return b.selfSigned(serial, certSlot, storeSlot)
		}
		return b.issued(serial, certSlot, storeSlot)
	})
}

// serialNumber returns the configured serial, or a random positive one.
// Configured serials longer than [MaxSerialOctets] are used but logged.
func (b *build) serialNumber() (*big.Int, error) {
	if b.cfg.SerialNumber == nil {
		n, err := rand.Int(rand.Reader, serialLimit)
		if err != nil {
			return nil, Unspecified("serial number", err)
		}
		return n.Add(n, big.NewInt(1)), nil
	}

	n := b.cfg.SerialNumber.Big()
	if n.Sign() <= 0 {
		return nil, InvalidArgument("serialNumber", "must be positive")
	}
	if octets := serialOctets(n); octets > MaxSerialOctets {
		logger.Warnf(b.opts.log, "serial number %s is %d octets long; RFC 5280 allows at most %d",
			n.Text(16), octets, MaxSerialOctets)
	}
	return n, nil
}

// serialOctets is the length of the DER INTEGER content of a positive n.
func serialOctets(n *big.Int) int {
	octets := (n.BitLen() + 7) / 8
	if n.BitLen()%8 == 0 {
		octets++
	}
	return octets
}

func (b *build) template(serial *big.Int, subject []byte, exts *extensionSet, alg x509.SignatureAlgorithm) *x509.Certificate {
	return &x509.Certificate{
		SerialNumber:       serial,
		RawSubject:         subject,
		NotBefore:          *b.cfg.Validity.NotBefore,
		NotAfter:           *b.cfg.Validity.NotAfter,
		ExtraExtensions:    exts.list,
		SignatureAlgorithm: alg,
	}
}

func (b *build) selfSigned(serial *big.Int, certSlot, storeSlot *model.FileSlot) error {
	keyOut, err := b.reserveKeyOutputs()
	if err != nil {
		return err
	}
	subject, err := marshalName(b.cfg.SubjectName)
	if err != nil {
		return InvalidArgument("subjectName", "%w", err)
	}

	kp, err := b.subjectKey(true)
	if err != nil {
		return err
	}
	keyID, err := x509certs.KeyID(kp.public)
	if err != nil {
		return InvalidArgument("keyPair", "%w", err)
	}

	exts := &extensionSet{}
	if err := exts.configured(b.cfg.Extensions); err != nil {
		return err
	}
	if err := exts.keyIdentifiers(b.cfg.Extensions, keyID, keyID); err != nil {
		return err
	}
	alg, err := signatureAlgorithm(kp.private, b.cfg.HashAlgorithm, b.cfg.RsaPadding)
	if err != nil {
		return err
	}

	b.step(StepSigning)
	tmpl := b.template(serial, subject, exts, alg)
	cert, err := b.sign(tmpl, tmpl, kp.public, kp.private)
	if err != nil {
		return err
	}

	b.emit("certFile", certSlot, x509certs.BlockCertificate, cert.Raw)
	if storeSlot != nil {
		if err := b.emitStore(storeSlot, kp.private, cert, nil); err != nil {
			return err
		}
	}
	return b.emitKeyOutputs(keyOut, kp)
}

func (b *build) issued(serial *big.Int, certSlot, storeSlot *model.FileSlot) error {
	p, err := b.read("csrFile", b.cfg.CsrFile)
	if err != nil {
		return err
	}
	opts := b.cfg.Csr
	if opts == nil {
		opts = &model.CsrOptions{}
	}
	req, err := x509certs.DecodeRequest(p.data, !opts.SkipSignatureValidation)
	switch {
	case errors.Is(err, x509certs.ErrRequestSignature):
		return InvalidArgument("csrFile", "the request signature is invalid")
	case err != nil:
		return InvalidArgument("csrFile", "%w", err)
	}

	is, err := b.loadIssuer()
	if err != nil {
		return err
	}

	subject := req.RawSubject
	if n := b.cfg.SubjectName; n != nil && (n.Empty || !n.IsZero()) {
		if subject, err = marshalName(n); err != nil {
			return InvalidArgument("subjectName", "%w", err)
		}
	}

	keyID, err := x509certs.KeyID(req.PublicKey)
	if err != nil {
		return InvalidArgument("csrFile", "%w", err)
	}
	exts := &extensionSet{}
	if err := exts.configured(b.cfg.Extensions); err != nil {
		return err
	}
	if err := exts.keyIdentifiers(b.cfg.Extensions, keyID, is.cert.SubjectKeyId); err != nil {
		return err
	}
	if opts.ImportExtensions {
		exts.importMissing(req.Extensions)
	}

	alg, err := signatureAlgorithm(is.key, b.issuerHash(), b.cfg.RsaPadding)
	if err != nil {
		return err
	}

	var subjectKey crypto.Signer
	if storeSlot != nil {
		if subjectKey, err = b.storeKey(req.PublicKey); err != nil {
			return err
		}
	}

	b.step(StepSigning)
	cert, err := b.sign(b.template(serial, subject, exts, alg), is.cert, req.PublicKey, is.key)
	if err != nil {
		return err
	}

	b.emit("certFile", certSlot, x509certs.BlockCertificate, cert.Raw)
	if storeSlot != nil {
		chain := append([]*x509.Certificate{is.cert}, is.chain...)
		return b.emitStore(storeSlot, subjectKey, cert, chain)
	}
	return nil
}

// storeKey loads the subject private key a CA-issued store needs. It must match
// the request's public key.
func (b *build) storeKey(pub crypto.PublicKey) (crypto.Signer, error) {
	if !b.cfg.KeyPair.PrivateKey.HasSource() {
		return nil, InvalidArgument("storeFile", "exporting a store for a CA-issued certificate needs keyPair.privateKey")
	}
	key, err := b.loadPrivateKey("keyPair.privateKey", b.cfg.KeyPair.PrivateKey)
	if err != nil {
		return nil, err
	}
	if !x509certs.PublicKeyEqual(key.Public(), pub) {
		return nil, InvalidArgument("keyPair.privateKey", "does not match the request public key")
	}
	return key, nil
}

func (b *build) sign(tmpl, parent *x509.Certificate, pub crypto.PublicKey, priv crypto.Signer) (*x509.Certificate, error) {
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, pub, priv)
	if err != nil {
		return nil, Unspecified("sign certificate", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, Unspecified("sign certificate", err)
	}
	return cert, nil
}

func (b *build) emitStore(slot *model.FileSlot, key crypto.Signer, cert *x509.Certificate, chain []*x509.Certificate) error {
	password := ""
	if slot.Password != nil {
		password = *slot.Password
	}
	der, err := x509certs.EncodeStore(key, cert, chain, password)
	if err != nil {
		return InvalidArgument("storeFile", "%w", err)
	}
	b.queue(&output{field: "storeFile", slot: slot, der: der, store: true})
	return nil
}
