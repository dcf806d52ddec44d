// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package builder

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"

	x509certs "github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
	"github.com/cloudflare/cfssl/csr"
	"github.com/cloudflare/cfssl/helpers"
)

func indexed(field string, i int) string { return fmt.Sprintf("%s[%d]", field, i) }

// keyPair is the subject key material of a build.
type keyPair struct {
	private   crypto.Signer
	public    crypto.PublicKey
	generated bool
}

var curveSizes = map[string]int{
	model.CurveP256: 256,
	model.CurveP384: 384,
	model.CurveP521: 521,
}

// generateKey creates a key pair from a normalized spec.
func generateKey(spec *model.KeyPairSpec) (crypto.Signer, error) {
	req := csr.NewKeyRequest()
	switch spec.Algorithm {
	case model.KeyAlgorithmRSA:
		req.A, req.S = "rsa", spec.KeySize
	case model.KeyAlgorithmECDSA:
		size, ok := curveSizes[spec.Curve]
		if !ok {
			return nil, InvalidArgument("keyPair.curve", "unsupported curve %q", spec.Curve)
		}
		req.A, req.S = "ecdsa", size
	default:
		return nil, InvalidArgument("keyPair.algorithm", "unsupported algorithm %q", spec.Algorithm)
	}

	priv, err := req.Generate()
	if err != nil {
		return nil, InvalidArgument("keyPair", "%w", err)
	}
	signer, ok := priv.(crypto.Signer)
	if !ok {
		return nil, Unspecified("generate key", fmt.Errorf("%T is not a signer", priv))
	}
	return signer, nil
}

// loadPrivateKey reads and decodes a private key slot.
func (b *build) loadPrivateKey(field string, slot *model.FileSlot) (crypto.Signer, error) {
	p, err := b.read(field, slot)
	if err != nil {
		return nil, err
	}
	password := p.password(slot)
	if password == nil && x509certs.IsEncryptedKey(p.data) {
		return nil, InvalidArgument(field+".password", "required for an encrypted private key")
	}
	key, err := x509certs.ParsePrivateKey(p.data, password)
	switch {
	case err == nil:
		return key, nil
	case errors.Is(err, x509certs.ErrKeyPassword):
		return nil, Decryption(field, err)
	default:
		return nil, InvalidArgument(field, "%w", err)
	}
}

func (b *build) loadPublicKey(field string, slot *model.FileSlot) (crypto.PublicKey, error) {
	p, err := b.read(field, slot)
	if err != nil {
		return nil, err
	}
	pub, err := x509certs.ParsePublicKey(p.data)
	if err != nil {
		return nil, InvalidArgument(field, "%w", err)
	}
	return pub, nil
}

func (b *build) loadCertificate(field string, slot *model.FileSlot) (*x509.Certificate, error) {
	p, err := b.read(field, slot)
	if err != nil {
		return nil, err
	}
	cert, err := x509certs.New().Decode(p.data)
	if err != nil {
		return nil, InvalidArgument(field, "%w", err)
	}
	return cert, nil
}

// subjectKey loads the configured subject key pair or generates one.
// When needPrivate is false a public key alone satisfies the request.
func (b *build) subjectKey(needPrivate bool) (*keyPair, error) {
	spec := b.cfg.KeyPair
	if !spec.PrivateKey.HasSource() && (needPrivate || !spec.PublicKey.HasSource()) {
		b.step(StepGeneratingKey)
		key, err := generateKey(spec)
		if err != nil {
			return nil, err
		}
		return &keyPair{private: key, public: key.Public(), generated: true}, nil
	}

	b.step(StepLoadingKey)
	kp := &keyPair{}
	if spec.PrivateKey.HasSource() {
		key, err := b.loadPrivateKey("keyPair.privateKey", spec.PrivateKey)
		if err != nil {
			return nil, err
		}
		kp.private, kp.public = key, key.Public()
	}
	if spec.PublicKey.HasSource() {
		pub, err := b.loadPublicKey("keyPair.publicKey", spec.PublicKey)
		if err != nil {
			return nil, err
		}
		if kp.public != nil && !x509certs.PublicKeyEqual(kp.public, pub) {
			return nil, InvalidArgument("keyPair.publicKey", "does not match keyPair.privateKey")
		}
		kp.public = pub
	}
	return kp, nil
}

// issuer is the signing material of a CA-issued certificate or a CRL.
type issuer struct {
	key   crypto.Signer
	cert  *x509.Certificate
	chain []*x509.Certificate
}

// loadIssuer reads the issuer key and certificate from their slots or from a
// PKCS#12 store, and checks that they belong together.
func (b *build) loadIssuer() (*issuer, error) {
	b.step(StepLoadingKey)
	spec := b.cfg.Issuer

	is := &issuer{}
	if spec.Store.HasSource() {
		p, err := b.read("issuer.store", spec.Store)
		if err != nil {
			return nil, err
		}
		store, err := x509certs.DecodeStore(p.data, string(p.password(spec.Store)), spec.StoreAlias)
		switch {
		case errors.Is(err, x509certs.ErrStorePassword):
			return nil, Decryption("issuer.store", err)
		case errors.Is(err, x509certs.ErrStoreAlias), errors.Is(err, x509certs.ErrStoreAliasUnsupported):
			return nil, InvalidArgument("issuer.storeAlias", "%w", err)
		case err != nil:
			return nil, InvalidArgument("issuer.store", "%w", err)
		}
		is.key, is.cert, is.chain = store.Key, store.Certificate, store.CACerts
	} else {
		key, err := b.loadPrivateKey("issuer.privateKey", spec.PrivateKey)
		if err != nil {
			return nil, err
		}
		cert, err := b.loadCertificate("issuer.certificate", spec.Certificate)
		if err != nil {
			return nil, err
		}
		is.key, is.cert = key, cert
	}

	if is.cert == nil {
		return nil, InvalidArgument("issuer.store", "holds no certificate for the selected key")
	}
	if !x509certs.PublicKeyEqual(is.key.Public(), is.cert.PublicKey) {
		return nil, InvalidArgument("issuer.privateKey", "does not match the issuer certificate")
	}
	return is, nil
}

// issuerHash returns the hash used with the issuer key, falling back to the build hash.
func (b *build) issuerHash() string {
	if h := b.cfg.Issuer.HashAlgorithm; h != "" {
		return h
	}
	return b.cfg.HashAlgorithm
}

var (
	rsaAlgorithms = map[string]x509.SignatureAlgorithm{
		model.HashSHA256: x509.SHA256WithRSA,
		model.HashSHA384: x509.SHA384WithRSA,
		model.HashSHA512: x509.SHA512WithRSA,
	}
	rsaPSSAlgorithms = map[string]x509.SignatureAlgorithm{
		model.HashSHA256: x509.SHA256WithRSAPSS,
		model.HashSHA384: x509.SHA384WithRSAPSS,
		model.HashSHA512: x509.SHA512WithRSAPSS,
	}
	ecdsaAlgorithms = map[string]x509.SignatureAlgorithm{
		model.HashSHA256: x509.ECDSAWithSHA256,
		model.HashSHA384: x509.ECDSAWithSHA384,
		model.HashSHA512: x509.ECDSAWithSHA512,
	}
)

// signatureAlgorithm picks the algorithm for key, hash and RSA padding. Keys
// whose algorithm fixes the digest, such as Ed25519, use their own.
func signatureAlgorithm(key crypto.Signer, hash, padding string) (x509.SignatureAlgorithm, error) {
	var table map[string]x509.SignatureAlgorithm
	switch key.Public().(type) {
	case *rsa.PublicKey:
		table = rsaAlgorithms
		if strings.EqualFold(padding, model.PaddingPSS) {
			table = rsaPSSAlgorithms
		}
	case *ecdsa.PublicKey:
		table = ecdsaAlgorithms
	default:
		if alg := helpers.SignerAlgo(key); alg != x509.UnknownSignatureAlgorithm {
			return alg, nil
		}
		return x509.UnknownSignatureAlgorithm, InvalidArgument("keyPair", "unsupported key type %T", key.Public())
	}
	alg, ok := table[hash]
	if !ok {
		return x509.UnknownSignatureAlgorithm, InvalidArgument("hashAlgorithm", "unsupported hash algorithm %q", hash)
	}
	return alg, nil
}
