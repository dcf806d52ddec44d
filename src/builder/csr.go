// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package builder

import (
	"context"
	"crypto/rand"
	"crypto/x509"

	x509certs "github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
)

// CSRBuilder creates PKCS#10 certificate signing requests.
type CSRBuilder struct{ opts options }

// NewCSRBuilder returns a certificate request builder.
func NewCSRBuilder(opts ...Option) *CSRBuilder {
	return &CSRBuilder{opts: newOptions(opts)}
}

// Kind returns [KindCSR].
func (c *CSRBuilder) Kind() Kind { return KindCSR }

// Build signs a request for the configured subject and extensions with the
// subject key and writes it to csrFile. A generated key is exported as well.
func (c *CSRBuilder) Build(ctx context.Context, cfg *model.Config, observe Observer) (*model.Config, error) {
	return c.opts.run(ctx, KindCSR, cfg, observe, func(b *build) error {
		csrSlot, err := reserve("csrFile", &b.cfg.CsrFile)
		if err != nil {
			return err
		}
		keyOut, err := b.reserveKeyOutputs()
		if err != nil {
			return err
		}

		subject, err := marshalName(b.cfg.SubjectName)
		if err != nil {
			return InvalidArgument("subjectName", "%w", err)
		}
		exts := &extensionSet{}
		if err := exts.configured(b.cfg.Extensions); err != nil {
			return err
		}
		if err := exts.keyIdentifiers(b.cfg.Extensions, nil, nil); err != nil {
			return err
		}

		kp, err := b.subjectKey(true)
		if err != nil {
			return err
		}
		alg, err := signatureAlgorithm(kp.private, b.cfg.HashAlgorithm, b.cfg.RsaPadding)
		if err != nil {
			return err
		}

		b.step(StepSigning)
		der, err := x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{
			RawSubject:         subject,
			ExtraExtensions:    exts.list,
			SignatureAlgorithm: alg,
		}, kp.private)
		if err != nil {
			return Unspecified("sign request", err)
		}

		b.emit("csrFile", csrSlot, x509certs.BlockCertificateRequest, der)
		return b.emitKeyOutputs(keyOut, kp)
	})
}
