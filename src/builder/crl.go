// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package builder

import (
	"context"
	"crypto/rand"
	"crypto/x509"
	"math/big"

	x509certs "github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
)

// CRLBuilder creates certificate revocation lists signed by an issuer.
type CRLBuilder struct{ opts options }

// NewCRLBuilder returns a revocation list builder.
func NewCRLBuilder(opts ...Option) *CRLBuilder {
	return &CRLBuilder{opts: newOptions(opts)}
}

// Kind returns [KindCRL].
func (c *CRLBuilder) Kind() Kind { return KindCRL }

// Build signs a revocation list for the configured entries and writes it to
// crlFile. Without crlNumber the list is numbered with thisUpdate in Unix seconds,
// which keeps successive lists of one issuer increasing. A configured crlNumber
// longer than [MaxSerialOctets] is rejected, since the list cannot be signed with it.
func (c *CRLBuilder) Build(ctx context.Context, cfg *model.Config, observe Observer) (*model.Config, error) {
	return c.opts.run(ctx, KindCRL, cfg, observe, func(b *build) error {
		crlSlot, err := reserve("crlFile", &b.cfg.CrlFile)
		if err != nil {
			return err
		}

		thisUpdate, nextUpdate := *b.cfg.CrlValidity.ThisUpdate, *b.cfg.CrlValidity.NextUpdate
		number := big.NewInt(thisUpdate.Unix())
		if b.cfg.CrlNumber != nil {
			number = b.cfg.CrlNumber.Big()
			if octets := serialOctets(number); octets > MaxSerialOctets {
				return InvalidArgument("crlNumber", "is %d octets long; exceeds %d octets", octets, MaxSerialOctets)
			}
		}

		entries := make([]x509.RevocationListEntry, 0, len(b.cfg.CrlEntries))
		for i, e := range b.cfg.CrlEntries {
			entry := x509.RevocationListEntry{
				SerialNumber:   e.SerialNumber.Big(),
				RevocationTime: e.RevocationDate,
			}
			if e.Reason != "" {
				code, ok := x509certs.ParseReason(e.Reason)
				if !ok {
					return InvalidArgument(indexed("crlEntries", i)+".reason", "unknown revocation reason %q", e.Reason)
				}
				entry.ReasonCode = code
			}
			entries = append(entries, entry)
		}

		is, err := b.loadIssuer()
		if err != nil {
			return err
		}
		if is.cert.KeyUsage&x509.KeyUsageCRLSign == 0 {
			return InvalidArgument("issuer.certificate", "the issuer certificate lacks the cRLSign key usage")
		}
		if len(is.cert.SubjectKeyId) == 0 {
			return InvalidArgument("issuer.certificate", "the issuer certificate has no subject key identifier")
		}
		alg, err := signatureAlgorithm(is.key, b.issuerHash(), b.cfg.RsaPadding)
		if err != nil {
			return err
		}

		b.step(StepSigning)
		der, err := x509.CreateRevocationList(rand.Reader, &x509.RevocationList{
			SignatureAlgorithm:        alg,
			RevokedCertificateEntries: entries,
			Number:                    number,
			ThisUpdate:                thisUpdate,
			NextUpdate:                nextUpdate,
		}, is.cert, is.key)
		if err != nil {
			return Unspecified("sign revocation list", err)
		}

		b.emit("crlFile", crlSlot, x509certs.BlockCRL, der)
		return nil
	})
}
