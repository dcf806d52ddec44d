// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package builder

import (
	"bytes"
	"context"
	"errors"
	"strings"

	x509certs "github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
)

// TransformBuilder re-encodes existing artifacts between DER, PEM and a
// human-readable text dump. Cryptographic content is never changed; encrypted
// private keys are decrypted with the input slot password.
type TransformBuilder struct{ opts options }

// NewTransformBuilder returns a transform builder.
func NewTransformBuilder(opts ...Option) *TransformBuilder {
	return &TransformBuilder{opts: newOptions(opts)}
}

// Kind returns [KindTransform].
func (t *TransformBuilder) Kind() Kind { return KindTransform }

// Build decodes every transform input and writes it, in transform.encoding, to
// the transformFiles slot of the same index. Missing slots are created; the
// encoding of every output slot is set to transform.encoding.
func (t *TransformBuilder) Build(ctx context.Context, cfg *model.Config, observe Observer) (*model.Config, error) {
	return t.opts.run(ctx, KindTransform, cfg, observe, func(b *build) error {
		inputs := b.cfg.Transform.Inputs
		target := b.cfg.Transform.Encoding

		for len(b.cfg.TransformFiles) < len(inputs) {
			b.cfg.TransformFiles = append(b.cfg.TransformFiles, nil)
		}
		slots := make([]*model.FileSlot, len(inputs))
		for i := range inputs {
			slot, err := reserve(indexed("transformFiles", i), &b.cfg.TransformFiles[i])
			if err != nil {
				return err
			}
			slot.Encoding = target
			slots[i] = slot
		}

		for i, in := range inputs {
			if err := b.ctx.Err(); err != nil {
				return err
			}
			field := indexed("transform.inputs", i)
			p, err := b.read(field, in)
			if err != nil {
				return err
			}
			artifacts, err := x509certs.Detect(p.data, p.password(in))
			if err != nil {
				if errors.Is(err, x509certs.ErrKeyPassword) {
					return Decryption(field, err)
				}
				return InvalidArgument(field, "%w", err)
			}
			o, err := transformOutput(field, artifacts, target)
			if err != nil {
				return err
			}
			o.field, o.slot = indexed("transformFiles", i), slots[i]
			b.queue(o)
		}
		return nil
	})
}

// transformOutput renders the artifacts of one input. Only the form named by
// target is computed. DER output of several artifacts is only possible when
// they are all certificates.
func transformOutput(field string, artifacts []*x509certs.Artifact, target model.Encoding) (*output, error) {
	o := &output{}
	switch target {
	case model.EncodingText:
		parts := make([]string, len(artifacts))
		for i, a := range artifacts {
			parts[i] = x509certs.Describe(a)
		}
		o.text = strings.Join(parts, "\n")
	case model.EncodingDER:
		if len(artifacts) == 1 {
			o.der = artifacts[0].DER()
			break
		}
		var buf bytes.Buffer
		for _, a := range artifacts {
			if a.Kind != x509certs.KindCertificate && a.Kind != x509certs.KindPKCS7 {
				return nil, InvalidArgument(field, "holds %d artifacts; DER output of several artifacts needs certificates only", len(artifacts))
			}
			buf.Write(x509certs.New().EncodeMultipleDER(a.Certificates))
		}
		o.der = buf.Bytes()
	default:
		var buf bytes.Buffer
		for _, a := range artifacts {
			buf.Write(a.PEM())
		}
		o.pem = buf.Bytes()
	}
	return o, nil
}
