// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package builder

import (
	"context"

	x509certs "github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
)

// KeyPairBuilder generates or re-encodes keys for the PrivateKey, PublicKey and
// KeyPair modes.
//
// Without a keyPair.privateKey source a new key is generated. Otherwise the
// supplied key is loaded, which makes the builder a re-encoder: a key can be moved
// between PEM and DER, or between passwords, without changing it.
type KeyPairBuilder struct{ opts options }

// NewKeyPairBuilder returns a key pair builder.
func NewKeyPairBuilder(opts ...Option) *KeyPairBuilder {
	return &KeyPairBuilder{opts: newOptions(opts)}
}

// Kind returns [KindKeyPair].
func (k *KeyPairBuilder) Kind() Kind { return KindKeyPair }

// Build exports the private key to privateKeyFile (PrivateKey and KeyPair modes)
// and the public key to publicKeyFile (PublicKey and KeyPair modes).
func (k *KeyPairBuilder) Build(ctx context.Context, cfg *model.Config, observe Observer) (*model.Config, error) {
	return k.opts.run(ctx, KindKeyPair, cfg, observe, func(b *build) error {
		mode := b.cfg.Mode
		wantPrivate := mode == model.ModePrivateKey || mode == model.ModeKeyPair
		wantPublic := mode == model.ModePublicKey || mode == model.ModeKeyPair

		var privSlot, pubSlot *model.FileSlot
		var err error
		if wantPrivate {
			if privSlot, err = reserve("privateKeyFile", &b.cfg.PrivateKeyFile); err != nil {
				return err
			}
		}
		if wantPublic {
			if pubSlot, err = reserve("publicKeyFile", &b.cfg.PublicKeyFile); err != nil {
				return err
			}
		}

		kp, err := b.subjectKey(wantPrivate)
		if err != nil {
			return err
		}
		if wantPrivate {
			if err := b.emitPrivateKey("privateKeyFile", privSlot, kp); err != nil {
				return err
			}
		}
		if wantPublic {
			if err := b.emitPublicKey("publicKeyFile", pubSlot, kp); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *build) emitPrivateKey(field string, slot *model.FileSlot, kp *keyPair) error {
	der, err := x509certs.MarshalPrivateKey(kp.private)
	if err != nil {
		return InvalidArgument("keyPair.privateKey", "%w", err)
	}
	b.emit(field, slot, x509certs.BlockPrivateKey, der)
	return nil
}

func (b *build) emitPublicKey(field string, slot *model.FileSlot, kp *keyPair) error {
	der, err := x509certs.MarshalPublicKey(kp.public)
	if err != nil {
		return InvalidArgument("keyPair.publicKey", "%w", err)
	}
	b.emit(field, slot, x509certs.BlockPublicKey, der)
	return nil
}

// keyOutputs are the slots that receive a generated subject key.
type keyOutputs struct {
	private, public *model.FileSlot
}

// reserveKeyOutputs reserves privateKeyFile and publicKeyFile when the subject
// key is going to be generated. Loaded keys are not exported again.
func (b *build) reserveKeyOutputs() (*keyOutputs, error) {
	if b.cfg.KeyPair.PrivateKey.HasSource() {
		return nil, nil
	}
	priv, err := reserve("privateKeyFile", &b.cfg.PrivateKeyFile)
	if err != nil {
		return nil, err
	}
	pub, err := reserve("publicKeyFile", &b.cfg.PublicKeyFile)
	if err != nil {
		return nil, err
	}
	return &keyOutputs{private: priv, public: pub}, nil
}

func (b *build) emitKeyOutputs(out *keyOutputs, kp *keyPair) error {
	if out == nil {
		return nil
	}
	if err := b.emitPrivateKey("privateKeyFile", out.private, kp); err != nil {
		return err
	}
	return b.emitPublicKey("publicKeyFile", out.public, kp)
}
