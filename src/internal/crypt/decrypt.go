// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package crypt

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/asn1"
	"errors"
	"fmt"
	"io"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/helper/gc"
	"golang.org/x/crypto/cryptobyte"
	casn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// passwordRecipient is the parsed PasswordRecipientInfo.
type passwordRecipient struct {
	salt       []byte
	iterations int
	keyLength  int
	prf        asn1.ObjectIdentifier
	kekSize    int
	kekIV      []byte
	wrapped    []byte
}

// contentAlgorithm is the parsed content encryption AlgorithmIdentifier.
type contentAlgorithm struct {
	gcm     bool
	keySize int
	iv      []byte
	tagSize int
}

// Decrypt parses an envelope from src, unlocks the first password recipient
// with password and writes the plaintext to dst.
//
// Parameters:
//   - ctx: Checked before each chunk; cancellation aborts the copy
//   - dst: Destination of the plaintext
//   - src: BER or DER encoded envelope
//   - password: UTF-8 password bytes
//
// Returns:
//   - error: [ErrDecryption] for envelope or password failures, otherwise context or I/O errors
func (e *Engine) Decrypt(ctx context.Context, dst io.Writer, src io.Reader, password []byte) error {
	p := newBERReader(src)

	if _, err := p.expect(tagSequence); err != nil {
		return err
	}
	oid, err := p.element(tagOID)
	if err != nil {
		return err
	}
	if !bytes.Equal(oid, mustOIDElement(oidEnvelopedData)[2:]) {
		return fmt.Errorf("%w: content is not enveloped data", ErrDecryption)
	}
	if _, err := p.expect(tagContext0Cons); err != nil {
		return err
	}
	if _, err := p.expect(tagSequence); err != nil {
		return err
	}
	if _, err := p.element(tagInteger); err != nil {
		return err
	}

	h, err := p.readHeader()
	if err != nil {
		return err
	}
	if h.tag == tagContext0Cons {
		// originatorInfo is irrelevant to password recipients.
		if err := p.skip(h); err != nil {
			return err
		}
		if h, err = p.readHeader(); err != nil {
			return err
		}
	}
	if h.tag != tagSet {
		return fmt.Errorf("%w: %w: missing recipient infos", ErrDecryption, errMalformed)
	}
	recipients, err := p.children(h)
	if err != nil {
		return err
	}

	var pwri *passwordRecipient
	for _, r := range recipients {
		if r.tag == tagContext3Cons {
			if pwri, err = parsePasswordRecipient(r.body); err != nil {
				return err
			}
			break
		}
	}
	if pwri == nil {
		return fmt.Errorf("%w: no password recipient", ErrDecryption)
	}

	if _, err := p.expect(tagSequence); err != nil {
		return err
	}
	if _, err := p.element(tagOID); err != nil {
		return err
	}
	algBody, err := p.element(tagSequence)
	if err != nil {
		return err
	}
	alg, err := parseContentAlgorithm(algBody)
	if err != nil {
		return err
	}

	h, err = p.readHeader()
	if err != nil {
		return err
	}
	content, err := newContentReader(p, h)
	if err != nil {
		return err
	}

	prf, err := prfForOID(pwri.prf)
	if err != nil {
		return err
	}
	kek := deriveKEK(password, pwri.salt, pwri.iterations, pwri.kekSize, prf)
	cek, err := unwrapKey(kek, pwri.kekIV, pwri.wrapped)
	if err != nil {
		return err
	}
	if len(cek) != alg.keySize {
		return fmt.Errorf("%w: invalid password or corrupted key", ErrDecryption)
	}

	if alg.gcm {
		return openGCM(ctx, dst, content, cek, alg, e.chunkSize())
	}
	return openCBC(ctx, dst, content, cek, alg.iv, e.chunkSize())
}

// DecryptBytes decrypts an in-memory envelope.
func (e *Engine) DecryptBytes(envelope, password []byte) ([]byte, error) {
	return gc.Collect(func(b gc.Buffer) error {
		return e.Decrypt(context.Background(), b, bytes.NewReader(envelope), password)
	})
}

func parsePasswordRecipient(body []byte) (*passwordRecipient, error) {
	var (
		s       = cryptobyte.String(body)
		version int
		kdf     cryptobyte.String
		kea     cryptobyte.String
		r       passwordRecipient
	)

	if !s.ReadASN1Integer(&version) {
		return nil, fmt.Errorf("%w: %w: recipient version", ErrDecryption, errMalformed)
	}
	if !s.PeekASN1Tag(casn1.Tag(0).ContextSpecific().Constructed()) {
		return nil, fmt.Errorf("%w: password recipient without key derivation algorithm", ErrDecryption)
	}
	if !s.ReadASN1(&kdf, casn1.Tag(0).ContextSpecific().Constructed()) ||
		!s.ReadASN1(&kea, casn1.SEQUENCE) ||
		!s.ReadASN1Bytes(&r.wrapped, casn1.OCTET_STRING) {
		return nil, fmt.Errorf("%w: %w: password recipient", ErrDecryption, errMalformed)
	}

	var (
		kdfOID asn1.ObjectIdentifier
		params cryptobyte.String
	)
	if !kdf.ReadASN1ObjectIdentifier(&kdfOID) || !kdfOID.Equal(oidPBKDF2) {
		return nil, fmt.Errorf("%w: unsupported key derivation algorithm", ErrDecryption)
	}
	if !kdf.ReadASN1(&params, casn1.SEQUENCE) ||
		!params.ReadASN1Bytes(&r.salt, casn1.OCTET_STRING) ||
		!params.ReadASN1Integer(&r.iterations) {
		return nil, fmt.Errorf("%w: %w: PBKDF2 parameters", ErrDecryption, errMalformed)
	}
	if params.PeekASN1Tag(casn1.INTEGER) && !params.ReadASN1Integer(&r.keyLength) {
		return nil, fmt.Errorf("%w: %w: PBKDF2 key length", ErrDecryption, errMalformed)
	}
	if params.PeekASN1Tag(casn1.SEQUENCE) {
		var prf cryptobyte.String
		if !params.ReadASN1(&prf, casn1.SEQUENCE) || !prf.ReadASN1ObjectIdentifier(&r.prf) {
			return nil, fmt.Errorf("%w: %w: PBKDF2 PRF", ErrDecryption, errMalformed)
		}
	}
	if r.iterations < 1 || r.iterations > MaxIterations {
		return nil, fmt.Errorf("%w: iteration count %d out of range", ErrDecryption, r.iterations)
	}

	var (
		keaOID asn1.ObjectIdentifier
		kekAlg cryptobyte.String
		kekOID asn1.ObjectIdentifier
	)
	if !kea.ReadASN1ObjectIdentifier(&keaOID) || !keaOID.Equal(oidPWRIKEK) {
		return nil, fmt.Errorf("%w: unsupported key encryption algorithm", ErrDecryption)
	}
	if !kea.ReadASN1(&kekAlg, casn1.SEQUENCE) ||
		!kekAlg.ReadASN1ObjectIdentifier(&kekOID) ||
		!kekAlg.ReadASN1Bytes(&r.kekIV, casn1.OCTET_STRING) {
		return nil, fmt.Errorf("%w: %w: key encryption parameters", ErrDecryption, errMalformed)
	}
	size, ok := cbcKeySize(kekOID)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported key wrap cipher %s", ErrDecryption, kekOID)
	}
	if r.keyLength != 0 && r.keyLength != size {
		return nil, fmt.Errorf("%w: PBKDF2 key length does not match key wrap cipher", ErrDecryption)
	}
	r.kekSize = size

	return &r, nil
}

func parseContentAlgorithm(body []byte) (contentAlgorithm, error) {
	var (
		s   = cryptobyte.String(body)
		oid asn1.ObjectIdentifier
		alg contentAlgorithm
	)
	if !s.ReadASN1ObjectIdentifier(&oid) {
		return alg, fmt.Errorf("%w: %w: content algorithm", ErrDecryption, errMalformed)
	}

	if oid.Equal(oidAES256GCM) {
		var params cryptobyte.String
		if !s.ReadASN1(&params, casn1.SEQUENCE) || !params.ReadASN1Bytes(&alg.iv, casn1.OCTET_STRING) {
			return alg, fmt.Errorf("%w: %w: GCM parameters", ErrDecryption, errMalformed)
		}
		alg.tagSize = 12
		if params.PeekASN1Tag(casn1.INTEGER) && !params.ReadASN1Integer(&alg.tagSize) {
			return alg, fmt.Errorf("%w: %w: GCM tag length", ErrDecryption, errMalformed)
		}
		if len(alg.iv) != gcmNonceSize || alg.tagSize < 12 || alg.tagSize > 16 {
			return alg, fmt.Errorf("%w: unsupported GCM parameters", ErrDecryption)
		}
		alg.gcm = true
		alg.keySize = 32
		return alg, nil
	}

	size, ok := cbcKeySize(oid)
	if !ok {
		return alg, fmt.Errorf("%w: unsupported content cipher %s", ErrDecryption, oid)
	}
	if !s.ReadASN1Bytes(&alg.iv, casn1.OCTET_STRING) || len(alg.iv) != aes.BlockSize {
		return alg, fmt.Errorf("%w: %w: CBC parameters", ErrDecryption, errMalformed)
	}
	alg.keySize = size
	return alg, nil
}

// openCBC decrypts a CBC stream, holding back the final block until EOF so the
// padding can be checked and stripped.
func openCBC(ctx context.Context, dst io.Writer, src io.Reader, key, iv []byte, chunk int) error {
	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	mode := cipher.NewCBCDecrypter(block, iv)

	const bs = aes.BlockSize
	buf := make([]byte, chunk)
	held := make([]byte, bs)
	haveHeld := false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := io.ReadFull(src, buf)
		final := false
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			final = true
		default:
			return err
		}

		if n%bs != 0 {
			return fmt.Errorf("%w: ciphertext is not a whole number of blocks", ErrDecryption)
		}
		if n > 0 {
			mode.CryptBlocks(buf[:n], buf[:n])
			if haveHeld {
				if _, err := dst.Write(held); err != nil {
					return err
				}
			}
			if _, err := dst.Write(buf[:n-bs]); err != nil {
				return err
			}
			copy(held, buf[n-bs:n])
			haveHeld = true
		}

		if final {
			break
		}
	}

	if !haveHeld {
		return fmt.Errorf("%w: empty ciphertext", ErrDecryption)
	}
	pad := int(held[bs-1])
	if pad < 1 || pad > bs {
		return fmt.Errorf("%w: invalid password or corrupted data", ErrDecryption)
	}
	for _, b := range held[bs-pad:] {
		if int(b) != pad {
			return fmt.Errorf("%w: invalid password or corrupted data", ErrDecryption)
		}
	}
	_, err = dst.Write(held[:bs-pad])
	return err
}

// openGCM authenticates and decrypts a GCM payload. The AEAD primitive needs the
// whole message, so the ciphertext is buffered.
func openGCM(ctx context.Context, dst io.Writer, src io.Reader, key []byte, alg contentAlgorithm, chunk int) error {
	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	aead, err := cipher.NewGCMWithTagSize(block, alg.tagSize)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	sealed, err := readAll(ctx, src, chunk)
	if err != nil {
		return err
	}
	plain, err := aead.Open(nil, alg.iv, sealed, nil)
	if err != nil {
		return fmt.Errorf("%w: invalid password or corrupted data", ErrDecryption)
	}
	_, err = dst.Write(plain)
	return err
}
