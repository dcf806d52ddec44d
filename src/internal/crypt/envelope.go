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
	"crypto/rand"
	"crypto/sha256"
	"encoding/asn1"
	"errors"
	"fmt"
	"io"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/helper/gc"
	"golang.org/x/crypto/cryptobyte"
	casn1 "golang.org/x/crypto/cryptobyte/asn1"
)

const (
	// DefaultIterations is the PBKDF2 iteration count used for new envelopes.
	DefaultIterations = 1_000_000

	// DefaultSaltSize is the PBKDF2 salt size in bytes used for new envelopes.
	DefaultSaltSize = 256

	// DefaultChunkSize is the number of plaintext bytes processed per copy iteration.
	DefaultChunkSize = 32 << 10

	// MaxIterations bounds the iteration count accepted from an envelope.
	MaxIterations = 10_000_000

	// PEMType is the PEM label for an armored envelope (RFC 7468).
	PEMType = "CMS"

	gcmNonceSize = 12
	gcmTagSize   = 16
)

var (
	// ErrDecryption indicates that an envelope could not be decrypted because the
	// password is wrong, the data is corrupted or the envelope uses an unsupported form.
	ErrDecryption = errors.New("crypt: decryption failed")

	// ErrEmptyPassword indicates that an empty password was supplied for encryption.
	ErrEmptyPassword = errors.New("crypt: password must not be empty")

	// ErrUnknownCipher indicates that the requested cipher is not supported.
	ErrUnknownCipher = errors.New("crypt: unknown cipher")
)

// Engine encrypts and decrypts password protected envelopes.
// The zero value uses the package defaults.
//
// Thread Safety: An Engine holds no mutable state and is safe for concurrent use.
type Engine struct {
	// Iterations is the PBKDF2 iteration count for new envelopes.
	Iterations int
	// SaltSize is the PBKDF2 salt length in bytes for new envelopes.
	SaltSize int
	// ChunkSize is the plaintext chunk size; it is rounded down to a whole number of AES blocks.
	ChunkSize int
}

// Default is the engine configured with the package defaults.
var Default = &Engine{}

func (e *Engine) iterations() int {
	if e == nil || e.Iterations <= 0 {
		return DefaultIterations
	}
	return e.Iterations
}

func (e *Engine) saltSize() int {
	if e == nil || e.SaltSize <= 0 {
		return DefaultSaltSize
	}
	return e.SaltSize
}

func (e *Engine) chunkSize() int {
	n := DefaultChunkSize
	if e != nil && e.ChunkSize >= aes.BlockSize {
		n = e.ChunkSize
	}
	return n - n%aes.BlockSize
}

// sealer holds the per envelope keys and serialized headers.
type sealer struct {
	cipher    Cipher
	cek       []byte
	iv        []byte // CBC IV or GCM nonce
	recipient []byte // DER RecipientInfo
	algorithm []byte // DER content encryption AlgorithmIdentifier
}

func (e *Engine) newSealer(password []byte, c Cipher) (*sealer, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	if !c.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCipher, int(c))
	}

	salt := make([]byte, e.saltSize())
	cek := make([]byte, c.keySize())
	kekIV := make([]byte, aes.BlockSize)
	iv := make([]byte, aes.BlockSize)
	if c == AES256GCM {
		iv = iv[:gcmNonceSize]
	}
	for _, b := range [][]byte{salt, cek, kekIV, iv} {
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("crypt: random source: %w", err)
		}
	}

	iterations := e.iterations()
	kek := deriveKEK(password, salt, iterations, c.keySize(), sha256.New)
	wrapped, err := wrapKey(kek, kekIV, cek)
	if err != nil {
		return nil, err
	}

	rb := cryptobyte.NewBuilder(nil)
	rb.AddASN1(casn1.Tag(3).ContextSpecific().Constructed(), func(b *cryptobyte.Builder) {
		b.AddASN1Int64(0)
		b.AddASN1(casn1.Tag(0).ContextSpecific().Constructed(), func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oidPBKDF2)
			b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1OctetString(salt)
				b.AddASN1Int64(int64(iterations))
				b.AddASN1Int64(int64(c.keySize()))
				b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
					b.AddASN1ObjectIdentifier(oidHMACWithSHA256)
					b.AddASN1NULL()
				})
			})
		})
		b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oidPWRIKEK)
			b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1ObjectIdentifier(c.kekOID())
				b.AddASN1OctetString(kekIV)
			})
		})
		b.AddASN1OctetString(wrapped)
	})
	recipient, err := rb.Bytes()
	if err != nil {
		return nil, fmt.Errorf("crypt: encode recipient: %w", err)
	}

	ab := cryptobyte.NewBuilder(nil)
	ab.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(c.oid())
		if c == AES256GCM {
			b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1OctetString(iv)
				b.AddASN1Int64(gcmTagSize)
			})
			return
		}
		b.AddASN1OctetString(iv)
	})
	algorithm, err := ab.Bytes()
	if err != nil {
		return nil, fmt.Errorf("crypt: encode algorithm: %w", err)
	}

	return &sealer{cipher: c, cek: cek, iv: iv, recipient: recipient, algorithm: algorithm}, nil
}

// seal encrypts src and hands each ciphertext chunk to emit.
func (s *sealer) seal(ctx context.Context, src io.Reader, chunk int, emit func([]byte) error) error {
	block, err := aes.NewCipher(s.cek)
	if err != nil {
		return fmt.Errorf("crypt: content key: %w", err)
	}

	if s.cipher == AES256GCM {
		aead, err := cipher.NewGCMWithTagSize(block, gcmTagSize)
		if err != nil {
			return fmt.Errorf("crypt: content cipher: %w", err)
		}
		plain, err := readAll(ctx, src, chunk)
		if err != nil {
			return err
		}
		sealed := aead.Seal(nil, s.iv, plain, nil)
		for len(sealed) > 0 {
			n := min(chunk, len(sealed))
			if err := emit(sealed[:n]); err != nil {
				return err
			}
			sealed = sealed[n:]
		}
		return nil
	}

	mode := cipher.NewCBCEncrypter(block, s.iv)
	buf := make([]byte, chunk)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := io.ReadFull(src, buf)
		switch {
		case err == nil:
			mode.CryptBlocks(buf, buf)
			if err := emit(buf); err != nil {
				return err
			}
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			pad := aes.BlockSize - n%aes.BlockSize
			last := append(buf[:n:n], bytes.Repeat([]byte{byte(pad)}, pad)...)
			mode.CryptBlocks(last, last)
			return emit(last)
		default:
			return fmt.Errorf("crypt: read plaintext: %w", err)
		}
	}
}

// readAll buffers src for the AEAD path, checking ctx between chunks.
func readAll(ctx context.Context, src io.Reader, chunk int) ([]byte, error) {
	return gc.Collect(func(b gc.Buffer) error {
		buf := make([]byte, chunk)
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := src.Read(buf)
			b.Write(buf[:n])
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
		}
	})
}

// Encrypt reads plaintext from src until EOF and writes a BER encoded
// ContentInfo holding an EnvelopedData with one password recipient to dst.
//
// Parameters:
//   - ctx: Checked before each chunk; cancellation aborts the copy
//   - dst: Destination of the envelope
//   - src: Plaintext source
//   - password: UTF-8 password bytes, must not be empty
//   - c: Content encryption cipher
//
// Returns:
//   - error: Context, I/O or parameter errors
func (e *Engine) Encrypt(ctx context.Context, dst io.Writer, src io.Reader, password []byte, c Cipher) error {
	s, err := e.newSealer(password, c)
	if err != nil {
		return err
	}

	head := []byte{tagSequence, 0x80}
	head = append(head, mustOIDElement(oidEnvelopedData)...)
	head = append(head, tagContext0Cons, 0x80, tagSequence, 0x80, tagInteger, 0x01, 0x03, tagSet)
	head = appendLength(head, len(s.recipient))
	head = append(head, s.recipient...)
	head = append(head, tagSequence, 0x80)
	head = append(head, mustOIDElement(oidData)...)
	head = append(head, s.algorithm...)
	head = append(head, tagContext0Cons, 0x80)
	if _, err := dst.Write(head); err != nil {
		return fmt.Errorf("crypt: write envelope: %w", err)
	}

	emit := func(p []byte) error {
		hdr := appendLength([]byte{tagOctetString}, len(p))
		if _, err := dst.Write(hdr); err != nil {
			return fmt.Errorf("crypt: write envelope: %w", err)
		}
		if _, err := dst.Write(p); err != nil {
			return fmt.Errorf("crypt: write envelope: %w", err)
		}
		return nil
	}
	if err := s.seal(ctx, src, e.chunkSize(), emit); err != nil {
		return err
	}

	// End-of-contents for the content, EncryptedContentInfo, EnvelopedData,
	// the explicit [0] and the ContentInfo.
	if _, err := dst.Write(make([]byte, 10)); err != nil {
		return fmt.Errorf("crypt: write envelope: %w", err)
	}
	return nil
}

// EncryptBytes encrypts an in-memory payload and returns a DER encoded envelope.
func (e *Engine) EncryptBytes(plaintext, password []byte, c Cipher) ([]byte, error) {
	s, err := e.newSealer(password, c)
	if err != nil {
		return nil, err
	}

	ciphertext, err := gc.Collect(func(b gc.Buffer) error {
		return s.seal(context.Background(), bytes.NewReader(plaintext), e.chunkSize(), func(p []byte) error {
			_, err := b.Write(p)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(oidEnvelopedData)
		b.AddASN1(casn1.Tag(0).ContextSpecific().Constructed(), func(b *cryptobyte.Builder) {
			b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1Int64(3)
				b.AddASN1(casn1.SET, func(b *cryptobyte.Builder) {
					b.AddBytes(s.recipient)
				})
				b.AddASN1(casn1.SEQUENCE, func(b *cryptobyte.Builder) {
					b.AddASN1ObjectIdentifier(oidData)
					b.AddBytes(s.algorithm)
					b.AddASN1(casn1.Tag(0).ContextSpecific(), func(b *cryptobyte.Builder) {
						b.AddBytes(ciphertext)
					})
				})
			})
		})
	})
	out, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("crypt: encode envelope: %w", err)
	}
	return out, nil
}

// mustOIDElement returns the DER encoding of a well known object identifier.
func mustOIDElement(oid asn1.ObjectIdentifier) []byte {
	b, err := asn1.Marshal(oid)
	if err != nil {
		panic(err)
	}
	return b
}

// IsEnvelope reports whether data starts like a ContentInfo carrying EnvelopedData.
// Both definite and indefinite length outer encodings are recognized.
func IsEnvelope(data []byte) bool {
	if len(data) < 2 || data[0] != tagSequence {
		return false
	}
	off := 2
	if l := data[1]; l > 0x80 {
		off += int(l & 0x7f)
	}
	oid := mustOIDElement(oidEnvelopedData)
	return len(data) >= off+len(oid) && bytes.Equal(data[off:off+len(oid)], oid)
}
