// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package builder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/crypt"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/helper/gc"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/stream"
	x509certs "github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
)

// payload is the content of an input slot after the password envelope, if any,
// has been removed.
type payload struct {
	data []byte
	// opened is set when a password envelope was removed. The slot password has
	// then been consumed and must not be applied to the content again.
	opened bool
}

// password returns the slot password still applicable to the content.
func (p payload) password(slot *model.FileSlot) []byte {
	if p.opened {
		return nil
	}
	return slot.PasswordBytes()
}

// read loads an input slot. Inline data wins over the file name. Password
// envelopes are opened with the slot password into a [stream.Cache]; other
// content is returned as is so that codecs with their own protection can use the
// password.
func (b *build) read(field string, slot *model.FileSlot) (payload, error) {
	if !slot.HasSource() {
		return payload{}, InvalidArgument(field, "no data or file name is set")
	}

	var src io.Reader
	if len(slot.Data) > 0 {
		src = bytes.NewReader(slot.Data)
	} else {
		f, err := os.Open(slot.FileName)
		if err != nil {
			return payload{}, Unspecified("read "+field, err)
		}
		src = f
	}
	in := stream.NewInput(src)
	defer in.Close()

	data, err := gc.Collect(func(buf gc.Buffer) error {
		n, err := buf.ReadFrom(io.LimitReader(in, b.opts.maxInput+1))
		if err != nil {
			return err
		}
		if n > b.opts.maxInput {
			return InvalidArgument(field, "payload exceeds %d bytes", b.opts.maxInput)
		}
		return nil
	})
	if err != nil {
		return payload{}, classify("read "+field, err)
	}
	if len(data) == 0 {
		return payload{}, InvalidArgument(field, "payload is empty")
	}

	envelope, ok := crypt.Dearmor(data)
	if !ok {
		return payload{data: data}, nil
	}
	password := slot.PasswordBytes()
	if password == nil {
		return payload{}, InvalidArgument(field+".password", "the payload is password protected")
	}

	cache := stream.NewCache(b.opts.cache...)
	defer cache.Close()
	if err := b.opts.engine.Decrypt(b.ctx, cache, bytes.NewReader(envelope), password); err != nil {
		if errors.Is(err, crypt.ErrDecryption) {
			return payload{}, Decryption(field, err)
		}
		return payload{}, classify("decrypt "+field, err)
	}
	if err := cache.Rewind(); err != nil {
		return payload{}, classify("decrypt "+field, err)
	}
	plain, err := io.ReadAll(cache)
	if err != nil {
		return payload{}, classify("decrypt "+field, err)
	}
	return payload{data: plain, opened: true}, nil
}

// output is an artifact queued for an output slot.
type output struct {
	field string
	slot  *model.FileSlot
	// der and pem are the binary and armored forms; text is the readable dump.
	der  []byte
	pem  []byte
	text string
	// store marks PKCS#12 content, which carries its own protection and is
	// always written in binary form.
	store bool

	encoded []byte
}

// reserve returns the output slot at *slot, creating it when absent. A slot that
// already holds data is rejected.
func reserve(field string, slot **model.FileSlot) (*model.FileSlot, error) {
	if *slot == nil {
		*slot = &model.FileSlot{Encoding: model.DefaultEncoding}
	}
	if (*slot).Filled() {
		return nil, InvalidArgument(field, "already populated")
	}
	return *slot, nil
}

// emit queues an artifact with a single PEM block for slot.
func (b *build) emit(field string, slot *model.FileSlot, blockType string, der []byte) {
	b.pending = append(b.pending, &output{
		field: field,
		slot:  slot,
		der:   der,
		pem:   x509certs.EncodeBlock(blockType, der),
	})
}

func (b *build) queue(o *output) { b.pending = append(b.pending, o) }

// encode renders o in its slot encoding and, when the slot has a password, seals
// the rendering in a password envelope. PEM and text slots receive an armored
// envelope, DER slots a binary one.
func (b *build) encode(o *output) ([]byte, error) {
	if o.store {
		return o.der, nil
	}

	var plain []byte
	switch o.slot.Encoding {
	case model.EncodingDER:
		plain = o.der
	case model.EncodingText:
		plain = []byte(o.text)
	default:
		plain = o.pem
	}

	password := o.slot.PasswordBytes()
	if password == nil {
		return plain, nil
	}

	cache := stream.NewCache(b.opts.cache...)
	defer cache.Close()
	if err := b.opts.engine.Encrypt(b.ctx, cache, bytes.NewReader(plain), password, b.opts.cipher); err != nil {
		return nil, classify("encrypt "+o.field, err)
	}
	if err := cache.Rewind(); err != nil {
		return nil, classify("encrypt "+o.field, err)
	}
	envelope, err := io.ReadAll(cache)
	if err != nil {
		return nil, classify("encrypt "+o.field, err)
	}
	if o.slot.Encoding == model.EncodingDER {
		return envelope, nil
	}
	return crypt.ArmorPEM(envelope), nil
}

// commit encodes every queued output, then writes the files, then fills the
// slots. Nothing is touched until every output has been encoded.
func (b *build) commit() error {
	for _, o := range b.pending {
		enc, err := b.encode(o)
		if err != nil {
			return err
		}
		o.encoded = enc
	}
	if err := writeFiles(b.pending); err != nil {
		return err
	}
	for _, o := range b.pending {
		o.slot.Data = o.encoded
	}
	return nil
}

type stagedFile struct {
	tmp, dst string
}

// writeFiles stages every output that names a file next to its destination and
// renames the staged files into place once all are written. On failure, staged
// files and files already renamed are removed.
func writeFiles(outs []*output) error {
	var staged []stagedFile
	for _, o := range outs {
		if o.slot.FileName == "" {
			continue
		}
		tmp, err := stage(o.slot.FileName, o.encoded)
		if err != nil {
			removeAll(staged, 0)
			return Unspecified("write "+o.field, err)
		}
		staged = append(staged, stagedFile{tmp: tmp, dst: o.slot.FileName})
	}

	for i, s := range staged {
		if err := os.Rename(s.tmp, s.dst); err != nil {
			for _, done := range staged[:i] {
				os.Remove(done.dst)
			}
			removeAll(staged, i)
			return Unspecified("commit", fmt.Errorf("rename %s: %w", s.dst, err))
		}
	}
	return nil
}

func stage(dst string, data []byte) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return "", err
	}
	out := stream.NewOutput(f)
	if _, err := io.Copy(out, bytes.NewReader(data)); err != nil {
		out.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func removeAll(staged []stagedFile, from int) {
	for _, s := range staged[from:] {
		os.Remove(s.tmp)
	}
}
