// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package crypt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

const (
	tagInteger         = 0x02
	tagOctetString     = 0x04
	tagOID             = 0x06
	tagSequence        = 0x30
	tagSet             = 0x31
	tagContext0        = 0x80 // [0] primitive
	tagContext0Cons    = 0xA0 // [0] constructed
	tagContext3Cons    = 0xA3 // [3] constructed
	constructedBit     = 0x20
	indefiniteLength   = -1
	maxHeaderElemBytes = 1 << 20
)

var errMalformed = errors.New("malformed envelope")

// berHeader is the identifier and length octets of one BER element.
type berHeader struct {
	tag    byte
	length int64 // indefiniteLength for indefinite form
	size   int64 // number of header octets
}

func (h berHeader) isEOC() bool { return h.tag == 0 && h.length == 0 }

// berReader walks the envelope incrementally so the encrypted content never has
// to be held in memory.
type berReader struct{ r *bufio.Reader }

func newBERReader(r io.Reader) *berReader {
	if br, ok := r.(*bufio.Reader); ok {
		return &berReader{r: br}
	}
	return &berReader{r: bufio.NewReader(r)}
}

func (p *berReader) readHeader() (berHeader, error) {
	tag, err := p.r.ReadByte()
	if err != nil {
		return berHeader{}, truncated(err)
	}
	if tag&0x1f == 0x1f {
		return berHeader{}, fmt.Errorf("%w: %w: high tag numbers are not supported", ErrDecryption, errMalformed)
	}

	l, err := p.r.ReadByte()
	if err != nil {
		return berHeader{}, truncated(err)
	}

	h := berHeader{tag: tag, size: 2}
	switch {
	case l == 0x80:
		if tag&constructedBit == 0 {
			return berHeader{}, fmt.Errorf("%w: %w: indefinite length on primitive element", ErrDecryption, errMalformed)
		}
		h.length = indefiniteLength
	case l < 0x80:
		h.length = int64(l)
	default:
		n := int(l & 0x7f)
		if n > 7 {
			return berHeader{}, fmt.Errorf("%w: %w: length too large", ErrDecryption, errMalformed)
		}
		for range n {
			b, err := p.r.ReadByte()
			if err != nil {
				return berHeader{}, truncated(err)
			}
			h.length = h.length<<8 | int64(b)
		}
		h.size += int64(n)
	}
	return h, nil
}

// expect reads a header and checks its tag.
func (p *berReader) expect(tag byte) (berHeader, error) {
	h, err := p.readHeader()
	if err != nil {
		return h, err
	}
	if h.tag != tag {
		return h, fmt.Errorf("%w: %w: expected tag 0x%02x, found 0x%02x", ErrDecryption, errMalformed, tag, h.tag)
	}
	return h, nil
}

// body reads the contents of a definite length element. It is only used for the
// small structural parts of the envelope.
func (p *berReader) body(h berHeader) ([]byte, error) {
	if h.length == indefiniteLength {
		return nil, fmt.Errorf("%w: %w: unexpected indefinite length", ErrDecryption, errMalformed)
	}
	if h.length > maxHeaderElemBytes {
		return nil, fmt.Errorf("%w: %w: element of %d bytes is too large", ErrDecryption, errMalformed, h.length)
	}
	buf := make([]byte, h.length)
	if _, err := io.ReadFull(p.r, buf); err != nil {
		return nil, truncated(err)
	}
	return buf, nil
}

// element reads a complete definite length element with the given tag and
// returns its contents.
func (p *berReader) element(tag byte) ([]byte, error) {
	h, err := p.expect(tag)
	if err != nil {
		return nil, err
	}
	return p.body(h)
}

// skip discards an element of any form.
func (p *berReader) skip(h berHeader) error {
	if h.length != indefiniteLength {
		if _, err := p.r.Discard(int(h.length)); err != nil {
			return truncated(err)
		}
		return nil
	}
	for {
		sub, err := p.readHeader()
		if err != nil {
			return err
		}
		if sub.isEOC() {
			return nil
		}
		if err := p.skip(sub); err != nil {
			return err
		}
	}
}

// children returns the direct children of a constructed element as (tag, contents)
// pairs. Each child must use the definite length form.
func (p *berReader) children(h berHeader) ([]berChild, error) {
	var out []berChild
	if h.length != indefiniteLength {
		remaining := h.length
		for remaining > 0 {
			sub, err := p.readHeader()
			if err != nil {
				return nil, err
			}
			b, err := p.body(sub)
			if err != nil {
				return nil, err
			}
			remaining -= sub.size + sub.length
			out = append(out, berChild{tag: sub.tag, body: b})
		}
		if remaining != 0 {
			return nil, fmt.Errorf("%w: %w: child lengths overrun parent", ErrDecryption, errMalformed)
		}
		return out, nil
	}
	for {
		sub, err := p.readHeader()
		if err != nil {
			return nil, err
		}
		if sub.isEOC() {
			return out, nil
		}
		b, err := p.body(sub)
		if err != nil {
			return nil, err
		}
		out = append(out, berChild{tag: sub.tag, body: b})
	}
}

type berChild struct {
	tag  byte
	body []byte
}

// contentReader streams the octets of an [0] IMPLICIT OCTET STRING, which BER
// allows to be either primitive or constructed from OCTET STRING segments.
type contentReader struct {
	p          *berReader
	indefinite bool
	remaining  int64 // unread bytes of a definite constructed element
	cur        int64 // unread bytes of the current segment
	done       bool
}

func newContentReader(p *berReader, h berHeader) (*contentReader, error) {
	c := &contentReader{p: p}
	switch h.tag {
	case tagContext0:
		c.cur = h.length
		c.done = true
	case tagContext0Cons:
		c.indefinite = h.length == indefiniteLength
		c.remaining = h.length
	default:
		return nil, fmt.Errorf("%w: detached or missing encrypted content", ErrDecryption)
	}
	return c, nil
}

func (c *contentReader) Read(b []byte) (int, error) {
	for c.cur == 0 {
		if c.done {
			return 0, io.EOF
		}
		if !c.indefinite && c.remaining == 0 {
			c.done = true
			continue
		}

		h, err := c.p.readHeader()
		if err != nil {
			return 0, err
		}
		if h.isEOC() && c.indefinite {
			c.done = true
			continue
		}
		if h.tag != tagOctetString || h.length == indefiniteLength {
			return 0, fmt.Errorf("%w: %w: unexpected content segment 0x%02x", ErrDecryption, errMalformed, h.tag)
		}
		if !c.indefinite {
			c.remaining -= h.size + h.length
			if c.remaining < 0 {
				return 0, fmt.Errorf("%w: %w: content segment overruns its parent", ErrDecryption, errMalformed)
			}
		}
		c.cur = h.length
	}

	if int64(len(b)) > c.cur {
		b = b[:c.cur]
	}
	n, err := c.p.r.Read(b)
	c.cur -= int64(n)
	if err == io.EOF {
		if c.cur > 0 {
			return n, truncated(err)
		}
		err = nil
	}
	return n, err
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w: truncated data", ErrDecryption, errMalformed)
	}
	return err
}

// appendLength appends the DER length octets for n.
func appendLength(dst []byte, n int) []byte {
	if n < 0x80 {
		return append(dst, byte(n))
	}
	var tmp [8]byte
	i := len(tmp)
	for n > 0 {
		i--
		tmp[i] = byte(n)
		n >>= 8
	}
	dst = append(dst, 0x80|byte(len(tmp)-i))
	return append(dst, tmp[i:]...)
}
