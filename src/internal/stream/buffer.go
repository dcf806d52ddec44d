// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package stream

import (
	"io"
	"sync"
)

// DefaultBufferLimit is the default size of each captured copy kept by [Buffer].
const DefaultBufferLimit = 1 << 20

// Buffer passes reads and writes through to an inner value while keeping bounded
// copies of the bytes that went by. Bytes past the limit still pass through but are
// not captured.
//
// Seeking forward pads the read copy with zero bytes so offsets in the copy stay
// aligned with the stream. A backward or end-relative seek, or a forward seek that
// fails, sets the sticky HasSeekError flag because the copy no longer mirrors the stream.
//
// Thread Safety: Safe for concurrent use.
type Buffer struct {
	mu      sync.Mutex
	inner   *Wrapper
	limit   int
	read    []byte
	written []byte
	seekErr bool
}

// NewBuffer wraps inner with capture buffers of at most limit bytes each.
// A non-positive limit selects [DefaultBufferLimit].
func NewBuffer(inner any, limit int, leaveOpen bool) *Buffer {
	if limit <= 0 {
		limit = DefaultBufferLimit
	}
	return &Buffer{inner: NewWrapper(inner, leaveOpen), limit: limit}
}

// Read reads from the inner stream and captures what was read.
func (b *Buffer) Read(p []byte) (int, error) {
	n, err := b.inner.Read(p)

	b.mu.Lock()
	b.read = capture(b.read, p[:n], b.limit)
	b.mu.Unlock()

	return n, err
}

// Write writes to the inner stream and captures what was written.
func (b *Buffer) Write(p []byte) (int, error) {
	n, err := b.inner.Write(p)

	b.mu.Lock()
	b.written = capture(b.written, p[:n], b.limit)
	b.mu.Unlock()

	return n, err
}

// Seek seeks the inner stream. See [Buffer] for how seeks affect the read copy.
func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur, err := b.inner.Seek(0, io.SeekCurrent)
	if err != nil {
		b.seekErr = true
		return 0, err
	}

	target := int64(-1)
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = cur + offset
	}

	pos, err := b.inner.Seek(offset, whence)
	if err != nil {
		b.seekErr = true
		return pos, err
	}

	switch {
	case target < 0 || pos < cur:
		b.seekErr = true
	case pos > cur:
		b.read = capture(b.read, make([]byte, pos-cur), b.limit)
	}

	return pos, nil
}

// Close closes the inner stream unless the buffer was created with leaveOpen.
// Captured bytes remain available after Close.
func (b *Buffer) Close() error { return b.inner.Close() }

// ReadBytes returns a copy of the captured read bytes.
func (b *Buffer) ReadBytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.read...)
}

// WrittenBytes returns a copy of the captured written bytes.
func (b *Buffer) WrittenBytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.written...)
}

// HasSeekError reports whether a seek has desynchronized the read copy from the stream.
func (b *Buffer) HasSeekError() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seekErr
}

// capture appends p to dst without letting dst grow past limit.
func capture(dst, p []byte, limit int) []byte {
	room := limit - len(dst)
	if room <= 0 {
		return dst
	}
	if len(p) > room {
		p = p[:room]
	}
	return append(dst, p...)
}
