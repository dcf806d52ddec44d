// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package gc

import (
	"io"

	"github.com/valyala/bytebufferpool"
)

// Buffer defines the interface for a reusable byte buffer.
// It abstracts the [bytebufferpool.ByteBuffer] type to avoid direct dependencies.
type Buffer interface {
	io.Writer
	io.WriterTo
	io.ReaderFrom
	WriteString(s string) (int, error)
	WriteByte(c byte) error
	Bytes() []byte
	String() string
	Len() int
	Set(p []byte)
	SetString(s string)
	Reset()
}

// Pool defines the interface for buffer pooling.
// It abstracts the [bytebufferpool.Pool] type to avoid direct dependencies.
//
// Pool implementations must be safe for concurrent use by multiple goroutines.
type Pool interface {
	Get() Buffer
	Put(b Buffer)
}

// pool wraps [bytebufferpool.Pool] to implement Pool interface.
type pool struct{ p *bytebufferpool.Pool }

// Get returns a buffer from the pool.
func (p *pool) Get() Buffer { return p.p.Get() }

// Put returns a buffer to the pool. Buffers not obtained from this pool are ignored.
func (p *pool) Put(b Buffer) {
	if buf, ok := b.(*bytebufferpool.ByteBuffer); ok {
		p.p.Put(buf)
	}
}

// Default is the default buffer pool shared by the stream, crypt and codec packages.
//
// Example usage when decoding a file slot:
//
//	buf := gc.Default.Get()
//	defer func() {
//		buf.Reset()         // Reset the buffer to prevent data leaks
//		gc.Default.Put(buf) // Return the buffer to the pool for reuse
//	}()
//
//	if _, err := buf.ReadFrom(in); err != nil {
//		return nil, fmt.Errorf("error reading slot: %w", err)
//	}
//
//	return codec.Decode(buf.Bytes())
var Default Pool = &pool{p: &bytebufferpool.Pool{}}

// Collect runs fn against a pooled buffer and returns a detached copy of what fn wrote.
// The pooled buffer is reset and returned to [Default] before Collect returns.
//
// Parameters:
//   - fn: Function that fills the buffer
//
// Returns:
//   - []byte: Copy of the buffer contents (nil when fn wrote nothing)
//   - error: The error returned by fn, if any
func Collect(fn func(b Buffer) error) ([]byte, error) {
	buf := Default.Get()
	defer func() {
		buf.Reset()
		Default.Put(buf)
	}()

	if err := fn(buf); err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, nil
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
