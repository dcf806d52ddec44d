// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package stream

import (
	"errors"
	"io"
	"sync"
)

var (
	// ErrUnsupportedOperation indicates that the stream does not provide the requested capability.
	ErrUnsupportedOperation = errors.New("stream: unsupported operation")

	// ErrClosed indicates an operation on a stream that has already been closed.
	ErrClosed = errors.New("stream: stream is closed")

	// ErrNegativePosition indicates a seek that would move before the start of the stream.
	ErrNegativePosition = errors.New("stream: negative position")
)

// Stream is the full read, write and seek capability set.
type Stream interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
}

// Input is a read-only view over a reader. It deliberately has no Write method.
type Input struct {
	r      io.Reader
	closed bool
}

// NewInput returns a read-only view over r. Closing the view closes r when r is an [io.Closer].
func NewInput(r io.Reader) *Input { return &Input{r: r} }

// Read reads from the underlying reader.
func (s *Input) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	return s.r.Read(p)
}

// Seek seeks the underlying reader, or fails with [ErrUnsupportedOperation] when it cannot seek.
func (s *Input) Seek(offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	seeker, ok := s.r.(io.Seeker)
	if !ok {
		return 0, ErrUnsupportedOperation
	}
	return seeker.Seek(offset, whence)
}

// Close closes the underlying reader if it is closable. Subsequent calls are no-ops.
func (s *Input) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Output is a write-only view over a writer. It deliberately has no Read method.
type Output struct {
	w      io.Writer
	closed bool
}

// NewOutput returns a write-only view over w. Closing the view closes w when w is an [io.Closer].
func NewOutput(w io.Writer) *Output { return &Output{w: w} }

// Write writes to the underlying writer.
func (s *Output) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	return s.w.Write(p)
}

// Seek seeks the underlying writer, or fails with [ErrUnsupportedOperation] when it cannot seek.
func (s *Output) Seek(offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	seeker, ok := s.w.(io.Seeker)
	if !ok {
		return 0, ErrUnsupportedOperation
	}
	return seeker.Seek(offset, whence)
}

// Close closes the underlying writer if it is closable. Subsequent calls are no-ops.
func (s *Output) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Wrapper forwards all operations to an inner value under a single per-instance lock.
//
// The inner value may implement any subset of [io.Reader], [io.Writer], [io.Seeker]
// and [io.Closer]. Operations it does not implement fail with [ErrUnsupportedOperation],
// so wrapping an [Input] yields a stream whose writes always fail.
//
// Thread Safety: Safe for concurrent use. Wrappers over different inner values do not contend.
type Wrapper struct {
	mu        sync.Mutex
	inner     any
	leaveOpen bool
	closed    bool
}

// NewWrapper wraps inner. When leaveOpen is true, closing the wrapper leaves inner open,
// which allows several logical readers or writers to share one file.
func NewWrapper(inner any, leaveOpen bool) *Wrapper {
	return &Wrapper{inner: inner, leaveOpen: leaveOpen}
}

// Read forwards to the inner reader.
func (w *Wrapper) Read(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrClosed
	}
	r, ok := w.inner.(io.Reader)
	if !ok {
		return 0, ErrUnsupportedOperation
	}
	return r.Read(p)
}

// Write forwards to the inner writer.
func (w *Wrapper) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrClosed
	}
	wr, ok := w.inner.(io.Writer)
	if !ok {
		return 0, ErrUnsupportedOperation
	}
	return wr.Write(p)
}

// Seek forwards to the inner seeker.
func (w *Wrapper) Seek(offset int64, whence int) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrClosed
	}
	s, ok := w.inner.(io.Seeker)
	if !ok {
		return 0, ErrUnsupportedOperation
	}
	return s.Seek(offset, whence)
}

// Close marks the wrapper closed and closes the inner value unless the wrapper was
// created with leaveOpen. Subsequent calls are no-ops.
func (w *Wrapper) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.leaveOpen {
		return nil
	}
	if c, ok := w.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
