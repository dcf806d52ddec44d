// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package stream

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/helper/gc"
)

// DefaultCacheThreshold is the logical size above which a [Cache] moves to a temporary file.
const DefaultCacheThreshold = 1 << 20

// CacheOption configures a [Cache].
type CacheOption func(*Cache)

// WithThreshold sets the spill threshold in bytes. Non-positive values are ignored.
func WithThreshold(n int) CacheOption {
	return func(c *Cache) {
		if n > 0 {
			c.threshold = n
		}
	}
}

// WithTempDir sets the directory used for the spill file. The default is [os.TempDir].
func WithTempDir(dir string) CacheOption {
	return func(c *Cache) { c.dir = dir }
}

// Cache is a seekable read/write stream that lives in a pooled memory buffer until a
// write would grow it past the threshold. At that point the buffered bytes move to a
// temporary file, the file cursor is placed where the memory cursor was, the memory
// buffer is released and every later operation goes to the file.
//
// The temporary file belongs to the Cache alone and is removed by Close.
//
// Thread Safety: Safe for concurrent use.
type Cache struct {
	mu        sync.Mutex
	threshold int
	dir       string
	mem       gc.Buffer
	pos       int64
	file      *os.File
	closed    bool
}

// NewCache returns an empty memory-backed cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{threshold: DefaultCacheThreshold, mem: gc.Default.Get()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Write writes p at the current position, spilling to disk first if the write would
// push the logical size past the threshold.
func (c *Cache) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrClosed
	}

	if c.file == nil {
		size := int64(c.mem.Len())
		if end := c.pos + int64(len(p)); end > size {
			size = end
		}
		if size > int64(c.threshold) {
			if err := c.spill(); err != nil {
				return 0, err
			}
		}
	}

	if c.file != nil {
		return c.file.Write(p)
	}

	c.writeMem(p)
	return len(p), nil
}

// writeMem overwrites and extends the memory buffer at the current position.
func (c *Cache) writeMem(p []byte) {
	if gap := c.pos - int64(c.mem.Len()); gap > 0 {
		c.mem.Write(make([]byte, gap))
	}

	data := c.mem.Bytes()
	n := copy(data[c.pos:], p)
	if n < len(p) {
		c.mem.Write(p[n:])
	}
	c.pos += int64(len(p))
}

// spill moves the memory contents to a new temporary file.
func (c *Cache) spill() error {
	f, err := os.CreateTemp(c.dir, "x509-builder-cache-*")
	if err != nil {
		return fmt.Errorf("stream: create cache file: %w", err)
	}

	fail := func(err error) error {
		f.Close()
		os.Remove(f.Name())
		return err
	}

	if _, err := f.Write(c.mem.Bytes()); err != nil {
		return fail(fmt.Errorf("stream: spill cache: %w", err))
	}
	if _, err := f.Seek(c.pos, io.SeekStart); err != nil {
		return fail(fmt.Errorf("stream: spill cache: %w", err))
	}

	c.releaseMem()
	c.file = f
	return nil
}

func (c *Cache) releaseMem() {
	if c.mem == nil {
		return
	}
	c.mem.Reset()
	gc.Default.Put(c.mem)
	c.mem = nil
}

// Read reads from the current position.
func (c *Cache) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrClosed
	}
	if c.file != nil {
		return c.file.Read(p)
	}

	data := c.mem.Bytes()
	if c.pos >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[c.pos:])
	c.pos += int64(n)
	return n, nil
}

// Seek sets the position for the next Read or Write. Seeking past the end is allowed;
// a later write fills the gap with zero bytes.
func (c *Cache) Seek(offset int64, whence int) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrClosed
	}
	if c.file != nil {
		return c.file.Seek(offset, whence)
	}

	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = c.pos + offset
	case io.SeekEnd:
		abs = int64(c.mem.Len()) + offset
	default:
		return 0, fmt.Errorf("stream: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, ErrNegativePosition
	}
	c.pos = abs
	return abs, nil
}

// Rewind moves the position back to the start.
func (c *Cache) Rewind() error {
	_, err := c.Seek(0, io.SeekStart)
	return err
}

// Len returns the logical size of the cache.
func (c *Cache) Len() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return 0
	case c.file != nil:
		info, err := c.file.Stat()
		if err != nil {
			return 0
		}
		return info.Size()
	default:
		return int64(c.mem.Len())
	}
}

// IsFileBacked reports whether the cache has spilled to a temporary file.
func (c *Cache) IsFileBacked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.file != nil
}

// Close releases the memory buffer or closes and removes the temporary file.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.releaseMem()

	if c.file == nil {
		return nil
	}
	name := c.file.Name()
	err := c.file.Close()
	if rmErr := os.Remove(name); rmErr != nil && err == nil {
		err = rmErr
	}
	c.file = nil
	return err
}
