// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package gc

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// foreignBuffer satisfies Buffer without coming from the pool.
type foreignBuffer struct{ bytes.Buffer }

func (f *foreignBuffer) Set(p []byte)       { f.Buffer.Reset(); f.Buffer.Write(p) }
func (f *foreignBuffer) SetString(s string) { f.Buffer.Reset(); f.Buffer.WriteString(s) }

func TestBufferInterface(t *testing.T) {
	tests := []struct {
		name  string
		setup func(buf Buffer)
		check func(t *testing.T, buf Buffer)
	}{
		{
			name: "Write byte slice",
			setup: func(buf Buffer) {
				buf.Write([]byte("-----BEGIN CMS-----"))
			},
			check: func(t *testing.T, buf Buffer) {
				assert.Equal(t, "-----BEGIN CMS-----", buf.String())
				assert.Equal(t, 19, buf.Len())
			},
		},
		{
			name: "Mixed writes",
			setup: func(buf Buffer) {
				buf.WriteString("DER")
				buf.WriteByte(0x30)
				buf.Write([]byte{0x80})
			},
			check: func(t *testing.T, buf Buffer) {
				assert.Equal(t, []byte{'D', 'E', 'R', 0x30, 0x80}, buf.Bytes())
			},
		},
		{
			name: "Set replaces content",
			setup: func(buf Buffer) {
				buf.WriteString("initial")
				buf.Set([]byte("replaced"))
			},
			check: func(t *testing.T, buf Buffer) {
				assert.Equal(t, "replaced", buf.String())
			},
		},
		{
			name: "Reset clears buffer",
			setup: func(buf Buffer) {
				buf.WriteString("secret key material")
				buf.Reset()
			},
			check: func(t *testing.T, buf Buffer) {
				assert.Equal(t, 0, buf.Len(), "Reset() failed, buffer still contains data: %q", buf.Bytes())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := Default.Get()
			defer func() {
				buf.Reset()
				Default.Put(buf)
			}()

			tt.setup(buf)
			tt.check(t, buf)
		})
	}
}

func TestBufferReadFromWriteTo(t *testing.T) {
	buf := Default.Get()
	defer func() {
		buf.Reset()
		Default.Put(buf)
	}()

	payload := strings.Repeat("0123456789", 1024)
	n, err := buf.ReadFrom(strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)

	var out bytes.Buffer
	m, err := buf.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), m)
	assert.Equal(t, payload, out.String())
}

func TestPoolPutForeignBuffer(t *testing.T) {
	assert.NotPanics(t, func() { Default.Put(&foreignBuffer{}) })
}

func TestCollect(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "returns detached copy",
			testFunc: func(t *testing.T) {
				out, err := Collect(func(b Buffer) error {
					_, err := b.WriteString("certificate")
					return err
				})
				require.NoError(t, err)
				assert.Equal(t, []byte("certificate"), out)

				// A later borrower must not observe or clobber the collected bytes.
				other := Default.Get()
				other.WriteString("XXXXXXXXXXX")
				assert.Equal(t, []byte("certificate"), out)
				other.Reset()
				Default.Put(other)
			},
		},
		{
			name: "empty result is nil",
			testFunc: func(t *testing.T) {
				out, err := Collect(func(Buffer) error { return nil })
				require.NoError(t, err)
				assert.Nil(t, out)
			},
		},
		{
			name: "propagates error",
			testFunc: func(t *testing.T) {
				boom := errors.New("boom")
				out, err := Collect(func(b Buffer) error {
					b.WriteString("partial")
					return boom
				})
				assert.ErrorIs(t, err, boom)
				assert.Nil(t, out)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

// TestGoroutineCooking verifies the pool is safe for concurrent use.
func TestGoroutineCooking(t *testing.T) {
	const goroutines = 50
	const iterations = 200

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := range goroutines {
		go func(id int) {
			defer wg.Done()
			for range iterations {
				out, err := Collect(func(b Buffer) error {
					b.WriteString("goroutine #")
					return b.WriteByte(byte('0' + (id % 10)))
				})
				if assert.NoError(t, err) {
					assert.Len(t, out, 12)
				}
			}
		}(i)
	}

	wg.Wait()
}
