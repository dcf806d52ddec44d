// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package gc provides reusable byte buffer pooling to reduce garbage collection overhead.
// It abstracts the [bytebufferpool] library behind a small interface so the stream
// adapters, the envelope encryption engine and the artifact codec can share scratch
// memory without depending on the pool implementation directly.
//
// Pooled buffers must never escape: callers either copy the bytes they need
// (see [Collect]) or reset and return the buffer before the data is used elsewhere.
//
// [bytebufferpool]: https://github.com/valyala/bytebufferpool
package gc
