// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package stream provides composable decorators over byte streams used to move
// certificate payloads through the build pipeline without unbounded memory growth.
//
// Capabilities are expressed by the methods a type implements:
//   - [Input] can only be read (and seeked when the source allows it)
//   - [Output] can only be written (and seeked when the sink allows it)
//   - [Wrapper] forwards every operation under a per-instance lock and reports
//     [ErrUnsupportedOperation] for operations the inner value lacks
//   - [Buffer] keeps bounded copies of what was read and written for later inspection
//   - [Cache] starts in memory and spills to a temporary file past a size threshold
//
// Example usage reading a password protected slot into a cache:
//
//	in := stream.NewInput(f)
//	defer in.Close()
//
//	cache := stream.NewCache()
//	defer cache.Close()
//
//	if err := crypt.Default.Decrypt(ctx, cache, in, password); err != nil {
//		return err
//	}
//	if err := cache.Rewind(); err != nil {
//		return err
//	}
package stream
