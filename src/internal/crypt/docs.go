// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package crypt implements password based envelope encryption using the
// [CMS] EnvelopedData content type with a single password recipient ([RFC 3211]).
//
// The key encryption key is derived with PBKDF2 over the UTF-8 password using a
// 256 byte random salt and 1,000,000 iterations by default. A fresh content
// encryption key is wrapped under it with the RFC 3211 key wrap and the payload is
// encrypted with AES-128-CBC, AES-256-CBC or AES-256-GCM.
//
// [Engine.Encrypt] writes indefinite length BER so CBC payloads of any size stream
// through in fixed size chunks. [Engine.EncryptBytes] produces DER for small payloads.
// [Engine.Decrypt] accepts both forms.
//
// Only the CBC ciphers interoperate with OpenSSL and other CMS tooling. AES-GCM
// content is carried in EnvelopedData rather than the AuthEnvelopedData type of
// [RFC 5084], so such envelopes are readable by this package alone.
//
// Every decryption failure caused by the envelope or the password matches
// [ErrDecryption] via [errors.Is]. Cancellation is checked once per chunk.
//
// [CMS]: https://www.rfc-editor.org/rfc/rfc5652
// [RFC 3211]: https://www.rfc-editor.org/rfc/rfc3211
// [RFC 5084]: https://www.rfc-editor.org/rfc/rfc5084
package crypt
