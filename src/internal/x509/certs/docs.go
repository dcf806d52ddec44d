// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509certs provides encoding and decoding operations for [X.509] artifacts.
// It supports certificates, certificate requests, revocation lists, private and
// public keys, [PKCS7] bundles and [PKCS12] key stores in [PEM] and DER form, and
// renders human readable descriptions of them. The builders use it to read input
// slots and to serialize their results.
//
// [X.509]: https://grokipedia.com/page/X.509
// [PKCS7]: https://grokipedia.com/page/PKCS_7
// [PKCS12]: https://grokipedia.com/page/PKCS_12
// [PEM]: https://grokipedia.com/page/PEM#privacy-enhanced-mail
package x509certs
