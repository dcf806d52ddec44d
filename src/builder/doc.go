// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package builder turns an artifact [model.Config] into keys, certificate signing
// requests, certificates, revocation lists and re-encoded artifacts.
//
// Each builder handles the modes of one [Kind]:
//
//   - [KeyPairBuilder]: PrivateKey, PublicKey and KeyPair
//   - [CSRBuilder]: CertificateSigningRequest
//   - [CertBuilder]: Certificate, self-signed or CA-issued
//   - [CRLBuilder]: Crl
//   - [TransformBuilder]: Transform
//
// A build normalizes and validates a clone of the configuration, loads or
// generates keys, signs, and finally encodes every output before committing any
// of them. Input slots protected by a password envelope are opened with the
// slot password, and output slots with a password are sealed in one. Files
// named by output slots are staged next to their destination and renamed into
// place together; on failure nothing is left behind.
//
// Progress is reported to an optional [Observer] as [Event] values carrying the
// build ID and the [Step] reached. Failures are returned as [*Error], whose
// [ErrorKind] can be mapped to a [Problem] with [ProblemOf].
//
// Builders hold no mutable state and may be shared; serializing builds is the
// job of the service package.
package builder
