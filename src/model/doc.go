// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package model defines the declarative configuration that describes an X.509
// artifact build: the requested mode, subject name, validity, key pair,
// extensions, issuer material and the file slots that receive the results.
//
// A [Config] is plain data. [Config.Normalize] applies every default in one step
// and returns a new value, [Config.Validate] reports all field problems at once,
// and [Marshal] and [Unmarshal] translate property names at the JSON boundary
// according to a [NamingPolicy].
package model
