// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// x509-artifact-builder is a command-line tool for building key pairs,
// certificate signing requests, certificates and certificate revocation lists
// from a JSON or YAML configuration document.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/x509-artifact-builder/cmd/x509-artifact-builder@latest
//
// # Usage
//
//	x509-artifact-builder COMMAND [FLAGS]
//
// # Commands
//
//	build CONFIG_FILE  Build the artifacts a configuration describes and print it populated
//	print FILE...      Describe certificates, requests, revocation lists and keys
//	encrypt            Seal a payload in a password protected CMS envelope
//	decrypt            Open a password protected CMS envelope
//	schema             Print the JSON schema of configuration documents
//
// # Global Flags
//
//	    --naming-policy    Property naming of configuration documents (default: camelCase)
//	    --max-input        Largest input payload read, in bytes
//	    --cache-threshold  Payload size above which envelope input is spooled to disk
//	-v, --verbose          Log every build step
//
// # Environment Variables
//
//	X509_BUILDER_PASSWORD  Envelope password used when --password is not set
//
// # Examples
//
// Issue a self-signed certificate and keep the populated configuration:
//
//	x509-artifact-builder build cert.json -o cert.out.json
//
// Describe a certificate and a revocation list:
//
//	x509-artifact-builder print leaf.pem ca.crl
//
// Seal a key with AES-256-GCM and open it again:
//
//	X509_BUILDER_PASSWORD=secret x509-artifact-builder encrypt -c aes256-gcm -a -i key.der -o key.cms
//	X509_BUILDER_PASSWORD=secret x509-artifact-builder decrypt -i key.cms -o key.der
//
// Envelopes interoperate with OpenSSL:
//
//	openssl cms -decrypt -inform PEM -in key.cms -pwri_password secret
package main
