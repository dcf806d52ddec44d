// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package crypt

import (
	"bytes"
	"encoding/pem"
)

// ArmorPEM wraps a DER or BER envelope in a PEM block labelled [PEMType].
func ArmorPEM(envelope []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: PEMType, Bytes: envelope})
}

// Dearmor returns the envelope inside a PEM block labelled [PEMType]. Data that is
// already binary and looks like an envelope is returned unchanged.
func Dearmor(data []byte) ([]byte, bool) {
	if IsEnvelope(data) {
		return data, true
	}
	block, _ := pem.Decode(bytes.TrimSpace(data))
	if block == nil || block.Type != PEMType || !IsEnvelope(block.Bytes) {
		return nil, false
	}
	return block.Bytes, true
}
